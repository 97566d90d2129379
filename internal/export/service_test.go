package export

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-parser/internal/entity"
	"github.com/joseph-ayodele/receipt-parser/internal/repository"
)

// mockReceiptRepository is a mock implementation of repository.ReceiptRepository
type mockReceiptRepository struct {
	repository.ReceiptRepository
	receipts []*entity.Receipt
	err      error
}

func (m *mockReceiptRepository) ListWithItems(_ context.Context, _ uuid.UUID, _, _ *time.Time) ([]*entity.Receipt, error) {
	return m.receipts, m.err
}

var _ = Describe("ReceiptsXLSX", func() {
	var (
		repo *mockReceiptRepository
		svc  *Service
		rec  *entity.Receipt
	)

	BeforeEach(func() {
		rec = &entity.Receipt{
			ID:          uuid.New(),
			StoreName:   "Market",
			ReceiptDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			TotalAmount: decimal.RequireFromString("7.50"),
			UploadedAt:  time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
			LineItems: []entity.LineItem{
				{ItemName: "Milk", CategoryName: "Dairy", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("1.50"), TotalLineAmount: decimal.RequireFromString("3.00")},
				{ItemName: "Apples", CategoryName: "Produce", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("4.50"), TotalLineAmount: decimal.RequireFromString("4.50")},
			},
		}
		repo = &mockReceiptRepository{receipts: []*entity.Receipt{rec}}
		svc = NewService(repo, nil)
	})

	open := func(data []byte) *excelize.File {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(f.Close)
		return f
	}

	It("should write one sheet of receipts and one of line items", func() {
		data, err := svc.ReceiptsXLSX(context.Background(), uuid.New(), entity.DateRange{})
		Expect(err).NotTo(HaveOccurred())

		f := open(data)
		Expect(f.GetSheetList()).To(Equal([]string{"Receipts", "LineItems"}))

		heads, err := f.GetRows("Receipts")
		Expect(err).NotTo(HaveOccurred())
		Expect(heads).To(HaveLen(2))
		Expect(heads[0][0]).To(Equal("Receipt ID"))
		Expect(heads[1][0]).To(Equal(rec.ID.String()))
		Expect(heads[1][1]).To(Equal("2024-05-01"))
		Expect(heads[1][2]).To(Equal("Market"))
		Expect(heads[1][3]).To(Equal("7.5"))
		Expect(heads[1][4]).To(Equal("2"))

		items, err := f.GetRows("LineItems")
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(3))
		Expect(items[1][3]).To(Equal("Milk"))
		Expect(items[1][4]).To(Equal("Dairy"))
		Expect(items[2][4]).To(Equal("Produce"))
		Expect(items[2][7]).To(Equal("4.5"))
	})

	It("should write headers only when nothing matches", func() {
		repo.receipts = nil
		data, err := svc.ReceiptsXLSX(context.Background(), uuid.New(), entity.DateRange{})
		Expect(err).NotTo(HaveOccurred())

		rows, err := open(data).GetRows("Receipts")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
	})

	It("should fail when the query fails", func() {
		repo.err = errors.New("timeout")
		_, err := svc.ReceiptsXLSX(context.Background(), uuid.New(), entity.DateRange{})
		Expect(err).To(MatchError(ContainSubstring("timeout")))
	})
})

var _ = Describe("truncate", func() {
	It("should shorten long names", func() {
		Expect(truncate("abcdef", 4)).To(Equal("abc…"))
		Expect(truncate("abc", 4)).To(Equal("abc"))
	})
})

var _ = Describe("ReceiptsXLSX over SQLite", func() {
	It("should export stored receipts with their categorized items", func() {
		ctx := context.Background()
		logger := slog.Default()
		client, err := repository.OpenSQLite(ctx, filepath.Join(GinkgoT().TempDir(), "receipts.db"), logger)
		Expect(err).NotTo(HaveOccurred())
		Expect(repository.Migrate(ctx, client, logger)).To(Succeed())
		DeferCleanup(func() { client.Close(logger) })

		categoryRepo := repository.NewCategoryRepository(client, logger)
		dairy, err := categoryRepo.FindOrCreate(ctx, "Dairy")
		Expect(err).NotTo(HaveOccurred())
		produce, err := categoryRepo.FindOrCreate(ctx, "Produce")
		Expect(err).NotTo(HaveOccurred())

		userID := uuid.New()
		rec := &entity.Receipt{
			ID:          uuid.New(),
			UserID:      userID,
			StoreName:   "Market",
			ReceiptDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			TotalAmount: decimal.RequireFromString("7.50"),
			UploadedAt:  time.Now().UTC(),
		}
		rec.LineItems = []entity.LineItem{
			{ID: uuid.New(), ReceiptID: rec.ID, ItemName: "Milk", CategoryID: dairy.ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("1.50"), TotalLineAmount: decimal.RequireFromString("3.00")},
			{ID: uuid.New(), ReceiptID: rec.ID, ItemName: "Apples", CategoryID: produce.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("4.50"), TotalLineAmount: decimal.RequireFromString("4.50")},
		}
		receiptRepo := repository.NewReceiptRepository(client, logger)
		Expect(receiptRepo.Create(ctx, rec)).To(Succeed())

		data, err := NewService(receiptRepo, logger).ReceiptsXLSX(ctx, userID, entity.DateRange{})
		Expect(err).NotTo(HaveOccurred())

		f, err := excelize.OpenReader(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(f.Close)

		heads, err := f.GetRows("Receipts")
		Expect(err).NotTo(HaveOccurred())
		Expect(heads).To(HaveLen(2))
		Expect(heads[1][0]).To(Equal(rec.ID.String()))

		items, err := f.GetRows("LineItems")
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(3))
		Expect(items[1][3]).To(Equal("Milk"))
		Expect(items[1][4]).To(Equal("Dairy"))
		Expect(items[2][3]).To(Equal("Apples"))
		Expect(items[2][4]).To(Equal("Produce"))
	})
})
