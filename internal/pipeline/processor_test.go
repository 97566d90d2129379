package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/categories"
	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
	"github.com/joseph-ayodele/receipt-parser/internal/llm"
	"github.com/joseph-ayodele/receipt-parser/internal/repository"
)

const marketReply = "```json\n" + `{
  "StoreName": "Market",
  "ReceiptDate": "2024-05-01",
  "TotalAmount": 7.50,
  "LineItems": [
    {"ItemName": "Milk", "Quantity": 2, "UnitPrice": 1.50, "TotalLineAmount": 3.00, "Category": "Dairy"},
    {"ItemName": "Yogurt", "Quantity": 1, "UnitPrice": 1.50, "TotalLineAmount": 1.50, "Category": "dairy"},
    {"ItemName": "Apples", "Quantity": 1, "UnitPrice": 3.00, "TotalLineAmount": 3.00, "Category": "Produce"}
  ]
}` + "\n```"

// mockAnalyzer is a mock implementation of llm.Analyzer
type mockAnalyzer struct {
	reply    string
	err      error
	calls    int
	mimeType string
}

func (m *mockAnalyzer) Analyze(_ context.Context, _ []byte, mimeType string) (*llm.Analysis, error) {
	m.calls++
	m.mimeType = mimeType
	if m.err != nil {
		return nil, m.err
	}
	return llm.ParseAnalysis(llm.Sanitize(m.reply), nil)
}

// failingReceiptRepository fails every write.
type failingReceiptRepository struct {
	repository.ReceiptRepository
	err error
}

func (f *failingReceiptRepository) Create(_ context.Context, _ *entity.Receipt) error {
	return f.err
}

var _ = Describe("Processor", func() {
	var (
		ctx          context.Context
		client       *repository.Client
		analyzer     *mockAnalyzer
		categoryRepo repository.CategoryRepository
		receipts     repository.ReceiptRepository
		reports      repository.ReportRepository
		processor    *Processor
		userID       uuid.UUID
		image        []byte
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.Default()

		var err error
		client, err = repository.OpenSQLite(ctx, filepath.Join(GinkgoT().TempDir(), "pipeline.db"), logger)
		Expect(err).NotTo(HaveOccurred())
		Expect(repository.Migrate(ctx, client, logger)).To(Succeed())
		DeferCleanup(func() { client.Close(logger) })

		analyzer = &mockAnalyzer{reply: marketReply}
		categoryRepo = repository.NewCategoryRepository(client, logger)
		receipts = repository.NewReceiptRepository(client, logger)
		reports = repository.NewReportRepository(client, logger)
		userID = uuid.New()
		image = []byte("\xff\xd8\xff\xe0 fake jpeg")
	})

	JustBeforeEach(func() {
		processor = NewProcessor(nil, analyzer, categories.NewResolver(categoryRepo, nil), receipts, Options{
			MaxImageBytes:  1024,
			ProcessTimeout: time.Minute,
		})
	})

	When("the analysis succeeds", func() {
		It("should store the receipt with resolved categories", func() {
			res, err := processor.Upload(ctx, userID, image, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Succeeded()).To(BeTrue())
			Expect(res.Failure).To(BeNil())
			Expect(res.ReceiptID).To(Equal(res.Receipt.ID))

			stored, err := receipts.Get(ctx, userID, res.ReceiptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.StoreName).To(Equal("Market"))
			Expect(stored.TotalAmount.StringFixed(2)).To(Equal("7.50"))
			Expect(stored.LineItems).To(HaveLen(3))
			Expect(stored.LineItems[0].CategoryID).To(Equal(stored.LineItems[1].CategoryID))
			Expect(stored.LineItems[2].CategoryName).To(Equal("Produce"))

			summary, err := reports.CategorySummary(ctx, userID, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary).To(HaveLen(2))
			Expect(summary[0].CategoryName).To(Equal("Dairy"))
			Expect(summary[0].ItemCount).To(Equal(int64(2)))
			Expect(summary[0].TotalSpent.StringFixed(2)).To(Equal("4.50"))
			Expect(summary[1].CategoryName).To(Equal("Produce"))
		})

		It("should not create the fallback category when every label resolves", func() {
			_, err := processor.Upload(ctx, userID, image, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())

			all, err := categoryRepo.ListCategories(ctx)
			Expect(err).NotTo(HaveOccurred())
			names := make([]string, 0, len(all))
			for _, c := range all {
				names = append(names, c.Name)
			}
			Expect(names).To(ConsistOf("Dairy", "Produce"))
		})

		It("should reuse categories across uploads", func() {
			_, err := processor.Upload(ctx, userID, image, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			_, err = processor.Upload(ctx, userID, image, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())

			all, err := categoryRepo.ListCategories(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})

		It("should sniff the MIME type when none is given", func() {
			_, err := processor.Upload(ctx, userID, image, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(analyzer.mimeType).To(Equal("image/jpeg"))
		})
	})

	When("a line item has no category", func() {
		BeforeEach(func() {
			analyzer.reply = `{"StoreName":"Kiosk","ReceiptDate":"2024-05-02","LineItems":[{"ItemName":"Gum","Quantity":1,"UnitPrice":1,"TotalLineAmount":1,"Category":null}]}`
		})

		It("should bind it to the default category", func() {
			res, err := processor.Upload(ctx, userID, image, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Receipt.LineItems[0].CategoryName).To(Equal(constants.DefaultCategory))
			Expect(res.Receipt.TotalAmount.IsZero()).To(BeTrue())
		})
	})

	DescribeTable("rejected input",
		func(user func() uuid.UUID, img []byte) {
			res, err := processor.Upload(ctx, user(), img, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Succeeded()).To(BeFalse())
			Expect(res.Failure.Kind).To(Equal(common.KindInvalidInput))
			Expect(analyzer.calls).To(BeZero())
		},
		Entry("empty image", func() uuid.UUID { return uuid.New() }, []byte{}),
		Entry("oversize image", func() uuid.UUID { return uuid.New() }, make([]byte, 2048)),
		Entry("missing user", func() uuid.UUID { return uuid.Nil }, []byte("img")),
	)

	DescribeTable("analysis failures",
		func(analyzeErr error, kind common.FailureKind) {
			analyzer.err = analyzeErr

			res, err := processor.Upload(ctx, userID, image, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Succeeded()).To(BeFalse())
			Expect(res.Receipt).To(BeNil())
			Expect(res.Failure.Kind).To(Equal(kind))

			list, err := receipts.ListReceipts(ctx, userID, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		},
		Entry("service unavailable", common.ExternalServiceError("status 503 after 4 attempts", nil), common.KindExternalService),
		Entry("unusable reply", common.MalformedAnalysisError("decode reply", nil), common.KindMalformedAnalysis),
	)

	When("the reply is not JSON", func() {
		BeforeEach(func() {
			analyzer.reply = "I could not read this receipt."
		})

		It("should fail as a malformed analysis", func() {
			res, err := processor.Upload(ctx, userID, image, "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Failure.Kind).To(Equal(common.KindMalformedAnalysis))
		})
	})

	When("storing the receipt fails", func() {
		BeforeEach(func() {
			receipts = &failingReceiptRepository{err: errors.New("disk full")}
		})

		It("should return a database error", func() {
			res, err := processor.Upload(ctx, userID, image, "image/jpeg")
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(common.ErrDatabase))
			Expect(err).To(MatchError(ContainSubstring("disk full")))

			var appErr *common.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(common.CodeDatabase))
		})
	})
})

var _ = Describe("DetectMimeType", func() {
	It("should recognise PNG", func() {
		Expect(DetectMimeType([]byte("\x89PNG\r\n\x1a\n0000"))).To(Equal("image/png"))
	})

	It("should assume JPEG for unknown bytes", func() {
		Expect(DetectMimeType([]byte("hello"))).To(Equal("image/jpeg"))
	})
})

var _ = Describe("Processor end to end", func() {
	var (
		ctx          context.Context
		analyzer     *mockAnalyzer
		categoryRepo repository.CategoryRepository
		receipts     repository.ReceiptRepository
		reports      repository.ReportRepository
		processor    *Processor
		userID       uuid.UUID
	)

	reply := func(store, date, amount, item, category string) string {
		return "```json\n" + `{"StoreName":"` + store + `","ReceiptDate":"` + date + `","TotalAmount":` + amount +
			`,"LineItems":[{"ItemName":"` + item + `","Quantity":1,"UnitPrice":` + amount +
			`,"TotalLineAmount":` + amount + `,"Category":"` + category + `"}]}` + "\n```"
	}

	upload := func(body string) *UploadResult {
		analyzer.reply = body
		res, err := processor.Upload(ctx, userID, []byte("\xff\xd8\xff\xe0 receipt"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Succeeded()).To(BeTrue())
		return res
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.Default()

		client, err := repository.OpenSQLite(ctx, filepath.Join(GinkgoT().TempDir(), "e2e.db"), logger)
		Expect(err).NotTo(HaveOccurred())
		Expect(repository.Migrate(ctx, client, logger)).To(Succeed())
		DeferCleanup(func() { client.Close(logger) })

		analyzer = &mockAnalyzer{}
		categoryRepo = repository.NewCategoryRepository(client, logger)
		receipts = repository.NewReceiptRepository(client, logger)
		reports = repository.NewReportRepository(client, logger)
		processor = NewProcessor(logger, analyzer, categories.NewResolver(categoryRepo, logger), receipts, Options{})
		userID = uuid.New()
	})

	It("should store a Market receipt under a new Dairy category", func() {
		res := upload(reply("Market", "2024-01-05", "42.50", "Milk", "Dairy"))

		stored, err := receipts.Get(ctx, userID, res.ReceiptID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.StoreName).To(Equal("Market"))
		Expect(stored.ReceiptDate.UTC().Format("2006-01-02")).To(Equal("2024-01-05"))
		Expect(stored.TotalAmount.StringFixed(2)).To(Equal("42.50"))
		Expect(stored.LineItems).To(HaveLen(1))
		Expect(stored.LineItems[0].CategoryName).To(Equal("Dairy"))
	})

	It("should reuse Dairy for a differently cased label", func() {
		first := upload(reply("Market", "2024-01-05", "42.50", "Milk", "Dairy"))
		second := upload(reply("Corner", "2024-01-06", "3.00", "Butter", "dairy"))

		Expect(second.Receipt.LineItems[0].CategoryID).To(Equal(first.Receipt.LineItems[0].CategoryID))
		all, err := categoryRepo.ListCategories(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
	})

	It("should summarize Dairy before Produce", func() {
		upload(reply("Market", "2024-01-05", "42.50", "Milk", "Dairy"))
		upload(reply("Greengrocer", "2024-01-05", "10.00", "Apples", "Produce"))

		summary, err := reports.CategorySummary(ctx, userID, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(HaveLen(2))
		Expect(summary[0].CategoryName).To(Equal("Dairy"))
		Expect(summary[0].ItemCount).To(Equal(int64(1)))
		Expect(summary[0].TotalSpent.StringFixed(2)).To(Equal("42.50"))
		Expect(summary[1].CategoryName).To(Equal("Produce"))
		Expect(summary[1].TotalSpent.StringFixed(2)).To(Equal("10.00"))
	})

	It("should include exactly the receipts of a single-day window", func() {
		upload(reply("Market", "2024-01-05", "42.50", "Milk", "Dairy"))
		upload(reply("Market", "2024-01-06", "10.00", "Apples", "Produce"))

		day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		next := day.AddDate(0, 0, 1)
		summary, err := reports.CategorySummary(ctx, userID, &day, &next)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(HaveLen(1))
		Expect(summary[0].CategoryName).To(Equal("Dairy"))
	})
})
