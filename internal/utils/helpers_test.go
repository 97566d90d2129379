package utils

import (
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
)

var _ = Describe("ParseDateRange", func() {
	It("should leave empty ends open", func() {
		r, err := ParseDateRange("", " ")
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Start).To(BeNil())
		Expect(r.End).To(BeNil())
	})

	It("should parse both ends as UTC midnight", func() {
		r, err := ParseDateRange("2024-05-01", "2024-05-31")
		Expect(err).NotTo(HaveOccurred())
		Expect(*r.Start).To(BeTemporally("==", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
		Expect(*r.End).To(BeTemporally("==", time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)))
	})

	It("should accept a single-day range", func() {
		_, err := ParseDateRange("2024-05-01", "2024-05-01")
		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("invalid ranges",
		func(from, to string) {
			_, err := ParseDateRange(from, to)
			Expect(err).To(MatchError(common.ErrInvalidInput))
		},
		Entry("bad start", "2024/05/01", ""),
		Entry("bad end", "", "31-05-2024"),
		Entry("start after end", "2024-05-02", "2024-05-01"),
	)
})

var _ = Describe("Bounds", func() {
	It("should turn an inclusive end into an exclusive bound", func() {
		start := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
		end := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

		from, until := Bounds(entity.DateRange{Start: &start, End: &end})
		Expect(*from).To(BeTemporally("==", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
		Expect(*until).To(BeTemporally("==", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	})

	It("should keep open ends open", func() {
		from, until := Bounds(entity.DateRange{})
		Expect(from).To(BeNil())
		Expect(until).To(BeNil())
	})
})

var _ = Describe("protobuf mapping", func() {
	It("should render amounts with two decimals", func() {
		s := ToPBTotalSpent(&entity.TotalSpent{Total: decimal.RequireFromString("12.5"), Count: 2, Currency: "TRY"})
		Expect(s.GetFields()["total"].GetStringValue()).To(Equal("12.50"))
		Expect(s.GetFields()["count"].GetNumberValue()).To(Equal(2.0))
	})

	It("should render receipts with their items", func() {
		rec := &entity.Receipt{
			ID:          uuid.New(),
			StoreName:   "Market",
			ReceiptDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			TotalAmount: decimal.RequireFromString("3"),
			LineItems: []entity.LineItem{
				{ItemName: "Milk", Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.RequireFromString("2"), TotalLineAmount: decimal.RequireFromString("3"), CategoryName: "Dairy"},
			},
		}
		s := ToPBReceipt(rec)
		Expect(s.GetFields()["receipt_date"].GetStringValue()).To(Equal("2024-05-01"))
		Expect(s.GetFields()["total_amount"].GetStringValue()).To(Equal("3.00"))

		items := s.GetFields()["line_items"].GetListValue().GetValues()
		Expect(items).To(HaveLen(1))
		Expect(items[0].GetStructValue().GetFields()["quantity"].GetStringValue()).To(Equal("1.5"))
		Expect(items[0].GetStructValue().GetFields()["category_name"].GetStringValue()).To(Equal("Dairy"))
	})

	It("should read missing fields as empty", func() {
		Expect(StringField(nil, "start_date")).To(BeEmpty())
		Expect(StringField(&structpb.Struct{}, "start_date")).To(BeEmpty())
	})
})
