package llm

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
)

var _ = Describe("ParseAnalysis", func() {
	var (
		input    string
		analysis *Analysis
		err      error
	)

	JustBeforeEach(func() {
		analysis, err = ParseAnalysis(Sanitize(input), nil)
	})

	When("the reply is a fenced, well-formed analysis", func() {
		BeforeEach(func() {
			input = "```json\n" + `{"StoreName":"Market","ReceiptDate":"2024-05-01","TotalAmount":12.50,` +
				`"LineItems":[{"ItemName":"Milk","Quantity":2,"UnitPrice":3.00,"TotalLineAmount":6.00,"Category":"Dairy"},` +
				`{"ItemName":"Apples","Quantity":1,"UnitPrice":6.50,"TotalLineAmount":6.50,"Category":"Produce"}]}` + "\n```"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the header fields", func() {
			Expect(analysis.StoreName).To(Equal("Market"))
			Expect(analysis.ReceiptDate).To(Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
			Expect(analysis.TotalAmount.Valid).To(BeTrue())
			Expect(analysis.TotalAmount.Decimal.Equal(decimal.RequireFromString("12.50"))).To(BeTrue())
		})

		It("should keep line items in order with their labels", func() {
			Expect(analysis.LineItems).To(HaveLen(2))
			Expect(analysis.LineItems[0].ItemName).To(Equal("Milk"))
			Expect(analysis.LineItems[0].Quantity.Equal(decimal.NewFromInt(2))).To(BeTrue())
			Expect(*analysis.LineItems[0].Category).To(Equal("Dairy"))
			Expect(analysis.LineItems[1].TotalLineAmount.Equal(decimal.RequireFromString("6.5"))).To(BeTrue())
			Expect(analysis.Labels()).To(Equal([]string{"Dairy", "Produce"}))
		})

		It("should keep the sanitized text", func() {
			Expect(analysis.RawText).To(HavePrefix("{"))
			Expect(analysis.RawText).To(HaveSuffix("}"))
		})
	})

	When("keys use a different case", func() {
		BeforeEach(func() {
			input = `{"storename":"Kiosk","RECEIPTDATE":"2024-02-03T10:11:12Z","lineitems":[{"itemname":"Tea","quantity":"1","unitprice":"2.5","totallineamount":"2.5"}]}`
		})

		It("should match them to the canonical fields", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.StoreName).To(Equal("Kiosk"))
			Expect(analysis.ReceiptDate).To(Equal(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)))
			Expect(analysis.LineItems).To(HaveLen(1))
			Expect(analysis.LineItems[0].UnitPrice.Equal(decimal.RequireFromString("2.5"))).To(BeTrue())
		})

		It("should leave absent optional fields empty", func() {
			Expect(analysis.TotalAmount.Valid).To(BeFalse())
			Expect(analysis.LineItems[0].Category).To(BeNil())
		})
	})

	When("the category is blank or null", func() {
		BeforeEach(func() {
			input = `{"StoreName":"S","ReceiptDate":"2024-01-01","TotalAmount":null,"LineItems":[` +
				`{"ItemName":"A","Quantity":1,"UnitPrice":1,"TotalLineAmount":1,"Category":"  "},` +
				`{"ItemName":"B","Quantity":1,"UnitPrice":1,"TotalLineAmount":1,"Category":null}]}`
		})

		It("should treat it as absent", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.TotalAmount.Valid).To(BeFalse())
			Expect(analysis.LineItems[0].Category).To(BeNil())
			Expect(analysis.LineItems[1].Category).To(BeNil())
			Expect(analysis.Labels()).To(BeEmpty())
		})
	})

	When("the net line amount exceeds quantity times unit price", func() {
		BeforeEach(func() {
			input = `{"StoreName":"S","ReceiptDate":"2024-01-01","LineItems":[{"ItemName":"A","Quantity":1,"UnitPrice":1,"TotalLineAmount":5}]}`
		})

		It("should trust the amount as given", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(analysis.LineItems[0].TotalLineAmount.Equal(decimal.NewFromInt(5))).To(BeTrue())
		})
	})

	DescribeTable("malformed replies",
		func(reply string) {
			_, err := ParseAnalysis(Sanitize(reply), nil)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, common.ErrMalformedAnalysis)).To(BeTrue())
			Expect(common.KindOf(err)).To(Equal(common.KindMalformedAnalysis))
			var appErr *common.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(common.CodeMalformedAnalysis))
		},
		Entry("not json", "I could not read this receipt."),
		Entry("an array", `[{"StoreName":"S"}]`),
		Entry("missing store name", `{"ReceiptDate":"2024-01-01"}`),
		Entry("missing date", `{"StoreName":"S"}`),
		Entry("unparseable date", `{"StoreName":"S","ReceiptDate":"last tuesday"}`),
		Entry("negative quantity", `{"StoreName":"S","ReceiptDate":"2024-01-01","LineItems":[{"ItemName":"A","Quantity":-1,"UnitPrice":1,"TotalLineAmount":1}]}`),
		Entry("non-numeric price", `{"StoreName":"S","ReceiptDate":"2024-01-01","LineItems":[{"ItemName":"A","Quantity":1,"UnitPrice":"cheap","TotalLineAmount":1}]}`),
		Entry("trailing data", `{"StoreName":"S","ReceiptDate":"2024-01-01"} {"StoreName":"T"}`),
		Entry("empty reply", ""),
	)
})
