package common

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sampleRequest struct {
	ReceiptID string `validate:"required,uuid"`
	Day       string `validate:"omitempty,ymd"`
	Currency  string `validate:"omitempty,currency"`
}

var _ = Describe("Validator", func() {
	var v *Validator

	BeforeEach(func() {
		v = NewValidator()
	})

	It("should accept a valid request", func() {
		Expect(v.Struct(sampleRequest{
			ReceiptID: "6f1c1f3e-6c7a-4c1e-9d7e-1f2a3b4c5d6e",
			Day:       "2024-05-01",
			Currency:  "TRY",
		})).To(Succeed())
	})

	It("should list every failing field", func() {
		err := v.Struct(sampleRequest{ReceiptID: "42", Day: "01.05.2024", Currency: "lira"})
		Expect(err).To(MatchError(ErrValidation))
		Expect(err.Error()).To(ContainSubstring("must be a valid UUID"))
		Expect(err.Error()).To(ContainSubstring("must be a date in YYYY-MM-DD format"))
		Expect(err.Error()).To(ContainSubstring("must be 3 uppercase letters"))
	})

	It("should require a receipt id", func() {
		err := v.Struct(sampleRequest{})
		Expect(err).To(MatchError(ContainSubstring("is required")))
	})
})
