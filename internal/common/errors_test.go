package common

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ = DescribeTable("KindOf",
	func(err error, kind FailureKind) {
		Expect(KindOf(err)).To(Equal(kind))
	},
	Entry("nil", nil, KindNone),
	Entry("external service", ExternalServiceError("status 503", nil), KindExternalService),
	Entry("malformed analysis", MalformedAnalysisError("decode", errors.New("eof")), KindMalformedAnalysis),
	Entry("wrapped not found", fmt.Errorf("get: %w", NewAppError(CodeNotFound, "receipt", ErrNotFound)), KindNotFound),
	Entry("no data", NewAppError(CodeNoData, "empty", ErrNoData), KindNotFound),
	Entry("validation", NewAppError(CodeInvalidInput, "bad", ErrValidation), KindInvalidInput),
	Entry("category conflict", NewAppError(CodeCategoryConflict, "Dairy", ErrCategoryConflict), KindCategoryConflict),
	Entry("anything else", errors.New("boom"), KindInternal),
)

var _ = DescribeTable("ToStatus",
	func(err error, code codes.Code) {
		Expect(status.Code(ToStatus(err))).To(Equal(code))
	},
	Entry("not found", NewAppError(CodeNotFound, "receipt", ErrNotFound), codes.NotFound),
	Entry("no data", NewAppError(CodeNoData, "empty", ErrNoData), codes.NotFound),
	Entry("invalid input", NewAppError(CodeInvalidInput, "date", ErrInvalidInput), codes.InvalidArgument),
	Entry("validation", NewAppError(CodeInvalidInput, "id", ErrValidation), codes.InvalidArgument),
	Entry("unauthorized", fmt.Errorf("%w: expired", ErrUnauthorized), codes.Unauthenticated),
	Entry("external service", ExternalServiceError("status 503", nil), codes.Unavailable),
	Entry("malformed analysis", MalformedAnalysisError("decode", nil), codes.FailedPrecondition),
	Entry("existing status", status.Error(codes.PermissionDenied, "no"), codes.PermissionDenied),
	Entry("database", NewAppError(CodeDatabase, "store", ErrDatabase), codes.Internal),
)

var _ = Describe("AppError", func() {
	It("should include code, message and cause", func() {
		err := NewAppError(CodeNotFound, "receipt 42", ErrNotFound)
		Expect(err.Error()).To(Equal("NOT_FOUND: receipt 42: resource not found"))
		Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
	})

	It("should hide internal details behind Internal", func() {
		st, _ := status.FromError(ToStatus(errors.New("pq: password authentication failed")))
		Expect(st.Message()).To(Equal("internal error"))
	})

	It("should leave nil alone", func() {
		Expect(ToStatus(nil)).To(BeNil())
		Expect(WrapError(nil, "ctx")).To(BeNil())
	})
})
