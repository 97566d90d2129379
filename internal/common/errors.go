package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	ErrExternalService   = errors.New("external analysis service failed")
	ErrMalformedAnalysis = errors.New("malformed analysis")
	ErrCategoryConflict  = errors.New("category already exists")
	ErrNoData            = errors.New("no data")
)

// Error codes carried by AppError.
const (
	CodeExternalService   = "EXTERNAL_SERVICE"
	CodeMalformedAnalysis = "MALFORMED_ANALYSIS"
	CodeCategoryConflict  = "CATEGORY_CONFLICT"
	CodeNotFound          = "NOT_FOUND"
	CodeNoData            = "NO_DATA"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeDatabase          = "DATABASE_ERROR"
	CodeConfig            = "CONFIG_ERROR"
)

// FailureKind classifies why an operation failed.
type FailureKind string

const (
	KindNone              FailureKind = ""
	KindExternalService   FailureKind = "ExternalServiceError"
	KindMalformedAnalysis FailureKind = "MalformedAnalysis"
	KindCategoryConflict  FailureKind = "CategoryConflict"
	KindNotFound          FailureKind = "NotFound"
	KindInvalidInput      FailureKind = "InvalidInput"
	KindInternal          FailureKind = "Internal"
)

// KindOf maps an error chain to its FailureKind.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrExternalService):
		return KindExternalService
	case errors.Is(err, ErrMalformedAnalysis):
		return KindMalformedAnalysis
	case errors.Is(err, ErrCategoryConflict):
		return KindCategoryConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoData):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ExternalServiceError reports a failed call to the analysis service.
func ExternalServiceError(message string, cause error) *AppError {
	return NewAppError(CodeExternalService, message, errors.Join(ErrExternalService, cause))
}

// MalformedAnalysisError reports a reply that does not decode into an analysis.
func MalformedAnalysisError(message string, cause error) *AppError {
	return NewAppError(CodeMalformedAnalysis, message, errors.Join(ErrMalformedAnalysis, cause))
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func UnauthenticatedError(message string) error {
	return status.Error(codes.Unauthenticated, message)
}

// ToStatus converts an application error into a gRPC status error.
// Ownership failures and missing rows both surface as NotFound.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNoData):
		return NotFoundError("no data")
	case errors.Is(err, ErrNotFound):
		return NotFoundError("not found")
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return InvalidArgumentError(err.Error())
	case errors.Is(err, ErrUnauthorized):
		return UnauthenticatedError("unauthenticated")
	case errors.Is(err, ErrExternalService):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrMalformedAnalysis):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return InternalError("internal error")
	}
}
