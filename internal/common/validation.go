package common

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Validator wraps a validator.Validate with the project's custom tags:
// ymd (YYYY-MM-DD) and currency (ISO 4217).
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyRegex.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates s by its `validate` tags. Failures come back as an AppError
// wrapping ErrValidation with one message per offending field.
func (v *Validator) Struct(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewAppError(CodeInvalidInput, err.Error(), ErrValidation)
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, ValidationError{
			Field:   fe.Namespace(),
			Value:   fe.Value(),
			Message: ruleMessage(fe),
		}.Error())
	}
	return NewAppError(CodeInvalidInput, strings.Join(messages, "; "), ErrValidation)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "ymd":
		return "must be a date in YYYY-MM-DD format"
	case "currency":
		return "must be 3 uppercase letters (ISO 4217)"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed rule " + fe.Tag()
	}
}
