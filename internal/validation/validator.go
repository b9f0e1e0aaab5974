package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	Validator = newValidator()

	mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)
	mpinPattern   = regexp.MustCompile(`^([0-9]{4}|[0-9]{6})$`)
)

// Error is an input-shape failure detected before any request is sent.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return ValidMobile(fl.Field().String())
	})
	_ = v.RegisterValidation("mpin", func(fl validator.FieldLevel) bool {
		return ValidMPIN(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func ValidMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

func ValidMPIN(s string) bool {
	return mpinPattern.MatchString(s)
}

func ValidateStruct(s interface{}) error {
	return Validator.Struct(s)
}

// Check validates s and converts the first failing field into an *Error with
// a message suitable for an alert.
func Check(s interface{}) error {
	err := ValidateStruct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &Error{Field: fe.Field(), Message: message(fe)}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "mobile":
		return "Mobile number must be exactly 10 digits"
	case "mpin":
		return "MPIN must be 4 or 6 digits"
	case "notblank", "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
