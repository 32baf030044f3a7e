package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cinema-ticketing/pkg/seatlabel"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// "seatlabel" accepts anything the seat codec can parse
	_ = v.RegisterValidation("seatlabel", func(fl validator.FieldLevel) bool {
		_, err := seatlabel.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidateStruct returns field -> message for every failed rule, and the
// error code the reply should carry. A request whose only faults are seat
// labels is INVALID_SEAT_FORMAT, anything else is VALIDATION.
func ValidateStruct(data any) (map[string]string, string) {
	err := validate.Struct(data)
	if err == nil {
		return nil, ""
	}

	errs := make(map[string]string)
	code := CodeInvalidSeatFormat
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			errs[fe.Namespace()] = getErrorMessage(fe)
			if fe.Tag() != "seatlabel" {
				code = CodeValidation
			}
		}
	}
	if len(errs) == 0 {
		code = CodeValidation
		errs["request"] = err.Error()
	}

	return errs, code
}

// ValidateRequest writes a 400 and returns false when data fails validation.
func ValidateRequest(w http.ResponseWriter, data any) bool {
	errs, code := ValidateStruct(data)
	if len(errs) == 0 {
		return true
	}
	ResponseError(w, http.StatusBadRequest, code, "Validation failed", nil, errs)
	return false
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Minimum is %s", err.Param())
	case "max":
		return fmt.Sprintf("Maximum is %s", err.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s", err.Param())
	case "oneof":
		options := strings.ReplaceAll(err.Param(), " ", ", ")
		return fmt.Sprintf("Must be one of: %s", options)
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "seatlabel":
		return "Must be row letters followed by a seat number, e.g. B12"
	default:
		return fmt.Sprintf("Invalid %s field", err.Field())
	}
}
