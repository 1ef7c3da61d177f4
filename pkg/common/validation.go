package common

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates a struct based on its validation tags, returning a
// field-to-message map for the validationErrors response shape, or nil when
// the struct is valid.
func ValidateStruct(s interface{}) map[string]interface{} {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]interface{}{"body": "is invalid"}
	}

	fields := make(map[string]interface{}, len(validationErrors))
	for _, e := range validationErrors {
		fields[strings.ToLower(e.Field())] = formatFieldError(e)
	}
	return fields
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return "is invalid"
	}
}
