package handlers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStruct returns a field-level message for the first validation
// failure, or "" when the struct is valid.
func validateStruct(i interface{}) string {
	err := validate.Struct(i)
	if err == nil {
		return ""
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		return fmt.Sprintf("%s failed on '%s' validation", strings.ToLower(fe.Field()), fe.Tag())
	}
	return "invalid request"
}
