package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationError reports a field-level problem with a mutation input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\- ]{6,18}$`)
)

func validateCustomerInput(input CustomerInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if !emailPattern.MatchString(input.Email) {
		return &ValidationError{Field: "email", Message: "is not a valid email address"}
	}
	if input.Phone != "" && !phonePattern.MatchString(input.Phone) {
		return &ValidationError{Field: "phone", Message: "is not a valid phone number"}
	}
	return nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if input.Price.LessThan(decimal.Zero) {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if input.Stock != nil && *input.Stock < 0 {
		return &ValidationError{Field: "stock", Message: "must not be negative"}
	}
	return nil
}
