package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateCustomerInput(t *testing.T) {
	tests := []struct {
		name      string
		input     CustomerInput
		wantField string
	}{
		{"valid", CustomerInput{Name: "Alice", Email: "alice@example.com"}, ""},
		{"valid with phone", CustomerInput{Name: "Bob", Email: "bob@example.com", Phone: "+1234567890"}, ""},
		{"valid with dashed phone", CustomerInput{Name: "Carol", Email: "carol@example.com", Phone: "123-456-7890"}, ""},
		{"missing name", CustomerInput{Name: "  ", Email: "x@example.com"}, "name"},
		{"missing email", CustomerInput{Name: "Dave"}, "email"},
		{"malformed email", CustomerInput{Name: "Dave", Email: "not-an-email"}, "email"},
		{"email with spaces", CustomerInput{Name: "Dave", Email: "da ve@example.com"}, "email"},
		{"bad phone", CustomerInput{Name: "Eve", Email: "eve@example.com", Phone: "abc"}, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCustomerInput(tt.input)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			if assert.ErrorAs(t, err, &vErr) {
				assert.Equal(t, tt.wantField, vErr.Field)
			}
		})
	}
}

func TestValidateProductInput(t *testing.T) {
	negative := -1
	zero := 0

	tests := []struct {
		name      string
		input     ProductInput
		wantField string
	}{
		{"valid", ProductInput{Name: "Widget", Price: decimal.NewFromFloat(9.99)}, ""},
		{"zero price allowed", ProductInput{Name: "Sample", Price: decimal.Zero}, ""},
		{"explicit zero stock", ProductInput{Name: "Widget", Price: decimal.NewFromInt(1), Stock: &zero}, ""},
		{"missing name", ProductInput{Price: decimal.NewFromInt(1)}, "name"},
		{"negative price", ProductInput{Name: "Widget", Price: decimal.NewFromInt(-5)}, "price"},
		{"negative stock", ProductInput{Name: "Widget", Price: decimal.NewFromInt(1), Stock: &negative}, "stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProductInput(tt.input)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			if assert.ErrorAs(t, err, &vErr) {
				assert.Equal(t, tt.wantField, vErr.Field)
			}
		})
	}
}
