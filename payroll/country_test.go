package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/compensation-engine/payroll"
)

func TestISODirectory_Resolve(t *testing.T) {
	dir := payroll.NewCountryDirectory()

	tests := []struct {
		code     string
		currency string
	}{
		{"IN", "INR"},
		{"us", "USD"},
		{"GB", "GBP"},
		{"DE", "EUR"},
		{"JP", "JPY"},
		{" br ", "BRL"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c, ok := dir.Resolve(tt.code)
			assert.True(t, ok)
			assert.Equal(t, payroll.NormalizeCountryCode(tt.code), c.Code)
			assert.Equal(t, tt.currency, c.CurrencyCode)
			assert.NotEmpty(t, c.Name)
		})
	}
}

func TestISODirectory_RejectsNonCountries(t *testing.T) {
	dir := payroll.NewCountryDirectory()
	for _, code := range []string{"", "X", "XX", "IND", "India", "12"} {
		_, ok := dir.Resolve(code)
		assert.False(t, ok, "code %q", code)
	}
}
