package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/compensation-engine/payroll"
)

func TestValidateTaxRate(t *testing.T) {
	day := func(s string) *time.Time {
		v, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return &v
	}

	tests := []struct {
		name   string
		entry  payroll.TaxRateEntry
		fields []string
	}{
		{"valid", payroll.TaxRateEntry{CountryCode: "in", RatePercentage: d("10")}, nil},
		{"zero rate allowed", payroll.TaxRateEntry{CountryCode: "SG", RatePercentage: d("0")}, nil},
		{"hundred allowed", payroll.TaxRateEntry{CountryCode: "SG", RatePercentage: d("100")}, nil},
		{"blank country", payroll.TaxRateEntry{RatePercentage: d("10")}, []string{"country_code"}},
		{"three letters", payroll.TaxRateEntry{CountryCode: "IND", RatePercentage: d("10")}, []string{"country_code"}},
		{"digits", payroll.TaxRateEntry{CountryCode: "1N", RatePercentage: d("10")}, []string{"country_code"}},
		{"negative", payroll.TaxRateEntry{CountryCode: "IN", RatePercentage: d("-0.5")}, []string{"rate_percentage"}},
		{"over hundred", payroll.TaxRateEntry{CountryCode: "IN", RatePercentage: d("100.01")}, []string{"rate_percentage"}},
		{
			"dates out of order",
			payroll.TaxRateEntry{CountryCode: "IN", RatePercentage: d("10"), EffectiveFrom: day("2025-06-01"), EffectiveTo: day("2025-01-01")},
			[]string{"effective_to"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := payroll.ValidateTaxRate(tt.entry)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, payroll.ErrInvalidTaxRate)

			var verrs payroll.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			for _, f := range tt.fields {
				assert.True(t, verrs.Has(f), "expected violation on %s, got %v", f, verrs.Messages())
			}
		})
	}
}

func TestTaxRateTable_RejectsSecondActiveRate(t *testing.T) {
	// GIVEN: India has an active 10% rate
	// WHEN: Adding another active rate for India
	// THEN: DuplicateActiveRateError names the existing entry

	ctx := context.Background()
	table := payroll.NewTaxRateTable()
	first := payroll.NewTaxRateEntry("IN", d("10"))
	require.NoError(t, table.CreateTaxRate(ctx, first))

	err := table.CreateTaxRate(ctx, payroll.NewTaxRateEntry("in", d("11")))

	var dup *payroll.DuplicateActiveRateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "IN", dup.CountryCode)
	assert.Equal(t, first.ID, dup.ExistingID)
	assert.ErrorIs(t, err, payroll.ErrDuplicateActiveRate)
	assert.True(t, payroll.IsClientError(err))
}

func TestTaxRateTable_DeactivateThenReplace(t *testing.T) {
	ctx := context.Background()
	table := payroll.NewTaxRateTable()
	old := payroll.NewTaxRateEntry("US", d("12"))
	require.NoError(t, table.CreateTaxRate(ctx, old))

	require.NoError(t, table.DeactivateTaxRate(ctx, old.ID))
	_, ok, err := table.ActiveRateFor(ctx, "US")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, table.CreateTaxRate(ctx, payroll.NewTaxRateEntry("US", d("13"))))
	rate, ok, err := table.ActiveRateFor(ctx, "us")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, rate.Equal(d("13")))

	entries, err := table.ListTaxRates(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestTaxRateTable_InactiveDuplicatesAllowed(t *testing.T) {
	ctx := context.Background()
	table := payroll.NewTaxRateTable()
	require.NoError(t, table.CreateTaxRate(ctx, payroll.NewTaxRateEntry("GB", d("20"))))

	inactive := payroll.NewTaxRateEntry("GB", d("40"))
	inactive.Active = false
	assert.NoError(t, table.CreateTaxRate(ctx, inactive))
}

func TestTaxRateTable_DeactivateUnknown(t *testing.T) {
	err := payroll.NewTaxRateTable().DeactivateTaxRate(context.Background(), "missing")
	assert.ErrorIs(t, err, payroll.ErrTaxRateNotFound)
	assert.True(t, payroll.IsNotFound(err))
}
