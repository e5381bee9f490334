/*
taxrate.go - Tax rate table

PURPOSE:
  Holds the withholding rates per country and answers "which rate is
  active for this country?".

LOOKUP POLICY:
  Entries are kept in insertion order. ActiveRateFor filters to active
  entries for the upper-cased country and returns the first one. Effective
  dates are not consulted.

TABLE INVARIANT:
  CreateTaxRate refuses a second active entry for a country, so in steady
  state first-match and only-match coincide. Tables loaded from older data
  may still hold duplicates; lookup stays first-match for those.

VALIDATION:
  ValidateTaxRate runs the go-playground/validator struct tags on
  TaxRateEntry (country required, two letters; rate 0..100), see
  validation.go.
*/
package payroll

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidateTaxRate checks an entry before it is stored. The returned error
// wraps ErrInvalidTaxRate and carries the failing fields as ValidationErrors.
func ValidateTaxRate(entry TaxRateEntry) error {
	entry.CountryCode = NormalizeCountryCode(entry.CountryCode)
	errs, err := validateStruct(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTaxRate, err)
	}
	if entry.EffectiveFrom != nil && entry.EffectiveTo != nil && entry.EffectiveTo.Before(*entry.EffectiveFrom) {
		errs.Add("effective_to", "must be on or after effective_from")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTaxRate, errs)
	}
	return nil
}

// NewTaxRateEntry builds an active entry with a fresh ID.
func NewTaxRateEntry(countryCode string, rate decimal.Decimal) TaxRateEntry {
	return TaxRateEntry{
		ID:             uuid.NewString(),
		CountryCode:    NormalizeCountryCode(countryCode),
		RatePercentage: rate,
		Active:         true,
	}
}

// =============================================================================
// IN-MEMORY TABLE
// =============================================================================

// TaxRateTable is an in-memory TaxRateStore.
type TaxRateTable struct {
	mu      sync.RWMutex
	entries []TaxRateEntry
}

// NewTaxRateTable creates a table holding entries in the given order.
// Entries are taken as-is; duplicates are allowed here and resolved first-match.
func NewTaxRateTable(entries ...TaxRateEntry) *TaxRateTable {
	t := &TaxRateTable{}
	for _, e := range entries {
		e.CountryCode = NormalizeCountryCode(e.CountryCode)
		t.entries = append(t.entries, e)
	}
	return t
}

func (t *TaxRateTable) ActiveRateFor(_ context.Context, countryCode string) (decimal.Decimal, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	code := NormalizeCountryCode(countryCode)
	for _, e := range t.entries {
		if e.Active && e.CountryCode == code {
			return e.RatePercentage, true, nil
		}
	}
	return decimal.Zero, false, nil
}

func (t *TaxRateTable) ListTaxRates(_ context.Context) ([]TaxRateEntry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]TaxRateEntry, len(t.entries))
	copy(out, t.entries)
	return out, nil
}

func (t *TaxRateTable) CreateTaxRate(_ context.Context, entry TaxRateEntry) error {
	if err := ValidateTaxRate(entry); err != nil {
		return err
	}
	entry.CountryCode = NormalizeCountryCode(entry.CountryCode)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if entry.Active {
		for _, e := range t.entries {
			if e.Active && e.CountryCode == entry.CountryCode {
				return &DuplicateActiveRateError{CountryCode: entry.CountryCode, ExistingID: e.ID}
			}
		}
	}
	t.entries = append(t.entries, entry)
	return nil
}

func (t *TaxRateTable) DeactivateTaxRate(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Active = false
			return nil
		}
	}
	return ErrTaxRateNotFound
}

// Reset drops every entry.
func (t *TaxRateTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

var _ TaxRateStore = (*TaxRateTable)(nil)
