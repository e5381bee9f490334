/*
store.go - Collaborator interfaces for the compensation engine

PURPOSE:
  Defines the narrow contracts between the compensation logic and the
  things it depends on: employee persistence, the tax rate table, and
  country reference data. Different implementations can use SQLite or
  in-memory storage.

KEY INTERFACES:
  EmployeeStore:    Employee persistence and filtered reads
  RateTable:        Active tax rate lookup (read side used by Calculator)
  TaxRateStore:     RateTable plus administrative writes
  CountryDirectory: Country code to currency and display name

SAVE CONTRACT:
  Save() receives a record whose derived fields (currency, net salary,
  deduction, tax rate percentage) were computed by the Service. The
  store persists them as-is; a subsequent read returns exactly what
  was saved. Read-modify-write of a single record is serialized by the
  store.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for testing

SEE ALSO:
  - service.go: Uses EmployeeStore and TaxRateStore
  - calculator.go: Uses RateTable
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// EmployeeStore handles persistence of employee records.
type EmployeeStore interface {
	// All returns every employee in insertion order.
	All(ctx context.Context) ([]EmployeeRecord, error)

	// Page returns up to limit employees starting at offset, in insertion order.
	Page(ctx context.Context, offset, limit int) ([]EmployeeRecord, error)

	// Count returns the number of stored employees.
	Count(ctx context.Context) (int, error)

	// FindByID returns ErrEmployeeNotFound when the ID is unknown.
	FindByID(ctx context.Context, id string) (EmployeeRecord, error)

	// FilterByCountry matches the upper-case country code exactly.
	FilterByCountry(ctx context.Context, countryCode string) ([]EmployeeRecord, error)

	// FilterByJobTitle matches the whole job title, ignoring case.
	FilterByJobTitle(ctx context.Context, jobTitle string) ([]EmployeeRecord, error)

	// Save inserts or replaces the record with the same ID.
	Save(ctx context.Context, rec EmployeeRecord) error

	// Update loads the record, passes it to fn and saves the result, holding
	// the store's write lock throughout. If fn returns an error nothing is
	// saved and that error is returned.
	Update(ctx context.Context, id string, fn func(*EmployeeRecord) error) (EmployeeRecord, error)

	// Delete returns ErrEmployeeNotFound when the ID is unknown.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// TAX RATES
// =============================================================================

// RateTable answers the calculator's single question.
type RateTable interface {
	// ActiveRateFor returns the first active rate for the country in the
	// table's natural order. ok is false when the country has none.
	ActiveRateFor(ctx context.Context, countryCode string) (rate decimal.Decimal, ok bool, err error)
}

// TaxRateStore adds administrative operations to RateTable.
type TaxRateStore interface {
	RateTable

	// ListTaxRates returns every entry, active or not, in natural order.
	ListTaxRates(ctx context.Context) ([]TaxRateEntry, error)

	// CreateTaxRate persists a validated entry. It returns a
	// *DuplicateActiveRateError when the entry is active and the country
	// already has an active entry.
	CreateTaxRate(ctx context.Context, entry TaxRateEntry) error

	// DeactivateTaxRate clears the active flag. Returns ErrTaxRateNotFound
	// when the ID is unknown.
	DeactivateTaxRate(ctx context.Context, id string) error
}

// =============================================================================
// COUNTRY REFERENCE DATA
// =============================================================================

// Country is the reference data the engine needs for a country code.
// CurrencyCode is empty when the country has no currency of its own.
type Country struct {
	Code         string
	Name         string
	CurrencyCode string
}

// CountryDirectory resolves ISO 3166 alpha-2 codes.
type CountryDirectory interface {
	// Resolve returns ok=false for anything that is not a known country.
	Resolve(code string) (Country, bool)
}
