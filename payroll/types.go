/*
Package payroll provides the compensation engine.

PURPOSE:
  This package holds the domain types and algorithms for employee
  compensation: deriving a currency from a country, computing tax
  deductions and net pay from a gross salary, and aggregating salary
  statistics across the employee population.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeRecord: An employee with user-supplied and derived pay fields
  - TaxRateEntry: A withholding rate configured for a country
  - Money helpers: decimal parsing and 2-place rounding

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64, for money
  2. Rounding: Half-up to 2 places, applied once per derived value
  3. No conversion: Amounts are always in the record's own currency

SEE ALSO:
  - calculator.go: Deduction and net salary
  - employee.go: Normalization and validation
  - metrics.go: Salary aggregation
*/
package payroll

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every stored amount carries.
const MoneyPlaces = 2

// DefaultCurrency is used when a record's country has no currency or does not resolve.
const DefaultCurrency = "USD"

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to two places. Salaries are positive,
// so this is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ErrMalformedAmount is returned by ParseAmount for text that is not a plain decimal.
var ErrMalformedAmount = errors.New("malformed amount")

// maxAmountLength bounds the text ParseAmount accepts. Anything longer
// cannot pass the gross salary limit anyway.
const maxAmountLength = 32

// ParseAmount parses a user-supplied amount and rounds it half-up to two
// places. Surrounding whitespace is ignored. Exponent notation is rejected
// so the result always has a bounded number of digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLength || strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrMalformedAmount, err)
	}
	return RoundMoney(d), nil
}

// MustParseDecimal is for literals in seeds and tests.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NormalizeCountryCode trims and upper-cases a country code.
func NormalizeCountryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// =============================================================================
// EMPLOYEE RECORD
// =============================================================================

// EmployeeRecord is a stored employee with compensation fields.
// NetSalary, DeductionAmount and TaxRatePercentage are derived on every save.
// Tags hold the field constraints checked by Normalizer.NormalizeAndValidate.
// Gross salary is capped at twelve digits with two decimal places.
type EmployeeRecord struct {
	ID           string
	FirstName    string          `validate:"required,min=2,max=100"`
	LastName     string          `validate:"required,min=2,max=100"`
	JobTitle     string          `validate:"required,min=2,max=100"`
	CountryCode  string          `validate:"required,iso3166_1_alpha2"`
	CurrencyCode string          `validate:"required,iso4217"`
	GrossSalary  decimal.Decimal `validate:"gt=0,lt=10000000000"`

	NetSalary         decimal.Decimal
	TaxRatePercentage int
	DeductionAmount   decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e EmployeeRecord) FullName() string {
	return e.FirstName + " " + e.LastName
}

// ApplyCompensation copies a calculation result onto the record.
func (e *EmployeeRecord) ApplyCompensation(c Compensation) {
	e.DeductionAmount = c.DeductionAmount
	e.TaxRatePercentage = c.TaxRatePercentage
	e.NetSalary = c.NetSalary
}

// =============================================================================
// TAX RATE ENTRY
// =============================================================================

// TaxRateEntry is a withholding rate for a country. EffectiveFrom and
// EffectiveTo are recorded for administrators; the calculator ignores them.
type TaxRateEntry struct {
	ID             string
	CountryCode    string          `validate:"required,len=2,alpha"`
	RatePercentage decimal.Decimal `validate:"gte=0,lte=100"`
	Active         bool
	EffectiveFrom  *time.Time
	EffectiveTo    *time.Time
	CreatedAt      time.Time
}
