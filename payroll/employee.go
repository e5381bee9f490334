/*
employee.go - Employee record normalization and validation

PURPOSE:
  Brings a user-edited EmployeeRecord into a state that can be saved:
  text fields trimmed, country code upper-cased, currency derived, and
  every field constraint checked.

STEPS (NormalizeAndValidate):
  1. Trim text fields, upper-case country and currency codes
  2. Currency derivation (never a gate by itself):
       explicit currency      -> kept
       country has currency   -> that currency
       otherwise              -> default currency (USD)
  3. Struct tags on EmployeeRecord (validation.go):
       first_name, last_name, job_title: 2..100 characters
       country_code: ISO 3166 alpha-2, currency_code: ISO 4217
       gross_salary: 0 < gross < 10^10
  4. country_code must also resolve in the CountryDirectory

  All checks run. The caller receives every violation, never just the first.

INPUT:
  EmployeeInput carries optional fields so the same type serves create
  (all fields) and partial update (only what changed). Applying an input
  parses gross_salary (two places, no exponents); malformed numbers
  become violations, not panics.
*/
package payroll

import (
	"strings"
)

// Field names as reported in violations.
const (
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldJobTitle     = "job_title"
	FieldCountryCode  = "country_code"
	FieldCurrencyCode = "currency_code"
	FieldGrossSalary  = "gross_salary"
)

// Violation messages.
const (
	MsgBlank           = "can't be blank"
	MsgInvalidCountry  = "is not a valid country code"
	MsgInvalidCurrency = "is not a valid currency code"
	MsgNotPositive     = "must be greater than 0"
	MsgNotANumber      = "is not a number"
	MsgTooLarge        = "must be less than 10000000000"
)

// =============================================================================
// INPUT
// =============================================================================

// EmployeeInput is a set of user-supplied changes. Nil fields are left alone.
type EmployeeInput struct {
	FirstName    *string
	LastName     *string
	JobTitle     *string
	CountryCode  *string
	CurrencyCode *string
	GrossSalary  *string
}

// Apply copies the input onto rec. Violations from parsing gross_salary are returned.
func (in EmployeeInput) Apply(rec *EmployeeRecord) ValidationErrors {
	var errs ValidationErrors

	if in.FirstName != nil {
		rec.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		rec.LastName = *in.LastName
	}
	if in.JobTitle != nil {
		rec.JobTitle = *in.JobTitle
	}
	if in.CountryCode != nil {
		rec.CountryCode = *in.CountryCode
	}
	if in.CurrencyCode != nil {
		rec.CurrencyCode = *in.CurrencyCode
	}
	if in.GrossSalary != nil {
		raw := strings.TrimSpace(*in.GrossSalary)
		if raw == "" {
			errs.Add(FieldGrossSalary, MsgBlank)
			return errs
		}
		gross, err := ParseAmount(raw)
		if err != nil {
			errs.Add(FieldGrossSalary, MsgNotANumber)
			return errs
		}
		rec.GrossSalary = gross
	}
	return errs
}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer derives currency and validates records.
type Normalizer struct {
	Countries       CountryDirectory
	DefaultCurrency string
}

// NewNormalizer creates a normalizer that falls back to USD.
func NewNormalizer(countries CountryDirectory) *Normalizer {
	return &Normalizer{Countries: countries, DefaultCurrency: DefaultCurrency}
}

// DeriveCurrency fills CurrencyCode when it is blank.
func (n *Normalizer) DeriveCurrency(rec *EmployeeRecord) {
	if strings.TrimSpace(rec.CurrencyCode) != "" {
		return
	}
	fallback := n.DefaultCurrency
	if fallback == "" {
		fallback = DefaultCurrency
	}
	if country, ok := n.resolve(rec.CountryCode); ok && country.CurrencyCode != "" {
		rec.CurrencyCode = country.CurrencyCode
		return
	}
	rec.CurrencyCode = fallback
}

// NormalizeAndValidate normalizes rec in place and returns every violation.
func (n *Normalizer) NormalizeAndValidate(rec *EmployeeRecord) ValidationErrors {
	rec.FirstName = strings.TrimSpace(rec.FirstName)
	rec.LastName = strings.TrimSpace(rec.LastName)
	rec.JobTitle = strings.TrimSpace(rec.JobTitle)
	rec.CountryCode = NormalizeCountryCode(rec.CountryCode)
	rec.CurrencyCode = strings.ToUpper(strings.TrimSpace(rec.CurrencyCode))

	n.DeriveCurrency(rec)

	errs, err := validateStruct(rec)
	if err != nil {
		errs.Add("record", err.Error())
		return errs
	}

	// The tag only checks the ISO format; the directory decides what is known.
	if !errs.Has(FieldCountryCode) {
		if _, ok := n.resolve(rec.CountryCode); !ok {
			errs.Add(FieldCountryCode, MsgInvalidCountry)
		}
	}
	return errs
}

func (n *Normalizer) resolve(code string) (Country, bool) {
	if n.Countries == nil || code == "" {
		return Country{}, false
	}
	return n.Countries.Resolve(code)
}
