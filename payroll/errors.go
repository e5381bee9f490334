/*
errors.go - Centralized error types for the compensation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Store implementations and the HTTP layer match on these with errors.Is
  and errors.As.

ERROR CATEGORIES:
  1. Validation errors - Field-scoped, always delivered as a full list
  2. Lookup errors - Missing employee or tax rate
  3. Tax rate table errors - Invalid entries, duplicate active rates

  Missing reference data (unknown country, no active tax rate) is NOT an
  error: it degrades to the default currency and a zero rate.

SEE ALSO:
  - employee.go: Produces ValidationErrors
  - taxrate.go: Produces tax rate table errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package payroll

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when no employee has the requested ID.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrTaxRateNotFound is returned when no tax rate entry has the requested ID.
	ErrTaxRateNotFound = errors.New("tax rate not found")

	// ErrDuplicateActiveRate is returned when a country would end up with two
	// active tax rate entries.
	ErrDuplicateActiveRate = errors.New("country already has an active tax rate")

	// ErrInvalidTaxRate is returned when a tax rate entry fails validation.
	ErrInvalidTaxRate = errors.New("invalid tax rate")

	// ErrValidation matches any ValidationErrors value.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError is a single violation on one field.
type FieldError struct {
	Field   string
	Message string
}

// FullMessage renders the violation the way API clients see it,
// e.g. "gross_salary must be greater than 0".
func (f FieldError) FullMessage() string {
	return f.Field + " " + f.Message
}

// ValidationErrors is the complete set of violations for one record.
// A nil or empty value means the record is valid.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(v.Messages(), "; ")
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}

// Add appends a violation for field.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Has reports whether field already has a violation.
func (v ValidationErrors) Has(field string) bool {
	for _, f := range v {
		if f.Field == field {
			return true
		}
	}
	return false
}

// For returns the messages recorded for field.
func (v ValidationErrors) For(field string) []string {
	var out []string
	for _, f := range v {
		if f.Field == field {
			out = append(out, f.Message)
		}
	}
	return out
}

// Messages returns the full message of every violation, in order.
func (v ValidationErrors) Messages() []string {
	out := make([]string, len(v))
	for i, f := range v {
		out[i] = f.FullMessage()
	}
	return out
}

// Merge appends violations from other for fields not already reported.
func (v ValidationErrors) Merge(other ValidationErrors) ValidationErrors {
	reported := make(map[string]bool, len(v))
	for _, f := range v {
		reported[f.Field] = true
	}
	for _, f := range other {
		if !reported[f.Field] {
			v = append(v, f)
		}
	}
	return v
}

// OrNil returns nil when there are no violations, so callers can return it as error.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// DuplicateActiveRateError identifies the entry already active for a country.
type DuplicateActiveRateError struct {
	CountryCode string
	ExistingID  string
}

func (e *DuplicateActiveRateError) Error() string {
	return fmt.Sprintf("country %s already has an active tax rate (id: %s)", e.CountryCode, e.ExistingID)
}

func (e *DuplicateActiveRateError) Unwrap() error {
	return ErrDuplicateActiveRate
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTaxRate) ||
		errors.Is(err, ErrDuplicateActiveRate)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrTaxRateNotFound)
}
