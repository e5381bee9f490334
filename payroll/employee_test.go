package payroll_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/compensation-engine/payroll"
)

var testCountries = payroll.StaticDirectory{
	"IN": {Code: "IN", Name: "India", CurrencyCode: "INR"},
	"US": {Code: "US", Name: "United States", CurrencyCode: "USD"},
	"DE": {Code: "DE", Name: "Germany", CurrencyCode: "EUR"},
	"AQ": {Code: "AQ", Name: "Antarctica"},
}

func validRecord() payroll.EmployeeRecord {
	return payroll.EmployeeRecord{
		FirstName:   "Priya",
		LastName:    "Sharma",
		JobTitle:    "Product Manager",
		CountryCode: "IN",
		GrossSalary: d("150000"),
	}
}

func str(s string) *string { return &s }

// =============================================================================
// NORMALIZATION
// =============================================================================

func TestNormalizer_DerivesCurrencyFromCountry(t *testing.T) {
	n := payroll.NewNormalizer(testCountries)
	rec := validRecord()
	rec.CountryCode = " in "

	errs := n.NormalizeAndValidate(&rec)

	assert.Empty(t, errs)
	assert.Equal(t, "IN", rec.CountryCode)
	assert.Equal(t, "INR", rec.CurrencyCode)
}

func TestNormalizer_KeepsExplicitCurrency(t *testing.T) {
	n := payroll.NewNormalizer(testCountries)
	rec := validRecord()
	rec.CurrencyCode = "USD"

	assert.Empty(t, n.NormalizeAndValidate(&rec))
	assert.Equal(t, "USD", rec.CurrencyCode)
}

func TestNormalizer_DefaultCurrencyFallback(t *testing.T) {
	n := payroll.NewNormalizer(testCountries)

	// Country without its own currency
	rec := validRecord()
	rec.CountryCode = "AQ"
	assert.Empty(t, n.NormalizeAndValidate(&rec))
	assert.Equal(t, "USD", rec.CurrencyCode)

	// Unknown country still gets a currency, but is rejected
	n.DefaultCurrency = "EUR"
	rec = validRecord()
	rec.CountryCode = "ZZ"
	errs := n.NormalizeAndValidate(&rec)
	assert.Equal(t, "EUR", rec.CurrencyCode)
	assert.Equal(t, []string{payroll.MsgInvalidCountry}, errs.For(payroll.FieldCountryCode))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestNormalizer_AccumulatesEveryViolation(t *testing.T) {
	// GIVEN: A record with every field wrong
	// WHEN: Validating
	// THEN: One violation per field, nothing short-circuits

	n := payroll.NewNormalizer(testCountries)
	rec := payroll.EmployeeRecord{
		FirstName:   "   ",
		LastName:    "A",
		JobTitle:    strings.Repeat("x", 101),
		CountryCode: "XX",
		GrossSalary: d("0"),
	}

	errs := n.NormalizeAndValidate(&rec)

	assert.Len(t, errs, 5)
	assert.Equal(t, []string{"can't be blank"}, errs.For(payroll.FieldFirstName))
	assert.Equal(t, []string{"is too short (minimum is 2 characters)"}, errs.For(payroll.FieldLastName))
	assert.Equal(t, []string{"is too long (maximum is 100 characters)"}, errs.For(payroll.FieldJobTitle))
	assert.Equal(t, []string{"is not a valid country code"}, errs.For(payroll.FieldCountryCode))
	assert.Equal(t, []string{"must be greater than 0"}, errs.For(payroll.FieldGrossSalary))
	assert.Contains(t, errs.Messages(), "country_code is not a valid country code")
}

func TestNormalizer_LengthBoundsCountRunes(t *testing.T) {
	n := payroll.NewNormalizer(testCountries)
	rec := validRecord()
	rec.FirstName = "Łu"
	rec.JobTitle = strings.Repeat("é", 100)

	assert.Empty(t, n.NormalizeAndValidate(&rec))
}

func TestNormalizer_BlankCountry(t *testing.T) {
	n := payroll.NewNormalizer(testCountries)
	rec := validRecord()
	rec.CountryCode = ""

	errs := n.NormalizeAndValidate(&rec)
	assert.Equal(t, []string{payroll.MsgBlank}, errs.For(payroll.FieldCountryCode))
	assert.Equal(t, "USD", rec.CurrencyCode)
}

func TestNormalizer_GrossSalaryCap(t *testing.T) {
	n := payroll.NewNormalizer(testCountries)

	rec := validRecord()
	rec.GrossSalary = d("9999999999.99")
	assert.Empty(t, n.NormalizeAndValidate(&rec))

	rec = validRecord()
	rec.GrossSalary = d("10000000000")
	errs := n.NormalizeAndValidate(&rec)
	assert.Equal(t, []string{payroll.MsgTooLarge}, errs.For(payroll.FieldGrossSalary))
}

func TestNormalizer_CurrencyCode(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		want     string
		wantErr  bool
	}{
		{"trimmed and upper-cased", " eur ", "EUR", false},
		{"blank derives from country", "  ", "INR", false},
		{"not a currency", "  not a currency ", "NOT A CURRENCY", true},
		{"unknown code", "ABC", "ABC", true},
	}

	n := payroll.NewNormalizer(testCountries)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			rec.CurrencyCode = tt.currency

			errs := n.NormalizeAndValidate(&rec)
			assert.Equal(t, tt.want, rec.CurrencyCode)
			if tt.wantErr {
				assert.Equal(t, []string{payroll.MsgInvalidCurrency}, errs.For(payroll.FieldCurrencyCode))
				assert.Contains(t, errs.Messages(), "currency_code is not a valid currency code")
				return
			}
			assert.Empty(t, errs)
		})
	}
}

func TestNormalizer_NegativeGross(t *testing.T) {
	n := payroll.NewNormalizer(testCountries)
	rec := validRecord()
	rec.GrossSalary = d("-1")

	errs := n.NormalizeAndValidate(&rec)
	assert.True(t, errs.Has(payroll.FieldGrossSalary))
}

// =============================================================================
// INPUT
// =============================================================================

func TestEmployeeInput_GrossSalaryParsing(t *testing.T) {
	tests := []struct {
		name    string
		gross   *string
		wantErr string
		want    string
	}{
		{"absent leaves value", nil, "", "150000.00"},
		{"decimal text", str("1234.5"), "", "1234.50"},
		{"blank", str("  "), payroll.MsgBlank, ""},
		{"not a number", str("lots"), payroll.MsgNotANumber, ""},
		{"rounds half up to cents", str("100.005"), "", "100.01"},
		{"exponent notation", str("1e50000000"), payroll.MsgNotANumber, ""},
		{"overlong digits", str(strings.Repeat("9", 40)), payroll.MsgNotANumber, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			errs := payroll.EmployeeInput{GrossSalary: tt.gross}.Apply(&rec)
			if tt.wantErr != "" {
				assert.Equal(t, []string{tt.wantErr}, errs.For(payroll.FieldGrossSalary))
				return
			}
			assert.Empty(t, errs)
			assertMoney(t, tt.want, rec.GrossSalary)
		})
	}
}

func TestValidationErrors_MergeSkipsReportedFields(t *testing.T) {
	var first payroll.ValidationErrors
	first.Add(payroll.FieldGrossSalary, payroll.MsgNotANumber)

	var second payroll.ValidationErrors
	second.Add(payroll.FieldGrossSalary, payroll.MsgNotPositive)
	second.Add(payroll.FieldJobTitle, payroll.MsgBlank)

	merged := first.Merge(second)
	assert.Equal(t, []string{payroll.MsgNotANumber}, merged.For(payroll.FieldGrossSalary))
	assert.True(t, merged.Has(payroll.FieldJobTitle))
	assert.ErrorIs(t, merged.OrNil(), payroll.ErrValidation)
	assert.NoError(t, payroll.ValidationErrors(nil).OrNil())
}
