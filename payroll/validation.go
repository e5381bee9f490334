/*
validation.go - Struct-tag validation shared by employee records and tax rates

PURPOSE:
  One go-playground/validator instance for the package. Constraints live
  on the struct tags of EmployeeRecord and TaxRateEntry; this file turns
  validator.FieldErrors into the field / message pairs API clients see.

DECIMALS:
  decimal.Decimal fields are validated through a custom type func that
  exposes them as float64, so numeric tags (gt, lt, gte, lte) apply.
  Bounds are far inside float64's exact integer range.

MESSAGES:
  required          -> "can't be blank"
  min / max         -> "is too short (minimum is N characters)" / "is too long ..."
  gt=0              -> "must be greater than 0"
  lt / lte / gte    -> "must be less than N" / "... or equal to N"
  iso3166_1_alpha2  -> "is not a valid country code"
  iso4217           -> "is not a valid currency code"
*/
package payroll

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// fieldNames maps struct fields to the names clients see.
var fieldNames = map[string]string{
	"FirstName":      FieldFirstName,
	"LastName":       FieldLastName,
	"JobTitle":       FieldJobTitle,
	"CountryCode":    FieldCountryCode,
	"CurrencyCode":   FieldCurrencyCode,
	"GrossSalary":    FieldGrossSalary,
	"RatePercentage": "rate_percentage",
}

// validateStruct runs the tag constraints on s. Errors other than field
// violations (a nil or non-struct argument) are returned as-is.
func validateStruct(s any) (ValidationErrors, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	var out ValidationErrors
	for _, fe := range verrs {
		out = append(out, toFieldError(fe))
	}
	return out, nil
}

func toFieldError(fe validator.FieldError) FieldError {
	name, ok := fieldNames[fe.StructField()]
	if !ok {
		name = fe.Field()
	}
	return FieldError{Field: name, Message: messageFor(fe)}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgBlank
	case "min":
		return "is too short (minimum is " + fe.Param() + " characters)"
	case "max":
		return "is too long (maximum is " + fe.Param() + " characters)"
	case "len", "alpha":
		if fe.StructField() == "CountryCode" {
			return "must be a two-letter country code"
		}
		return "is the wrong length"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "iso3166_1_alpha2":
		return MsgInvalidCountry
	case "iso4217":
		return MsgInvalidCurrency
	}
	return "is invalid"
}
