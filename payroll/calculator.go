/*
calculator.go - Tax deduction and net salary

PURPOSE:
  Turns a gross salary and a country code into the three derived pay
  fields of an employee record.

ALGORITHM:
  1. rate = first active entry for the country (upper-cased), else the
     configured fallback rate (zero unless configured otherwise)
  2. deduction = round_half_up(gross * rate / 100, 2)
  3. net = round(gross - deduction, 2)
  4. tax_rate_percentage = integer part of rate

  The deduction is computed from the full-precision rate; only the stored
  percentage is an integer.

FAILURE MODES:
  A missing rate is not a failure. The only error Calculate returns is
  one coming from the RateTable itself (e.g. the database is down).

EXAMPLE:
  gross=55555.55, rate=10  ->  deduction=5555.56, net=49999.99
*/
package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Compensation is the calculator output for one record.
type Compensation struct {
	GrossSalary       decimal.Decimal
	Rate              decimal.Decimal
	TaxRatePercentage int
	DeductionAmount   decimal.Decimal
	NetSalary         decimal.Decimal
}

// Calculator computes compensation against a rate table.
type Calculator struct {
	Rates        RateTable
	FallbackRate decimal.Decimal
}

// NewCalculator creates a calculator with a zero fallback rate.
func NewCalculator(rates RateTable) *Calculator {
	return &Calculator{Rates: rates, FallbackRate: decimal.Zero}
}

// RateFor returns the rate that applies to a country.
func (c *Calculator) RateFor(ctx context.Context, countryCode string) (decimal.Decimal, error) {
	if c.Rates == nil {
		return c.FallbackRate, nil
	}
	rate, ok, err := c.Rates.ActiveRateFor(ctx, NormalizeCountryCode(countryCode))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to look up tax rate for %s: %w", countryCode, err)
	}
	if !ok {
		return c.FallbackRate, nil
	}
	return rate, nil
}

// Calculate looks up the country's rate and computes compensation.
func (c *Calculator) Calculate(ctx context.Context, gross decimal.Decimal, countryCode string) (Compensation, error) {
	rate, err := c.RateFor(ctx, countryCode)
	if err != nil {
		return Compensation{}, err
	}
	return Compute(gross, rate), nil
}

// Compute is the pure part of Calculate.
func Compute(gross, rate decimal.Decimal) Compensation {
	deduction := RoundMoney(gross.Mul(rate).Div(hundred))
	return Compensation{
		GrossSalary:       gross,
		Rate:              rate,
		TaxRatePercentage: int(rate.IntPart()),
		DeductionAmount:   deduction,
		NetSalary:         RoundMoney(gross.Sub(deduction)),
	}
}
