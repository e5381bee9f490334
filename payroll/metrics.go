/*
metrics.go - Salary aggregation across employees

PURPOSE:
  Read-only statistics over the employee population, for reporting.

OPERATIONS:
  ByCountry(code):  min / max / average gross salary and head count for
                    one country, plus that population's currency
  ByJobTitle(title): average gross salary per currency for one job title
                    (case-insensitive exact match), plus total head count

EMPTY RESULTS:
  No matching employees is a valid outcome, not an error. The report
  carries a human-readable Message and nil metrics.

CURRENCY:
  Amounts are never converted. ByCountry reports the currency of the first
  matched record and lists every currency seen in Currencies; more than
  one entry means the country's population is not currency-homogeneous
  and is logged as a warning.

  Every statistic is computed in one pass with running accumulators.
*/
package payroll

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SalaryStats summarizes gross salaries of one population.
type SalaryStats struct {
	Min     decimal.Decimal
	Max     decimal.Decimal
	Average decimal.Decimal
	Count   int
}

// CountryReport is the result of ByCountry. Metrics is nil when empty.
type CountryReport struct {
	Country    string
	Currency   string
	Currencies []string
	Metrics    *SalaryStats
	Message    string
}

func (r CountryReport) Empty() bool { return r.Metrics == nil }

// MixedCurrency reports whether the population spans several currencies.
func (r CountryReport) MixedCurrency() bool { return len(r.Currencies) > 1 }

// JobTitleReport is the result of ByJobTitle. AverageByCurrency is nil when empty.
type JobTitleReport struct {
	JobTitle          string
	AverageByCurrency map[string]decimal.Decimal
	Count             int
	Message           string
}

func (r JobTitleReport) Empty() bool { return r.AverageByCurrency == nil }

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator computes salary metrics from an EmployeeStore.
type Aggregator struct {
	store  EmployeeStore
	logger *zap.Logger
}

func NewAggregator(store EmployeeStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: store, logger: logger}
}

// ByCountry aggregates gross salaries for one country.
func (a *Aggregator) ByCountry(ctx context.Context, countryCode string) (CountryReport, error) {
	code := NormalizeCountryCode(countryCode)
	records, err := a.store.FilterByCountry(ctx, code)
	if err != nil {
		return CountryReport{}, fmt.Errorf("failed to load employees for country %s: %w", code, err)
	}

	report := SummarizeCountry(code, records)
	if report.MixedCurrency() {
		a.logger.Warn("country population spans several currencies",
			zap.String("country", code),
			zap.Strings("currencies", report.Currencies),
			zap.String("reported_currency", report.Currency))
	}
	return report, nil
}

// ByJobTitle aggregates gross salaries per currency for one job title.
func (a *Aggregator) ByJobTitle(ctx context.Context, jobTitle string) (JobTitleReport, error) {
	records, err := a.store.FilterByJobTitle(ctx, jobTitle)
	if err != nil {
		return JobTitleReport{}, fmt.Errorf("failed to load employees for job title %q: %w", jobTitle, err)
	}
	return SummarizeJobTitle(jobTitle, records), nil
}

// SummarizeCountry is the pure part of ByCountry. Records are assumed to
// already match the country.
func SummarizeCountry(code string, records []EmployeeRecord) CountryReport {
	report := CountryReport{Country: code}
	if len(records) == 0 {
		report.Message = "No employees found for country: " + code
		return report
	}

	var acc accumulator
	seen := make(map[string]bool)
	for _, r := range records {
		acc.add(r.GrossSalary)
		if !seen[r.CurrencyCode] {
			seen[r.CurrencyCode] = true
			report.Currencies = append(report.Currencies, r.CurrencyCode)
		}
	}

	report.Currency = records[0].CurrencyCode
	stats := acc.stats()
	report.Metrics = &stats
	return report
}

// SummarizeJobTitle is the pure part of ByJobTitle. Records whose job title
// does not match (ignoring case and surrounding space) are skipped.
func SummarizeJobTitle(jobTitle string, records []EmployeeRecord) JobTitleReport {
	report := JobTitleReport{JobTitle: jobTitle}
	want := strings.TrimSpace(jobTitle)

	groups := make(map[string]*accumulator)
	for _, r := range records {
		if !strings.EqualFold(strings.TrimSpace(r.JobTitle), want) {
			continue
		}
		acc, ok := groups[r.CurrencyCode]
		if !ok {
			acc = &accumulator{}
			groups[r.CurrencyCode] = acc
		}
		acc.add(r.GrossSalary)
		report.Count++
	}

	if report.Count == 0 {
		report.Message = "No employees found for job title: " + jobTitle
		return report
	}

	report.AverageByCurrency = make(map[string]decimal.Decimal, len(groups))
	for currency, acc := range groups {
		report.AverageByCurrency[currency] = acc.average()
	}
	return report
}

// accumulator keeps running min / max / sum / count.
type accumulator struct {
	min, max, sum decimal.Decimal
	count         int
}

func (a *accumulator) add(v decimal.Decimal) {
	if a.count == 0 || v.LessThan(a.min) {
		a.min = v
	}
	if a.count == 0 || v.GreaterThan(a.max) {
		a.max = v
	}
	a.sum = a.sum.Add(v)
	a.count++
}

func (a *accumulator) average() decimal.Decimal {
	if a.count == 0 {
		return decimal.Zero
	}
	return RoundMoney(a.sum.Div(decimal.NewFromInt(int64(a.count))))
}

func (a *accumulator) stats() SalaryStats {
	return SalaryStats{Min: a.min, Max: a.max, Average: a.average(), Count: a.count}
}
