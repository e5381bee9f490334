/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts are rendered as strings with two decimal places ("105600.00")
  so clients never see binary floating point.

VIEWS:
  An employee is rendered in one of two views:
    index:  id, full_name, job_title, country, currency, net_salary,
            tax_rate_percentage
    detail: index + first/last name, country_code, gross_salary,
            deduction_amount, timestamps

REQUEST BODIES:
  Employee writes accept the fields at the top level or wrapped in an
  "employee" object. gross_salary may be a JSON number or a string;
  anything else is reported as "is not a number".

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/compensation-engine/payroll"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeRequest is the body of POST and PUT/PATCH /employees.
// Absent fields are left untouched on update.
type EmployeeRequest struct {
	FirstName    *string         `json:"first_name"`
	LastName     *string         `json:"last_name"`
	JobTitle     *string         `json:"job_title"`
	CountryCode  *string         `json:"country_code"`
	CurrencyCode *string         `json:"currency_code"`
	GrossSalary  json.RawMessage `json:"gross_salary"`
}

// employeeEnvelope accepts both {"employee": {...}} and a bare object.
type employeeEnvelope struct {
	Employee *EmployeeRequest `json:"employee"`
	EmployeeRequest
}

func (e employeeEnvelope) request() EmployeeRequest {
	if e.Employee != nil {
		return *e.Employee
	}
	return e.EmployeeRequest
}

// Input converts the request into a payroll.EmployeeInput.
func (r EmployeeRequest) Input() payroll.EmployeeInput {
	return payroll.EmployeeInput{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		JobTitle:     r.JobTitle,
		CountryCode:  r.CountryCode,
		CurrencyCode: r.CurrencyCode,
		GrossSalary:  rawAmount(r.GrossSalary),
	}
}

// rawAmount turns the raw gross_salary into text for payroll.ParseAmount.
// Absent stays nil, null becomes blank, a string is unquoted, and any other
// JSON value is passed through so parsing rejects it.
func rawAmount(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var s string
	switch {
	case bytes.Equal(raw, []byte("null")):
		s = ""
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(raw)
		}
	default:
		s = string(raw)
	}
	return &s
}

// View selects which employee fields are rendered.
type View int

const (
	ViewIndex View = iota
	ViewDetail
)

// EmployeeDTO is the index view of an employee.
type EmployeeDTO struct {
	ID                string `json:"id"`
	FullName          string `json:"full_name"`
	JobTitle          string `json:"job_title"`
	Country           string `json:"country"`
	Currency          string `json:"currency"`
	NetSalary         string `json:"net_salary"`
	TaxRatePercentage int    `json:"tax_rate_percentage"`
}

// EmployeeDetailDTO is the detail view of an employee.
type EmployeeDetailDTO struct {
	EmployeeDTO
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	CountryCode     string    `json:"country_code"`
	GrossSalary     string    `json:"gross_salary"`
	DeductionAmount string    `json:"deduction_amount"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PageMeta describes the position of a list page.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalPages  int `json:"total_pages"`
	TotalCount  int `json:"total_count"`
}

// EmployeeListResponse is the body of GET /employees.
type EmployeeListResponse struct {
	Employees []EmployeeDTO `json:"employees"`
	Meta      PageMeta      `json:"meta"`
}

// SalaryBreakdownDTO is the live calculation for one employee.
type SalaryBreakdownDTO struct {
	EmployeeID        string `json:"employee_id"`
	Currency          string `json:"currency"`
	GrossSalary       string `json:"gross_salary"`
	TaxRate           string `json:"tax_rate"`
	TaxRatePercentage int    `json:"tax_rate_percentage"`
	DeductionAmount   string `json:"deduction_amount"`
	NetSalary         string `json:"net_salary"`
}

// =============================================================================
// METRICS
// =============================================================================

// SalaryStatsDTO is the per-country statistics block.
type SalaryStatsDTO struct {
	MinSalary     string `json:"min_salary"`
	MaxSalary     string `json:"max_salary"`
	AvgSalary     string `json:"avg_salary"`
	EmployeeCount int    `json:"employee_count"`
}

// CountryMetricsResponse is the body of GET /metrics/salaries/by_country.
type CountryMetricsResponse struct {
	Country    string          `json:"country"`
	Currency   string          `json:"currency"`
	Currencies []string        `json:"currencies,omitempty"`
	Metrics    *SalaryStatsDTO `json:"metrics"`
}

// JobTitleMetricsResponse is the body of GET /metrics/salaries/by_job_title.
// Metrics maps currency code to average gross salary.
type JobTitleMetricsResponse struct {
	JobTitle      string            `json:"job_title"`
	Metrics       map[string]string `json:"metrics"`
	EmployeeCount int               `json:"employee_count"`
}

// EmptyMetricsResponse is returned with 404 when no employee matches.
type EmptyMetricsResponse struct {
	Message string `json:"message"`
	Metrics any    `json:"metrics"`
}

// =============================================================================
// TAX RATES
// =============================================================================

// TaxRateDTO represents a tax rate entry in API responses.
type TaxRateDTO struct {
	ID             string  `json:"id"`
	CountryCode    string  `json:"country_code"`
	RatePercentage string  `json:"rate_percentage"`
	Active         bool    `json:"active"`
	EffectiveFrom  *string `json:"effective_from,omitempty"`
	EffectiveTo    *string `json:"effective_to,omitempty"`
}

// CreateTaxRateRequest is the body of POST /tax_rates. Active defaults to true.
// rate_percentage may be a number or a string. Dates use YYYY-MM-DD.
type CreateTaxRateRequest struct {
	CountryCode    string           `json:"country_code"`
	RatePercentage *decimal.Decimal `json:"rate_percentage"`
	Active         *bool           `json:"active"`
	EffectiveFrom  *string         `json:"effective_from"`
	EffectiveTo    *string         `json:"effective_to"`
}

// =============================================================================
// ADMIN
// =============================================================================

// RecalculateResponse reports the outcome of POST /admin/recalculate.
type RecalculateResponse struct {
	Changed int `json:"changed"`
}

// SeedResponse reports what POST /admin/seed loaded.
type SeedResponse struct {
	TaxRates  int `json:"tax_rates"`
	Employees int `json:"employees"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

const dateLayout = "2006-01-02"

func money(d decimal.Decimal) string {
	return d.StringFixed(payroll.MoneyPlaces)
}
