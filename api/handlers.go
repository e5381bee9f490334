/*
handlers.go - HTTP API handlers for the compensation engine

PURPOSE:
  Exposes the payroll service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the payroll package.

ENDPOINTS:
  Employees:
    GET    /api/v1/employees?page=N         List employees (index view)
    POST   /api/v1/employees                Create employee
    GET    /api/v1/employees/{id}           Employee details
    PUT    /api/v1/employees/{id}           Partial update (PATCH too)
    DELETE /api/v1/employees/{id}           Delete employee
    GET    /api/v1/employees/{id}/salary    Live salary breakdown

  Metrics:
    GET    /api/v1/metrics/salaries/by_country?country=IN
    GET    /api/v1/metrics/salaries/by_job_title?job_title=Backend%20Developer

  Tax rates:
    GET    /api/v1/tax_rates                List entries
    POST   /api/v1/tax_rates                Create entry
    POST   /api/v1/tax_rates/{id}/deactivate

  Admin:
    POST   /api/v1/admin/recalculate        Re-apply current rates to everyone
    POST   /api/v1/admin/seed               Reset and load reference data

  GET /healthz

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, missing query parameter
  - 404: Employee or tax rate not found, metrics with no matching employees
  - 409: Country already has an active tax rate
  - 422: Validation errors, with every violation in details
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - seed.go: Reference data set
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/compensation-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Backend is the storage the handlers need beyond the service: tax rate
// administration and a full reset for seeding.
type Backend interface {
	payroll.EmployeeStore
	payroll.TaxRateStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *payroll.Service
	Metrics   *payroll.Aggregator
	Store     Backend
	Countries payroll.CountryDirectory
	Logger    *zap.Logger

	// PageSize is the number of employees per index page.
	PageSize int
}

// NewHandler creates a handler with a service and aggregator over store.
func NewHandler(store Backend, countries payroll.CountryDirectory, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:   payroll.NewService(store, store, countries, logger),
		Metrics:   payroll.NewAggregator(store, logger),
		Store:     store,
		Countries: countries,
		Logger:    logger,
		PageSize:  payroll.DefaultPageSize,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns one page of employees in the index view.
// GET /api/v1/employees?page=N
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	result, err := h.Service.List(r.Context(), page, h.PageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(result.Employees))
	for i, rec := range result.Employees {
		dtos[i] = h.indexView(rec)
	}

	writeJSON(w, http.StatusOK, EmployeeListResponse{
		Employees: dtos,
		Meta: PageMeta{
			CurrentPage: result.CurrentPage,
			PerPage:     result.PerPage,
			TotalPages:  result.TotalPages,
			TotalCount:  result.TotalCount,
		},
	})
}

// GetEmployee returns one employee in the detail view.
// GET /api/v1/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to get employee")
		return
	}
	writeJSON(w, http.StatusOK, h.project(rec, ViewDetail))
}

// CreateEmployee validates and stores a new employee.
// POST /api/v1/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEmployee(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Create(r.Context(), req.Input())
	if err != nil {
		h.writeServiceError(w, err, "Failed to create employee")
		return
	}
	writeJSON(w, http.StatusCreated, h.project(rec, ViewDetail))
}

// UpdateEmployee applies a partial update. Derived fields are recomputed.
// PUT|PATCH /api/v1/employees/{id}
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEmployee(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), req.Input())
	if err != nil {
		h.writeServiceError(w, err, "Failed to update employee")
		return
	}
	writeJSON(w, http.StatusOK, h.project(rec, ViewDetail))
}

// DeleteEmployee removes an employee.
// DELETE /api/v1/employees/{id}
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err, "Failed to delete employee")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSalary returns the employee's pay computed against the rates active now.
// GET /api/v1/employees/{id}/salary
func (h *Handler) GetSalary(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.SalaryBreakdown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to calculate salary")
		return
	}
	writeJSON(w, http.StatusOK, SalaryBreakdownDTO{
		EmployeeID:        b.EmployeeID,
		Currency:          b.CurrencyCode,
		GrossSalary:       money(b.GrossSalary),
		TaxRate:           b.Rate.String(),
		TaxRatePercentage: b.TaxRatePercentage,
		DeductionAmount:   money(b.DeductionAmount),
		NetSalary:         money(b.NetSalary),
	})
}

func decodeEmployee(w http.ResponseWriter, r *http.Request) (EmployeeRequest, bool) {
	var env employeeEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return EmployeeRequest{}, false
	}
	return env.request(), true
}

// =============================================================================
// VIEW PROJECTION
// =============================================================================

// project renders rec in the requested view.
func (h *Handler) project(rec payroll.EmployeeRecord, view View) any {
	index := h.indexView(rec)
	if view == ViewIndex {
		return index
	}
	return EmployeeDetailDTO{
		EmployeeDTO:     index,
		FirstName:       rec.FirstName,
		LastName:        rec.LastName,
		CountryCode:     rec.CountryCode,
		GrossSalary:     money(rec.GrossSalary),
		DeductionAmount: money(rec.DeductionAmount),
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func (h *Handler) indexView(rec payroll.EmployeeRecord) EmployeeDTO {
	return EmployeeDTO{
		ID:                rec.ID,
		FullName:          rec.FullName(),
		JobTitle:          rec.JobTitle,
		Country:           h.countryName(rec.CountryCode),
		Currency:          rec.CurrencyCode,
		NetSalary:         money(rec.NetSalary),
		TaxRatePercentage: rec.TaxRatePercentage,
	}
}

// countryName falls back to the code when the directory does not know it.
func (h *Handler) countryName(code string) string {
	if h.Countries != nil {
		if c, ok := h.Countries.Resolve(code); ok && c.Name != "" {
			return c.Name
		}
	}
	return code
}

// =============================================================================
// METRICS HANDLERS
// =============================================================================

// SalariesByCountry returns min / max / average gross salary for a country.
// GET /api/v1/metrics/salaries/by_country?country=IN
func (h *Handler) SalariesByCountry(w http.ResponseWriter, r *http.Request) {
	country := strings.TrimSpace(r.URL.Query().Get("country"))
	if country == "" {
		writeError(w, http.StatusBadRequest, "Country parameter is required", nil)
		return
	}

	report, err := h.Metrics.ByCountry(r.Context(), country)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute salary metrics", err)
		return
	}
	if report.Empty() {
		writeJSON(w, http.StatusNotFound, EmptyMetricsResponse{Message: report.Message})
		return
	}

	resp := CountryMetricsResponse{
		Country:  report.Country,
		Currency: report.Currency,
		Metrics: &SalaryStatsDTO{
			MinSalary:     money(report.Metrics.Min),
			MaxSalary:     money(report.Metrics.Max),
			AvgSalary:     money(report.Metrics.Average),
			EmployeeCount: report.Metrics.Count,
		},
	}
	if report.MixedCurrency() {
		resp.Currencies = report.Currencies
	}
	writeJSON(w, http.StatusOK, resp)
}

// SalariesByJobTitle returns the average gross salary per currency for a job title.
// GET /api/v1/metrics/salaries/by_job_title?job_title=...
func (h *Handler) SalariesByJobTitle(w http.ResponseWriter, r *http.Request) {
	jobTitle := strings.TrimSpace(r.URL.Query().Get("job_title"))
	if jobTitle == "" {
		writeError(w, http.StatusBadRequest, "Job title parameter is required", nil)
		return
	}

	report, err := h.Metrics.ByJobTitle(r.Context(), jobTitle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute salary metrics", err)
		return
	}
	if report.Empty() {
		writeJSON(w, http.StatusNotFound, EmptyMetricsResponse{Message: report.Message})
		return
	}

	averages := make(map[string]string, len(report.AverageByCurrency))
	for currency, avg := range report.AverageByCurrency {
		averages[currency] = money(avg)
	}
	writeJSON(w, http.StatusOK, JobTitleMetricsResponse{
		JobTitle:      report.JobTitle,
		Metrics:       averages,
		EmployeeCount: report.Count,
	})
}

// =============================================================================
// TAX RATE HANDLERS
// =============================================================================

// ListTaxRates returns every tax rate entry, active or not.
// GET /api/v1/tax_rates
func (h *Handler) ListTaxRates(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListTaxRates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tax rates", err)
		return
	}

	dtos := make([]TaxRateDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toTaxRateDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTaxRate adds a tax rate entry. Stored employees keep their
// figures until they are next saved or recalculated.
// POST /api/v1/tax_rates
func (h *Handler) CreateTaxRate(w http.ResponseWriter, r *http.Request) {
	var req CreateTaxRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var errs payroll.ValidationErrors
	if req.RatePercentage == nil {
		errs.Add("rate_percentage", payroll.MsgBlank)
	}
	from := parseDateField(&errs, "effective_from", req.EffectiveFrom)
	to := parseDateField(&errs, "effective_to", req.EffectiveTo)
	if len(errs) > 0 {
		h.writeServiceError(w, errs, "Failed to create tax rate")
		return
	}

	entry := payroll.NewTaxRateEntry(req.CountryCode, *req.RatePercentage)
	if req.Active != nil {
		entry.Active = *req.Active
	}
	entry.EffectiveFrom = from
	entry.EffectiveTo = to
	entry.CreatedAt = time.Now().UTC()

	if err := h.Store.CreateTaxRate(r.Context(), entry); err != nil {
		h.writeServiceError(w, err, "Failed to create tax rate")
		return
	}

	h.Logger.Info("tax rate created",
		zap.String("tax_rate_id", entry.ID),
		zap.String("country", entry.CountryCode),
		zap.String("rate", entry.RatePercentage.String()),
		zap.Bool("active", entry.Active))
	writeJSON(w, http.StatusCreated, toTaxRateDTO(entry))
}

// DeactivateTaxRate clears the active flag on an entry.
// POST /api/v1/tax_rates/{id}/deactivate
func (h *Handler) DeactivateTaxRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeactivateTaxRate(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "Failed to deactivate tax rate")
		return
	}
	h.Logger.Info("tax rate deactivated", zap.String("tax_rate_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func toTaxRateDTO(e payroll.TaxRateEntry) TaxRateDTO {
	dto := TaxRateDTO{
		ID:             e.ID,
		CountryCode:    e.CountryCode,
		RatePercentage: e.RatePercentage.String(),
		Active:         e.Active,
	}
	if e.EffectiveFrom != nil {
		s := e.EffectiveFrom.Format(dateLayout)
		dto.EffectiveFrom = &s
	}
	if e.EffectiveTo != nil {
		s := e.EffectiveTo.Format(dateLayout)
		dto.EffectiveTo = &s
	}
	return dto
}

func parseDateField(errs *payroll.ValidationErrors, field string, value *string) *time.Time {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*value))
	if err != nil {
		errs.Add(field, "is not a valid date (use YYYY-MM-DD)")
		return nil
	}
	return &t
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Recalculate re-applies the current tax rates to every stored employee.
// POST /api/v1/admin/recalculate
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	changed, err := h.Service.RecalculateAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recalculate salaries", err)
		return
	}
	writeJSON(w, http.StatusOK, RecalculateResponse{Changed: changed})
}

// Seed resets the database and loads the reference data set.
// POST /api/v1/admin/seed
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	result, err := h.LoadSeed(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed database", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Health reports whether the database answers.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.Logger.Error("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "down"})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "up"})
}

// =============================================================================
// HELPERS
// =============================================================================

// writeServiceError maps payroll errors to HTTP responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, message string) {
	var verrs payroll.ValidationErrors
	var dup *payroll.DuplicateActiveRateError

	switch {
	case errors.As(err, &verrs):
		code := "validation_failed"
		if errors.Is(err, payroll.ErrInvalidTaxRate) {
			code = "invalid_tax_rate"
		}
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Validation failed",
			Code:    code,
			Details: verrs.Messages(),
		})
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Country already has an active tax rate",
			Code:    "duplicate_active_rate",
			Details: map[string]string{"country_code": dup.CountryCode, "existing_id": dup.ExistingID},
		})
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Employee not found", Code: "not_found"})
	case errors.Is(err, payroll.ErrTaxRateNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Tax rate not found", Code: "not_found"})
	case payroll.IsClientError(err):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
