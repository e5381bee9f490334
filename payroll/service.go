/*
service.go - Employee compensation service

PURPOSE:
  Orchestrates the life cycle of an employee record:

    input -> apply -> normalize + validate -> calculate -> save

  Every write goes through the same path, so a saved record always has
  derived fields that match its current gross salary, country and the
  tax rates active at save time.

OPERATIONS:
  Create, Get, List (paged), Update (partial), Delete,
  SalaryBreakdown (live calculation against current rates),
  RecalculateAll (re-apply current rates to every stored record)

ERRORS:
  ValidationErrors  - input rejected, nothing saved
  ErrEmployeeNotFound
  anything else     - store failure, wrapped
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPageSize is the number of employees per list page.
const DefaultPageSize = 20

// Service is the entry point for employee writes and reads.
type Service struct {
	Store      EmployeeStore
	Normalizer *Normalizer
	Calculator *Calculator
	Logger     *zap.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewService wires a service with the default normalizer and calculator settings.
func NewService(store EmployeeStore, rates RateTable, countries CountryDirectory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Store:      store,
		Normalizer: NewNormalizer(countries),
		Calculator: NewCalculator(rates),
		Logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// EmployeePage is one page of the employee list.
type EmployeePage struct {
	Employees   []EmployeeRecord
	CurrentPage int
	PerPage     int
	TotalPages  int
	TotalCount  int
}

// SalaryBreakdown is the live calculation for a stored employee.
type SalaryBreakdown struct {
	EmployeeID   string
	CurrencyCode string
	Compensation
}

// =============================================================================
// WRITES
// =============================================================================

// Create validates input and stores a new employee. A missing gross salary
// is reported as blank.
func (s *Service) Create(ctx context.Context, in EmployeeInput) (EmployeeRecord, error) {
	if in.GrossSalary == nil {
		blank := ""
		in.GrossSalary = &blank
	}

	now := s.Now()
	rec := EmployeeRecord{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := s.prepare(ctx, &rec, in); err != nil {
		return EmployeeRecord{}, err
	}

	if err := s.Store.Save(ctx, rec); err != nil {
		return EmployeeRecord{}, fmt.Errorf("failed to save employee: %w", err)
	}

	s.Logger.Info("employee created",
		zap.String("employee_id", rec.ID),
		zap.String("country", rec.CountryCode),
		zap.Int("tax_rate_percentage", rec.TaxRatePercentage))
	return rec, nil
}

// Update applies a partial change and recomputes derived fields.
func (s *Service) Update(ctx context.Context, id string, in EmployeeInput) (EmployeeRecord, error) {
	rec, err := s.Store.Update(ctx, id, func(rec *EmployeeRecord) error {
		if err := s.prepare(ctx, rec, in); err != nil {
			return err
		}
		rec.UpdatedAt = s.Now()
		return nil
	})
	if err != nil {
		return EmployeeRecord{}, err
	}

	s.Logger.Info("employee updated",
		zap.String("employee_id", rec.ID),
		zap.String("net_salary", rec.NetSalary.StringFixed(MoneyPlaces)))
	return rec, nil
}

// Delete removes an employee.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("employee deleted", zap.String("employee_id", id))
	return nil
}

// errUnchanged tells Store.Update to skip the write.
var errUnchanged = errors.New("compensation unchanged")

// RecalculateAll re-applies the current tax rates to every employee and
// returns how many records changed. Each record is recomputed inside
// Store.Update, so concurrent edits are never overwritten with a stale copy
// and employees deleted since the listing are skipped.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	records, err := s.Store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load employees: %w", err)
	}

	changed := 0
	for _, listed := range records {
		_, err := s.Store.Update(ctx, listed.ID, func(rec *EmployeeRecord) error {
			comp, err := s.Calculator.Calculate(ctx, rec.GrossSalary, rec.CountryCode)
			if err != nil {
				return err
			}
			if comp.NetSalary.Equal(rec.NetSalary) &&
				comp.DeductionAmount.Equal(rec.DeductionAmount) &&
				comp.TaxRatePercentage == rec.TaxRatePercentage {
				return errUnchanged
			}
			rec.ApplyCompensation(comp)
			rec.UpdatedAt = s.Now()
			return nil
		})
		switch {
		case err == nil:
			changed++
		case errors.Is(err, errUnchanged):
		case errors.Is(err, ErrEmployeeNotFound):
			s.Logger.Debug("employee deleted during recalculation", zap.String("employee_id", listed.ID))
		default:
			return changed, fmt.Errorf("failed to recalculate employee %s: %w", listed.ID, err)
		}
	}

	s.Logger.Info("employees recalculated", zap.Int("total", len(records)), zap.Int("changed", changed))
	return changed, nil
}

// prepare runs apply, normalization, validation and calculation on rec.
// rec is only partially modified when validation fails; callers discard it.
func (s *Service) prepare(ctx context.Context, rec *EmployeeRecord, in EmployeeInput) error {
	errs := in.Apply(rec)
	errs = errs.Merge(s.Normalizer.NormalizeAndValidate(rec))
	if len(errs) > 0 {
		return errs
	}

	comp, err := s.Calculator.Calculate(ctx, rec.GrossSalary, rec.CountryCode)
	if err != nil {
		return err
	}
	rec.ApplyCompensation(comp)
	return nil
}

// =============================================================================
// READS
// =============================================================================

// Get returns one employee.
func (s *Service) Get(ctx context.Context, id string) (EmployeeRecord, error) {
	return s.Store.FindByID(ctx, id)
}

// List returns a 1-based page of employees. Pages past the end are empty.
func (s *Service) List(ctx context.Context, page, perPage int) (EmployeePage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPageSize
	}

	total, err := s.Store.Count(ctx)
	if err != nil {
		return EmployeePage{}, fmt.Errorf("failed to count employees: %w", err)
	}
	records, err := s.Store.Page(ctx, (page-1)*perPage, perPage)
	if err != nil {
		return EmployeePage{}, fmt.Errorf("failed to list employees: %w", err)
	}

	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	return EmployeePage{
		Employees:   records,
		CurrentPage: page,
		PerPage:     perPage,
		TotalPages:  totalPages,
		TotalCount:  total,
	}, nil
}

// SalaryBreakdown recomputes an employee's pay with the rates active now.
// The stored record is not modified.
func (s *Service) SalaryBreakdown(ctx context.Context, id string) (SalaryBreakdown, error) {
	rec, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return SalaryBreakdown{}, err
	}
	comp, err := s.Calculator.Calculate(ctx, rec.GrossSalary, rec.CountryCode)
	if err != nil {
		return SalaryBreakdown{}, err
	}
	return SalaryBreakdown{EmployeeID: rec.ID, CurrencyCode: rec.CurrencyCode, Compensation: comp}, nil
}
