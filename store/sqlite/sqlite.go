/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements payroll.EmployeeStore and payroll.TaxRateStore using SQLite.
  In production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  employees:  Employee records with derived compensation fields
  tax_rates:  Withholding rates per country (active flag, effective dates)

MONEY:
  Amounts are stored as TEXT holding the exact decimal string, never REAL,
  so a value read back is identical to the value saved.

ORDERING:
  "Natural order" is SQLite rowid order, i.e. insertion order. An upsert
  on an existing id keeps its rowid, so updates do not reorder records.
  The first active tax rate for a country is the one with the lowest rowid.

INDEXES:
  - idx_employees_country:        FilterByCountry / by-country metrics
  - idx_employees_job_title:      job title listing
  - idx_tax_rates_country_active: ActiveRateFor (hot path on every save)
  - idx_tax_rates_one_active:     At most one active entry per country

CONCURRENCY:
  Two sync.RWMutex, one per table. Update() holds the employee lock across
  load, callback and save so read-modify-write of a record is serialized;
  the callback is free to read tax rates because those use the other lock.

USAGE:
  store, err := sqlite.New("./data/compensation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - payroll/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/payroll"
)

// Store implements the payroll storage interfaces using SQLite.
type Store struct {
	db     *sql.DB
	empMu  sync.RWMutex
	rateMu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		job_title TEXT NOT NULL,
		country_code TEXT NOT NULL,
		currency_code TEXT,
		gross_salary TEXT NOT NULL,
		net_salary TEXT,
		tax_rate_percentage INTEGER DEFAULT 0,
		deduction_amount TEXT DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_country
		ON employees(country_code);
	CREATE INDEX IF NOT EXISTS idx_employees_job_title
		ON employees(job_title);

	CREATE TABLE IF NOT EXISTS tax_rates (
		id TEXT PRIMARY KEY,
		country_code TEXT NOT NULL,
		rate_percentage TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		effective_from TEXT,
		effective_to TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tax_rates_country_active
		ON tax_rates(country_code, active);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tax_rates_one_active
		ON tax_rates(country_code) WHERE active;
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes every employee and tax rate.
func (s *Store) Reset(ctx context.Context) error {
	s.empMu.Lock()
	defer s.empMu.Unlock()
	s.rateMu.Lock()
	defer s.rateMu.Unlock()

	for _, table := range []string{"employees", "tax_rates"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// EMPLOYEE STORE (payroll.EmployeeStore interface)
// =============================================================================

const employeeColumns = `id, first_name, last_name, job_title, country_code, currency_code,
	gross_salary, net_salary, tax_rate_percentage, deduction_amount, created_at, updated_at`

// All returns every employee in insertion order.
func (s *Store) All(ctx context.Context) ([]payroll.EmployeeRecord, error) {
	s.empMu.RLock()
	defer s.empMu.RUnlock()

	return s.queryEmployees(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY rowid")
}

// Page returns a slice of employees in insertion order.
func (s *Store) Page(ctx context.Context, offset, limit int) ([]payroll.EmployeeRecord, error) {
	s.empMu.RLock()
	defer s.empMu.RUnlock()

	return s.queryEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employees ORDER BY rowid LIMIT ? OFFSET ?",
		limit, offset)
}

// Count returns the number of employees.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.empMu.RLock()
	defer s.empMu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees").Scan(&count)
	return count, err
}

// FindByID retrieves an employee by ID.
func (s *Store) FindByID(ctx context.Context, id string) (payroll.EmployeeRecord, error) {
	s.empMu.RLock()
	defer s.empMu.RUnlock()

	return s.findByID(ctx, id)
}

func (s *Store) findByID(ctx context.Context, id string) (payroll.EmployeeRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	rec, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.EmployeeRecord{}, payroll.ErrEmployeeNotFound
	}
	return rec, err
}

// FilterByCountry returns employees with exactly this country code.
func (s *Store) FilterByCountry(ctx context.Context, countryCode string) ([]payroll.EmployeeRecord, error) {
	s.empMu.RLock()
	defer s.empMu.RUnlock()

	return s.queryEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE country_code = ? ORDER BY rowid",
		countryCode)
}

// FilterByJobTitle returns employees whose job title equals jobTitle, ignoring case.
func (s *Store) FilterByJobTitle(ctx context.Context, jobTitle string) ([]payroll.EmployeeRecord, error) {
	s.empMu.RLock()
	defer s.empMu.RUnlock()

	// SQLite only folds ASCII case, so narrow by character length in SQL and
	// compare in Go. Simple case folding never changes the rune count.
	want := strings.TrimSpace(jobTitle)
	candidates, err := s.queryEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE LENGTH(job_title) = LENGTH(?) ORDER BY rowid",
		want)
	if err != nil {
		return nil, err
	}
	var out []payroll.EmployeeRecord
	for _, rec := range candidates {
		if strings.EqualFold(rec.JobTitle, want) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Save inserts or replaces an employee.
func (s *Store) Save(ctx context.Context, rec payroll.EmployeeRecord) error {
	s.empMu.Lock()
	defer s.empMu.Unlock()

	return s.save(ctx, rec)
}

func (s *Store) save(ctx context.Context, rec payroll.EmployeeRecord) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			job_title = excluded.job_title,
			country_code = excluded.country_code,
			currency_code = excluded.currency_code,
			gross_salary = excluded.gross_salary,
			net_salary = excluded.net_salary,
			tax_rate_percentage = excluded.tax_rate_percentage,
			deduction_amount = excluded.deduction_amount,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	createdAt, updatedAt := rec.CreatedAt, rec.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.FirstName,
		rec.LastName,
		rec.JobTitle,
		rec.CountryCode,
		rec.CurrencyCode,
		rec.GrossSalary.String(),
		rec.NetSalary.String(),
		rec.TaxRatePercentage,
		rec.DeductionAmount.String(),
		createdAt.Format(time.RFC3339Nano),
		updatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// Update performs a serialized read-modify-write of one employee.
func (s *Store) Update(ctx context.Context, id string, fn func(*payroll.EmployeeRecord) error) (payroll.EmployeeRecord, error) {
	s.empMu.Lock()
	defer s.empMu.Unlock()

	rec, err := s.findByID(ctx, id)
	if err != nil {
		return payroll.EmployeeRecord{}, err
	}
	if err := fn(&rec); err != nil {
		return payroll.EmployeeRecord{}, err
	}
	rec.ID = id
	if err := s.save(ctx, rec); err != nil {
		return payroll.EmployeeRecord{}, err
	}
	return rec, nil
}

// Delete removes an employee.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.empMu.Lock()
	defer s.empMu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return payroll.ErrEmployeeNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (payroll.EmployeeRecord, error) {
	var rec payroll.EmployeeRecord
	var currency sql.NullString
	var gross, net, deduction sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&rec.ID, &rec.FirstName, &rec.LastName, &rec.JobTitle, &rec.CountryCode, &currency,
		&gross, &net, &rec.TaxRatePercentage, &deduction, &createdAt, &updatedAt,
	)
	if err != nil {
		return payroll.EmployeeRecord{}, err
	}

	rec.CurrencyCode = currency.String
	if rec.GrossSalary, err = parseDecimal(gross); err != nil {
		return payroll.EmployeeRecord{}, fmt.Errorf("employee %s gross_salary: %w", rec.ID, err)
	}
	if rec.NetSalary, err = parseDecimal(net); err != nil {
		return payroll.EmployeeRecord{}, fmt.Errorf("employee %s net_salary: %w", rec.ID, err)
	}
	if rec.DeductionAmount, err = parseDecimal(deduction); err != nil {
		return payroll.EmployeeRecord{}, fmt.Errorf("employee %s deduction_amount: %w", rec.ID, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return payroll.EmployeeRecord{}, fmt.Errorf("employee %s created_at: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return payroll.EmployeeRecord{}, fmt.Errorf("employee %s updated_at: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]payroll.EmployeeRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []payroll.EmployeeRecord
	for rows.Next() {
		rec, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, rec)
	}
	return employees, rows.Err()
}

// =============================================================================
// TAX RATE STORE (payroll.TaxRateStore interface)
// =============================================================================

// ActiveRateFor returns the first active rate for a country.
func (s *Store) ActiveRateFor(ctx context.Context, countryCode string) (decimal.Decimal, bool, error) {
	s.rateMu.RLock()
	defer s.rateMu.RUnlock()

	var rate string
	err := s.db.QueryRowContext(ctx,
		"SELECT rate_percentage FROM tax_rates WHERE country_code = ? AND active ORDER BY rowid LIMIT 1",
		payroll.NormalizeCountryCode(countryCode),
	).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to query tax rate: %w", err)
	}

	d, err := decimal.NewFromString(rate)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("stored tax rate for %s: %w", countryCode, err)
	}
	return d, true, nil
}

// ListTaxRates returns all tax rates in insertion order.
func (s *Store) ListTaxRates(ctx context.Context) ([]payroll.TaxRateEntry, error) {
	s.rateMu.RLock()
	defer s.rateMu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country_code, rate_percentage, active, effective_from, effective_to, created_at
		FROM tax_rates ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax rates: %w", err)
	}
	defer rows.Close()

	var entries []payroll.TaxRateEntry
	for rows.Next() {
		var e payroll.TaxRateEntry
		var rate, createdAt string
		var from, to sql.NullString
		if err := rows.Scan(&e.ID, &e.CountryCode, &rate, &e.Active, &from, &to, &createdAt); err != nil {
			return nil, err
		}
		if e.RatePercentage, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("tax rate %s rate_percentage: %w", e.ID, err)
		}
		if e.EffectiveFrom, err = parseDate(from); err != nil {
			return nil, fmt.Errorf("tax rate %s effective_from: %w", e.ID, err)
		}
		if e.EffectiveTo, err = parseDate(to); err != nil {
			return nil, fmt.Errorf("tax rate %s effective_to: %w", e.ID, err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("tax rate %s created_at: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateTaxRate validates and inserts a tax rate.
func (s *Store) CreateTaxRate(ctx context.Context, entry payroll.TaxRateEntry) error {
	if err := payroll.ValidateTaxRate(entry); err != nil {
		return err
	}
	entry.CountryCode = payroll.NormalizeCountryCode(entry.CountryCode)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	s.rateMu.Lock()
	defer s.rateMu.Unlock()

	if entry.Active {
		var existing string
		err := s.db.QueryRowContext(ctx,
			"SELECT id FROM tax_rates WHERE country_code = ? AND active ORDER BY rowid LIMIT 1",
			entry.CountryCode,
		).Scan(&existing)
		if err == nil {
			return &payroll.DuplicateActiveRateError{CountryCode: entry.CountryCode, ExistingID: existing}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check active tax rate: %w", err)
		}
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tax_rates (id, country_code, rate_percentage, active, effective_from, effective_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CountryCode,
		entry.RatePercentage.String(),
		entry.Active,
		formatDate(entry.EffectiveFrom),
		formatDate(entry.EffectiveTo),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &payroll.DuplicateActiveRateError{CountryCode: entry.CountryCode}
		}
		return fmt.Errorf("failed to create tax rate: %w", err)
	}
	return nil
}

// DeactivateTaxRate clears a tax rate's active flag.
func (s *Store) DeactivateTaxRate(ctx context.Context, id string) error {
	s.rateMu.Lock()
	defer s.rateMu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE tax_rates SET active = FALSE WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate tax rate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return payroll.ErrTaxRateNotFound
	}
	return nil
}

var (
	_ payroll.EmployeeStore = (*Store)(nil)
	_ payroll.TaxRateStore  = (*Store)(nil)
)

// =============================================================================
// HELPERS
// =============================================================================

const dateLayout = "2006-01-02"

func parseDecimal(v sql.NullString) (decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v.String)
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func parseDate(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
