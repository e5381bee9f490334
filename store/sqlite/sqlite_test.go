package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/compensation-engine/payroll"
	"github.com/warp/compensation-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id, title, country, gross string) payroll.EmployeeRecord {
	ts := time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC)
	return payroll.EmployeeRecord{
		ID:                id,
		FirstName:         "First " + id,
		LastName:          "Last",
		JobTitle:          title,
		CountryCode:       country,
		CurrencyCode:      "INR",
		GrossSalary:       payroll.MustParseDecimal(gross),
		NetSalary:         payroll.MustParseDecimal("49999.99"),
		TaxRatePercentage: 10,
		DeductionAmount:   payroll.MustParseDecimal("5555.56"),
		CreatedAt:         ts,
		UpdatedAt:         ts,
	}
}

func ids(recs []payroll.EmployeeRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestStore_SaveAndFind_RoundTripsExactly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rec := record("e1", "Engineer", "IN", "55555.55")

	require.NoError(t, store.Save(ctx, rec))

	got, err := store.FindByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, rec.FirstName, got.FirstName)
	assert.Equal(t, rec.CurrencyCode, got.CurrencyCode)
	assert.True(t, rec.GrossSalary.Equal(got.GrossSalary))
	assert.Equal(t, "49999.99", got.NetSalary.StringFixed(2))
	assert.Equal(t, "5555.56", got.DeductionAmount.StringFixed(2))
	assert.Equal(t, 10, got.TaxRatePercentage)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_FindByID_Missing(t *testing.T) {
	_, err := newTestStore(t).FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestStore_UpsertKeepsInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, record(id, "Engineer", "IN", "1000")))
	}

	changed := record("a", "Manager", "IN", "2000")
	require.NoError(t, store.Save(ctx, changed))

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(all))
	assert.Equal(t, "Manager", all[0].JobTitle)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStore_Page(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Save(ctx, record(id, "Engineer", "IN", "1000")))
	}

	page, err := store.Page(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, ids(page))

	past, err := store.Page(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestStore_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record("e1", "Backend Developer", "IN", "1000")))
	require.NoError(t, store.Save(ctx, record("e2", "backend developer", "US", "2000")))
	require.NoError(t, store.Save(ctx, record("e3", "Senior Backend Developer", "IN", "3000")))
	require.NoError(t, store.Save(ctx, record("e4", "Ingénieur", "FR", "4000")))

	byCountry, err := store.FilterByCountry(ctx, "IN")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e3"}, ids(byCountry))

	byTitle, err := store.FilterByJobTitle(ctx, "BACKEND DEVELOPER")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, ids(byTitle))

	unicode, err := store.FilterByJobTitle(ctx, "INGÉNIEUR")
	require.NoError(t, err)
	assert.Equal(t, []string{"e4"}, ids(unicode))
}

func TestStore_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record("e1", "Engineer", "IN", "1000")))

	updated, err := store.Update(ctx, "e1", func(rec *payroll.EmployeeRecord) error {
		rec.JobTitle = "Lead"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Lead", updated.JobTitle)

	got, err := store.FindByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Lead", got.JobTitle)
}

func TestStore_Update_CallbackErrorSavesNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record("e1", "Engineer", "IN", "1000")))

	var verrs payroll.ValidationErrors
	verrs.Add(payroll.FieldJobTitle, payroll.MsgBlank)
	_, err := store.Update(ctx, "e1", func(rec *payroll.EmployeeRecord) error {
		rec.JobTitle = ""
		return verrs
	})
	assert.ErrorIs(t, err, payroll.ErrValidation)

	got, err := store.FindByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Engineer", got.JobTitle)
}

func TestStore_Update_CallbackMayReadRates(t *testing.T) {
	// GIVEN: The update callback looks up a tax rate
	// THEN: It does not deadlock on the store's own locks

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record("e1", "Engineer", "IN", "1000")))
	require.NoError(t, store.CreateTaxRate(ctx, payroll.NewTaxRateEntry("IN", payroll.MustParseDecimal("10"))))

	_, err := store.Update(ctx, "e1", func(rec *payroll.EmployeeRecord) error {
		rate, ok, err := store.ActiveRateFor(ctx, rec.CountryCode)
		require.NoError(t, err)
		require.True(t, ok)
		rec.TaxRatePercentage = int(rate.IntPart())
		return nil
	})
	require.NoError(t, err)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record("e1", "Engineer", "IN", "1000")))

	require.NoError(t, store.Delete(ctx, "e1"))
	assert.ErrorIs(t, store.Delete(ctx, "e1"), payroll.ErrEmployeeNotFound)
}

// =============================================================================
// TAX RATES
// =============================================================================

func TestStore_TaxRates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := payroll.NewTaxRateEntry("in", payroll.MustParseDecimal("10.5"))
	from := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	in.EffectiveFrom = &from
	require.NoError(t, store.CreateTaxRate(ctx, in))

	rate, ok, err := store.ActiveRateFor(ctx, "IN")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10.5", rate.String())

	_, ok, err = store.ActiveRateFor(ctx, "US")
	require.NoError(t, err)
	assert.False(t, ok)

	err = store.CreateTaxRate(ctx, payroll.NewTaxRateEntry("IN", payroll.MustParseDecimal("11")))
	var dup *payroll.DuplicateActiveRateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, in.ID, dup.ExistingID)

	require.NoError(t, store.DeactivateTaxRate(ctx, in.ID))
	require.NoError(t, store.CreateTaxRate(ctx, payroll.NewTaxRateEntry("IN", payroll.MustParseDecimal("11"))))

	entries, err := store.ListTaxRates(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "IN", entries[0].CountryCode)
	assert.False(t, entries[0].Active)
	require.NotNil(t, entries[0].EffectiveFrom)
	assert.True(t, from.Equal(*entries[0].EffectiveFrom))
	assert.True(t, entries[1].Active)

	assert.ErrorIs(t, store.DeactivateTaxRate(ctx, "missing"), payroll.ErrTaxRateNotFound)
}

func TestStore_CreateTaxRate_Invalid(t *testing.T) {
	err := newTestStore(t).CreateTaxRate(context.Background(),
		payroll.NewTaxRateEntry("IN", payroll.MustParseDecimal("150")))
	assert.ErrorIs(t, err, payroll.ErrInvalidTaxRate)
}

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record("e1", "Engineer", "IN", "1000")))
	require.NoError(t, store.CreateTaxRate(ctx, payroll.NewTaxRateEntry("IN", payroll.MustParseDecimal("10"))))

	require.NoError(t, store.Reset(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	entries, err := store.ListTaxRates(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_FileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compensation.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, record("e1", "Engineer", "IN", "1000")))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.Ping(ctx))
	got, err := reopened.FindByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Engineer", got.JobTitle)
}

func TestStore_CorruptTimestampsAreErrors(t *testing.T) {
	// GIVEN: Rows whose timestamps were edited outside the store
	// WHEN: Reading them back
	// THEN: The read fails instead of returning zero times

	path := filepath.Join(t.TempDir(), "compensation.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(ctx, record("e1", "Engineer", "IN", "1000")))
	require.NoError(t, store.CreateTaxRate(ctx, payroll.NewTaxRateEntry("IN", payroll.MustParseDecimal("10"))))

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.ExecContext(ctx, "UPDATE employees SET created_at = 'yesterday' WHERE id = 'e1'")
	require.NoError(t, err)
	_, err = raw.ExecContext(ctx, "UPDATE tax_rates SET created_at = 'not a time'")
	require.NoError(t, err)

	_, err = store.FindByID(ctx, "e1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")

	_, err = store.ListTaxRates(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")
}
