package ledger_test

import (
	"context"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

func seedJournal(t *testing.T, f *fixture) {
	t.Helper()

	ctx := context.Background()

	for _, e := range []struct {
		income bool
		amount string
		date   string
		desc   string
	}{
		{true, "1000", "2026-01-31", "Nómina enero"},
		{false, "200", "2026-01-15", "Alquiler"},
		{true, "1000", "2026-02-28", "Nómina febrero"},
		{false, "50.25", "2026-02-03", "Supermercado"},
		{false, "20", "2025-12-24", "Regalos"},
	} {
		p := ledger.EntryParams{Amount: d(e.amount), Description: e.desc, Date: e.date}

		if e.income {
			p.CategoryID = f.salary
			_, err := f.svc.RecordIncome(ctx, f.userID, p)
			require.NoError(t, err)

			continue
		}

		p.CategoryID = f.groceries
		_, err := f.svc.RecordExpense(ctx, f.userID, p)
		require.NoError(t, err)
	}
}

func TestTotals(t *testing.T) {
	f := newFixture(t, "300")
	seedJournal(t, f)

	totals, err := f.svc.Totals(context.Background(), f.userID)
	require.NoError(t, err)

	assertDecimal(t, "300", totals.InitialCapital)
	assertDecimal(t, "2000", totals.TotalIncome)
	assertDecimal(t, "270.25", totals.TotalExpense)
	assertDecimal(t, "2029.75", totals.CurrentCapital)
	assert.True(t, totals.Consistent)
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "0")
	seedJournal(t, f)

	entries, err := f.svc.Report(ctx, f.userID, ledger.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 5)

	var dates []string
	for _, e := range entries {
		dates = append(dates, e.Date.Format(time.DateOnly))
	}

	assert.Equal(t, []string{"2026-02-28", "2026-02-03", "2026-01-31", "2026-01-15", "2025-12-24"}, dates)
	assert.Equal(t, ledger.KindIncome, entries[0].Kind)
	assert.Equal(t, "Salario", entries[0].CategoryName)
	assert.Equal(t, ledger.KindExpense, entries[1].Kind)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	january, err := f.svc.Report(ctx, f.userID, ledger.EntryFilter{StartDate: &from, EndDate: &to})
	require.NoError(t, err)
	assert.Len(t, january, 2)

	_, err = f.svc.Report(ctx, f.userID, ledger.EntryFilter{StartDate: &to, EndDate: &from})
	assert.True(t, apperr.IsValidation(err))
}

func TestMonthly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "0")
	seedJournal(t, f)

	t.Run("whole current year", func(t *testing.T) {
		months, err := f.svc.Monthly(ctx, f.userID, 0, nil)
		require.NoError(t, err)
		require.Len(t, months, 12)

		assert.Equal(t, time.January, months[0].Month)
		assertDecimal(t, "1000", months[0].Income)
		assertDecimal(t, "200", months[0].Expense)
		assertDecimal(t, "50.25", months[1].Expense)
		assertDecimal(t, "0", months[11].Income)
	})

	t.Run("selected months", func(t *testing.T) {
		months, err := f.svc.Monthly(ctx, f.userID, 2025, []time.Month{time.December, time.November, time.December})
		require.NoError(t, err)
		require.Len(t, months, 2)

		assert.Equal(t, time.November, months[0].Month)
		assertDecimal(t, "20", months[1].Expense)
	})

	t.Run("invalid month", func(t *testing.T) {
		_, err := f.svc.Monthly(ctx, f.userID, 2026, []time.Month{13})
		assert.True(t, apperr.IsValidation(err))
	})
}
