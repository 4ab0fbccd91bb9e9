package transaction_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
	"github.com/MrJamesThe3rd/capital/internal/http/transaction"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
	"github.com/MrJamesThe3rd/capital/internal/ledger/ledgertest"
)

type fixture struct {
	store   *ledgertest.Store
	handler http.Handler
	userID  uuid.UUID
	salary  uuid.UUID
	food    uuid.UUID
}

func setup(t *testing.T, authenticated bool) *fixture {
	t.Helper()

	store := ledgertest.New()
	store.SeedReserved()

	f := &fixture{
		store:  store,
		userID: store.AddUser(new(decimal.NewFromInt(100))),
		salary: store.AddCategory("Salario", uuid.Nil),
		food:   store.AddCategory("Alimentación", uuid.Nil),
	}

	svc := ledger.NewService(store, ledger.WithClock(func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}))
	h := transaction.NewHandler(svc)

	r := chi.NewRouter()
	if authenticated {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), f.userID)))
			})
		})
	}

	r.Route("/incomes", h.IncomeRoutes)
	r.Route("/expenses", h.ExpenseRoutes)
	r.Route("/reports", h.ReportRoutes)
	r.Get("/me/totals", h.Totals)

	f.handler = r

	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))

	return v
}

func TestHandler_RecordAndTotals(t *testing.T) {
	f := setup(t, true)

	rec := f.do(t, http.MethodPost, "/incomes", map[string]any{
		"category_id": f.salary,
		"amount":      50,
		"description": "Nómina",
		"date":        "2026-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	income := decode[transaction.EntryResponse](t, rec)
	assert.Equal(t, ledger.KindIncome, income.Kind)
	assert.Equal(t, "2026-03-01", income.Date)
	assert.True(t, decimal.NewFromInt(50).Equal(income.Amount))

	rec = f.do(t, http.MethodPost, "/expenses", map[string]any{
		"category_id": f.food,
		"amount":      "30.455",
		"description": "Supermercado",
		"date":        "2026-03-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	expense := decode[transaction.EntryResponse](t, rec)
	assert.Equal(t, "30.46", expense.Amount.StringFixed(2))

	rec = f.do(t, http.MethodGet, "/me/totals", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	totals := decode[struct {
		CurrentCapital decimal.Decimal `json:"current_capital"`
		TotalIncome    decimal.Decimal `json:"total_income"`
		TotalExpense   decimal.Decimal `json:"total_expense"`
		Consistent     bool            `json:"consistent"`
	}](t, rec)
	assert.Equal(t, "119.54", totals.CurrentCapital.StringFixed(2))
	assert.Equal(t, "50.00", totals.TotalIncome.StringFixed(2))
	assert.Equal(t, "30.46", totals.TotalExpense.StringFixed(2))
	assert.True(t, totals.Consistent)
}

func TestHandler_RecordValidation(t *testing.T) {
	f := setup(t, true)

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{
			name:  "malformed body",
			body:  "not an object",
			field: "body",
		},
		{
			name:  "missing category",
			body:  map[string]any{"amount": 10, "description": "x", "date": "2026-03-01"},
			field: "category_id",
		},
		{
			name:  "zero amount",
			body:  map[string]any{"category_id": uuid.New(), "amount": 0, "description": "x", "date": "2026-03-01"},
			field: "amount",
		},
		{
			name:  "bad date",
			body:  map[string]any{"category_id": uuid.New(), "amount": 1, "description": "x", "date": "01/03/2026"},
			field: "date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/expenses", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			resp := decode[render.ErrorResponse](t, rec)
			assert.Equal(t, "validation failed", resp.Error)
			assert.Contains(t, resp.Fields, tt.field)
		})
	}

	assert.True(t, decimal.NewFromInt(100).Equal(f.store.Balance(f.userID)))
}

func TestHandler_Report(t *testing.T) {
	f := setup(t, true)

	for _, e := range []struct {
		path, date string
		category   uuid.UUID
	}{
		{"/incomes", "2026-01-10", f.salary},
		{"/expenses", "2026-02-10", f.food},
		{"/expenses", "2026-03-10", f.food},
	} {
		rec := f.do(t, http.MethodPost, e.path, map[string]any{
			"category_id": e.category,
			"amount":      10,
			"description": "entry " + e.date,
			"date":        e.date,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodGet, "/reports?from=2026-02-01&to=2026-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := decode[[]transaction.EntryResponse](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-03-10", entries[0].Date)
	assert.Equal(t, "2026-02-10", entries[1].Date)

	rec = f.do(t, http.MethodGet, "/reports?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/reports/monthly?year=2026&months=2,1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	monthly := decode[struct {
		Year   int `json:"year"`
		Months []struct {
			Month   int             `json:"month"`
			Income  decimal.Decimal `json:"income"`
			Expense decimal.Decimal `json:"expense"`
		} `json:"months"`
	}](t, rec)
	assert.Equal(t, 2026, monthly.Year)
	require.Len(t, monthly.Months, 2)
	assert.Equal(t, 1, monthly.Months[0].Month)
	assert.Equal(t, "10.00", monthly.Months[0].Income.StringFixed(2))
	assert.Equal(t, 2, monthly.Months[1].Month)
	assert.Equal(t, "10.00", monthly.Months[1].Expense.StringFixed(2))

	rec = f.do(t, http.MethodGet, "/reports/monthly?months=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RequiresUser(t *testing.T) {
	f := setup(t, false)

	for _, path := range []string{"/incomes", "/expenses", "/reports", "/me/totals"} {
		rec := f.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
