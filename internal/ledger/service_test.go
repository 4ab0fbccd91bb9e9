package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
	"github.com/MrJamesThe3rd/capital/internal/ledger/ledgertest"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

type fixture struct {
	store     *ledgertest.Store
	svc       *ledger.Service
	userID    uuid.UUID
	salary    uuid.UUID
	groceries uuid.UUID
}

func newFixture(t *testing.T, initial string) *fixture {
	t.Helper()

	store := ledgertest.New()
	store.SeedReserved()

	f := &fixture{
		store:     store,
		svc:       ledger.NewService(store, ledger.WithClock(func() time.Time { return time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC) })),
		userID:    store.AddUser(ptr(d(initial))),
		salary:    store.AddCategory("Salario", uuid.Nil),
		groceries: store.AddCategory("Alimentación", uuid.Nil),
	}

	return f
}

func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()

	totals, err := f.svc.Totals(context.Background(), f.userID)
	require.NoError(t, err)
	assert.True(t, totals.Consistent, "current %s, expected %s", totals.CurrentCapital, totals.ExpectedCapital)
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "100")

	_, err := f.svc.RecordIncome(ctx, f.userID, ledger.EntryParams{
		CategoryID: f.salary, Amount: d("50"), Description: "Nómina", Date: "2026-03-01",
	})
	require.NoError(t, err)
	assertDecimal(t, "150", f.store.Balance(f.userID))

	_, err = f.svc.RecordExpense(ctx, f.userID, ledger.EntryParams{
		CategoryID: f.groceries, Amount: d("30"), Description: "Supermercado", Date: "2026-03-02",
	})
	require.NoError(t, err)
	assertDecimal(t, "120", f.store.Balance(f.userID))

	created, err := f.svc.CreatePlan(ctx, f.userID, ledger.PlanParams{
		Name: "Vacaciones", TargetAmount: d("200"), InitialAmount: ptr(d("20")),
		StartDate: "2026-03-01", TargetDate: "2026-12-31",
	})
	require.NoError(t, err)
	assertDecimal(t, "100", created.Balance)
	assertDecimal(t, "20", created.Plan.Accumulated)
	require.NotNil(t, created.Expense)
	assert.Equal(t, "Depósito inicial al plan de ahorro", created.Expense.Description)
	assert.Equal(t, "2026-03-01", created.Expense.Date.Format(time.DateOnly))

	dep, err := f.svc.Deposit(ctx, f.userID, created.Plan.ID, ledger.DepositParams{Amount: d("10"), Date: "2026-03-10"})
	require.NoError(t, err)
	assertDecimal(t, "90", dep.Balance)
	assertDecimal(t, "30", dep.Plan.Accumulated)
	assert.Equal(t, "Deposito al plan de ahorro", dep.Expense.Description)
	assertDecimal(t, "30", f.store.PlanExpenseTotal(created.Plan.ID))

	del, err := f.svc.DeletePlan(ctx, f.userID, created.Plan.ID)
	require.NoError(t, err)
	assertDecimal(t, "120", del.Balance)
	assertDecimal(t, "30", del.Reversed)
	assert.Equal(t, 2, del.ExpensesRemoved)
	assertDecimal(t, "0", del.Plan.Accumulated)

	assertDecimal(t, "120", f.store.Balance(f.userID))
	assert.Equal(t, 0, f.store.Plans())
	assert.Len(t, f.store.Expenses(f.userID), 1)
	f.assertConsistent(t)
}

func TestRecordEntry_Validation(t *testing.T) {
	f := newFixture(t, "0")

	tests := []struct {
		name   string
		params ledger.EntryParams
		field  string
	}{
		{
			name:   "missing category",
			params: ledger.EntryParams{Amount: d("10"), Description: "x", Date: "2026-01-01"},
			field:  "category_id",
		},
		{
			name:   "zero amount",
			params: ledger.EntryParams{CategoryID: f.salary, Amount: d("0"), Description: "x", Date: "2026-01-01"},
			field:  "amount",
		},
		{
			name:   "negative amount",
			params: ledger.EntryParams{CategoryID: f.salary, Amount: d("-5"), Description: "x", Date: "2026-01-01"},
			field:  "amount",
		},
		{
			name:   "rounds to zero",
			params: ledger.EntryParams{CategoryID: f.salary, Amount: d("0.001"), Description: "x", Date: "2026-01-01"},
			field:  "amount",
		},
		{
			name:   "amount beyond column range",
			params: ledger.EntryParams{CategoryID: f.salary, Amount: d("1000000000000"), Description: "x", Date: "2026-01-01"},
			field:  "amount",
		},
		{
			name:   "missing description",
			params: ledger.EntryParams{CategoryID: f.salary, Amount: d("10"), Description: "  ", Date: "2026-01-01"},
			field:  "description",
		},
		{
			name:   "description too long",
			params: ledger.EntryParams{CategoryID: f.salary, Amount: d("10"), Description: strings.Repeat("ñ", 256), Date: "2026-01-01"},
			field:  "description",
		},
		{
			name:   "missing date",
			params: ledger.EntryParams{CategoryID: f.salary, Amount: d("10"), Description: "x"},
			field:  "date",
		},
		{
			name:   "not a calendar date",
			params: ledger.EntryParams{CategoryID: f.salary, Amount: d("10"), Description: "x", Date: "2026-02-30"},
			field:  "date",
		},
		{
			name:   "wrong layout",
			params: ledger.EntryParams{CategoryID: f.salary, Amount: d("10"), Description: "x", Date: "01/02/2026"},
			field:  "date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordIncome(context.Background(), f.userID, tt.params)

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assertDecimal(t, "0", f.store.Balance(f.userID))
		})
	}
}

func TestRecordEntry_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "0")
	other := f.store.AddUser(nil)
	private := f.store.AddCategory("Privada", other)

	tests := []struct {
		name   string
		userID uuid.UUID
		cat    uuid.UUID
	}{
		{name: "unknown user", userID: uuid.New(), cat: f.salary},
		{name: "unknown category", userID: f.userID, cat: uuid.New()},
		{name: "category of another user", userID: f.userID, cat: private},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordExpense(ctx, tt.userID, ledger.EntryParams{
				CategoryID: tt.cat, Amount: d("10"), Description: "x", Date: "2026-01-01",
			})
			assert.ErrorIs(t, err, apperr.ErrNotFound)
			assert.Empty(t, f.store.Expenses(f.userID))
		})
	}
}

func TestRecordIncome_FailureLeavesBalance(t *testing.T) {
	f := newFixture(t, "100")
	f.store.FailOn("AdjustBalance")

	_, err := f.svc.RecordIncome(context.Background(), f.userID, ledger.EntryParams{
		CategoryID: f.salary, Amount: d("50"), Description: "Nómina", Date: "2026-03-01",
	})
	require.ErrorIs(t, err, ledgertest.ErrInjected)

	incomes, err := f.svc.ListIncomes(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, incomes)
	assertDecimal(t, "100", f.store.Balance(f.userID))
}

func TestCreditDebit_RejectOutOfRange(t *testing.T) {
	store := ledgertest.New()
	userID := store.AddUser(ptr(d("10")))

	for _, amount := range []string{"0", "-1", "1000000000000", "5000000000000.50"} {
		tx, err := store.Begin(context.Background())
		require.NoError(t, err)

		_, err = ledger.Credit(context.Background(), tx, userID, d(amount))
		assert.True(t, apperr.IsValidation(err), "credit %s", amount)

		_, err = ledger.Debit(context.Background(), tx, userID, d(amount))
		assert.True(t, apperr.IsValidation(err), "debit %s", amount)

		require.NoError(t, tx.Rollback())
	}

	assertDecimal(t, "10", store.Balance(userID))
}

func TestSetInitialCapital(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.New()
	svc := ledger.NewService(store)
	userID := store.AddUser(nil)
	cat := store.AddCategory("Salario", uuid.Nil)

	_, err := svc.RecordIncome(ctx, userID, ledger.EntryParams{CategoryID: cat, Amount: d("40"), Description: "x", Date: "2026-01-05"})
	require.NoError(t, err)

	_, err = svc.SetInitialCapital(ctx, userID, d("-1"))
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.SetInitialCapital(ctx, userID, d("1000000000000"))
	assert.True(t, apperr.IsValidation(err))

	acct, err := svc.SetInitialCapital(ctx, userID, d("100"))
	require.NoError(t, err)
	require.NotNil(t, acct.InitialCapital)
	assertDecimal(t, "100", *acct.InitialCapital)
	assertDecimal(t, "140", acct.CurrentCapital)

	_, err = svc.SetInitialCapital(ctx, userID, d("5"))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	totals, err := svc.Totals(ctx, userID)
	require.NoError(t, err)
	assert.True(t, totals.Consistent)
	assertDecimal(t, "140", totals.CurrentCapital)
}

func TestOwnershipEnforcement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "500")
	intruder := f.store.AddUser(ptr(d("500")))

	created, err := f.svc.CreatePlan(ctx, f.userID, ledger.PlanParams{
		Name: "Coche", TargetAmount: d("1000"), InitialAmount: ptr(d("100")),
		StartDate: "2026-01-01", TargetDate: "2026-06-30",
	})
	require.NoError(t, err)

	sub, err := f.svc.CreateSubscription(ctx, f.userID, ledger.SubscriptionParams{
		Name: "Netflix", Cost: d("12.99"), Frequency: "mensual", StartDate: "2026-01-01",
	})
	require.NoError(t, err)

	ops := map[string]func() error{
		"deposit": func() error {
			_, err := f.svc.Deposit(ctx, intruder, created.Plan.ID, ledger.DepositParams{Amount: d("10"), Date: "2026-02-01"})
			return err
		},
		"update": func() error {
			_, err := f.svc.UpdatePlan(ctx, intruder, created.Plan.ID, ledger.PlanPatch{Name: ptr("mine")})
			return err
		},
		"delete plan": func() error {
			_, err := f.svc.DeletePlan(ctx, intruder, created.Plan.ID)
			return err
		},
		"get plan": func() error {
			_, err := f.svc.GetPlan(ctx, intruder, created.Plan.ID)
			return err
		},
		"pay": func() error {
			_, err := f.svc.PaySubscription(ctx, intruder, sub.ID)
			return err
		},
		"delete subscription": func() error {
			return f.svc.DeleteSubscription(ctx, intruder, sub.ID)
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), apperr.ErrForbidden)

			assertDecimal(t, "400", f.store.Balance(f.userID))
			assertDecimal(t, "500", f.store.Balance(intruder))
			assertDecimal(t, "100", f.store.PlanExpenseTotal(created.Plan.ID))
			assert.Empty(t, f.store.Expenses(intruder))

			plan, err := f.svc.GetPlan(ctx, f.userID, created.Plan.ID)
			require.NoError(t, err)
			assert.Equal(t, "Coche", plan.Name)

			subs, err := f.svc.ListSubscriptions(ctx, f.userID)
			require.NoError(t, err)
			assert.Len(t, subs, 1)
		})
	}
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")

	created, err := f.svc.CreatePlan(ctx, f.userID, ledger.PlanParams{
		Name: "Fondo", TargetAmount: d("5000"), InitialAmount: ptr(d("0")),
		StartDate: "2026-01-01", TargetDate: "2026-12-31",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			_, err := f.svc.Deposit(ctx, f.userID, created.Plan.ID, ledger.DepositParams{Amount: d("5"), Date: "2026-02-01"})
			assert.NoError(t, err)
		}()

		go func() {
			defer wg.Done()

			_, err := f.svc.RecordIncome(ctx, f.userID, ledger.EntryParams{
				CategoryID: f.salary, Amount: d("2.50"), Description: "extra", Date: "2026-02-01",
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assertDecimal(t, "950", f.store.Balance(f.userID))
	assertDecimal(t, "100", f.store.PlanExpenseTotal(created.Plan.ID))

	plan, err := f.svc.GetPlan(ctx, f.userID, created.Plan.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", plan.Accumulated)
	f.assertConsistent(t)
}

func TestBeginFailure(t *testing.T) {
	f := newFixture(t, "10")
	f.store.FailOn("Begin")

	_, err := f.svc.RecordExpense(context.Background(), f.userID, ledger.EntryParams{
		CategoryID: f.groceries, Amount: d("1"), Description: "x", Date: "2026-01-01",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledgertest.ErrInjected))
}

func TestRandomSequenceKeepsInvariants(t *testing.T) {
	const steps = 200

	for _, seed := range []uint64{1, 7, 2026} {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			ctx := context.Background()
			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			f := newFixture(t, "1000")

			amount := func() decimal.Decimal {
				return decimal.New(int64(rng.IntN(50000)+1), -2)
			}
			date := func() string {
				return time.Date(2026, time.Month(rng.IntN(12)+1), rng.IntN(28)+1, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
			}

			sub, err := f.svc.CreateSubscription(ctx, f.userID, ledger.SubscriptionParams{
				Name: "Streaming", Cost: d("12.99"), Frequency: "mensual", StartDate: "2026-01-01",
			})
			require.NoError(t, err)

			var plans []uuid.UUID

			for i := range steps {
				op := rng.IntN(6)

				switch op {
				case 0:
					_, err = f.svc.RecordIncome(ctx, f.userID, ledger.EntryParams{
						CategoryID: f.salary, Amount: amount(), Description: "Ingreso", Date: date(),
					})
				case 1:
					_, err = f.svc.RecordExpense(ctx, f.userID, ledger.EntryParams{
						CategoryID: f.groceries, Amount: amount(), Description: "Gasto", Date: date(),
					})
				case 2:
					var created *ledger.PlanMovement

					initial := decimal.Zero
					if rng.IntN(2) == 0 {
						initial = amount()
					}

					created, err = f.svc.CreatePlan(ctx, f.userID, ledger.PlanParams{
						Name:          fmt.Sprintf("Plan %d", i),
						TargetAmount:  amount().Add(d("1000")),
						InitialAmount: ptr(initial),
						StartDate:     "2026-01-01",
						TargetDate:    "2026-12-31",
					})
					if err == nil {
						plans = append(plans, created.Plan.ID)
					}
				case 3:
					if len(plans) == 0 {
						continue
					}

					_, err = f.svc.Deposit(ctx, f.userID, plans[rng.IntN(len(plans))], ledger.DepositParams{Amount: amount(), Date: date()})
				case 4:
					if len(plans) == 0 {
						continue
					}

					idx := rng.IntN(len(plans))
					_, err = f.svc.DeletePlan(ctx, f.userID, plans[idx])
					plans = slices.Delete(plans, idx, idx+1)
				case 5:
					_, err = f.svc.PaySubscription(ctx, f.userID, sub.ID)
				}

				require.NoError(t, err, "step %d op %d", i, op)

				var totals *ledger.Totals
				totals, err = f.svc.Totals(ctx, f.userID)
				require.NoError(t, err)
				require.True(t, totals.Consistent, "step %d op %d: current %s, expected %s", i, op, totals.CurrentCapital, totals.ExpectedCapital)
				assertDecimal(t, totals.CurrentCapital.String(), f.store.Balance(f.userID), "step %d", i)

				for _, id := range plans {
					plan, err := f.svc.GetPlan(ctx, f.userID, id)
					require.NoError(t, err)
					require.True(t, f.store.PlanExpenseTotal(id).Equal(plan.Accumulated),
						"step %d plan %s: expenses %s, accumulated %s", i, id, f.store.PlanExpenseTotal(id), plan.Accumulated)
				}
			}

			existing, _, err := f.svc.ListPlans(ctx, f.userID)
			require.NoError(t, err)
			assert.Len(t, existing, len(plans))
		})
	}
}
