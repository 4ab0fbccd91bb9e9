package ledgertest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

var errTxDone = errors.New("unit of work already finished")

type memTx struct {
	store *Store
	st    *state
	done  bool
}

func (t *memTx) finish() {
	t.done = true
	t.store.txLock.Unlock()
}

func (t *memTx) Commit() error {
	if t.done {
		return errTxDone
	}

	if err := t.store.fail("Commit"); err != nil {
		t.finish()
		return err
	}

	t.store.mu.Lock()
	t.store.st = t.st
	t.store.mu.Unlock()

	t.finish()

	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}

	t.finish()

	return nil
}

func (t *memTx) LockAccount(_ context.Context, userID uuid.UUID) (*ledger.Account, error) {
	if err := t.store.fail("LockAccount"); err != nil {
		return nil, err
	}

	return t.st.account(userID)
}

func (t *memTx) AdjustBalance(_ context.Context, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := t.store.fail("AdjustBalance"); err != nil {
		return decimal.Zero, err
	}

	acct, ok := t.st.accounts[userID]
	if !ok {
		return decimal.Zero, apperr.NotFound("user")
	}

	acct.CurrentCapital = acct.CurrentCapital.Add(delta)
	t.st.accounts[userID] = acct

	return acct.CurrentCapital, nil
}

func (t *memTx) SetInitialCapital(_ context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if err := t.store.fail("SetInitialCapital"); err != nil {
		return err
	}

	acct := t.st.accounts[userID]
	acct.InitialCapital = &amount
	t.st.accounts[userID] = acct

	return nil
}

func (t *memTx) CategoryVisible(_ context.Context, categoryID, userID uuid.UUID) (bool, error) {
	c, ok := t.st.categories[categoryID]
	if !ok {
		return false, nil
	}

	return c.isDefault || c.owner == userID, nil
}

func (t *memTx) CategoryByName(_ context.Context, name string) (uuid.UUID, error) {
	for _, c := range t.st.categories {
		if c.isDefault && c.name == name {
			return c.id, nil
		}
	}

	return uuid.Nil, apperr.NotFound("category")
}

func (t *memTx) CreateIncome(_ context.Context, in *ledger.Income) error {
	if err := t.store.fail("CreateIncome"); err != nil {
		return err
	}

	in.ID = uuid.New()
	in.CreatedAt = t.store.tick()
	t.st.incomes = append(t.st.incomes, *in)

	return nil
}

func (t *memTx) CreateExpense(_ context.Context, ex *ledger.Expense) error {
	if err := t.store.fail("CreateExpense"); err != nil {
		return err
	}

	ex.ID = uuid.New()
	ex.CreatedAt = t.store.tick()
	t.st.expenses = append(t.st.expenses, *ex)

	return nil
}

func (t *memTx) FindDuplicates(_ context.Context, userID uuid.UUID, entries []ledger.BatchEntry) ([]*ledger.Entry, error) {
	type key struct {
		date, amount, desc string
		kind               ledger.Kind
	}

	want := map[key]bool{}
	for _, e := range entries {
		want[key{e.Date.Format(time.DateOnly), e.Amount.StringFixed(2), e.Description, e.Kind}] = true
	}

	var out []*ledger.Entry

	for _, e := range t.st.entries(userID, ledger.EntryFilter{}) {
		if want[key{e.Date.Format(time.DateOnly), e.Amount.StringFixed(2), e.Description, e.Kind}] {
			out = append(out, e)
		}
	}

	return out, nil
}

func (t *memTx) CreatePlan(_ context.Context, plan *ledger.SavingsPlan) error {
	if err := t.store.fail("CreatePlan"); err != nil {
		return err
	}

	plan.ID = uuid.New()
	plan.CreatedAt = t.store.tick()
	t.st.plans[plan.ID] = *plan

	return nil
}

func (t *memTx) LockPlan(_ context.Context, id uuid.UUID) (*ledger.SavingsPlan, error) {
	p, ok := t.st.plans[id]
	if !ok {
		return nil, apperr.NotFound("savings plan")
	}

	return &p, nil
}

func (t *memTx) AddToPlan(_ context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := t.store.fail("AddToPlan"); err != nil {
		return decimal.Zero, err
	}

	p, ok := t.st.plans[id]
	if !ok {
		return decimal.Zero, apperr.NotFound("savings plan")
	}

	p.Accumulated = p.Accumulated.Add(amount)
	t.st.plans[id] = p

	return p.Accumulated, nil
}

func (t *memTx) UpdatePlan(_ context.Context, plan *ledger.SavingsPlan) error {
	if err := t.store.fail("UpdatePlan"); err != nil {
		return err
	}

	if _, ok := t.st.plans[plan.ID]; !ok {
		return apperr.NotFound("savings plan")
	}

	now := t.store.tick()
	plan.UpdatedAt = &now
	t.st.plans[plan.ID] = *plan

	return nil
}

func (t *memTx) DeletePlanExpenses(_ context.Context, planID uuid.UUID) ([]*ledger.Expense, error) {
	if err := t.store.fail("DeletePlanExpenses"); err != nil {
		return nil, err
	}

	var removed []*ledger.Expense

	kept := t.st.expenses[:0:0]

	for _, ex := range t.st.expenses {
		if ex.SavingsPlanID != nil && *ex.SavingsPlanID == planID {
			removed = append(removed, &ex)
			continue
		}

		kept = append(kept, ex)
	}

	t.st.expenses = kept

	return removed, nil
}

func (t *memTx) DeletePlan(_ context.Context, id uuid.UUID) error {
	if err := t.store.fail("DeletePlan"); err != nil {
		return err
	}

	delete(t.st.plans, id)

	return nil
}

func (t *memTx) GetSubscription(_ context.Context, id uuid.UUID) (*ledger.Subscription, error) {
	return t.st.subscription(id)
}
