// Package ledgertest provides an in-memory ledger.Repository for tests.
//
// Units of work operate on a private copy of the state that replaces the
// shared state on Commit, so a failed operation leaves no trace. Only one
// unit of work runs at a time, which mirrors the per-user row lock of the
// Postgres store.
package ledgertest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

// ErrInjected is returned by operations registered with FailOn.
var ErrInjected = errors.New("injected failure")

type category struct {
	id        uuid.UUID
	name      string
	isDefault bool
	owner     uuid.UUID
}

type state struct {
	accounts      map[uuid.UUID]ledger.Account
	categories    map[uuid.UUID]category
	incomes       []ledger.Income
	expenses      []ledger.Expense
	plans         map[uuid.UUID]ledger.SavingsPlan
	subscriptions map[uuid.UUID]ledger.Subscription
}

func (s *state) clone() *state {
	return &state{
		accounts:      cloneMap(s.accounts),
		categories:    cloneMap(s.categories),
		incomes:       slices.Clone(s.incomes),
		expenses:      slices.Clone(s.expenses),
		plans:         cloneMap(s.plans),
		subscriptions: cloneMap(s.subscriptions),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

type Store struct {
	txLock sync.Mutex // held for the lifetime of a unit of work
	mu     sync.Mutex // guards the fields below
	st     *state
	failOn map[string]error
	clock  time.Time
}

func New() *Store {
	return &Store{
		st: &state{
			accounts:      map[uuid.UUID]ledger.Account{},
			categories:    map[uuid.UUID]category{},
			plans:         map[uuid.UUID]ledger.SavingsPlan{},
			subscriptions: map[uuid.UUID]ledger.Subscription{},
		},
		failOn: map[string]error{},
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FailOn makes every later call of the named Tx method return ErrInjected.
func (s *Store) FailOn(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failOn[method] = ErrInjected
}

func (s *Store) fail(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.failOn[method]
}

// tick returns strictly increasing creation timestamps.
func (s *Store) tick() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock = s.clock.Add(time.Second)

	return s.clock
}

// AddUser creates an account. A nil initial capital leaves it unset.
func (s *Store) AddUser(initial *decimal.Decimal) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	acct := ledger.Account{UserID: id, CurrentCapital: decimal.Zero}

	if initial != nil {
		v := *initial
		acct.InitialCapital = &v
		acct.CurrentCapital = v
	}

	s.st.accounts[id] = acct

	return id
}

// AddCategory registers a category; a zero owner makes it a default one.
func (s *Store) AddCategory(name string, owner uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.st.categories[id] = category{id: id, name: name, isDefault: owner == uuid.Nil, owner: owner}

	return id
}

// SeedReserved adds the categories the ledger books synthetic expenses under.
func (s *Store) SeedReserved() {
	s.AddCategory(ledger.CategorySavingsPlan, uuid.Nil)
	s.AddCategory(ledger.CategorySubscriptions, uuid.Nil)
}

// Balance returns the committed running balance of the user.
func (s *Store) Balance(userID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.st.accounts[userID].CurrentCapital
}

// Expenses returns the committed expenses of the user.
func (s *Store) Expenses(userID uuid.UUID) []ledger.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ledger.Expense

	for _, ex := range s.st.expenses {
		if ex.UserID == userID {
			out = append(out, ex)
		}
	}

	return out
}

// PlanExpenseTotal sums the committed expenses linked to the plan.
func (s *Store) PlanExpenseTotal(planID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero

	for _, ex := range s.st.expenses {
		if ex.SavingsPlanID != nil && *ex.SavingsPlanID == planID {
			total = total.Add(ex.Amount)
		}
	}

	return total
}

// Plans returns the number of committed savings plans.
func (s *Store) Plans() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.st.plans)
}

// SetAccumulated overwrites a plan's stored total, for divergence tests.
func (s *Store) SetAccumulated(planID uuid.UUID, v decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.st.plans[planID]
	p.Accumulated = v
	s.st.plans[planID] = p
}

func (s *Store) snapshot() *state {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.st.clone()
}

func (s *Store) Begin(_ context.Context) (ledger.Tx, error) {
	if err := s.fail("Begin"); err != nil {
		return nil, err
	}

	s.txLock.Lock()

	return &memTx{store: s, st: s.snapshot()}, nil
}

func (s *Store) GetAccount(_ context.Context, userID uuid.UUID) (*ledger.Account, error) {
	return s.snapshot().account(userID)
}

func (s *Store) ListIncomes(_ context.Context, userID uuid.UUID) ([]*ledger.Income, error) {
	var out []*ledger.Income

	for _, in := range s.snapshot().incomes {
		if in.UserID == userID {
			out = append(out, &in)
		}
	}

	return out, nil
}

func (s *Store) ListExpenses(_ context.Context, userID uuid.UUID) ([]*ledger.Expense, error) {
	var out []*ledger.Expense

	for _, ex := range s.snapshot().expenses {
		if ex.UserID == userID {
			out = append(out, &ex)
		}
	}

	return out, nil
}

func (s *Store) ListEntries(_ context.Context, userID uuid.UUID, filter ledger.EntryFilter) ([]*ledger.Entry, error) {
	return s.snapshot().entries(userID, filter), nil
}

func (s *Store) SumEntries(_ context.Context, userID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	income, expense := decimal.Zero, decimal.Zero

	for _, e := range s.snapshot().entries(userID, ledger.EntryFilter{}) {
		if e.Kind == ledger.KindIncome {
			income = income.Add(e.Amount)
		} else {
			expense = expense.Add(e.Amount)
		}
	}

	return income, expense, nil
}

func (s *Store) MonthlySums(_ context.Context, userID uuid.UUID, year int) ([]ledger.MonthlyTotal, error) {
	byMonth := map[time.Month]*ledger.MonthlyTotal{}

	for _, e := range s.snapshot().entries(userID, ledger.EntryFilter{}) {
		if e.Date.Year() != year {
			continue
		}

		m, ok := byMonth[e.Date.Month()]
		if !ok {
			m = &ledger.MonthlyTotal{Month: e.Date.Month(), Income: decimal.Zero, Expense: decimal.Zero}
			byMonth[e.Date.Month()] = m
		}

		if e.Kind == ledger.KindIncome {
			m.Income = m.Income.Add(e.Amount)
		} else {
			m.Expense = m.Expense.Add(e.Amount)
		}
	}

	var out []ledger.MonthlyTotal
	for month := time.January; month <= time.December; month++ {
		if m, ok := byMonth[month]; ok {
			out = append(out, *m)
		}
	}

	return out, nil
}

func (s *Store) GetPlan(_ context.Context, id uuid.UUID) (*ledger.SavingsPlan, error) {
	p, ok := s.snapshot().plans[id]
	if !ok {
		return nil, apperr.NotFound("savings plan")
	}

	return &p, nil
}

func (s *Store) ListPlans(_ context.Context, userID uuid.UUID) ([]*ledger.SavingsPlan, error) {
	var out []*ledger.SavingsPlan

	for _, p := range s.snapshot().plans {
		if p.UserID == userID {
			out = append(out, &p)
		}
	}

	slices.SortFunc(out, func(a, b *ledger.SavingsPlan) int { return a.CreatedAt.Compare(b.CreatedAt) })

	return out, nil
}

func (s *Store) CreateSubscription(_ context.Context, sub *ledger.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.accounts[sub.UserID]; !ok {
		return apperr.NotFound("user")
	}

	sub.ID = uuid.New()
	sub.CreatedAt = time.Now()
	s.st.subscriptions[sub.ID] = *sub

	return nil
}

func (s *Store) GetSubscription(_ context.Context, id uuid.UUID) (*ledger.Subscription, error) {
	return s.snapshot().subscription(id)
}

func (s *Store) ListSubscriptions(_ context.Context, userID uuid.UUID) ([]*ledger.Subscription, error) {
	var out []*ledger.Subscription

	for _, sub := range s.snapshot().subscriptions {
		if sub.UserID == userID {
			out = append(out, &sub)
		}
	}

	slices.SortFunc(out, func(a, b *ledger.Subscription) int { return strings.Compare(a.Name, b.Name) })

	return out, nil
}

func (s *Store) DeleteSubscription(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.subscriptions[id]; !ok {
		return apperr.NotFound("subscription")
	}

	delete(s.st.subscriptions, id)

	return nil
}

func (st *state) account(userID uuid.UUID) (*ledger.Account, error) {
	acct, ok := st.accounts[userID]
	if !ok {
		return nil, apperr.NotFound("user")
	}

	return &acct, nil
}

func (st *state) subscription(id uuid.UUID) (*ledger.Subscription, error) {
	sub, ok := st.subscriptions[id]
	if !ok {
		return nil, apperr.NotFound("subscription")
	}

	return &sub, nil
}

func (st *state) entries(userID uuid.UUID, filter ledger.EntryFilter) []*ledger.Entry {
	var out []*ledger.Entry

	keep := func(d time.Time) bool {
		if filter.StartDate != nil && d.Before(*filter.StartDate) {
			return false
		}

		return filter.EndDate == nil || !d.After(*filter.EndDate)
	}

	for _, in := range st.incomes {
		if in.UserID == userID && keep(in.Date) {
			out = append(out, &ledger.Entry{
				ID: in.ID, Kind: ledger.KindIncome, CategoryID: in.CategoryID,
				CategoryName: st.categories[in.CategoryID].name,
				Amount:       in.Amount, Description: in.Description, Date: in.Date, CreatedAt: in.CreatedAt,
			})
		}
	}

	for _, ex := range st.expenses {
		if ex.UserID == userID && keep(ex.Date) {
			out = append(out, &ledger.Entry{
				ID: ex.ID, Kind: ledger.KindExpense, CategoryID: ex.CategoryID,
				CategoryName:  st.categories[ex.CategoryID].name,
				SavingsPlanID: ex.SavingsPlanID,
				Amount:        ex.Amount, Description: ex.Description, Date: ex.Date, CreatedAt: ex.CreatedAt,
			})
		}
	}

	return out
}
