package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
)

type Repository interface {
	Begin(ctx context.Context) (Tx, error)

	GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error)
	ListIncomes(ctx context.Context, userID uuid.UUID) ([]*Income, error)
	ListExpenses(ctx context.Context, userID uuid.UUID) ([]*Expense, error)
	ListEntries(ctx context.Context, userID uuid.UUID, filter EntryFilter) ([]*Entry, error)
	SumEntries(ctx context.Context, userID uuid.UUID) (income, expense decimal.Decimal, err error)
	MonthlySums(ctx context.Context, userID uuid.UUID, year int) ([]MonthlyTotal, error)

	GetPlan(ctx context.Context, id uuid.UUID) (*SavingsPlan, error)
	ListPlans(ctx context.Context, userID uuid.UUID) ([]*SavingsPlan, error)

	CreateSubscription(ctx context.Context, sub *Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]*Subscription, error)
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
}

// Tx is a unit of work over the ledger. Every balance mutation happens inside
// one, and nothing it wrote is visible until Commit. Rollback after Commit is
// a no-op, so callers always defer it.
type Tx interface {
	// LockAccount loads the user's balance and holds a row lock on it until
	// the unit of work ends.
	LockAccount(ctx context.Context, userID uuid.UUID) (*Account, error)
	AdjustBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	SetInitialCapital(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error

	// CategoryVisible reports whether the category exists and is either a
	// default category or owned by userID.
	CategoryVisible(ctx context.Context, categoryID, userID uuid.UUID) (bool, error)
	CategoryByName(ctx context.Context, name string) (uuid.UUID, error)

	CreateIncome(ctx context.Context, in *Income) error
	CreateExpense(ctx context.Context, ex *Expense) error
	FindDuplicates(ctx context.Context, userID uuid.UUID, entries []BatchEntry) ([]*Entry, error)

	CreatePlan(ctx context.Context, plan *SavingsPlan) error
	LockPlan(ctx context.Context, id uuid.UUID) (*SavingsPlan, error)
	AddToPlan(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	UpdatePlan(ctx context.Context, plan *SavingsPlan) error
	DeletePlanExpenses(ctx context.Context, planID uuid.UUID) ([]*Expense, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error

	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)

	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock used to date subscription payments.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// MaxAmount is the smallest magnitude the NUMERIC(14,2) money columns
// cannot store.
var MaxAmount = decimal.New(1, 12)

const (
	maxNameLen        = 255
	maxDescriptionLen = 255
	maxFrequencyLen   = 50
)

// checkAmount requires a positive amount that fits the money columns.
func checkAmount(v *apperr.Validator, field string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		v.Add(field, "must be greater than zero")
		return
	}

	checkRange(v, field, amount)
}

func checkRange(v *apperr.Validator, field string, amount decimal.Decimal) {
	v.Check(amount.Abs().LessThan(MaxAmount), field, "must be less than "+MaxAmount.String())
}

func checkLen(v *apperr.Validator, field, value string, limit int) {
	v.Check(utf8.RuneCountInString(value) <= limit, field, fmt.Sprintf("must be at most %d characters", limit))
}

func checkDelta(amount decimal.Decimal) error {
	var v apperr.Validator
	checkAmount(&v, "amount", amount)

	return v.Err()
}

// Credit adds amount to the user's running balance within tx and returns the
// new balance.
func Credit(ctx context.Context, tx Tx, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkDelta(amount); err != nil {
		return decimal.Zero, err
	}

	return tx.AdjustBalance(ctx, userID, amount)
}

// Debit subtracts amount from the user's running balance within tx and
// returns the new balance. The balance may go negative.
func Debit(ctx context.Context, tx Tx, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkDelta(amount); err != nil {
		return decimal.Zero, err
	}

	return tx.AdjustBalance(ctx, userID, amount.Neg())
}

// withAccount runs fn in a fresh unit of work holding the user's row lock and
// commits only if fn succeeds.
func (s *Service) withAccount(ctx context.Context, userID uuid.UUID, fn func(tx Tx, acct *Account) error) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning unit of work: %w", err)
	}
	defer tx.Rollback()

	acct, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return err
	}

	if err := fn(tx, acct); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing unit of work: %w", err)
	}

	return nil
}

func (s *Service) Account(ctx context.Context, userID uuid.UUID) (*Account, error) {
	return s.repo.GetAccount(ctx, userID)
}

// SetInitialCapital records the user's starting balance. It can only be set
// once; the amount is applied to the running balance so that entries
// recorded before it was set keep counting.
func (s *Service) SetInitialCapital(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*Account, error) {
	amount = money(amount)
	if amount.IsNegative() {
		return nil, apperr.Invalid("initial_capital", "must not be negative")
	}

	var v apperr.Validator
	checkRange(&v, "initial_capital", amount)

	if err := v.Err(); err != nil {
		return nil, err
	}

	var out *Account

	err := s.withAccount(ctx, userID, func(tx Tx, acct *Account) error {
		if acct.InitialCapital != nil {
			return apperr.Conflict("initial capital is already set")
		}

		if err := tx.SetInitialCapital(ctx, userID, amount); err != nil {
			return err
		}

		acct.InitialCapital = &amount

		if amount.IsPositive() {
			balance, err := Credit(ctx, tx, userID, amount)
			if err != nil {
				return err
			}

			acct.CurrentCapital = balance
		}

		out = acct

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// reservedCategory resolves one of the seeded categories the ledger books
// synthetic expenses under.
func reservedCategory(ctx context.Context, tx Tx, name string) (uuid.UUID, error) {
	id, err := tx.CategoryByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("reserved category %q is missing: %w", name, apperr.ErrConfiguration)
		}

		return uuid.Nil, err
	}

	return id, nil
}

func checkCategory(ctx context.Context, tx Tx, categoryID, userID uuid.UUID) error {
	ok, err := tx.CategoryVisible(ctx, categoryID, userID)
	if err != nil {
		return err
	}

	if !ok {
		return apperr.NotFound("category")
	}

	return nil
}

// parseDate validates a YYYY-MM-DD field, recording problems in v.
func parseDate(v *apperr.Validator, field, value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		v.Add(field, "is required")
		return time.Time{}
	}

	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		v.Add(field, "must be a valid date (YYYY-MM-DD)")
		return time.Time{}
	}

	return d
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
