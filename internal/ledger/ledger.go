package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the two journal entry types.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Reserved categories tag the expenses the ledger synthesizes itself. They
// are seeded at startup; their absence is a configuration error.
const (
	CategorySavingsPlan   = "Plan de ahorro"
	CategorySubscriptions = "Suscripciones"
)

const (
	initialDepositDescription = "Depósito inicial al plan de ahorro"
	depositDescription        = "Deposito al plan de ahorro"
	paymentDescriptionPrefix  = "Pago de suscripción: "
)

// Account is the balance view of a user.
type Account struct {
	UserID         uuid.UUID
	InitialCapital *decimal.Decimal // nil until the user sets it
	CurrentCapital decimal.Decimal
	Currency       *string
}

type Income struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	CreatedAt   time.Time
}

type Expense struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	CategoryID    uuid.UUID
	SavingsPlanID *uuid.UUID
	Amount        decimal.Decimal
	Description   string
	Date          time.Time
	CreatedAt     time.Time
}

// SavingsPlan accumulates the expenses linked to it. Accumulated always
// equals the sum of those expenses.
type SavingsPlan struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	StartDate     time.Time
	TargetDate    time.Time
	TargetAmount  decimal.Decimal
	InitialAmount decimal.Decimal
	Accumulated   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

type Subscription struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Cost      decimal.Decimal
	Frequency string
	StartDate time.Time
	CreatedAt time.Time
}

// Entry is an income or an expense as seen by reports.
type Entry struct {
	ID            uuid.UUID
	Kind          Kind
	CategoryID    uuid.UUID
	CategoryName  string
	SavingsPlanID *uuid.UUID
	Amount        decimal.Decimal
	Description   string
	Date          time.Time
	CreatedAt     time.Time
}

type Totals struct {
	InitialCapital  decimal.Decimal
	TotalIncome     decimal.Decimal
	TotalExpense    decimal.Decimal
	CurrentCapital  decimal.Decimal
	ExpectedCapital decimal.Decimal
	Consistent      bool
}

type MonthlyTotal struct {
	Month   time.Month
	Income  decimal.Decimal
	Expense decimal.Decimal
}

type EntryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

func incomeEntry(in *Income) *Entry {
	return &Entry{
		ID:          in.ID,
		Kind:        KindIncome,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   in.CreatedAt,
	}
}

func expenseEntry(ex *Expense) *Entry {
	return &Entry{
		ID:            ex.ID,
		Kind:          KindExpense,
		CategoryID:    ex.CategoryID,
		SavingsPlanID: ex.SavingsPlanID,
		Amount:        ex.Amount,
		Description:   ex.Description,
		Date:          ex.Date,
		CreatedAt:     ex.CreatedAt,
	}
}
