package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

// EntryResponse is the JSON form of an income or expense.
type EntryResponse struct {
	ID            uuid.UUID       `json:"id"`
	Kind          ledger.Kind     `json:"kind"`
	CategoryID    uuid.UUID       `json:"category_id"`
	CategoryName  string          `json:"category_name,omitempty"`
	SavingsPlanID *uuid.UUID      `json:"savings_plan_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Date          string          `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
}

func entryFrom(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:            e.ID,
		Kind:          e.Kind,
		CategoryID:    e.CategoryID,
		CategoryName:  e.CategoryName,
		SavingsPlanID: e.SavingsPlanID,
		Amount:        e.Amount,
		Description:   e.Description,
		Date:          e.Date.Format(time.DateOnly),
		CreatedAt:     e.CreatedAt,
	}
}

func EntryList(entries []*ledger.Entry) []EntryResponse {
	resp := make([]EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = entryFrom(e)
	}

	return resp
}

func toIncomeResponse(in *ledger.Income) EntryResponse {
	return EntryResponse{
		ID:          in.ID,
		Kind:        ledger.KindIncome,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date.Format(time.DateOnly),
		CreatedAt:   in.CreatedAt,
	}
}

// ExpenseResponse is also used by the plan and subscription endpoints.
func ExpenseResponse(ex *ledger.Expense) EntryResponse {
	return EntryResponse{
		ID:            ex.ID,
		Kind:          ledger.KindExpense,
		CategoryID:    ex.CategoryID,
		SavingsPlanID: ex.SavingsPlanID,
		Amount:        ex.Amount,
		Description:   ex.Description,
		Date:          ex.Date.Format(time.DateOnly),
		CreatedAt:     ex.CreatedAt,
	}
}

type totalsResponse struct {
	InitialCapital  decimal.Decimal `json:"initial_capital"`
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalExpense    decimal.Decimal `json:"total_expense"`
	CurrentCapital  decimal.Decimal `json:"current_capital"`
	ExpectedCapital decimal.Decimal `json:"expected_capital"`
	Consistent      bool            `json:"consistent"`
}

type monthResponse struct {
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type monthlyResponse struct {
	Year   int             `json:"year,omitempty"`
	Months []monthResponse `json:"months"`
}
