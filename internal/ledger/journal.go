package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
)

type EntryParams struct {
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Description string
	Date        string
}

type validEntry struct {
	categoryID  uuid.UUID
	amount      decimal.Decimal
	description string
	date        time.Time
}

func (p EntryParams) validate() (validEntry, error) {
	var v apperr.Validator

	amount := money(p.Amount)
	v.Check(p.CategoryID != uuid.Nil, "category_id", "is required")
	checkAmount(&v, "amount", amount)

	desc := strings.TrimSpace(p.Description)
	v.Check(desc != "", "description", "is required")
	checkLen(&v, "description", desc, maxDescriptionLen)

	date := parseDate(&v, "date", p.Date)

	if err := v.Err(); err != nil {
		return validEntry{}, err
	}

	return validEntry{categoryID: p.CategoryID, amount: amount, description: desc, date: date}, nil
}

// RecordIncome stores an income and credits the owner in one unit of work.
func (s *Service) RecordIncome(ctx context.Context, userID uuid.UUID, p EntryParams) (*Income, error) {
	e, err := p.validate()
	if err != nil {
		return nil, err
	}

	in := &Income{
		UserID:      userID,
		CategoryID:  e.categoryID,
		Amount:      e.amount,
		Description: e.description,
		Date:        e.date,
	}

	err = s.withAccount(ctx, userID, func(tx Tx, _ *Account) error {
		if err := checkCategory(ctx, tx, in.CategoryID, userID); err != nil {
			return err
		}

		if err := tx.CreateIncome(ctx, in); err != nil {
			return err
		}

		_, err := Credit(ctx, tx, userID, in.Amount)

		return err
	})
	if err != nil {
		return nil, err
	}

	return in, nil
}

// RecordExpense stores an expense and debits the owner in one unit of work.
func (s *Service) RecordExpense(ctx context.Context, userID uuid.UUID, p EntryParams) (*Expense, error) {
	e, err := p.validate()
	if err != nil {
		return nil, err
	}

	ex := &Expense{
		UserID:      userID,
		CategoryID:  e.categoryID,
		Amount:      e.amount,
		Description: e.description,
		Date:        e.date,
	}

	err = s.withAccount(ctx, userID, func(tx Tx, _ *Account) error {
		if err := checkCategory(ctx, tx, ex.CategoryID, userID); err != nil {
			return err
		}

		if err := tx.CreateExpense(ctx, ex); err != nil {
			return err
		}

		_, err := Debit(ctx, tx, userID, ex.Amount)

		return err
	})
	if err != nil {
		return nil, err
	}

	return ex, nil
}

func (s *Service) ListIncomes(ctx context.Context, userID uuid.UUID) ([]*Income, error) {
	return s.repo.ListIncomes(ctx, userID)
}

func (s *Service) ListExpenses(ctx context.Context, userID uuid.UUID) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, userID)
}
