package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
)

// BatchEntry is one already-parsed journal entry, as produced by a bank
// statement importer.
type BatchEntry struct {
	Kind        Kind
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

type ImportResult struct {
	Imported  []*Entry
	New       []BatchEntry
	Conflicts []Conflict
}

// Conflict pairs an incoming entry with the journal entry it duplicates.
type Conflict struct {
	Incoming BatchEntry
	Existing *Entry
}

type dupKey struct {
	Date        string
	Kind        Kind
	Amount      string
	Description string
}

func batchKey(e BatchEntry) dupKey {
	return dupKey{
		Date:        e.Date.Format(time.DateOnly),
		Kind:        e.Kind,
		Amount:      e.Amount.StringFixed(2),
		Description: e.Description,
	}
}

func entryKey(e *Entry) dupKey {
	return dupKey{
		Date:        e.Date.Format(time.DateOnly),
		Kind:        e.Kind,
		Amount:      e.Amount.StringFixed(2),
		Description: e.Description,
	}
}

func validateBatch(entries []BatchEntry) ([]BatchEntry, error) {
	var v apperr.Validator

	out := make([]BatchEntry, len(entries))
	for i, e := range entries {
		field := fmt.Sprintf("entries[%d]", i)

		e.Amount = money(e.Amount)
		e.Description = strings.TrimSpace(e.Description)

		v.Check(e.Kind.Valid(), field+".kind", "must be income or expense")
		v.Check(e.CategoryID != uuid.Nil, field+".category_id", "is required")
		checkAmount(&v, field+".amount", e.Amount)
		v.Check(e.Description != "", field+".description", "is required")
		checkLen(&v, field+".description", e.Description, maxDescriptionLen)
		v.Check(!e.Date.IsZero(), field+".date", "is required")

		out[i] = e
	}

	return out, v.Err()
}

// ImportBatch records entries unless some of them already exist in the
// user's journal, in which case nothing is written and the result lists the
// conflicts next to the entries that are new.
func (s *Service) ImportBatch(ctx context.Context, userID uuid.UUID, entries []BatchEntry) (*ImportResult, error) {
	if len(entries) == 0 {
		return &ImportResult{}, nil
	}

	entries, err := validateBatch(entries)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}

	err = s.withAccount(ctx, userID, func(tx Tx, _ *Account) error {
		duplicates, err := tx.FindDuplicates(ctx, userID, entries)
		if err != nil {
			return fmt.Errorf("find duplicates: %w", err)
		}

		lookup := make(map[dupKey]*Entry, len(duplicates))
		for _, d := range duplicates {
			lookup[entryKey(d)] = d
		}

		for _, e := range entries {
			if existing, found := lookup[batchKey(e)]; found {
				result.Conflicts = append(result.Conflicts, Conflict{Incoming: e, Existing: existing})
				continue
			}

			result.New = append(result.New, e)
		}

		if len(result.Conflicts) > 0 {
			return nil
		}

		result.Imported, err = recordBatch(ctx, tx, userID, result.New)
		result.New = nil

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RecordBatch records every entry, duplicates included, in one unit of work.
func (s *Service) RecordBatch(ctx context.Context, userID uuid.UUID, entries []BatchEntry) ([]*Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	entries, err := validateBatch(entries)
	if err != nil {
		return nil, err
	}

	var recorded []*Entry

	err = s.withAccount(ctx, userID, func(tx Tx, _ *Account) error {
		recorded, err = recordBatch(ctx, tx, userID, entries)
		return err
	})
	if err != nil {
		return nil, err
	}

	return recorded, nil
}

func recordBatch(ctx context.Context, tx Tx, userID uuid.UUID, entries []BatchEntry) ([]*Entry, error) {
	checked := make(map[uuid.UUID]bool)
	out := make([]*Entry, 0, len(entries))

	for _, e := range entries {
		if !checked[e.CategoryID] {
			if err := checkCategory(ctx, tx, e.CategoryID, userID); err != nil {
				return nil, err
			}

			checked[e.CategoryID] = true
		}

		switch e.Kind {
		case KindIncome:
			in := &Income{UserID: userID, CategoryID: e.CategoryID, Amount: e.Amount, Description: e.Description, Date: e.Date}
			if err := tx.CreateIncome(ctx, in); err != nil {
				return nil, err
			}

			if _, err := Credit(ctx, tx, userID, in.Amount); err != nil {
				return nil, err
			}

			out = append(out, incomeEntry(in))
		case KindExpense:
			ex := &Expense{UserID: userID, CategoryID: e.CategoryID, Amount: e.Amount, Description: e.Description, Date: e.Date}
			if err := tx.CreateExpense(ctx, ex); err != nil {
				return nil, err
			}

			if _, err := Debit(ctx, tx, userID, ex.Amount); err != nil {
				return nil, err
			}

			out = append(out, expenseEntry(ex))
		}
	}

	return out, nil
}
