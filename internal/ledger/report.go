package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
)

// Totals compares the stored running balance against the one implied by the
// journal.
func (s *Service) Totals(ctx context.Context, userID uuid.UUID) (*Totals, error) {
	acct, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	income, expense, err := s.repo.SumEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	initial := decimal.Zero
	if acct.InitialCapital != nil {
		initial = *acct.InitialCapital
	}

	expected := initial.Add(income).Sub(expense)

	return &Totals{
		InitialCapital:  initial,
		TotalIncome:     income,
		TotalExpense:    expense,
		CurrentCapital:  acct.CurrentCapital,
		ExpectedCapital: expected,
		Consistent:      expected.Equal(acct.CurrentCapital),
	}, nil
}

// Report merges incomes and expenses, newest first.
func (s *Service) Report(ctx context.Context, userID uuid.UUID, filter EntryFilter) ([]*Entry, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, apperr.Invalid("to", "must not be before from")
	}

	entries, err := s.repo.ListEntries(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b *Entry) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}

		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return entries, nil
}

// Monthly returns income and expense sums for the given months of year, in
// month order. An empty months slice means the whole year and a zero year
// means the current one.
func (s *Service) Monthly(ctx context.Context, userID uuid.UUID, year int, months []time.Month) ([]MonthlyTotal, error) {
	if year == 0 {
		year = s.now().Year()
	}

	if year < 1900 || year > 9999 {
		return nil, apperr.Invalid("year", fmt.Sprintf("%d is out of range", year))
	}

	if len(months) == 0 {
		for m := time.January; m <= time.December; m++ {
			months = append(months, m)
		}
	}

	for _, m := range months {
		if m < time.January || m > time.December {
			return nil, apperr.Invalid("months", fmt.Sprintf("%d is not a month", m))
		}
	}

	sums, err := s.repo.MonthlySums(ctx, userID, year)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[time.Month]MonthlyTotal, len(sums))
	for _, m := range sums {
		byMonth[m.Month] = m
	}

	months = slices.Clone(months)
	slices.SortFunc(months, func(a, b time.Month) int { return cmp.Compare(a, b) })
	months = slices.Compact(months)

	out := make([]MonthlyTotal, len(months))
	for i, m := range months {
		total, ok := byMonth[m]
		if !ok {
			total = MonthlyTotal{Month: m, Income: decimal.Zero, Expense: decimal.Zero}
		}

		out[i] = total
	}

	return out, nil
}
