package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
)

type SubscriptionParams struct {
	Name      string
	Cost      decimal.Decimal
	Frequency string
	StartDate string
}

type SubscriptionPayment struct {
	Subscription *Subscription
	Expense      *Expense
	Balance      decimal.Decimal
}

func (s *Service) CreateSubscription(ctx context.Context, userID uuid.UUID, p SubscriptionParams) (*Subscription, error) {
	var v apperr.Validator

	sub := &Subscription{
		UserID:    userID,
		Name:      strings.TrimSpace(p.Name),
		Cost:      money(p.Cost),
		Frequency: strings.TrimSpace(p.Frequency),
		StartDate: parseDate(&v, "start_date", p.StartDate),
	}

	v.Check(sub.Name != "", "name", "is required")
	checkLen(&v, "name", sub.Name, maxNameLen)
	checkAmount(&v, "cost", sub.Cost)
	v.Check(sub.Frequency != "", "frequency", "is required")
	checkLen(&v, "frequency", sub.Frequency, maxFrequencyLen)

	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *Service) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]*Subscription, error) {
	return s.repo.ListSubscriptions(ctx, userID)
}

func (s *Service) DeleteSubscription(ctx context.Context, userID, id uuid.UUID) error {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return err
	}

	if sub.UserID != userID {
		return apperr.Forbidden("subscription")
	}

	return s.repo.DeleteSubscription(ctx, id)
}

// PaySubscription books one payment of the subscription as an expense dated
// today. The subscription itself is left unchanged.
func (s *Service) PaySubscription(ctx context.Context, userID, id uuid.UUID) (*SubscriptionPayment, error) {
	out := &SubscriptionPayment{}

	err := s.withAccount(ctx, userID, func(tx Tx, _ *Account) error {
		sub, err := tx.GetSubscription(ctx, id)
		if err != nil {
			return err
		}

		if sub.UserID != userID {
			return apperr.Forbidden("subscription")
		}

		categoryID, err := reservedCategory(ctx, tx, CategorySubscriptions)
		if err != nil {
			return err
		}

		ex := &Expense{
			UserID:      userID,
			CategoryID:  categoryID,
			Amount:      sub.Cost,
			Description: paymentDescriptionPrefix + sub.Name,
			Date:        today(s.now()),
		}

		if err := tx.CreateExpense(ctx, ex); err != nil {
			return err
		}

		balance, err := Debit(ctx, tx, userID, ex.Amount)
		if err != nil {
			return err
		}

		out.Subscription = sub
		out.Expense = ex
		out.Balance = balance

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
