package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/database"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

const selectPlanColumns = `
	id, user_id, name, start_date, target_date, target_amount, initial_amount, accumulated, created_at, updated_at
`

func scanPlan(s scanner) (*ledger.SavingsPlan, error) {
	var p ledger.SavingsPlan
	if err := s.Scan(
		&p.ID, &p.UserID, &p.Name, &p.StartDate, &p.TargetDate,
		&p.TargetAmount, &p.InitialAmount, &p.Accumulated, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &p, nil
}

func getPlan(ctx context.Context, q querier, id uuid.UUID, lock bool) (*ledger.SavingsPlan, error) {
	query := `SELECT ` + selectPlanColumns + ` FROM savings_plans WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	plan, err := scanPlan(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("savings plan")
		}

		return nil, fmt.Errorf("getting savings plan: %w", err)
	}

	return plan, nil
}

func (s *Store) GetPlan(ctx context.Context, id uuid.UUID) (*ledger.SavingsPlan, error) {
	return getPlan(ctx, s.db, id, false)
}

func (s *Store) ListPlans(ctx context.Context, userID uuid.UUID) ([]*ledger.SavingsPlan, error) {
	query := `SELECT ` + selectPlanColumns + ` FROM savings_plans WHERE user_id = $1 ORDER BY target_date ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing savings plans: %w", err)
	}
	defer rows.Close()

	var out []*ledger.SavingsPlan

	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning savings plan: %w", err)
		}

		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating savings plans: %w", err)
	}

	return out, nil
}

const selectSubscriptionColumns = `id, user_id, name, cost, frequency, start_date, created_at`

func scanSubscription(s scanner) (*ledger.Subscription, error) {
	var sub ledger.Subscription
	if err := s.Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Cost, &sub.Frequency, &sub.StartDate, &sub.CreatedAt); err != nil {
		return nil, err
	}

	return &sub, nil
}

func getSubscription(ctx context.Context, q querier, id uuid.UUID) (*ledger.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("subscription")
		}

		return nil, fmt.Errorf("getting subscription: %w", err)
	}

	return sub, nil
}

func (s *Store) GetSubscription(ctx context.Context, id uuid.UUID) (*ledger.Subscription, error) {
	return getSubscription(ctx, s.db, id)
}

func (s *Store) CreateSubscription(ctx context.Context, sub *ledger.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, name, cost, frequency, start_date, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		sub.UserID, sub.Name, sub.Cost, sub.Frequency, sub.StartDate,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.NotFound("user")
		}

		return fmt.Errorf("creating subscription: %w", err)
	}

	return nil
}

func (s *Store) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]*ledger.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Subscription

	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}

		out = append(out, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscriptions: %w", err)
	}

	return out, nil
}

func (s *Store) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("subscription")
	}

	return nil
}
