package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/database"
	"github.com/MrJamesThe3rd/capital/internal/emergency"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectFundColumns = `id, user_id, target_amount, current_amount, reason, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanFund(s scanner) (*emergency.Fund, error) {
	var f emergency.Fund
	if err := s.Scan(&f.ID, &f.UserID, &f.TargetAmount, &f.CurrentAmount, &f.Reason, &f.CreatedAt); err != nil {
		return nil, err
	}

	return &f, nil
}

func (s *Store) Create(ctx context.Context, f *emergency.Fund) error {
	query := `
		INSERT INTO emergency_funds (user_id, target_amount, current_amount, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, f.UserID, f.TargetAmount, f.CurrentAmount, f.Reason).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.NotFound("user")
		}

		return fmt.Errorf("creating emergency fund: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, userID uuid.UUID) ([]*emergency.Fund, error) {
	query := `SELECT ` + selectFundColumns + ` FROM emergency_funds WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing emergency funds: %w", err)
	}
	defer rows.Close()

	var out []*emergency.Fund

	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning emergency fund: %w", err)
		}

		out = append(out, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating emergency funds: %w", err)
	}

	return out, nil
}

func (s *Store) First(ctx context.Context, userID uuid.UUID) (*emergency.Fund, error) {
	query := `SELECT ` + selectFundColumns + ` FROM emergency_funds WHERE user_id = $1 ORDER BY created_at ASC LIMIT 1`

	f, err := scanFund(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("emergency fund")
		}

		return nil, fmt.Errorf("getting emergency fund: %w", err)
	}

	return f, nil
}

func (s *Store) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM emergency_funds WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting emergency fund: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("emergency fund")
	}

	return nil
}
