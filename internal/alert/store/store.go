package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/alert"
	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectAlertColumns = `id, user_id, message, read, created_at`

func (s *Store) Create(ctx context.Context, a *alert.Alert) error {
	query := `
		INSERT INTO alerts (user_id, message, read, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, a.UserID, a.Message, a.Read).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.NotFound("user")
		}

		return fmt.Errorf("creating alert: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*alert.Alert, error) {
	query := `SELECT ` + selectAlertColumns + ` FROM alerts WHERE user_id = $1`
	if unreadOnly {
		query += ` AND NOT read`
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer rows.Close()

	var out []*alert.Alert

	for rows.Next() {
		var a alert.Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.Message, &a.Read, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}

		out = append(out, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alerts: %w", err)
	}

	return out, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, id uuid.UUID) (*alert.Alert, error) {
	query := `UPDATE alerts SET read = TRUE WHERE id = $1 AND user_id = $2 RETURNING ` + selectAlertColumns

	var a alert.Alert

	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(&a.ID, &a.UserID, &a.Message, &a.Read, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("alert")
		}

		return nil, fmt.Errorf("marking alert read: %w", err)
	}

	return &a, nil
}

func (s *Store) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting alert: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("alert")
	}

	return nil
}
