package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/account"
	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectUserColumns = `id, username, email, password_hash, currency, created_at, updated_at`

func scanUser(row *sql.Row) (*account.User, error) {
	var u account.User

	var currency sql.NullString

	var updatedAt sql.NullTime

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &currency, &u.CreatedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user")
		}

		return nil, fmt.Errorf("scanning user: %w", err)
	}

	if currency.Valid {
		u.Currency = &currency.String
	}

	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}

	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *account.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, currency, current_capital, created_at)
		VALUES ($1, $2, $3, $4, 0, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.Currency).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("username or email already registered")
		}

		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*account.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*account.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users WHERE username = $1 OR email = LOWER($1) LIMIT 1`
	return scanUser(s.db.QueryRowContext(ctx, query, login))
}

// UpdateUser writes the profile columns. The capital columns belong to the
// ledger and are never touched here.
func (s *Store) UpdateUser(ctx context.Context, u *account.User) error {
	query := `
		UPDATE users SET email = $1, currency = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`

	var updated sql.NullTime

	err := s.db.QueryRowContext(ctx, query, u.Email, u.Currency, u.ID).Scan(&updated)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return apperr.NotFound("user")
		case database.IsUniqueViolation(err):
			return apperr.Conflict("email already registered")
		}

		return fmt.Errorf("updating user: %w", err)
	}

	if updated.Valid {
		u.UpdatedAt = &updated.Time
	}

	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	if n == 0 {
		return apperr.NotFound("user")
	}

	return nil
}
