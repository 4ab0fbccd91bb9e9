package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/category"
	"github.com/MrJamesThe3rd/capital/internal/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectCategoryColumns = `c.id, c.name, c.icon, c.is_default, c.user_id, c.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner, extra ...any) (*category.Category, error) {
	var c category.Category

	var owner uuid.NullUUID

	dest := append([]any{&c.ID, &c.Name, &c.Icon, &c.IsDefault, &owner, &c.CreatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	if owner.Valid {
		c.UserID = &owner.UUID
	}

	return &c, nil
}

func (s *Store) ListVisible(ctx context.Context, userID uuid.UUID) ([]*category.Category, error) {
	query := `
		SELECT ` + selectCategoryColumns + `
		FROM categories c
		WHERE c.is_default OR c.user_id = $1
		ORDER BY c.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []*category.Category

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return out, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	query := `SELECT ` + selectCategoryColumns + ` FROM categories c WHERE c.id = $1`

	c, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("category")
		}

		return nil, fmt.Errorf("getting category: %w", err)
	}

	return c, nil
}

func (s *Store) Create(ctx context.Context, c *category.Category) error {
	query := `
		INSERT INTO categories (name, icon, is_default, user_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, c.Name, c.Icon, c.IsDefault, c.UserID).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return apperr.Conflict("category name or icon already exists")
		case database.IsForeignKeyViolation(err):
			return apperr.NotFound("user")
		}

		return fmt.Errorf("creating category: %w", err)
	}

	return nil
}

const usageColumns = `
	(SELECT COUNT(*) FROM incomes i WHERE i.category_id = c.id),
	(SELECT COUNT(*) FROM expenses e WHERE e.category_id = c.id)`

func (s *Store) Usage(ctx context.Context, id uuid.UUID) (int, int, error) {
	query := `SELECT ` + usageColumns + ` FROM categories c WHERE c.id = $1`

	var incomes, expenses int

	if err := s.db.QueryRowContext(ctx, query, id).Scan(&incomes, &expenses); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, apperr.NotFound("category")
		}

		return 0, 0, fmt.Errorf("counting category usage: %w", err)
	}

	return incomes, expenses, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Conflict("category is referenced by journal entries")
		}

		return fmt.Errorf("deleting category: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("category")
	}

	return nil
}

func (s *Store) DeleteUnused(ctx context.Context, userID uuid.UUID) (int, []category.Usage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM categories c
		WHERE c.user_id = $1 AND NOT c.is_default
		  AND NOT EXISTS (SELECT 1 FROM incomes i WHERE i.category_id = c.id)
		  AND NOT EXISTS (SELECT 1 FROM expenses e WHERE e.category_id = c.id)
	`, userID)
	if err != nil {
		return 0, nil, fmt.Errorf("deleting unused categories: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("counting deleted categories: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+selectCategoryColumns+`, `+usageColumns+`
		FROM categories c
		WHERE c.user_id = $1
		ORDER BY c.name ASC
	`, userID)
	if err != nil {
		return 0, nil, fmt.Errorf("listing kept categories: %w", err)
	}
	defer rows.Close()

	var kept []category.Usage

	for rows.Next() {
		var u category.Usage

		u.Category, err = scanCategory(rows, &u.Incomes, &u.Expenses)
		if err != nil {
			return 0, nil, fmt.Errorf("scanning category: %w", err)
		}

		kept = append(kept, u)
	}

	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterating categories: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("committing: %w", err)
	}

	return int(deleted), kept, nil
}

// EnsureDefaults inserts the defaults whose name is not taken yet.
func (s *Store) EnsureDefaults(ctx context.Context, defaults []category.Default) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO categories (name, icon, is_default, created_at)
		VALUES ($1, $2, TRUE, NOW())
		ON CONFLICT DO NOTHING
	`

	var inserted int64

	for _, d := range defaults {
		res, err := tx.ExecContext(ctx, query, d.Name, d.Icon)
		if err != nil {
			return 0, fmt.Errorf("inserting default category %q: %w", d.Name, err)
		}

		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}

	return int(inserted), nil
}
