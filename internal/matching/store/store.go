package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/database"
	"github.com/MrJamesThe3rd/capital/internal/matching"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectRuleColumns = `id, user_id, pattern, category_id, created_at`

func (s *Store) FindMatch(ctx context.Context, userID uuid.UUID, description string) (*matching.Rule, error) {
	query := `
		SELECT ` + selectRuleColumns + `
		FROM category_rules
		WHERE user_id = $1 AND $2 ILIKE '%' || pattern || '%'
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var rule matching.Rule

	err := s.db.QueryRowContext(ctx, query, userID, description).
		Scan(&rule.ID, &rule.UserID, &rule.Pattern, &rule.CategoryID, &rule.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding match: %w", err)
	}

	return &rule, nil
}

func (s *Store) CreateRule(ctx context.Context, rule *matching.Rule) error {
	query := `
		INSERT INTO category_rules (user_id, pattern, category_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, rule.UserID, rule.Pattern, rule.CategoryID).Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return apperr.Conflict(fmt.Sprintf("a rule for %q already exists", rule.Pattern))
		case database.IsForeignKeyViolation(err):
			return apperr.NotFound("category")
		}

		return fmt.Errorf("creating rule: %w", err)
	}

	return nil
}

func (s *Store) ListRules(ctx context.Context, userID uuid.UUID) ([]*matching.Rule, error) {
	query := `SELECT ` + selectRuleColumns + ` FROM category_rules WHERE user_id = $1 ORDER BY pattern ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var out []*matching.Rule

	for rows.Next() {
		var rule matching.Rule
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.Pattern, &rule.CategoryID, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}

		out = append(out, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}

	return out, nil
}

func (s *Store) DeleteRule(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM category_rules WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("rule")
	}

	return nil
}
