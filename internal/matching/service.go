package matching

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

// Rule assigns a category to every description containing Pattern.
type Rule struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Pattern    string
	CategoryID uuid.UUID
	CreatedAt  time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	// FindMatch returns the longest pattern of the user contained in
	// description, or nil when none matches.
	FindMatch(ctx context.Context, userID uuid.UUID, description string) (*Rule, error)
	CreateRule(ctx context.Context, rule *Rule) error
	ListRules(ctx context.Context, userID uuid.UUID) ([]*Rule, error)
	DeleteRule(ctx context.Context, userID, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

const minPatternLen = 3

// Suggest returns the category of the best matching rule. ok is false when no
// rule matches.
func (s *Service) Suggest(ctx context.Context, userID uuid.UUID, description string) (categoryID uuid.UUID, ok bool, err error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return uuid.Nil, false, nil
	}

	rule, err := s.repo.FindMatch(ctx, userID, description)
	if err != nil {
		return uuid.Nil, false, err
	}

	if rule == nil {
		return uuid.Nil, false, nil
	}

	return rule.CategoryID, true, nil
}

// Learn remembers that descriptions containing pattern belong to categoryID.
func (s *Service) Learn(ctx context.Context, userID uuid.UUID, pattern string, categoryID uuid.UUID) (*Rule, error) {
	var v apperr.Validator

	pattern = strings.TrimSpace(pattern)
	v.Check(utf8.RuneCountInString(pattern) >= minPatternLen, "pattern", fmt.Sprintf("must be at least %d characters", minPatternLen))
	v.Check(categoryID != uuid.Nil, "category_id", "is required")

	if err := v.Err(); err != nil {
		return nil, err
	}

	rule := &Rule{UserID: userID, Pattern: pattern, CategoryID: categoryID}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}

func (s *Service) Rules(ctx context.Context, userID uuid.UUID) ([]*Rule, error) {
	return s.repo.ListRules(ctx, userID)
}

func (s *Service) Forget(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteRule(ctx, userID, id)
}

// Categorize fills in the category of entries that have none, using the
// user's rules first and fallback otherwise. Entries left without a category
// are reported as a validation error.
func (s *Service) Categorize(ctx context.Context, userID uuid.UUID, entries []ledger.BatchEntry, fallback uuid.UUID) ([]ledger.BatchEntry, error) {
	var v apperr.Validator

	out := make([]ledger.BatchEntry, len(entries))
	for i, e := range entries {
		if e.CategoryID == uuid.Nil {
			id, ok, err := s.Suggest(ctx, userID, e.Description)
			if err != nil {
				return nil, fmt.Errorf("suggesting category: %w", err)
			}

			switch {
			case ok:
				e.CategoryID = id
			case fallback != uuid.Nil:
				e.CategoryID = fallback
			default:
				v.Add(fmt.Sprintf("entries[%d].category_id", i), "no rule matches and no fallback category was given")
			}
		}

		out[i] = e
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
