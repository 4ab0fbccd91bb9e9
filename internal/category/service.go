// Package category manages the categories entries are filed under.
package category

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	// ListVisible returns the defaults and the user's own categories ordered
	// by name.
	ListVisible(ctx context.Context, userID uuid.UUID) ([]*Category, error)
	Get(ctx context.Context, id uuid.UUID) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Usage(ctx context.Context, id uuid.UUID) (incomes, expenses int, err error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteUnused removes every unreferenced category owned by userID and
	// returns how many went and the usage of those that stayed.
	DeleteUnused(ctx context.Context, userID uuid.UUID) (int, []Usage, error)
	EnsureDefaults(ctx context.Context, defaults []Default) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name string
	Icon string
}

// Cleanup is the outcome of DeleteUnused.
type Cleanup struct {
	Deleted int
	Kept    []Usage
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Category, error) {
	return s.repo.ListVisible(ctx, userID)
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, p CreateParams) (*Category, error) {
	var v apperr.Validator

	name := strings.TrimSpace(p.Name)
	icon := strings.TrimSpace(p.Icon)

	v.Check(name != "", "name", "is required")
	v.Check(utf8.RuneCountInString(name) <= 50, "name", "must be at most 50 characters long")
	v.Check(icon != "", "icon", "is required")
	v.Check(utf8.RuneCountInString(icon) <= 10, "icon", "must be at most 10 characters long")

	if err := v.Err(); err != nil {
		return nil, err
	}

	c := &Category{Name: name, Icon: icon, UserID: &userID}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Delete removes one of the user's own categories. Defaults cannot be
// deleted, and neither can categories entries still reference.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if c.IsDefault || c.UserID == nil || *c.UserID != userID {
		return apperr.Forbidden("category")
	}

	incomes, expenses, err := s.repo.Usage(ctx, id)
	if err != nil {
		return err
	}

	if incomes > 0 || expenses > 0 {
		return &InUseError{Incomes: incomes, Expenses: expenses}
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) DeleteUnused(ctx context.Context, userID uuid.UUID) (*Cleanup, error) {
	n, kept, err := s.repo.DeleteUnused(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Cleanup{Deleted: n, Kept: kept}, nil
}

// Seed inserts the missing defaults. It is safe to run on every start.
func (s *Service) Seed(ctx context.Context) error {
	n, err := s.repo.EnsureDefaults(ctx, Defaults)
	if err != nil {
		return err
	}

	if n > 0 {
		slog.Info("seeded default categories", "count", n)
	}

	return nil
}
