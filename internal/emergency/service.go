// Package emergency tracks emergency funds: a reserve target with the amount
// put aside so far. Funds are informational and never touch the balance.
package emergency

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

type Fund struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Reason        string
	CreatedAt     time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=emergency
type Repository interface {
	Create(ctx context.Context, f *Fund) error
	List(ctx context.Context, userID uuid.UUID) ([]*Fund, error)
	// First returns the user's oldest fund.
	First(ctx context.Context, userID uuid.UUID) (*Fund, error)
	// Delete removes the fund only when userID owns it.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	TargetAmount  decimal.Decimal
	CurrentAmount *decimal.Decimal
	Reason        string
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, p CreateParams) (*Fund, error) {
	var v apperr.Validator

	reason := strings.TrimSpace(p.Reason)
	v.Check(p.TargetAmount.IsPositive(), "target_amount", "must be greater than 0")
	v.Check(p.TargetAmount.LessThan(ledger.MaxAmount), "target_amount", "must be less than "+ledger.MaxAmount.String())
	v.Check(reason != "", "reason", "is required")
	v.Check(utf8.RuneCountInString(reason) <= 255, "reason", "must be at most 255 characters long")

	current := decimal.Zero
	if p.CurrentAmount != nil {
		current = *p.CurrentAmount
		v.Check(!current.IsNegative(), "current_amount", "must be greater than or equal to 0")
		v.Check(current.LessThan(ledger.MaxAmount), "current_amount", "must be less than "+ledger.MaxAmount.String())
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	f := &Fund{
		UserID:        userID,
		TargetAmount:  p.TargetAmount.Round(2),
		CurrentAmount: current.Round(2),
		Reason:        reason,
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	return f, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Fund, error) {
	return s.repo.List(ctx, userID)
}

// Active returns the user's first fund.
func (s *Service) Active(ctx context.Context, userID uuid.UUID) (*Fund, error) {
	return s.repo.First(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}
