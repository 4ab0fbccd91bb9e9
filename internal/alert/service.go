// Package alert stores short notices for a user.
package alert

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
)

type Alert struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Message   string
	Read      bool
	CreatedAt time.Time
}

// Every method is scoped by owner: another user's alert is not found.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=alert
type Repository interface {
	Create(ctx context.Context, a *Alert) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*Alert, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (*Alert, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, message string) (*Alert, error) {
	message = strings.TrimSpace(message)

	var v apperr.Validator
	v.Check(message != "", "message", "is required")
	v.Check(utf8.RuneCountInString(message) <= 255, "message", "must be at most 255 characters long")

	if err := v.Err(); err != nil {
		return nil, err
	}

	a := &Alert{UserID: userID, Message: message}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*Alert, error) {
	return s.repo.List(ctx, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) (*Alert, error) {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}
