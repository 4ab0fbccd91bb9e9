// Package account manages users: registration, login and profile updates.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=account
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	// GetUserByLogin looks a user up by username or email.
	GetUserByLogin(ctx context.Context, login string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	// DeleteUser removes the user and, through the foreign keys, everything
	// the user owns.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Ledger is the balance side of a profile.
type Ledger interface {
	Account(ctx context.Context, userID uuid.UUID) (*ledger.Account, error)
	SetInitialCapital(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*ledger.Account, error)
}

type Service struct {
	repo   Repository
	ledger Ledger
	tokens *auth.TokenManager
}

func NewService(repo Repository, l Ledger, tokens *auth.TokenManager) *Service {
	return &Service{repo: repo, ledger: l, tokens: tokens}
}

const (
	minPasswordLen = 8
	maxEmailLen    = 120
	maxCurrencyLen = 10
)

type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// ProfilePatch holds the profile fields to change; nil members are kept.
type ProfilePatch struct {
	Email          *string
	Currency       *string
	InitialCapital *decimal.Decimal
}

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)

func checkEmail(v *apperr.Validator, email string) {
	if email == "" {
		v.Add("email", "is required")
		return
	}

	_, err := mail.ParseAddress(email)
	v.Check(err == nil, "email", "must be a valid email address")
	v.Check(utf8.RuneCountInString(email) <= maxEmailLen, "email", fmt.Sprintf("must be at most %d characters long", maxEmailLen))
}

func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, error) {
	var v apperr.Validator

	username := strings.TrimSpace(p.Username)
	n := utf8.RuneCountInString(username)
	v.Check(n >= 3 && n <= 50, "username", "must be between 3 and 50 characters long")
	checkEmail(&v, strings.TrimSpace(p.Email))
	v.Check(utf8.RuneCountInString(p.Password) >= minPasswordLen, "password", fmt.Sprintf("must be at least %d characters long", minPasswordLen))

	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		PasswordHash: hash,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Login checks the credentials and issues a token. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, errInvalidCredentials
	}

	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errInvalidCredentials
		}

		return nil, err
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, errInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: expires, User: u}, nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	acct, err := s.ledger.Account(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{User: u, Account: acct}, nil
}

// UpdateProfile applies patch. The initial capital goes through the ledger
// first, so a second attempt to set it fails before anything else changes.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*Profile, error) {
	var v apperr.Validator

	if patch.Email != nil {
		checkEmail(&v, strings.TrimSpace(*patch.Email))
	}

	if patch.Currency != nil {
		n := utf8.RuneCountInString(strings.TrimSpace(*patch.Currency))
		v.Check(n >= 1 && n <= maxCurrencyLen, "currency", fmt.Sprintf("must be between 1 and %d characters long", maxCurrencyLen))
	}

	if patch.InitialCapital != nil {
		v.Check(!patch.InitialCapital.IsNegative(), "initial_capital", "must be greater than or equal to 0")
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.InitialCapital != nil {
		if _, err := s.ledger.SetInitialCapital(ctx, userID, *patch.InitialCapital); err != nil {
			return nil, err
		}
	}

	if patch.Email != nil || patch.Currency != nil {
		if patch.Email != nil {
			u.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
		}

		if patch.Currency != nil {
			u.Currency = new(strings.ToUpper(strings.TrimSpace(*patch.Currency)))
		}

		if err := s.repo.UpdateUser(ctx, u); err != nil {
			return nil, err
		}
	}

	acct, err := s.ledger.Account(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{User: u, Account: acct}, nil
}

// Delete closes the account. Entries, plans, subscriptions, funds, private
// categories and rules go with it.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteUser(ctx, userID)
}
