package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Currency     *string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Profile is a user together with their balance.
type Profile struct {
	User    *User
	Account *ledger.Account
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}
