package models

import (
	"time"

	"github.com/google/uuid"
)

// IssuedToken is a signed token string with its expiry moment
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// RefreshToken row persisted in the ledger
// The stored ExpiresAt is authoritative for refresh checks, not the
// expiry embedded in the token itself
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Session row records an issued access token for audit and lookup.
// One row is appended per successful login or refresh
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// LoginResult is what a successful login returns to the transport layer
type LoginResult struct {
	User    PublicUser
	Access  IssuedToken
	Refresh IssuedToken
}
