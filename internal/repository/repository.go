package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/proxdeck/internal/models"
)

type CreateUserParams struct {
	Username       string
	HashedPassword string
	Name           string
	Role           string
	Avatar         *string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token row
	// Token strings are unique: saving a duplicate is a db error
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the row matching the exact token string
	// If no row exists must return apperrors.ErrRefreshTokenNotFound
	GetByToken(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete token row by id
	Delete(ctx context.Context, tokenID uuid.UUID) error
}

// Session repository interface
type SessionRepo interface {
	// Append session row for issued access token
	Create(ctx context.Context, session models.Session) error

	// Delete rows matching both the token string and the owning user
	// Returns the number of deleted rows
	DeleteMatching(ctx context.Context, tokenString string, userID uuid.UUID) (int64, error)

	// Delete rows whose expiry passed before the given moment
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Storage aggregates repositories sharing one underlying connection
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Session() SessionRepo

	// Run fn within a database transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
