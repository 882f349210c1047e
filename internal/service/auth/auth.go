package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/proxdeck/internal/apperrors"
	"github.com/avolkov/proxdeck/internal/denylist"
	"github.com/avolkov/proxdeck/internal/logger"
	"github.com/avolkov/proxdeck/internal/models"
	"github.com/avolkov/proxdeck/internal/repository"
)

// DenylistKey is the shared set all revoked access tokens go into
const DenylistKey = "token:denylist"

type Config struct {
	// Hasher to use during login, bcrypt if nil
	Hasher PasswordHasher

	// Logger, no-op if nil
	Logger logger.Logger

	// Clock, replaceable in tests
	Now func() time.Time
}

// AuthService orchestrates the token codec, the session ledger and the
// denylist into login, refresh, logout and identity lookup.
// Ledger failures propagate: durable state is required for correctness.
// Denylist failures never do: the cache is best effort
type AuthService struct {
	codec    *TokenCodec
	hasher   PasswordHasher
	storage  repository.Storage
	denylist denylist.Store
	logger   logger.Logger
	now      func() time.Time
}

func NewService(cfg Config, codec *TokenCodec, storage repository.Storage, dl denylist.Store) (*AuthService, error) {
	if codec == nil {
		return nil, errors.New("token codec must not be nil")
	}
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}
	if dl == nil {
		dl = denylist.Disabled{}
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		codec:    codec,
		hasher:   hasher,
		storage:  storage,
		denylist: dl,
		logger:   log,
		now:      now,
	}, nil
}

// Login checks credentials and issues a fresh token pair.
// One refresh token row and one session row are persisted per call
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.LoginResult, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.LoginResult{}, apperrors.ErrInvalidCredentials
		}
		return models.LoginResult{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.LoginResult{}, apperrors.ErrInvalidCredentials
	}

	access, err := s.codec.IssueAccess(user)
	if err != nil {
		return models.LoginResult{}, err
	}
	refresh, err := s.codec.IssueRefresh(user)
	if err != nil {
		return models.LoginResult{}, err
	}

	now := s.now().Truncate(time.Second)

	err = s.storage.Refresh().Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refresh.Value,
		CreatedAt: now,
		ExpiresAt: refresh.ExpiresAt,
	})
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	err = s.storage.Session().Create(ctx, models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     access.Value,
		CreatedAt: now,
		ExpiresAt: access.ExpiresAt,
	})
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("error while saving session. Err: %w", err)
	}

	s.logger.Info("user logged in", "username", user.Username)

	return models.LoginResult{
		User:    user.Public(),
		Access:  access,
		Refresh: refresh,
	}, nil
}

// Refresh exchanges a live refresh token for a new access token.
// The refresh token itself is NOT rotated: the same token keeps working
// until its own expiry. Concurrent refreshes with one token are therefore
// safe, nothing is consumed.
// The stored row's expiry is authoritative, not the token's embedded one,
// so deleting a row revokes the token server side
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.IssuedToken, error) {
	if _, err := s.codec.VerifyRefresh(refreshToken); err != nil {
		return models.IssuedToken{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidRefreshToken, err)
	}

	stored, err := s.storage.Refresh().GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrRefreshTokenNotFound) {
			// Structurally valid but unknown to the ledger: same answer as garbage
			return models.IssuedToken{}, apperrors.ErrInvalidRefreshToken
		}
		return models.IssuedToken{}, err
	}

	if stored.ExpiresAt.Before(s.now()) {
		// Lazy cleanup: the dead row goes away on first use after expiry
		if err := s.storage.Refresh().Delete(ctx, stored.ID); err != nil {
			return models.IssuedToken{}, err
		}
		return models.IssuedToken{}, apperrors.ErrRefreshTokenExpired
	}

	user, err := s.storage.User().GetUserByID(ctx, stored.UserID)
	if err != nil {
		return models.IssuedToken{}, err
	}

	access, err := s.codec.IssueAccess(user)
	if err != nil {
		return models.IssuedToken{}, err
	}

	err = s.storage.Session().Create(ctx, models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     access.Value,
		CreatedAt: s.now().Truncate(time.Second),
		ExpiresAt: access.ExpiresAt,
	})
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while saving session. Err: %w", err)
	}

	return access, nil
}

// Logout revokes an access token for the rest of its life.
// Best effort and idempotent: whatever goes wrong gets a log line and
// the caller still sees success, logging out twice is fine
func (s *AuthService) Logout(ctx context.Context, accessToken string) {
	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		s.logger.Warn("logout with invalid or expired token", "error", err.Error())
		return
	}

	if s.denylist.IsReady(ctx) {
		// TTL comes from the configured access lifetime, not from the token's
		// embedded expiry. Approximation: if the configured lifetime changed
		// since issuance the TTL over- or undershoots the true remainder
		s.denylist.AddToSet(ctx, DenylistKey, accessToken)
		s.denylist.SetExpire(ctx, DenylistKey, int64(s.codec.AccessTTL().Seconds()))
	}

	if _, err := s.storage.Session().DeleteMatching(ctx, accessToken, claims.UserID); err != nil {
		s.logger.Warn("error while deleting session on logout", "error", err.Error())
	}

	s.logger.Info("user logged out", "username", claims.Username)
}

// GetUserFromToken resolves an access token to its owner.
// Denylist membership is checked before the user lookup so a revoked but
// structurally valid token leaks nothing
func (s *AuthService) GetUserFromToken(ctx context.Context, accessToken string) (models.PublicUser, error) {
	if s.denylist.IsReady(ctx) && s.denylist.IsMember(ctx, DenylistKey, accessToken) {
		return models.PublicUser{}, apperrors.ErrTokenRevoked
	}

	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return models.PublicUser{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.PublicUser{}, err
	}

	return user.Public(), nil
}
