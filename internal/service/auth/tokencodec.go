package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avolkov/proxdeck/internal/apperrors"
	"github.com/avolkov/proxdeck/internal/models"
)

const defaultSigningMethod = "HS256"

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"uid"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
}

// TokenCodec signs and verifies access and refresh tokens.
// The two token kinds use distinct secrets, so one can never be
// presented in place of the other
type TokenCodec struct {
	accessKey  string
	refreshKey string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Clock, replaceable in tests
	now func() time.Time
}

type TokenCodecConfig struct {
	// Secret keys to sign access and refresh token payloads
	// Required to be set
	AccessKey  string
	RefreshKey string

	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Now func() time.Time
}

func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if cfg.AccessKey == "" || cfg.RefreshKey == "" {
		return nil, errors.New("secret keys must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, DefaultLifetime)
	setDefaultDuration(&cfg.RefreshTTL, 7*24*time.Hour)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenCodec{
		accessKey:  cfg.AccessKey,
		refreshKey: cfg.RefreshKey,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// IssueAccess mints a short lived access token carrying the identity claims
func (c *TokenCodec) IssueAccess(user models.User) (models.IssuedToken, error) {
	now := c.now().Truncate(time.Second)
	expiresAt := now.Add(c.accessTTL)

	token := jwt.NewWithClaims(
		c.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
	)
	signed, err := token.SignedString([]byte(c.accessKey))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// IssueRefresh mints a long lived refresh token carrying the user id only
func (c *TokenCodec) IssueRefresh(user models.User) (models.IssuedToken, error) {
	now := c.now().Truncate(time.Second)
	expiresAt := now.Add(c.refreshTTL)

	token := jwt.NewWithClaims(
		c.alg,
		RefreshTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: user.ID,
		},
	)
	signed, err := token.SignedString([]byte(c.refreshKey))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// VerifyAccess parses and validates an access token.
// Returns apperrors.ErrTokenExpired past expiry, apperrors.ErrTokenMalformed
// on bad signature or structure
func (c *TokenCodec) VerifyAccess(tokenString string) (AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	err := c.parse(tokenString, claims, c.accessKey)
	return *claims, err
}

// VerifyRefresh parses and validates a refresh token with the refresh secret
func (c *TokenCodec) VerifyRefresh(tokenString string) (RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	err := c.parse(tokenString, claims, c.refreshKey)
	return *claims, err
}

func (c *TokenCodec) parse(tokenString string, claims jwt.Claims, key string) error {
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(key), nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithTimeFunc(c.now),
	)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	}
}
