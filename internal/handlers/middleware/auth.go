package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/avolkov/proxdeck/internal/apperrors"
	"github.com/avolkov/proxdeck/internal/handlers/render"
	"github.com/avolkov/proxdeck/internal/handlers/userctx"
	"github.com/avolkov/proxdeck/internal/models"
)

type identityService interface {
	GetUserFromToken(ctx context.Context, accessToken string) (models.PublicUser, error)
}

// BearerToken extracts the bearer credential from the Authorization header
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", errors.New("no bearer token provided")
	}
	return token, nil
}

// Auth resolves the bearer token to a user and puts it into request context.
// Revoked, expired and malformed tokens answer 401, a token whose owner
// has since been deleted answers 404
func Auth(s identityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				render.ServiceError(w, "No token provided", http.StatusUnauthorized)
				return
			}

			user, err := s.GetUserFromToken(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrUserNotFound):
					render.ServiceError(w, "User not found", http.StatusNotFound)
				case errors.Is(err, apperrors.ErrTokenRevoked):
					render.ServiceError(w, "Token has been revoked", http.StatusUnauthorized)
				case errors.Is(err, apperrors.ErrTokenExpired):
					render.ServiceError(w, "Token expired", http.StatusUnauthorized)
				case errors.Is(err, apperrors.ErrTokenMalformed):
					render.ServiceError(w, "Invalid token", http.StatusUnauthorized)
				default:
					render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				}
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
