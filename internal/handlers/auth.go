package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/avolkov/proxdeck/internal/apperrors"
	"github.com/avolkov/proxdeck/internal/handlers/middleware"
	"github.com/avolkov/proxdeck/internal/handlers/render"
	"github.com/avolkov/proxdeck/internal/handlers/userctx"
	"github.com/avolkov/proxdeck/internal/models"
)

// Auth service as the handlers see it
type AuthService interface {
	// Login with username and password
	// Has to return apperrors.ErrInvalidCredentials on unknown user or bad password
	Login(ctx context.Context, username string, password string) (models.LoginResult, error)

	// Mint a new access token for a live refresh token
	// If token unknown or garbage: apperrors.ErrInvalidRefreshToken
	// If the stored row expired: apperrors.ErrRefreshTokenExpired
	Refresh(ctx context.Context, refreshToken string) (models.IssuedToken, error)

	// Revoke an access token, best effort, never fails
	Logout(ctx context.Context, accessToken string)

	// Resolve an access token to its owner
	GetUserFromToken(ctx context.Context, accessToken string) (models.PublicUser, error)
}

type AuthHandler struct {
	authService AuthService
}

func NewAuth(auth AuthService) *AuthHandler {
	return &AuthHandler{authService: auth}
}

func (h *AuthHandler) Handler() http.Handler {
	withAuth := middleware.Auth(h.authService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /logout", h.logout)
	mux.Handle("GET /me", withAuth(http.HandlerFunc(h.me)))

	return mux
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		User         models.PublicUser `json:"user"`
		AccessToken  string            `json:"accessToken"`
		RefreshToken string            `json:"refreshToken"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	result, err := h.authService.Login(r.Context(), data.Username, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, LoginSuccessResponse{
		User:         result.User,
		AccessToken:  result.Access.Value,
		RefreshToken: result.Refresh.Value,
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type RefreshSuccessResponse struct {
		AccessToken string `json:"accessToken"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	access, err := h.authService.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrInvalidRefreshToken):
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, RefreshSuccessResponse{AccessToken: access.Value})
}

// logout never answers anything but 200 when a token is present:
// revoking an already dead token is still a successful logout
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutSuccessResponse struct {
		Message string `json:"message"`
	}

	token, err := middleware.BearerToken(r)
	if err != nil {
		render.ServiceError(w, "No token provided", http.StatusBadRequest)
		return
	}

	h.authService.Logout(r.Context(), token)

	render.JSON(w, LogoutSuccessResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		// Auth middleware guarantees the user, this is a programming error
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, user)
}
