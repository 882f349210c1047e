package handlers

import (
	"net/http"

	"github.com/avolkov/proxdeck/internal/handlers/middleware"
	"github.com/avolkov/proxdeck/internal/logger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(authService AuthService, logger logger.Logger) http.Handler {
	authHandler := NewAuth(authService)

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", authHandler.Handler()))

	return chain(root,
		middleware.Logger(logger),
	)
}
