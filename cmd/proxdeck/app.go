package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avolkov/proxdeck/internal/db"
	"github.com/avolkov/proxdeck/internal/denylist"
	"github.com/avolkov/proxdeck/internal/handlers"
	"github.com/avolkov/proxdeck/internal/logger"
	"github.com/avolkov/proxdeck/internal/repository/postgres"
	"github.com/avolkov/proxdeck/internal/service/auth"
	"github.com/avolkov/proxdeck/internal/service/sweeper"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	sweeper *sweeper.Sweeper
	closers []func() error
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize denylist store
	// The service starts fine without the cache, only revocation degrades
	var dl denylist.Store = denylist.Disabled{}
	if c.RedisURL != "" {
		dl, err = denylist.NewRedisStore(c.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("error while creating denylist store. Err: %w", err)
		}
	}

	// Initialize services
	codec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		AccessKey:  c.AccessSecret,
		RefreshKey: c.RefreshSecret,
		AccessTTL:  auth.ParseLifetime(c.AccessLifetime),
		RefreshTTL: auth.ParseLifetime(c.RefreshLifetime),
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{Logger: logger}, codec, storage, dl)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	mux := handlers.NewRouter(authService, logger)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		sweeper:    sweeper.New(sweeper.Config{Logger: logger}, storage.Session()),
		closers:    []func() error{dl.Close, func() error { pool.Close(); return nil }},
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.sweeper.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	for _, close := range s.closers {
		_ = close()
	}

	return err
}
