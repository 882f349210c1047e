package sweeper

import (
	"context"
	"time"

	"github.com/avolkov/proxdeck/internal/logger"
)

const defaultSweepInterval = time.Hour

type sessionRepo interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically removes expired session rows from the ledger.
// The auth flow never reads expired sessions, so this is hygiene only
// and the service is correct without it
type Sweeper struct {
	interval time.Duration
	sessions sessionRepo
	logger   logger.Logger
	now      func() time.Time
}

type Config struct {
	// Sweep interval, hourly if not set
	Interval time.Duration

	// Logger, no-op if nil
	Logger logger.Logger

	// Clock, replaceable in tests
	Now func() time.Time
}

func New(cfg Config, sessions sessionRepo) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = defaultSweepInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Sweeper{
		interval: cfg.Interval,
		sessions: sessions,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// Run sweeps on every tick until ctx is cancelled.
// The returned channel closes when the loop has fully stopped
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Debug("Starting session sweeper", "interval", s.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Session sweeper stopped by context")
				return

			case <-ticker.C:
				deleted, err := s.sessions.DeleteExpired(ctx, s.now())
				if err != nil {
					s.logger.Error("Failed to delete expired sessions", "error", err)
					continue
				}
				if deleted > 0 {
					s.logger.Info("Expired sessions removed", "count", deleted)
				}
			}
		}
	}()

	return idleStopped
}
