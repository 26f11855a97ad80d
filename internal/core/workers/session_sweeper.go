package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const sweepTimeout = 30 * time.Second

// IdleEvicter saves and drops sessions that have not been used for maxIdle.
type IdleEvicter interface {
	EvictIdle(ctx context.Context, maxIdle time.Duration) int
}

// SessionSweeper periodically evicts idle sessions so memory stays bounded
// by the number of recently active users.
type SessionSweeper struct {
	evicter  IdleEvicter
	logger   *zap.Logger
	interval time.Duration
	maxIdle  time.Duration
	done     chan struct{}
}

func NewSessionSweeper(e IdleEvicter, logger *zap.Logger, interval, maxIdle time.Duration) *SessionSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionSweeper{
		evicter:  e,
		logger:   logger,
		interval: interval,
		maxIdle:  maxIdle,
		done:     make(chan struct{}),
	}
}

func (s *SessionSweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		s.logger.Info("session sweeper started",
			zap.Duration("interval", s.interval),
			zap.Duration("max_idle", s.maxIdle),
		)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("session sweeper stopped")
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// Done is closed once the sweeper has returned.
func (s *SessionSweeper) Done() <-chan struct{} {
	return s.done
}

// sweep is not bound to the run context, so an eviction under way finishes
// on shutdown.
func (s *SessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if n := s.evicter.EvictIdle(ctx, s.maxIdle); n > 0 {
		s.logger.Debug("idle sessions swept", zap.Int("sessions", n))
	}
}
