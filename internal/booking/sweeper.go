package booking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically marks confirmed sessions that have ended as completed.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	logger   *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc // non-nil while Start is running
}

func NewSweeper(engine *Engine, interval time.Duration, logger *zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the sweep loop until ctx is done or Stop is called. A second
// Start while one is running returns immediately; after Stop it may run again.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	s.logger.Info().Dur("interval", s.interval).Msg("completion sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("completion sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Running reports whether the loop is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Stop ends a running loop. It has no effect before Start.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
}

// RunOnce completes elapsed bookings and returns how many changed.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	start := time.Now()
	n, err := s.engine.CompleteElapsed(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int("completed", n).Msg("completion sweep failed")
		return n
	}
	if n > 0 {
		s.logger.Info().Int("completed", n).Dur("duration", time.Since(start)).Msg("elapsed bookings completed")
	}
	return n
}
