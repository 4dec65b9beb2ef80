package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStore reads and writes through primary and falls back to fallback
// while primary is failing. Successful primary writes are mirrored to fallback
// so it holds recent data when it has to take over.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{primary: primary, fallback: fallback, logger: logger}
}

// usePrimary reports whether primary should be tried, allowing a retry once
// recoveryInterval has passed since it was marked down.
func (s *FailoverStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastCheck) >= recoveryInterval {
		s.lastCheck = time.Now()
		return true
	}
	return false
}

func (s *FailoverStore) markDown(op string, err error) {
	if !s.isDown.Swap(true) {
		s.logger.Warn().Err(err).Str("op", op).Msg("primary store failed, switching to fallback")
	}
	s.mu.Lock()
	s.lastCheck = time.Now()
	s.mu.Unlock()
}

func (s *FailoverStore) markUp() {
	if s.isDown.Swap(false) {
		s.logger.Info().Msg("primary store recovered")
	}
}

func (s *FailoverStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.usePrimary() {
		value, ok, err := s.primary.Get(ctx, key)
		if err == nil {
			s.markUp()
			return value, ok, nil
		}
		s.markDown("get", err)
	}
	return s.fallback.Get(ctx, key)
}

func (s *FailoverStore) Set(ctx context.Context, key string, value []byte) error {
	if s.usePrimary() {
		err := s.primary.Set(ctx, key, value)
		if err == nil {
			s.markUp()
			if err := s.fallback.Set(ctx, key, value); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("mirror write to fallback failed")
			}
			return nil
		}
		s.markDown("set", err)
	}
	return s.fallback.Set(ctx, key, value)
}

// Update runs on primary and mirrors the written value to fallback. A rejection
// from fn or a lost race is returned as is and does not count as primary failing.
func (s *FailoverStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if s.usePrimary() {
		var written []byte
		var fnErr error
		err := s.primary.Update(ctx, key, func(current []byte, ok bool) ([]byte, error) {
			written, fnErr = fn(current, ok)
			return written, fnErr
		})
		if err == nil {
			s.markUp()
			if err := s.fallback.Set(ctx, key, written); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("mirror write to fallback failed")
			}
			return nil
		}
		if fnErr != nil || errors.Is(err, ErrConflict) {
			return err
		}
		s.markDown("update", err)
	}
	return s.fallback.Update(ctx, key, fn)
}

// Ping succeeds while at least one side is reachable.
func (s *FailoverStore) Ping(ctx context.Context) error {
	if err := s.primary.Ping(ctx); err == nil {
		return nil
	}
	return s.fallback.Ping(ctx)
}
