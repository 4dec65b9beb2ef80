package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// Update calls fn with the mocked current value when the expectation returns no error.
func (m *mockStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	args := m.Called(ctx, key)
	if err := args.Error(2); err != nil {
		return err
	}
	var current []byte
	if v := args.Get(0); v != nil {
		current = v.([]byte)
	}
	_, err := fn(current, args.Bool(1))
	return err
}

func (m *mockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestFailoverStore(t *testing.T) {
	primary := new(mockStore)
	fallback := new(mockStore)
	logger := zerolog.New(io.Discard)
	s := NewFailoverStore(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Get", ctx, "k1").Return([]byte("v1"), true, nil).Once()

		got, ok, err := s.Get(ctx, "k1")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v1"), got)
		primary.AssertExpectations(t)
	})

	t.Run("WriteMirrorsToFallback", func(t *testing.T) {
		primary.On("Set", ctx, "k1", []byte("v2")).Return(nil).Once()
		fallback.On("Set", ctx, "k1", []byte("v2")).Return(nil).Once()

		assert.NoError(t, s.Set(ctx, "k1", []byte("v2")))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("Get", ctx, "k2").Return(nil, false, errors.New("fail")).Once()
		fallback.On("Get", ctx, "k2").Return([]byte("v2"), true, nil).Once()

		got, ok, err := s.Get(ctx, "k2")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v2"), got)
		assert.True(t, s.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DownSkipsPrimary", func(t *testing.T) {
		fallback.On("Set", ctx, "k3", []byte("v3")).Return(nil).Once()

		assert.NoError(t, s.Set(ctx, "k3", []byte("v3")))
		primary.AssertNotCalled(t, "Set", ctx, "k3", []byte("v3"))
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		s.isDown.Store(true)
		s.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Get", ctx, "k4").Return([]byte("v4"), true, nil).Once()

		got, _, err := s.Get(ctx, "k4")
		assert.NoError(t, err)
		assert.Equal(t, []byte("v4"), got)
		assert.False(t, s.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("UpdateMirrorsWrittenValue", func(t *testing.T) {
		s.isDown.Store(false)
		primary.On("Update", ctx, "k5").Return([]byte("a"), true, nil).Once()
		fallback.On("Set", ctx, "k5", []byte("ab")).Return(nil).Once()

		err := s.Update(ctx, "k5", func(current []byte, ok bool) ([]byte, error) {
			return append(current, 'b'), nil
		})
		assert.NoError(t, err)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("UpdateRejectionKeepsPrimaryUp", func(t *testing.T) {
		rejected := errors.New("rejected")
		primary.On("Update", ctx, "k6").Return(nil, false, nil).Once()

		err := s.Update(ctx, "k6", func([]byte, bool) ([]byte, error) { return nil, rejected })
		assert.ErrorIs(t, err, rejected)
		assert.False(t, s.isDown.Load())
		fallback.AssertNotCalled(t, "Update", ctx, "k6")
	})

	t.Run("UpdateConflictKeepsPrimaryUp", func(t *testing.T) {
		primary.On("Update", ctx, "k7").Return(nil, false, ErrConflict).Once()

		err := s.Update(ctx, "k7", func(c []byte, _ bool) ([]byte, error) { return c, nil })
		assert.ErrorIs(t, err, ErrConflict)
		assert.False(t, s.isDown.Load())
	})

	t.Run("UpdateFallsBack", func(t *testing.T) {
		primary.On("Update", ctx, "k8").Return(nil, false, errors.New("down")).Once()
		fallback.On("Update", ctx, "k8").Return(nil, false, nil).Once()

		err := s.Update(ctx, "k8", func([]byte, bool) ([]byte, error) { return []byte("v8"), nil })
		assert.NoError(t, err)
		assert.True(t, s.isDown.Load())
		fallback.AssertExpectations(t)
	})

	t.Run("PingFallsBack", func(t *testing.T) {
		primary.On("Ping", ctx).Return(errors.New("down")).Once()
		fallback.On("Ping", ctx).Return(nil).Once()

		assert.NoError(t, s.Ping(ctx))
	})
}
