package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	_, ok, err := s.Get(ctx, "courtBookings")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "courtBookings", []byte(`[]`)))
	v, ok, err := s.Get(ctx, "courtBookings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))

	require.NoError(t, s.Set(ctx, "courtBookings", []byte(`[{"id":"BKG1"}]`)))
	v, _, err = s.Get(ctx, "courtBookings")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"BKG1"}]`, string(v))

	require.NoError(t, s.Update(ctx, "payments", func(current []byte, ok bool) ([]byte, error) {
		assert.False(t, ok)
		assert.Empty(t, current)
		return []byte(`[1]`), nil
	}))
	v, _, err = s.Get(ctx, "payments")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(v))

	rejected := errors.New("rejected")
	err = s.Update(ctx, "payments", func(current []byte, ok bool) ([]byte, error) {
		assert.True(t, ok)
		assert.Equal(t, `[1]`, string(current))
		return nil, rejected
	})
	assert.ErrorIs(t, err, rejected)
	v, _, err = s.Get(ctx, "payments")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(v))
}

// testConcurrentUpdates appends one byte per writer through stores that share
// a backend and checks that no write is lost.
func testConcurrentUpdates(t *testing.T, stores ...Store) {
	t.Helper()
	const writers = 10
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(s Store) {
			defer wg.Done()
			errs <- s.Update(ctx, "counter", func(current []byte, _ bool) ([]byte, error) {
				return append(current, 'x'), nil
			})
		}(stores[i%len(stores)])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	v, ok, err := stores[0].Get(ctx, "counter")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, v, writers)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStoreContract(t, s)

	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'z'
	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))

	testConcurrentUpdates(t, s)
}

func TestSQLiteStore(t *testing.T) {
	logger := zerolog.New(io.Discard)
	path := filepath.Join(t.TempDir(), "nested", "courtbook.db")

	s, err := NewSQLiteStore(path, &logger)
	require.NoError(t, err)
	testStoreContract(t, s)
	assert.Equal(t, path, s.Path())

	snapshot := filepath.Join(t.TempDir(), "snap.db")
	require.NoError(t, s.Snapshot(context.Background(), snapshot))
	require.NoError(t, s.Close())

	restored, err := NewSQLiteStore(snapshot, &logger)
	require.NoError(t, err)
	defer restored.Close()
	v, ok, err := restored.Get(context.Background(), "courtBookings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"BKG1"}]`, string(v))
}

func TestSQLiteStoreSharedFile(t *testing.T) {
	logger := zerolog.New(io.Discard)
	path := filepath.Join(t.TempDir(), "courtbook.db")

	a, err := NewSQLiteStore(path, &logger)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLiteStore(path, &logger)
	require.NoError(t, err)
	defer b.Close()

	testConcurrentUpdates(t, a, b)
}

func TestSQLiteStoreClosed(t *testing.T) {
	logger := zerolog.New(io.Discard)
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "courtbook.db"), &logger)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	ctx := context.Background()
	_, _, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", []byte("v")), ErrClosed)
	assert.ErrorIs(t, s.Update(ctx, "k", func(c []byte, _ bool) ([]byte, error) { return c, nil }), ErrClosed)
	assert.ErrorIs(t, s.Ping(ctx), ErrClosed)
	assert.ErrorIs(t, s.Snapshot(ctx, filepath.Join(t.TempDir(), "snap.db")), ErrClosed)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, "courtbook:")
	testStoreContract(t, s)

	raw, err := mr.Get("courtbook:courtBookings")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"BKG1"}]`, raw)

	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer other.Close()
	testConcurrentUpdates(t, s, NewRedisStore(other, "courtbook:"))

	mr.Close()
	_, _, err = s.Get(context.Background(), "courtBookings")
	assert.Error(t, err)
}
