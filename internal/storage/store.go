// Package storage provides the key-value backends the booking collection is persisted in.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by a store used after Close.
	ErrClosed = errors.New("storage: store closed")
	// ErrConflict is returned by Update when the key kept changing underneath it.
	ErrConflict = errors.New("storage: concurrent update")
)

// UpdateFunc receives the current value (ok is false when the key is absent)
// and returns the value to write. Returning an error aborts the update.
// It may be called more than once for a single Update.
type UpdateFunc func(current []byte, ok bool) ([]byte, error)

// Store keeps opaque values under string keys.
type Store interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Update atomically replaces the value under key with fn's result. No other
	// writer, in this process or another sharing the backend, can interleave.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
}
