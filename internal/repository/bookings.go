// Package repository persists the booking collection as one JSON array under a single store key.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"courtbook/internal/models"
	"courtbook/internal/storage"
)

// DefaultKey is the store key the booking collection lives under.
const DefaultKey = "courtBookings"

// ErrSlotTaken is returned by Append when an active booking already holds the slot.
var ErrSlotTaken = errors.New("slot already taken")

// BookingRepository reads and rewrites the whole collection on every mutation.
// Each mutation is one atomic store update, so it cannot interleave with
// another repository sharing the store, in this process or another.
type BookingRepository struct {
	store  storage.Store
	key    string
	mu     sync.Mutex // serializes local writers
	logger *zerolog.Logger
}

func NewBookingRepository(store storage.Store, key string, logger *zerolog.Logger) *BookingRepository {
	if key == "" {
		key = DefaultKey
	}
	return &BookingRepository{store: store, key: key, logger: logger}
}

func (r *BookingRepository) decode(data []byte, ok bool) ([]models.Booking, error) {
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var bookings []models.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings under %q: %w", r.key, err)
	}
	return bookings, nil
}

func (r *BookingRepository) load(ctx context.Context) ([]models.Booking, error) {
	data, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return r.decode(data, ok)
}

// mutate decodes the collection, applies fn and writes the result back in one
// store update. fn may run more than once when the store retries.
func (r *BookingRepository) mutate(ctx context.Context, fn func([]models.Booking) ([]models.Booking, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.store.Update(ctx, r.key, func(current []byte, ok bool) ([]byte, error) {
		bookings, err := r.decode(current, ok)
		if err != nil {
			return nil, err
		}
		next, err := fn(bookings)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []models.Booking{}
		}
		data, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encode bookings: %w", err)
		}
		return data, nil
	})
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("save bookings: %w: %w", models.ErrConcurrencyConflict, err)
	}
	return err
}

// Find returns the booking with id, reporting whether it exists.
func (r *BookingRepository) Find(ctx context.Context, id string) (models.Booking, bool, error) {
	bookings, err := r.load(ctx)
	if err != nil {
		return models.Booking{}, false, err
	}
	for i := range bookings {
		if bookings[i].ID == id {
			return bookings[i], true, nil
		}
	}
	return models.Booking{}, false, nil
}

// All returns the collection in insertion order.
func (r *BookingRepository) All(ctx context.Context) ([]models.Booking, error) {
	return r.load(ctx)
}

// Append adds b at the end of the collection. It fails with ErrSlotTaken when
// an active booking already holds b's slot.
func (r *BookingRepository) Append(ctx context.Context, b models.Booking) error {
	slot := b.Slot()
	err := r.mutate(ctx, func(bookings []models.Booking) ([]models.Booking, error) {
		for i := range bookings {
			if b.Status.IsActive() && bookings[i].Occupies(slot) {
				return nil, fmt.Errorf("append %s at %s: %w", b.ID, slot, ErrSlotTaken)
			}
			if bookings[i].ID == b.ID {
				return nil, fmt.Errorf("append: duplicate booking id %s", b.ID)
			}
		}
		return append(bookings, b), nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug().Str("booking_id", b.ID).Str("slot", slot.String()).Msg("booking appended")
	return nil
}

// Replace overwrites the stored booking with the same id.
func (r *BookingRepository) Replace(ctx context.Context, b models.Booking) error {
	_, err := r.Update(ctx, b.ID, func(current *models.Booking) error {
		*current = b
		return nil
	})
	return err
}

// Update applies fn to the stored booking and persists the result atomically.
// If fn returns an error nothing is written.
func (r *BookingRepository) Update(ctx context.Context, id string, fn func(*models.Booking) error) (models.Booking, error) {
	var updated models.Booking
	err := r.mutate(ctx, func(bookings []models.Booking) ([]models.Booking, error) {
		for i := range bookings {
			if bookings[i].ID != id {
				continue
			}
			if err := fn(&bookings[i]); err != nil {
				return nil, err
			}
			updated = bookings[i].Clone()
			return bookings, nil
		}
		return nil, &models.NotFoundError{Kind: "booking", ID: id}
	})
	if err != nil {
		return models.Booking{}, err
	}
	return updated, nil
}

// Remove deletes the booking with id and returns it.
func (r *BookingRepository) Remove(ctx context.Context, id string) (models.Booking, error) {
	var removed models.Booking
	err := r.mutate(ctx, func(bookings []models.Booking) ([]models.Booking, error) {
		for i := range bookings {
			if bookings[i].ID != id {
				continue
			}
			removed = bookings[i]
			return append(bookings[:i], bookings[i+1:]...), nil
		}
		return nil, &models.NotFoundError{Kind: "booking", ID: id}
	})
	if err != nil {
		return models.Booking{}, err
	}
	return removed, nil
}
