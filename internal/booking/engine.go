// Package booking is the booking engine: slot exclusivity, pricing and the
// booking lifecycle over a Repository.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"courtbook/internal/catalog"
	"courtbook/internal/models"
)

// Repository is the booking collection the engine owns.
type Repository interface {
	Find(ctx context.Context, id string) (models.Booking, bool, error)
	All(ctx context.Context) ([]models.Booking, error)
	Append(ctx context.Context, b models.Booking) error
	Update(ctx context.Context, id string, fn func(*models.Booking) error) (models.Booking, error)
	Remove(ctx context.Context, id string) (models.Booking, error)
}

// Courts resolves courts and their slot rates.
type Courts interface {
	Get(courtID string) (catalog.Court, error)
	PriceForSlot(court catalog.Court, date models.Date, hour int) float64
}

// EventPublisher receives booking lifecycle events.
type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}

// Options tune the engine. Zero values fall back to defaults.
type Options struct {
	Location *time.Location
	// MaxAdvanceMonths bounds how far ahead a booking may be made; negative disables the check.
	MaxAdvanceMonths int
	DefaultOpenHour  int
	DefaultCloseHour int
}

func (o *Options) applyDefaults() {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.MaxAdvanceMonths == 0 {
		o.MaxAdvanceMonths = 3
	}
	if o.DefaultOpenHour == 0 && o.DefaultCloseHour == 0 {
		o.DefaultOpenHour, o.DefaultCloseHour = 6, 22
	}
}

type Engine struct {
	courts Courts
	repo   Repository
	clock  Clock
	events EventPublisher
	opts   Options
	locks  *slotLocks
	logger *zerolog.Logger
}

// New builds an engine. events may be nil.
func New(courts Courts, repo Repository, clock Clock, events EventPublisher, opts Options, logger *zerolog.Logger) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	opts.applyDefaults()
	return &Engine{
		courts: courts,
		repo:   repo,
		clock:  clock,
		events: events,
		opts:   opts,
		locks:  newSlotLocks(),
		logger: logger,
	}
}

func (e *Engine) now() time.Time {
	return e.clock.Now().In(e.opts.Location)
}

func (e *Engine) today() models.Date {
	return models.DateOf(e.now())
}

// Location is the zone dates and slot hours are evaluated in.
func (e *Engine) Location() *time.Location { return e.opts.Location }

// Get returns a booking by id.
func (e *Engine) Get(ctx context.Context, id string) (models.Booking, error) {
	b, ok, err := e.repo.Find(ctx, id)
	if err != nil {
		return models.Booking{}, fmt.Errorf("find booking: %w", err)
	}
	if !ok {
		return models.Booking{}, &models.NotFoundError{Kind: "booking", ID: id}
	}
	return b, nil
}

// CheckAvailability reports whether no active booking holds (courtID, date, slotTime).
func (e *Engine) CheckAvailability(ctx context.Context, courtID string, date models.Date, slotTime string) (bool, error) {
	bookings, err := e.repo.All(ctx)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return isFree(bookings, models.SlotKey{CourtID: courtID, Date: date, Time: slotTime}), nil
}

func isFree(bookings []models.Booking, key models.SlotKey) bool {
	for i := range bookings {
		if bookings[i].Occupies(key) {
			return false
		}
	}
	return true
}

func (e *Engine) publish(eventType string, b models.Booking) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishJSON(eventType, b); err != nil {
		e.logger.Error().Err(err).Str("event", eventType).Str("booking_id", b.ID).Msg("publish event failed")
	}
}
