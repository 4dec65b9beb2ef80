package booking

import (
	"context"
	"errors"
	"fmt"

	"courtbook/internal/events"
	"courtbook/internal/metrics"
	"courtbook/internal/models"
	"courtbook/internal/repository"
)

// TransitionMeta carries data merged into a booking on a status change.
type TransitionMeta struct {
	// Reason is recorded on cancellation.
	Reason string
	// Payment is attached when present, typically on confirmation.
	Payment *models.PaymentInfo
}

// CreateBooking validates, prices and stores a new pending booking. Check and
// write run under a lock scoped to the requested slot.
func (e *Engine) CreateBooking(ctx context.Context, req models.BookingRequest) (models.Booking, error) {
	key := models.SlotKey{CourtID: req.CourtID, Date: req.Date, Time: req.Time}
	unlock := e.locks.lock(key.String())
	defer unlock()

	violations, err := e.ValidateRequest(ctx, req)
	if err != nil {
		return models.Booking{}, err
	}
	if len(violations) > 0 {
		metrics.IncBookingRejected(metrics.ReasonValidation)
		e.logger.Debug().Strs("violations", violations).Str("slot", key.String()).Msg("booking request rejected")
		return models.Booking{}, &models.ValidationError{Violations: violations}
	}

	// Re-check after validation in case another engine on the same store took the slot.
	free, err := e.CheckAvailability(ctx, req.CourtID, req.Date, req.Time)
	if err != nil {
		return models.Booking{}, err
	}
	if !free {
		return models.Booking{}, e.conflict(key)
	}

	pricing, err := e.ComputePricing(ctx, req.CourtID, req.Date, req.Time, req.Duration, req.AdditionalServices)
	if err != nil {
		return models.Booking{}, err
	}

	now := e.clock.Now()
	b := models.Booking{
		ID:                 newBookingID(now),
		CourtID:            req.CourtID,
		UserID:             req.UserID,
		Date:               req.Date,
		Time:               req.Time,
		Duration:           req.Duration,
		Status:             models.StatusPending,
		Pricing:            pricing,
		AdditionalServices: append([]models.AdditionalService{}, req.AdditionalServices...),
		SpecialRequests:    req.SpecialRequests,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := e.repo.Append(ctx, b); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) || errors.Is(err, models.ErrConcurrencyConflict) {
			return models.Booking{}, e.conflict(key)
		}
		return models.Booking{}, fmt.Errorf("store booking: %w", err)
	}

	metrics.IncBookingCreated(b.CourtID)
	e.logger.Info().
		Str("booking_id", b.ID).
		Str("court_id", b.CourtID).
		Str("date", b.Date.String()).
		Str("time", b.Time).
		Float64("total", b.Pricing.Total).
		Msg("booking created")
	e.publish(events.BookingCreated, b)
	return b, nil
}

func (e *Engine) conflict(key models.SlotKey) error {
	metrics.IncBookingRejected(metrics.ReasonConflict)
	e.logger.Warn().Str("slot", key.String()).Msg("booking slot taken concurrently")
	return &models.ConcurrencyConflictError{CourtID: key.CourtID, Date: key.Date, Time: key.Time}
}

// UpdateStatus moves a booking to status, stamping the matching timestamp and
// merging meta.
func (e *Engine) UpdateStatus(ctx context.Context, id string, status models.Status, meta TransitionMeta) (models.Booking, error) {
	var from models.Status
	b, err := e.repo.Update(ctx, id, func(b *models.Booking) error {
		if err := models.ValidateTransition(b.Status, status); err != nil {
			return err
		}
		from = b.Status
		now := e.clock.Now()
		b.Status = status
		switch status {
		case models.StatusConfirmed:
			b.ConfirmedAt = &now
		case models.StatusCancelled:
			b.CancelledAt = &now
			b.CancellationReason = meta.Reason
		case models.StatusCompleted:
			b.CompletedAt = &now
		}
		if meta.Payment != nil {
			p := *meta.Payment
			b.Payment = &p
		}
		b.UpdatedAt = now
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	metrics.IncBookingTransition(status.String())
	e.logger.Info().
		Str("booking_id", id).
		Str("from", from.String()).
		Str("to", status.String()).
		Msg("booking status changed")
	e.publish(eventFor(status), b)
	return b, nil
}

func eventFor(status models.Status) string {
	switch status {
	case models.StatusConfirmed:
		return events.BookingConfirmed
	case models.StatusCancelled:
		return events.BookingCancelled
	default:
		return events.BookingCompleted
	}
}

// Confirm marks a pending booking paid.
func (e *Engine) Confirm(ctx context.Context, id string, payment *models.PaymentInfo) (models.Booking, error) {
	return e.UpdateStatus(ctx, id, models.StatusConfirmed, TransitionMeta{Payment: payment})
}

func (e *Engine) Cancel(ctx context.Context, id, reason string) (models.Booking, error) {
	return e.UpdateStatus(ctx, id, models.StatusCancelled, TransitionMeta{Reason: reason})
}

func (e *Engine) Complete(ctx context.Context, id string) (models.Booking, error) {
	return e.UpdateStatus(ctx, id, models.StatusCompleted, TransitionMeta{})
}

// DeleteBooking removes a booking outright, whatever its status.
func (e *Engine) DeleteBooking(ctx context.Context, id string) (models.Booking, error) {
	b, err := e.repo.Remove(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	metrics.IncBookingDeleted()
	e.logger.Info().Str("booking_id", id).Str("status", b.Status.String()).Msg("booking deleted")
	e.publish(events.BookingDeleted, b)
	return b, nil
}

// CompleteElapsed completes every confirmed booking whose session has ended
// and returns how many it moved.
func (e *Engine) CompleteElapsed(ctx context.Context) (int, error) {
	bookings, err := e.repo.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("complete elapsed: %w", err)
	}

	now := e.clock.Now()
	completed := 0
	for i := range bookings {
		b := &bookings[i]
		if b.Status != models.StatusConfirmed {
			continue
		}
		end, err := b.EndsAt(e.opts.Location)
		if err != nil {
			e.logger.Warn().Err(err).Str("booking_id", b.ID).Msg("skipping booking with malformed time")
			continue
		}
		if end.After(now) {
			continue
		}
		if _, err := e.Complete(ctx, b.ID); err != nil {
			// Cancelled or deleted since the snapshot was taken.
			if errors.Is(err, models.ErrInvalidTransition) || errors.Is(err, models.ErrNotFound) {
				continue
			}
			return completed, err
		}
		completed++
	}
	return completed, nil
}
