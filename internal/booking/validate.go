package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"courtbook/internal/catalog"
	"courtbook/internal/models"
)

// Validation messages returned by ValidateRequest.
const (
	MsgCourtRequired    = "Court ID is required"
	MsgCourtNotFound    = "Court not found"
	MsgUserRequired     = "User ID is required"
	MsgDateRequired     = "Date is required"
	MsgPastDate         = "Cannot book for past dates"
	MsgTimeRequired     = "Time is required"
	MsgTimeMalformed    = "Time must be an hour-aligned HH:00 slot"
	MsgOutsideHours     = "Time is outside court operating hours"
	MsgEndsAfterClosing = "Booking must end by closing time"
	MsgPastSlot         = "Cannot book a time slot in the past"
	MsgDurationTooShort = "Duration must be at least 1 hour"
	MsgNegativeService  = "Service price cannot be negative"
	MsgSlotUnavailable  = "Time slot is not available"
)

// ValidateRequest returns every problem with req; an empty result means the
// request can be booked right now. The error is for storage failures only.
func (e *Engine) ValidateRequest(ctx context.Context, req models.BookingRequest) ([]string, error) {
	var violations []string
	now := e.now()
	today := models.DateOf(now)

	var court *catalog.Court
	if strings.TrimSpace(req.CourtID) == "" {
		violations = append(violations, MsgCourtRequired)
	} else {
		c, err := e.courts.Get(req.CourtID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			violations = append(violations, MsgCourtNotFound)
		case err != nil:
			return nil, fmt.Errorf("resolve court: %w", err)
		default:
			court = &c
		}
	}

	if strings.TrimSpace(req.UserID) == "" {
		violations = append(violations, MsgUserRequired)
	}

	if req.Date.IsZero() {
		violations = append(violations, MsgDateRequired)
	} else if req.Date.Before(today) {
		violations = append(violations, MsgPastDate)
	} else if limit := e.opts.MaxAdvanceMonths; limit > 0 && req.Date.After(today.AddMonths(limit)) {
		violations = append(violations, fmt.Sprintf("Cannot book more than %d months in advance", limit))
	}

	if req.Time == "" {
		violations = append(violations, MsgTimeRequired)
	} else if hour, err := models.ParseSlotTime(req.Time); err != nil {
		violations = append(violations, MsgTimeMalformed)
	} else {
		if court != nil {
			if !court.IsOpenAt(hour) {
				violations = append(violations, MsgOutsideHours)
			} else if req.Duration >= 1 && req.Duration > court.CloseHour-hour {
				violations = append(violations, MsgEndsAfterClosing)
			}
		}
		if req.Date.Equal(today) && req.Date.At(hour, e.opts.Location).Before(now) {
			violations = append(violations, MsgPastSlot)
		}
	}

	if req.Duration < 1 {
		violations = append(violations, MsgDurationTooShort)
	}

	for _, s := range req.AdditionalServices {
		if s.Price < 0 {
			violations = append(violations, MsgNegativeService)
			break
		}
	}

	if req.CourtID != "" && !req.Date.IsZero() && req.Time != "" {
		free, err := e.CheckAvailability(ctx, req.CourtID, req.Date, req.Time)
		if err != nil {
			return nil, err
		}
		if !free {
			violations = append(violations, MsgSlotUnavailable)
		}
	}

	return violations, nil
}
