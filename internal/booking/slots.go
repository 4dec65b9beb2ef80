package booking

import (
	"context"
	"fmt"

	"courtbook/internal/models"
)

// Reasons a slot on the board is not bookable.
const (
	SlotBooked = "booked"
	SlotPast   = "past"
)

// Slot is one hour of a court's day.
type Slot struct {
	Time      string  `json:"time"`
	Available bool    `json:"available"`
	Reason    string  `json:"reason,omitempty"`
	Price     float64 `json:"price"`
}

// ListAvailableSlots lists free, not-yet-started hours between the default opening hours.
func (e *Engine) ListAvailableSlots(ctx context.Context, courtID string, date models.Date) ([]string, error) {
	return e.ListAvailableSlotsBetween(ctx, courtID, date, e.opts.DefaultOpenHour, e.opts.DefaultCloseHour)
}

// ListAvailableSlotsBetween lists hours in [openHour, closeHour) that are free
// and whose start is not before now, ascending.
func (e *Engine) ListAvailableSlotsBetween(ctx context.Context, courtID string, date models.Date, openHour, closeHour int) ([]string, error) {
	bookings, err := e.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}

	now := e.now()
	slots := []string{}
	for hour := openHour; hour < closeHour; hour++ {
		t := models.FormatSlotTime(hour)
		if date.At(hour, e.opts.Location).Before(now) {
			continue
		}
		if !isFree(bookings, models.SlotKey{CourtID: courtID, Date: date, Time: t}) {
			continue
		}
		slots = append(slots, t)
	}
	return slots, nil
}

// SlotBoard returns every hour of the court's opening hours on date with its
// availability and price.
func (e *Engine) SlotBoard(ctx context.Context, courtID string, date models.Date) ([]Slot, error) {
	court, err := e.courts.Get(courtID)
	if err != nil {
		return nil, err
	}
	bookings, err := e.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("slot board: %w", err)
	}

	now := e.now()
	board := make([]Slot, 0, court.CloseHour-court.OpenHour)
	for hour := court.OpenHour; hour < court.CloseHour; hour++ {
		s := Slot{
			Time:      models.FormatSlotTime(hour),
			Available: true,
			Price:     e.courts.PriceForSlot(court, date, hour),
		}
		switch {
		case !isFree(bookings, models.SlotKey{CourtID: courtID, Date: date, Time: s.Time}):
			s.Available, s.Reason = false, SlotBooked
		case date.At(hour, e.opts.Location).Before(now):
			s.Available, s.Reason = false, SlotPast
		}
		board = append(board, s)
	}
	return board, nil
}
