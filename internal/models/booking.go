package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TaxRate is the flat tax applied to court time plus services.
const TaxRate = 0.10

// MaxDuration is the longest session in hours; a session ends the day it starts.
const MaxDuration = 24

// AdditionalService is an add-on attached to a booking when it is created.
type AdditionalService struct {
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
}

// Pricing is the price breakdown stored with a booking.
type Pricing struct {
	BasePrice float64 `json:"basePrice"`
	Subtotal  float64 `json:"subtotal"`
	Services  float64 `json:"services"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
}

// PaymentInfo is what the payment collaborator attaches on confirmation.
type PaymentInfo struct {
	Method        string `json:"method"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

// Booking is a reservation of one court starting at an hour-aligned slot.
type Booking struct {
	ID                 string              `json:"id"`
	CourtID            string              `json:"courtId"`
	UserID             string              `json:"userId"`
	Date               Date                `json:"date"`
	Time               string              `json:"time"` // "HH:00"
	Duration           int                 `json:"duration"`
	Status             Status              `json:"status"`
	Pricing            Pricing             `json:"pricing"`
	AdditionalServices []AdditionalService `json:"additionalServices"`
	SpecialRequests    string              `json:"specialRequests,omitempty"`
	CancellationReason string              `json:"cancellationReason,omitempty"`
	Payment            *PaymentInfo        `json:"paymentInfo,omitempty"`
	ConfirmedAt        *time.Time          `json:"confirmedAt,omitempty"`
	CancelledAt        *time.Time          `json:"cancelledAt,omitempty"`
	CompletedAt        *time.Time          `json:"completedAt,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// Slot returns the (court, date, time) key the booking occupies.
func (b *Booking) Slot() SlotKey {
	return SlotKey{CourtID: b.CourtID, Date: b.Date, Time: b.Time}
}

// Occupies reports whether b holds slot k.
func (b *Booking) Occupies(k SlotKey) bool {
	return b.Status.IsActive() && b.Slot() == k
}

// EndsAt returns the instant the booked session ends in loc.
func (b *Booking) EndsAt(loc *time.Location) (time.Time, error) {
	hour, err := ParseSlotTime(b.Time)
	if err != nil {
		return time.Time{}, err
	}
	if b.Duration < 1 || b.Duration > MaxDuration {
		return time.Time{}, fmt.Errorf("invalid duration %d for booking %s", b.Duration, b.ID)
	}
	return b.Date.At(hour, loc).Add(time.Duration(b.Duration) * time.Hour), nil
}

// Clone returns a deep copy safe to hand out of a repository.
func (b Booking) Clone() Booking {
	if b.AdditionalServices != nil {
		b.AdditionalServices = append([]AdditionalService(nil), b.AdditionalServices...)
	}
	if b.Payment != nil {
		p := *b.Payment
		b.Payment = &p
	}
	b.ConfirmedAt = cloneTime(b.ConfirmedAt)
	b.CancelledAt = cloneTime(b.CancelledAt)
	b.CompletedAt = cloneTime(b.CompletedAt)
	return b
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// BookingRequest is what a caller submits to create a booking.
type BookingRequest struct {
	CourtID            string              `json:"courtId"`
	UserID             string              `json:"userId"`
	Date               Date                `json:"date"`
	Time               string              `json:"time"`
	Duration           int                 `json:"duration"`
	AdditionalServices []AdditionalService `json:"additionalServices"`
	SpecialRequests    string              `json:"specialRequests"`
}

// SlotKey identifies one bookable hour of one court.
type SlotKey struct {
	CourtID string
	Date    Date
	Time    string
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.CourtID, k.Date, k.Time)
}

// FormatSlotTime renders an hour as "HH:00".
func FormatSlotTime(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// ParseSlotTime parses an hour-aligned "HH:00" slot.
func ParseSlotTime(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || parts[1] != "00" {
		return 0, fmt.Errorf("invalid slot time %q, expected HH:00", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid slot hour %q", parts[0])
	}
	return hour, nil
}

// Round2 rounds half up to two decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
