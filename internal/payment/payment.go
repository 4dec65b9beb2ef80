// Package payment is the mock payment collaborator: it checks method-specific
// details, authorizes, records the attempt and confirms the booking.
package payment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"courtbook/internal/events"
	"courtbook/internal/metrics"
	"courtbook/internal/models"
)

type Method string

const (
	MethodNequi      Method = "nequi"
	MethodVisa       Method = "visa"
	MethodMastercard Method = "mastercard"
	MethodEfecty     Method = "efecty"
)

// Payment statuses stored on records and bookings.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrDeclined is returned when the authorizer rejects a payment.
var ErrDeclined = errors.New("payment declined")

// Details holds the fields each method asks for. Only the ones relevant to
// the chosen method are checked.
type Details struct {
	Phone          string `json:"phone,omitempty"`
	CardNumber     string `json:"-"`
	Expiry         string `json:"-"`
	CVV            string `json:"-"`
	CardholderName string `json:"cardholderName,omitempty"`
	FullName       string `json:"fullName,omitempty"`
	DocumentID     string `json:"documentId,omitempty"`
}

type Request struct {
	BookingID string
	Method    Method
	Details   Details
}

// Record is what gets stored under the payments key for every attempt.
type Record struct {
	TransactionID string    `json:"transactionId"`
	BookingID     string    `json:"bookingId"`
	Method        Method    `json:"method"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	CardLast4     string    `json:"cardLast4,omitempty"`
	ProcessedAt   time.Time `json:"processedAt"`
}

// Bookings is the part of the booking engine payments need.
type Bookings interface {
	Get(ctx context.Context, id string) (models.Booking, error)
	Confirm(ctx context.Context, id string, payment *models.PaymentInfo) (models.Booking, error)
}

// Authorizer decides whether a payment goes through.
type Authorizer interface {
	Authorize(ctx context.Context, req Request, amount float64) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}

type Processor struct {
	bookings Bookings
	records  *RecordStore
	auth     Authorizer
	events   EventPublisher
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewProcessor(bookings Bookings, records *RecordStore, auth Authorizer, publisher EventPublisher, logger *zerolog.Logger) *Processor {
	return &Processor{
		bookings: bookings,
		records:  records,
		auth:     auth,
		events:   publisher,
		now:      time.Now,
		logger:   logger,
	}
}

var expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)

// Validate returns every problem with the details for req.Method.
func Validate(req Request) []string {
	var violations []string
	d := req.Details

	switch req.Method {
	case MethodNequi:
		if len(d.Phone) < 10 {
			violations = append(violations, "Please enter a valid phone number")
		}
	case MethodVisa, MethodMastercard:
		if len(cardDigits(d.CardNumber)) < 13 {
			violations = append(violations, "Please enter a valid card number")
		}
		if !expiryPattern.MatchString(d.Expiry) {
			violations = append(violations, "Please enter a valid expiry date (MM/YY)")
		}
		if len(d.CVV) < 3 {
			violations = append(violations, "Please enter a valid CVV")
		}
		if len(strings.TrimSpace(d.CardholderName)) < 2 {
			violations = append(violations, "Please enter the cardholder name")
		}
	case MethodEfecty:
		if len(strings.TrimSpace(d.FullName)) < 3 {
			violations = append(violations, "Please enter your full name")
		}
		if len(d.DocumentID) < 7 {
			violations = append(violations, "Please enter a valid ID number")
		}
	default:
		violations = append(violations, "Please select a payment method")
	}
	return violations
}

func cardDigits(number string) string {
	return strings.Join(strings.Fields(number), "")
}

// Process charges the booking's total. On approval the booking is confirmed
// with the payment attached; on decline it stays pending and ErrDeclined is
// returned alongside the failed record.
func (p *Processor) Process(ctx context.Context, req Request) (Record, error) {
	if violations := Validate(req); len(violations) > 0 {
		return Record{}, &models.ValidationError{Violations: violations}
	}

	b, err := p.bookings.Get(ctx, req.BookingID)
	if err != nil {
		return Record{}, err
	}
	if err := models.ValidateTransition(b.Status, models.StatusConfirmed); err != nil {
		return Record{}, err
	}

	rec := Record{
		TransactionID: transactionID(req.Method),
		BookingID:     b.ID,
		Method:        req.Method,
		Amount:        b.Pricing.Total,
		Status:        StatusFailed,
		ProcessedAt:   p.now(),
	}
	if req.Method == MethodVisa || req.Method == MethodMastercard {
		digits := cardDigits(req.Details.CardNumber)
		rec.CardLast4 = digits[len(digits)-4:]
	}

	approved, err := p.auth.Authorize(ctx, req, rec.Amount)
	if err != nil {
		return Record{}, fmt.Errorf("authorize payment: %w", err)
	}

	log := p.logger.With().
		Str("booking_id", b.ID).
		Str("method", string(req.Method)).
		Str("transaction_id", rec.TransactionID).
		Float64("amount", rec.Amount).
		Logger()

	if !approved {
		metrics.IncPayment(string(req.Method), StatusFailed)
		if err := p.records.Append(ctx, rec); err != nil {
			return Record{}, err
		}
		log.Warn().Msg("payment declined")
		return rec, ErrDeclined
	}

	rec.Status = StatusCompleted
	if _, err := p.bookings.Confirm(ctx, b.ID, &models.PaymentInfo{
		Method:        string(req.Method),
		Status:        StatusCompleted,
		TransactionID: rec.TransactionID,
	}); err != nil {
		return Record{}, fmt.Errorf("confirm booking: %w", err)
	}
	if err := p.records.Append(ctx, rec); err != nil {
		return Record{}, err
	}

	metrics.IncPayment(string(req.Method), StatusCompleted)
	log.Info().Msg("payment completed")
	if p.events != nil {
		if err := p.events.PublishJSON(events.PaymentProcessed, rec); err != nil {
			log.Error().Err(err).Msg("publish payment event failed")
		}
	}
	return rec, nil
}

func transactionID(m Method) string {
	prefix := "TXN"
	switch m {
	case MethodNequi:
		prefix = "NEQ"
	case MethodEfecty:
		prefix = "EFE"
	}
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "_" + id[:12]
}
