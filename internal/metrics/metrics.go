package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by court.",
		},
		[]string{"court"},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "booking_transition_total",
			Help:      "Count of booking status transitions by target status.",
		},
		[]string{"status"},
	)

	bookingRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "booking_rejected_total",
			Help:      "Count of booking requests rejected, by reason.",
		},
		[]string{"reason"},
	)

	bookingDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "booking_deleted_total",
			Help:      "Count of bookings hard-deleted.",
		},
	)

	paymentProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "payment_processed_total",
			Help:      "Count of mock payments by method and outcome.",
		},
		[]string{"method", "outcome"},
	)
)

// Rejection reasons.
const (
	ReasonValidation = "validation"
	ReasonConflict   = "conflict"
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingTransition, bookingRejected, bookingDeleted, paymentProcessed)
	})
}

func IncBookingCreated(courtID string) {
	bookingCreated.WithLabelValues(courtID).Inc()
}

func IncBookingTransition(status string) {
	bookingTransition.WithLabelValues(status).Inc()
}

func IncBookingRejected(reason string) {
	bookingRejected.WithLabelValues(reason).Inc()
}

func IncBookingDeleted() {
	bookingDeleted.Inc()
}

func IncPayment(method, outcome string) {
	paymentProcessed.WithLabelValues(method, outcome).Inc()
}
