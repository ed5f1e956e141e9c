package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the scheduling metrics.
type Metrics struct {
	// Booking outcomes, labelled booked/slot_conflict/outside_availability/
	// tenant_mismatch/not_found/error.
	BookingAttempts *prometheus.CounterVec
	BookingLatency  prometheus.Histogram

	Confirmations prometheus.Counter
	Cancellations prometheus.Counter

	// ReservationsHeld tracks the number of intervals currently held in the
	// conflict index.
	ReservationsHeld prometheus.Gauge

	IndexRebuilds prometheus.Counter
}

// NewMetrics creates and registers all scheduling metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		BookingAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_attempts_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		BookingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_duration_seconds",
			Help:      "Time spent handling a booking request",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		Confirmations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_confirmed_total",
			Help:      "Total appointments confirmed",
		}),
		Cancellations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_cancelled_total",
			Help:      "Total appointments cancelled",
		}),
		ReservationsHeld: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reservations_held",
			Help:      "Intervals currently held in the conflict index",
		}),
		IndexRebuilds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_rebuilds_total",
			Help:      "Conflict index rebuilds from storage",
		}),
	}
}
