package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gearrent-backend/internal/domain"
)

var (
	// LedgerOperations counts ledger operations by kind and outcome
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of inventory ledger operations",
		},
		[]string{"operation", "outcome"},
	)

	// LedgerConflicts counts compare-and-swap retries
	LedgerConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_version_conflicts_total",
			Help: "Optimistic concurrency conflicts that caused a ledger retry",
		},
		[]string{"operation"},
	)

	// LedgerDuration tracks ledger operation latency
	LedgerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Inventory ledger operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// InventoryQuantity tracks the quantity triple per item
	InventoryQuantity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_quantity",
			Help: "Current inventory quantity by kind (total, available, reserved)",
		},
		[]string{"item_id", "kind"},
	)

	// InvariantViolations is the number of items failing the quantity invariant at the last audit
	InvariantViolations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_invariant_violations",
			Help: "Items violating 0 <= reserved <= available <= total at the last audit",
		},
	)

	// ReservationDrift is the absolute reserved-quantity drift per item at the last reconciliation
	ReservationDrift = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_reservation_drift",
			Help: "Difference between reservedQuantity and open booking quantities",
		},
		[]string{"item_id"},
	)

	// BookingTransitions counts booking status changes
	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking status transitions by outcome",
		},
		[]string{"from", "to", "outcome"},
	)

	// DamageReportTransitions counts damage workflow steps
	DamageReportTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "damage_report_transitions_total",
			Help: "Damage report lifecycle steps by outcome",
		},
		[]string{"step", "outcome"},
	)

	// CircuitBreakerState tracks circuit breaker state (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit_name"},
	)

	// CircuitBreakerFailures tracks calls that failed through a breaker
	CircuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of circuit breaker failures",
		},
		[]string{"circuit_name"},
	)

	// InventoryEvents counts broker events by outcome
	InventoryEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_events_total",
			Help: "Inventory change events handed to the message broker",
		},
		[]string{"outcome"},
	)

	// RequestsTotal tracks HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// SetItemQuantities publishes an item's quantity triple
func SetItemQuantities(itemID string, q domain.Quantities) {
	InventoryQuantity.WithLabelValues(itemID, "total").Set(float64(q.Total))
	InventoryQuantity.WithLabelValues(itemID, "available").Set(float64(q.Available))
	InventoryQuantity.WithLabelValues(itemID, "reserved").Set(float64(q.Reserved))
}

// DeleteItem removes an item's gauges after it is deleted
func DeleteItem(itemID string) {
	for _, kind := range []string{"total", "available", "reserved"} {
		InventoryQuantity.DeleteLabelValues(itemID, kind)
	}
	ReservationDrift.DeleteLabelValues(itemID)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency per mux route template
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
