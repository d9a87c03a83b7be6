package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Database metrics
	dbQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"query_type", "service"},
	)

	// Booking pipeline metrics
	bookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Total number of booking attempts",
		},
		[]string{"outcome", "for_other", "service"},
	)

	bookingConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Total number of booking attempts rejected as slot conflicts",
		},
		[]string{"service"},
	)

	duplicatesCleanedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicate_appointments_cleaned_total",
			Help: "Total number of duplicate appointments removed by cleanup",
		},
		[]string{"service"},
	)

	// Notification metrics
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification dispatch attempts",
		},
		[]string{"kind", "delivered", "service"},
	)
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	// Register metrics
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		dbQueryDuration,
		bookingsTotal,
		bookingConflictsTotal,
		duplicatesCleanedTotal,
		notificationsTotal,
	)

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordDBQuery records database query metrics
func (m *MetricsCollector) RecordDBQuery(queryType string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(queryType, m.serviceName).Observe(duration.Seconds())
}

// RecordBooking records a booking pipeline outcome
func (m *MetricsCollector) RecordBooking(outcome string, forOther bool) {
	bookingsTotal.WithLabelValues(outcome, strconv.FormatBool(forOther), m.serviceName).Inc()
}

// RecordBookingConflict records a rejected slot conflict
func (m *MetricsCollector) RecordBookingConflict() {
	bookingConflictsTotal.WithLabelValues(m.serviceName).Inc()
}

// RecordDuplicatesCleaned records duplicates removed by a cleanup pass
func (m *MetricsCollector) RecordDuplicatesCleaned(count int) {
	duplicatesCleanedTotal.WithLabelValues(m.serviceName).Add(float64(count))
}

// RecordNotification records a notification dispatch attempt
func (m *MetricsCollector) RecordNotification(kind string, delivered bool) {
	notificationsTotal.WithLabelValues(kind, strconv.FormatBool(delivered), m.serviceName).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}
