package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the meetings backend
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Database Metrics
	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	EventsCreatedTotal     prometheus.Counter
	VenueConflictsTotal    prometheus.Counter
	AttendeesEnrolledTotal prometheus.Counter
	NotificationsTotal     *prometheus.CounterVec
	NotificationQueueDepth prometheus.Gauge
}

// NewMetricsRegistry registers every metric with reg. Pass
// prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardroom_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boardroom_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "boardroom_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		DBQueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardroom_db_queries_total",
				Help: "Total database queries by statement type",
			},
			[]string{"query_type"},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boardroom_db_query_duration_seconds",
				Help:    "Database query execution time in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"query_type"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardroom_cache_hits_total",
				Help: "Total cache hits by cache name",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardroom_cache_misses_total",
				Help: "Total cache misses by cache name",
			},
			[]string{"cache"},
		),

		EventsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "boardroom_events_created_total",
				Help: "Events successfully booked",
			},
		),
		VenueConflictsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "boardroom_venue_conflicts_total",
				Help: "Bookings rejected because the venue was taken",
			},
		),
		AttendeesEnrolledTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "boardroom_attendees_enrolled_total",
				Help: "Attendee rows created by expansion or bulk add",
			},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardroom_notifications_total",
				Help: "Notification deliveries by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		NotificationQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "boardroom_notification_queue_depth",
				Help: "Messages waiting in the notification stream",
			},
		),
	}
}
