package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finspark_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finspark_http_request_duration_seconds",
		Help:    "Duration of HTTP requests served",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finspark_api_requests_total",
		Help: "Requests sent to the remote API by outcome",
	}, []string{"method", "outcome"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finspark_api_request_duration_seconds",
		Help:    "Duration of requests sent to the remote API",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	queryLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finspark_query_lookups_total",
		Help: "Read cache lookups by result (hit, miss, shared, disabled)",
	}, []string{"resource", "result"})

	queryInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finspark_query_invalidations_total",
		Help: "Read cache invalidations by key prefix",
	}, []string{"resource"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finspark_notifications_total",
		Help: "Notifications published by level",
	}, []string{"level"})

	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finspark_session_transitions_total",
		Help: "Session state transitions (login, logout)",
	}, []string{"transition"})

	activeWorkspaces = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "finspark_active_workspaces",
		Help: "Browsers with in-memory state",
	})
)

// ObserveHTTPRequest records a served HTTP request
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveAPIRequest records a request sent to the remote API
func ObserveAPIRequest(method, outcome string, duration time.Duration) {
	apiRequestsTotal.WithLabelValues(method, outcome).Inc()
	apiRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveQuery records a read cache lookup
func ObserveQuery(resource, result string) {
	queryLookups.WithLabelValues(resource, result).Inc()
}

// ObserveInvalidation records a read cache invalidation
func ObserveInvalidation(resource string) {
	queryInvalidations.WithLabelValues(resource).Inc()
}

// ObserveNotification records a published notification
func ObserveNotification(level string) {
	notificationsTotal.WithLabelValues(level).Inc()
}

// ObserveSessionTransition records a login or logout
func ObserveSessionTransition(transition string) {
	sessionTransitions.WithLabelValues(transition).Inc()
}

// SetActiveWorkspaces sets the workspace gauge
func SetActiveWorkspaces(count int) {
	if count < 0 {
		count = 0
	}
	activeWorkspaces.Set(float64(count))
}
