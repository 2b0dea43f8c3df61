// Package metrics declares the Prometheus collectors shared across modules.
// Labels are kept low-cardinality: routes use the matched template, never raw paths.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// HTTPInFlight tracks requests currently being served.
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// LeadSubmissions counts intake outcomes: accepted, duplicate, invalid, failed.
	LeadSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_submissions_total",
			Help: "Application submissions partitioned by outcome",
		},
		[]string{"outcome"},
	)

	// DeliveryOutcomes counts notification channel results.
	DeliveryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_delivery_outcomes_total",
			Help: "Notification deliveries partitioned by channel and final status",
		},
		[]string{"channel", "status"},
	)

	// MediaNormalizations counts media normalizer results: converted, passthrough, failed.
	MediaNormalizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_normalizations_total",
			Help: "Uploaded images partitioned by normalization result",
		},
		[]string{"result"},
	)

	// BulkResendSends counts individual sends performed by bulk resend jobs.
	BulkResendSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_resend_sends_total",
			Help: "Emails sent by operator bulk resend jobs partitioned by result",
		},
		[]string{"result"},
	)

	// DomainEvents counts events handled by subscribers, by event name.
	DomainEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_events_total",
			Help: "Domain events handled by subscribers partitioned by event name",
		},
		[]string{"event"},
	)
)

// ObserveHTTPRequest records one finished HTTP request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	httpRequestsTotal.With(labels).Inc()
	httpRequestDuration.With(labels).Observe(elapsed.Seconds())
}
