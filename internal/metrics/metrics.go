// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by method, route pattern, and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squeak_http_requests_total",
		Help: "Total HTTP requests by method, route, and status code",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by method and route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "squeak_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AccountEvents counts lifecycle operations by event and outcome.
	AccountEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squeak_account_events_total",
		Help: "Account and post lifecycle events by outcome",
	}, []string{"event", "outcome"})
)

// Event names used with AccountEvents.
const (
	EventRegister   = "register"
	EventLogin      = "login"
	EventUpdateUser = "update_user"
	EventDeleteUser = "delete_user"
	EventCreatePost = "create_post"
	EventDeletePost = "delete_post"
)

// RecordEvent increments AccountEvents with "ok" when err is nil and
// "error" otherwise.
func RecordEvent(event string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	AccountEvents.WithLabelValues(event, outcome).Inc()
}
