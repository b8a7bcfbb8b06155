// Package metrics provides Prometheus instrumentation for ProConnect. It
// exposes counters for authentication and posting activity and a histogram for
// request latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth event labels.
const (
	EventSignup      = "signup"
	EventSignupTaken = "signup_taken"
	EventLoginOK     = "login_ok"
	EventLoginFailed = "login_failed"
	EventLogout      = "logout"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proconnect_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records request latency in seconds.
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "proconnect_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method", "route"})

	// AuthEventsTotal counts signups, logins and logouts.
	AuthEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proconnect_auth_events_total",
		Help: "Total number of authentication events",
	}, []string{"event"})

	// PostsCreatedTotal counts created posts, labeled by whether an image was attached.
	PostsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proconnect_posts_created_total",
		Help: "Total number of posts created",
	}, []string{"image"})

	// SessionsSweptTotal counts expired sessions removed by the background sweeper.
	SessionsSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proconnect_sessions_swept_total",
		Help: "Total number of expired sessions removed by the sweeper",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthEventsTotal,
		PostsCreatedTotal,
		SessionsSweptTotal,
	)
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AuthEvent increments the counter for the given auth event.
func AuthEvent(event string) {
	AuthEventsTotal.WithLabelValues(event).Inc()
}

// PostCreated increments the post counter.
func PostCreated(withImage bool) {
	PostsCreatedTotal.WithLabelValues(strconv.FormatBool(withImage)).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
