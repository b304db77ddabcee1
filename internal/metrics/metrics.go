// Package metrics exposes Prometheus collectors for request traffic and
// publishing activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_posts_created_total",
		Help: "Posts created.",
	})

	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_comments_created_total",
		Help: "Comments created.",
	})

	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_registrations_total",
		Help: "Accounts registered.",
	})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_logins_total",
		Help: "Login attempts by result (success, failure, invalid, throttled).",
	}, []string{"result"})

	Votes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_votes_total",
		Help: "Votes cast by value.",
	}, []string{"value"})
)

// Middleware records a request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
