package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Number of HTTP requests handled, by method, route and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ImportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wordpress_import_runs_total",
		Help: "Number of WordPress import runs, by outcome.",
	}, []string{"outcome"})

	ImportedPostsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wordpress_imported_posts_total",
		Help: "Number of blog posts created by WordPress imports.",
	})
)
