// Package metrics exposes ingestion counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "twitterkeywordsearch"

var (
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Remote API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_retries_total",
		Help:      "Transport retries by endpoint",
	}, []string{"endpoint"})
	Cooldowns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_cooldowns_total",
		Help:      "Rate-limit cool-downs by stream",
	}, []string{"stream"})
	PostsInserted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_inserted_total",
		Help:      "Search results written to the store",
	}, []string{"collection"})
	PostsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_skipped_total",
		Help:      "Search results skipped as duplicates",
	}, []string{"collection"})
	Aspects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_aspects_total",
		Help:      "Per-user aspect outcomes",
	}, []string{"aspect", "outcome"})
	RunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of search and users runs",
		Buckets:   []float64{1, 10, 60, 300, 900, 3600, 4 * 3600, 24 * 3600},
	}, []string{"mode"})
)

func init() {
	prometheus.MustRegister(APIRequests, APIRetries, Cooldowns, PostsInserted, PostsSkipped, Aspects, RunDuration)
}

// ObserveRequest counts a finished API request.
func ObserveRequest(endpoint, outcome string) {
	APIRequests.WithLabelValues(endpoint, outcome).Inc()
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

// IncCooldown counts a rate-limit cool-down on a stream.
func IncCooldown(stream string) { Cooldowns.WithLabelValues(stream).Inc() }

// IncInserted counts a stored search result.
func IncInserted(collection string) { PostsInserted.WithLabelValues(collection).Inc() }

// IncSkipped counts a duplicate search result.
func IncSkipped(collection string) { PostsSkipped.WithLabelValues(collection).Inc() }

// IncAspect counts an aspect outcome.
func IncAspect(aspect, outcome string) { Aspects.WithLabelValues(aspect, outcome).Inc() }

// ObserveRunDuration records how long a run took.
func ObserveRunDuration(mode string, start time.Time) {
	RunDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// Server serves metrics on an address until shut down.
type Server struct {
	srv  *http.Server
	errc chan error
}

// StartServer starts a metrics HTTP server on addr (e.g. ":9090"). An
// empty addr disables it and returns nil.
func StartServer(addr string) *Server {
	if addr == "" {
		return nil
	}
	s := &Server{
		srv:  &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 5 * time.Second},
		errc: make(chan error, 1),
	}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errc <- err
		}
		close(s.errc)
	}()
	return s
}

// Shutdown stops the server; it is a no-op on a nil server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.errc
}
