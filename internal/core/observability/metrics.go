// Package observability holds the service's prometheus collectors.
package observability

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream"},
	)

	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Upstream calls by outcome.",
		},
		[]string{"upstream", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "query_engine_duration_seconds",
			Help:    "Time spent computing a result view.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		},
	)

	viewCacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_view_cache_results_total",
			Help: "Filtered+sorted intermediate cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	catalogLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_loads_total",
			Help: "Catalog loads by final state.",
		},
		[]string{"state"},
	)

	detailLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detail_loads_total",
			Help: "Detail lookups by outcome.",
		},
		[]string{"outcome"},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Sessions currently held by the session store.",
		},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		upstreamLatencySeconds,
		upstreamRequestsTotal,
		queryDurationSeconds,
		viewCacheResults,
		catalogLoads,
		detailLoads,
		sessionsActive,
		buildInfo,
	}
}

func init() {
	prometheus.MustRegister(collectors()...)
}

// Init registers the collectors on an additional registry, such as the
// dedicated metrics listener's. Already registered collectors are skipped.
func Init(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("register collector: %w", err)
		}
	}
	return nil
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstream(upstream, outcome string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
	upstreamRequestsTotal.WithLabelValues(upstream, outcome).Inc()
}

func ObserveQuery(durationSeconds float64) {
	queryDurationSeconds.Observe(durationSeconds)
}

func IncViewCacheHit() { viewCacheResults.WithLabelValues("hit").Inc() }
func IncViewCacheMiss() { viewCacheResults.WithLabelValues("miss").Inc() }

func IncCatalogLoad(state string) {
	catalogLoads.WithLabelValues(state).Inc()
}

func IncDetailLoad(outcome string) {
	detailLoads.WithLabelValues(outcome).Inc()
}

func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
