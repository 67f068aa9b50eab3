package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "localbiz", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localbiz", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "localbiz", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localbiz", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "localbiz", Name: "cache_events_total", Help: "Cache hits/misses/sets/incrs."},
		[]string{"cache", "event"}, // event: hit|miss|set|incr
	)
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "localbiz", Name: "sync_runs_total", Help: "Sync runs by trigger and result."},
		[]string{"trigger", "result"}, // result: ok|error|skipped
	)
	SyncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localbiz", Name: "sync_run_duration_seconds",
			Help:    "Sync run duration seconds.",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"trigger"},
	)
	SyncBusinesses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "localbiz", Name: "sync_businesses_upserted_total", Help: "Businesses upserted by category."},
		[]string{"category"},
	)
	SyncLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "localbiz", Name: "sync_last_success_timestamp_seconds", Help: "Unix time of the last fully successful sync run."},
	)
)

// Serve exposes reg on a dedicated listener when addr is set.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency,
		ExternalRequests, ExternalLatency,
		CacheEvents,
		SyncRuns, SyncDuration, SyncBusinesses, SyncLastSuccess,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|incr
	CacheEvents.WithLabelValues(cache, event).Inc()
}

// ObserveSync records one finished (or skipped) sync run.
func ObserveSync(trigger, result string, dur time.Duration) {
	SyncRuns.WithLabelValues(trigger, result).Inc()
	if result == "skipped" {
		return
	}
	SyncDuration.WithLabelValues(trigger).Observe(dur.Seconds())
	if result == "ok" {
		SyncLastSuccess.SetToCurrentTime()
	}
}

func ObserveUpserts(category string, n int) {
	SyncBusinesses.WithLabelValues(category).Add(float64(n))
}
