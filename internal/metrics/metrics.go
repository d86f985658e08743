// Package metrics holds the Prometheus collectors of a sync run.
//
// A batch job does not live long enough to be scraped, so collectors are kept
// on a private registry and pushed to a Pushgateway when the run finishes.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics groups the collectors of one process.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpRetries  prometheus.Counter
	rowsUpserted *prometheus.CounterVec
	rowsSkipped  *prometheus.CounterVec
	runDuration  *prometheus.GaugeVec
	lastSuccess  *prometheus.GaugeVec
	runFailures  *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lxsync_http_requests_total",
			Help: "Outbound HTTP attempts by method and outcome (status code or \"error\").",
		}, []string{"method", "outcome"}),
		httpRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lxsync_http_retries_total",
			Help: "Outbound HTTP attempts that were retried.",
		}),
		rowsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lxsync_rows_upserted_total",
			Help: "Rows reported affected by upserts, by table.",
		}, []string{"table"}),
		rowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lxsync_rows_skipped_total",
			Help: "Records skipped for missing natural-key fields, by table.",
		}, []string{"table"}),
		runDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lxsync_run_duration_seconds",
			Help: "Wall time of the last run, by job.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lxsync_run_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run, by job.",
		}, []string{"job"}),
		runFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lxsync_run_failures_total",
			Help: "Failed runs, by job.",
		}, []string{"job"}),
	}
	m.Registry.MustRegister(
		m.httpRequests, m.httpRetries,
		m.rowsUpserted, m.rowsSkipped,
		m.runDuration, m.lastSuccess, m.runFailures,
	)
	return m
}

// ObserveHTTP records one attempt. status 0 means the attempt failed without a response.
func (m *Metrics) ObserveHTTP(method string, status int) {
	if m == nil {
		return
	}
	outcome := "error"
	if status > 0 {
		outcome = strconv.Itoa(status)
	}
	m.httpRequests.WithLabelValues(method, outcome).Inc()
}

// ObserveRetry records that a failed attempt will be retried.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.httpRetries.Inc()
}

// ObserveUpsert records the outcome of one upsert call.
func (m *Metrics) ObserveUpsert(table string, affected, skipped int64) {
	if m == nil {
		return
	}
	m.rowsUpserted.WithLabelValues(table).Add(float64(affected))
	m.rowsSkipped.WithLabelValues(table).Add(float64(skipped))
}

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(job string, started, ended time.Time, failed bool) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(job).Set(ended.Sub(started).Seconds())
	if failed {
		m.runFailures.WithLabelValues(job).Inc()
		return
	}
	m.lastSuccess.WithLabelValues(job).Set(float64(ended.Unix()))
}

// Push sends every collector to the Pushgateway at url, grouped by job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
