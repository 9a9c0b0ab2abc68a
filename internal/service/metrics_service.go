package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bps-secretariat/bps-inventory/internal/models"
	"github.com/bps-secretariat/bps-inventory/pkg/jobs"
)

const metricsNamespace = "inventory"

// counters mirror the Prometheus series the admin snapshot needs, since reading
// values back out of client_golang collectors is awkward.
type counters struct {
	requests      atomic.Uint64
	serverErrors  atomic.Uint64
	requestNanos  atomic.Uint64
	cacheHits     atomic.Uint64
	cacheMisses   atomic.Uint64
	transitions   atomic.Uint64
	rejections    atomic.Uint64
	scans         atomic.Uint64
	reportsDone   atomic.Uint64
	reportsFailed atomic.Uint64
}

// MetricsService owns the Prometheus registry for the API process. A nil
// *MetricsService is valid and records nothing.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration  *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	cacheLatency  *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	qrScans       *prometheus.CounterVec
	reportJobs    *prometheus.CounterVec
	cacheHitRatio prometheus.Gauge

	queueMu    sync.Mutex
	queueStats func() jobs.Stats

	c counters
}

// NewMetricsService builds a private registry with the inventory collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route template and status.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route", "status"})
	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Redis stats cache lookups by result.",
	}, []string{"result"})
	m.cacheLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "operation_seconds",
		Help:      "Redis stats cache latency by operation.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"op"})
	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Share of cache lookups served from Redis since start.",
	})
	m.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "assignment_transitions_total",
		Help:      "Assignment lifecycle operations by action and outcome.",
	}, []string{"action", "outcome"})
	m.qrScans = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "qr_scans_total",
		Help:      "QR scans by scan type and verification result.",
	}, []string{"scan_type", "result"})
	m.reportJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "report_jobs_total",
		Help:      "Report export jobs reaching a final status.",
	}, []string{"type", "status"})

	m.registry.MustRegister(
		m.httpDuration, m.cacheLookups, m.cacheLatency, m.cacheHitRatio,
		m.transitions, m.qrScans, m.reportJobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request. route must be the gin route
// template, never the raw path.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	m.c.requests.Add(1)
	m.c.requestNanos.Add(uint64(duration.Nanoseconds()))
	if status >= http.StatusInternalServerError {
		m.c.serverErrors.Add(1)
	}
}

// RecordCacheOperation records a cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
		m.c.cacheHits.Add(1)
	} else {
		m.c.cacheMisses.Add(1)
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheHitRatio.Set(ratio(m.c.cacheHits.Load(), m.c.cacheMisses.Load()))
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// RecordTransition counts one assignment engine operation.
func (m *MetricsService) RecordTransition(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.c.rejections.Add(1)
	} else {
		m.c.transitions.Add(1)
	}
	m.transitions.WithLabelValues(action, outcome).Inc()
}

// RecordScan counts a QR scan.
func (m *MetricsService) RecordScan(scanType models.ScanType, success bool) {
	if m == nil {
		return
	}
	result := "fail"
	if success {
		result = "pass"
	}
	m.qrScans.WithLabelValues(string(scanType), result).Inc()
	m.c.scans.Add(1)
}

// RecordReportJob counts a finished or failed export job.
func (m *MetricsService) RecordReportJob(reportType models.ReportType, status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(string(reportType), string(status)).Inc()
	switch status {
	case models.ReportStatusFinished:
		m.c.reportsDone.Add(1)
	case models.ReportStatusFailed:
		m.c.reportsFailed.Add(1)
	}
}

// TrackQueue exports the background queue counters as gauges read at scrape time.
func (m *MetricsService) TrackQueue(name string, stats func() jobs.Stats) {
	if m == nil || stats == nil {
		return
	}
	m.queueMu.Lock()
	m.queueStats = stats
	m.queueMu.Unlock()

	gauge := func(metric, help string, pick func(jobs.Stats) int64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   "queue",
			Name:        metric,
			Help:        help,
			ConstLabels: prometheus.Labels{"queue": name},
		}, func() float64 { return float64(pick(stats())) })
	}
	m.registry.MustRegister(
		gauge("pending", "Jobs waiting for a worker.", func(s jobs.Stats) int64 { return s.Pending }),
		gauge("succeeded", "Jobs completed since start.", func(s jobs.Stats) int64 { return s.Succeeded }),
		gauge("retried", "Job retries scheduled since start.", func(s jobs.Stats) int64 { return s.Retried }),
		gauge("dropped", "Jobs abandoned since start.", func(s jobs.Stats) int64 { return s.Dropped }),
	)
}

// Snapshot returns the counters shown on the admin metrics endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	snap := models.MetricsSnapshot{
		RequestsTotal:         m.c.requests.Load(),
		ServerErrors:          m.c.serverErrors.Load(),
		CacheHits:             m.c.cacheHits.Load(),
		CacheMisses:           m.c.cacheMisses.Load(),
		AssignmentTransitions: m.c.transitions.Load(),
		AssignmentRejections:  m.c.rejections.Load(),
		QRScans:               m.c.scans.Load(),
		ReportsFinished:       m.c.reportsDone.Load(),
		ReportsFailed:         m.c.reportsFailed.Load(),
		Goroutines:            runtime.NumGoroutine(),
		GeneratedAt:           time.Now().UTC(),
	}
	snap.CacheHitRatio = ratio(snap.CacheHits, snap.CacheMisses)
	if snap.RequestsTotal > 0 {
		snap.AverageRequestDurationMs = float64(m.c.requestNanos.Load()) / float64(snap.RequestsTotal) / float64(time.Millisecond)
	}
	m.queueMu.Lock()
	if m.queueStats != nil {
		snap.QueuePending = m.queueStats().Pending
	}
	m.queueMu.Unlock()
	return snap
}

func ratio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
