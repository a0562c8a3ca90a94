package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/ztee/pkg/metrics"
	"github.com/marmos91/ztee/pkg/tee"
)

func init() {
	metrics.RegisterTeeMetricsConstructor(NewTeeMetrics)
}

// teeMetrics is the Prometheus implementation of tee.Metrics.
type teeMetrics struct {
	chunks         prometheus.Counter
	chunkBytes     prometheus.Histogram
	chunkDuration  prometheus.Histogram
	retries        prometheus.Counter
	relays         prometheus.Gauge
	writebacks     *prometheus.CounterVec
	writebackBytes *prometheus.CounterVec
	runs           *prometheus.CounterVec
	runBytes       prometheus.Counter
	runDuration    prometheus.Histogram
	runThroughput  prometheus.Gauge
}

// NewTeeMetrics creates a new Prometheus-backed tee.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewTeeMetrics() tee.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &teeMetrics{
		chunks: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ztee_chunks_total",
				Help: "Total number of negotiated chunks delivered to every destination",
			},
		),
		chunkBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "ztee_chunk_bytes",
				Help: "Distribution of negotiated chunk sizes",
				Buckets: []float64{
					4096,    // 4KB - a page, slow producer
					16384,   // 16KB
					65536,   // 64KB - default pipe capacity
					262144,  // 256KB
					1048576, // 1MB - default relay size
					4194304, // 4MB
				},
			},
		),
		chunkDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "ztee_chunk_duration_milliseconds",
				Help: "Time from duplication to the end of the drain of one chunk",
				Buckets: []float64{
					0.01, // 10us
					0.1,  // 100us
					1,    // 1ms
					10,   // 10ms
					100,  // 100ms - a destination is slow to drain
					1000, // 1s
				},
			},
		),
		retries: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ztee_duplicate_retries_total",
				Help: "Total number of not-ready duplication results",
			},
		),
		relays: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "ztee_relays",
				Help: "Number of relays allocated by the current topology",
			},
		),
		writebacks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ztee_writeback_operations_total",
				Help: "Total number of cache writeback requests by kind",
			},
			[]string{"kind"}, // "async", "evict", "final"
		),
		writebackBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ztee_writeback_bytes_total",
				Help: "Total bytes covered by cache writeback requests by kind",
			},
			[]string{"kind"},
		),
		runs: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ztee_runs_total",
				Help: "Total number of transfers by outcome",
			},
			[]string{"status"}, // "success", "error"
		),
		runBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ztee_bytes_total",
				Help: "Total bytes delivered to every destination",
			},
		),
		runDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ztee_run_duration_seconds",
				Help:    "Duration of whole transfers in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 10, 7), // 1ms to 1000s
			},
		),
		runThroughput: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "ztee_last_run_throughput_bytes_per_second",
				Help: "Average throughput of the last finished transfer",
			},
		),
	}
}

func (m *teeMetrics) ObserveChunk(bytes int64, duration time.Duration) {
	if m == nil {
		return
	}

	m.chunks.Inc()
	m.chunkDuration.Observe(duration.Seconds() * 1000)
	if bytes > 0 {
		m.chunkBytes.Observe(float64(bytes))
	}
}

func (m *teeMetrics) RecordRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *teeMetrics) RecordRelays(count int) {
	if m == nil {
		return
	}
	m.relays.Set(float64(count))
}

func (m *teeMetrics) RecordWriteback(kind string, bytes int64) {
	if m == nil {
		return
	}
	m.writebacks.WithLabelValues(kind).Inc()
	m.writebackBytes.WithLabelValues(kind).Add(float64(bytes))
}

func (m *teeMetrics) ObserveRun(bytes int64, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	m.runs.WithLabelValues(status).Inc()
	m.runBytes.Add(float64(bytes))
	m.runDuration.Observe(duration.Seconds())
	if secs := duration.Seconds(); secs > 0 {
		m.runThroughput.Set(float64(bytes) / secs)
	}
}
