// Package metrics exposes Prometheus instrumentation for the statement
// extraction pipeline. Init is safe to call more than once; observe helpers
// are no-ops until it runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "statement_engine_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	outcomesTotal   *prometheus.CounterVec
	failureReasons  *prometheus.CounterVec
	stageLatency    *prometheus.HistogramVec
	decryptAttempts prometheus.Histogram
	parseLatency    prometheus.Histogram
	parseConfidence prometheus.Histogram
	excludedTotal   *prometheus.CounterVec
	scratchLive     prometheus.Gauge
)

// Init registers pipeline metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		outcomesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "outcomes_total",
				Help: "Total processed statements by result",
			},
			[]string{"result"},
		)
		failureReasons = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "failures_total",
				Help: "Total failed statements by taxonomy reason",
			},
			[]string{"reason"},
		)
		stageLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "stage_latency_seconds",
				Help:    "Per-stage latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage", "result"},
		)
		decryptAttempts = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "decrypt_attempts",
				Help:    "Password attempts consumed per decrypted statement",
				Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
			},
		)
		parseLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "parse_latency_seconds",
				Help:    "End-to-end model parse latency in seconds",
				Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
			},
		)
		parseConfidence = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "parse_confidence",
				Help:    "Confidence score of succeeded parses",
				Buckets: []float64{10, 25, 50, 65, 80, 90, 95, 100},
			},
		)
		excludedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "excluded_transactions_total",
				Help: "Transactions excluded from spend by reason",
			},
			[]string{"reason"},
		)
		scratchLive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "scratch_artifacts_live",
				Help: "Scratch plaintext artifacts currently on disk",
			},
		)

		prometheus.MustRegister(
			outcomesTotal,
			failureReasons,
			stageLatency,
			decryptAttempts,
			parseLatency,
			parseConfidence,
			excludedTotal,
			scratchLive,
		)
	})
}

// ObserveOutcome records one terminal statement outcome.
func ObserveOutcome(failed bool, reason string) {
	if outcomesTotal == nil {
		return
	}
	if !failed {
		outcomesTotal.WithLabelValues(resultSuccess).Inc()
		return
	}
	outcomesTotal.WithLabelValues(resultError).Inc()
	if reason == "" {
		reason = "unknown"
	}
	failureReasons.WithLabelValues(reason).Inc()
}

// ObserveStage records one pipeline stage's duration and result.
func ObserveStage(stage string, err error, duration time.Duration) {
	if stageLatency == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	stageLatency.WithLabelValues(stage, result).Observe(duration.Seconds())
}

// ObserveDecryptAttempts records how many candidates a statement consumed.
func ObserveDecryptAttempts(attempts int) {
	if decryptAttempts != nil && attempts > 0 {
		decryptAttempts.Observe(float64(attempts))
	}
}

// ObserveParse records parse latency and, on success, its confidence.
func ObserveParse(confidence float64, duration time.Duration) {
	if parseLatency != nil {
		parseLatency.Observe(duration.Seconds())
	}
	if parseConfidence != nil && confidence > 0 {
		parseConfidence.Observe(confidence)
	}
}

// AddExcluded bumps the exclusion counter for reason by count.
func AddExcluded(reason string, count int) {
	if excludedTotal == nil || count <= 0 {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	excludedTotal.WithLabelValues(reason).Add(float64(count))
}

// SetScratchLive publishes the current scratch artifact count.
func SetScratchLive(n int) {
	if scratchLive != nil {
		scratchLive.Set(float64(n))
	}
}
