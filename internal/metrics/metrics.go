// Package metrics define as métricas Prometheus do pipeline de ofertas.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ofertas"

// Métricas de extração
var (
	CandidatesExtractedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candidates_extracted_total",
		Help:      "Total number of offers extracted from category pages.",
	}, []string{"category"})

	CategoryFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "category_failures_total",
		Help:      "Total number of category pages skipped after a failure.",
	}, []string{"type"})
)

// Métricas de filtro e verificação
var (
	FilteredOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filtered_out_total",
		Help:      "Total number of offers rejected by the filter or the score threshold.",
	})

	ScoreDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "score_distribution",
		Help:      "Distribution of scores of offers that passed the filter.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0, 10, 20, ..., 100
	})

	VerificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_failures_total",
		Help:      "Total number of offers that failed price verification.",
	})

	DuplicatesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicates_skipped_total",
		Help:      "Total number of offers skipped because they were recently sent.",
	})
)

// Métricas de envio
var (
	DeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivered_total",
		Help:      "Total number of offers delivered to the messaging channel.",
	})

	DeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_failures_total",
		Help:      "Total number of delivery batches interrupted by an error.",
	})

	ArchivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archived_total",
		Help:      "Total number of offers appended to the archive.",
	})
)

// Métricas das execuções
var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Total number of pipeline runs by outcome.",
	}, []string{"status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of pipeline runs in seconds.",
		Buckets:   []float64{30, 60, 120, 300, 600, 900, 1200, 1800},
	})

	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp",
		Help:      "Unix timestamp of the last completed pipeline run.",
	})

	HistorySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_size",
		Help:      "Number of offers currently held by the deduplication history.",
	})
)
