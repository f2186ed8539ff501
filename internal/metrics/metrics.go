// Package metrics declares the Prometheus collectors shared by the engine
// components. Collectors register on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feel"

var (
	AnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_total",
			Help:      "LLM analysis calls by outcome (ok or error kind).",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Latency of LLM analysis calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)

	EmojiCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emoji_cache_total",
			Help:      "Emoji cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	StorageSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_saves_total",
			Help:      "History saves by outcome (ok, recovered, failed).",
		},
		[]string{"outcome"},
	)

	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed messages by outcome.",
		},
		[]string{"outcome"},
	)
)
