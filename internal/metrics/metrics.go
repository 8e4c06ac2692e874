// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "labelscan"

var (
	// OCRRuns counts text extractions by outcome: ok, no_selection, error.
	OCRRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ocr_runs_total",
		Help:      "Text extractions by outcome.",
	}, []string{"outcome"})

	// OCRDuration observes engine time per extraction.
	OCRDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ocr_duration_seconds",
		Help:      "Time spent in the OCR engine per extraction.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
	})

	// Lookups counts compound lookups by status: found, not_found, failed, skipped.
	Lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compound_lookups_total",
		Help:      "Compound name lookups by result status.",
	}, []string{"status"})

	// LookupDuration observes round-trip time to the compound database.
	LookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "compound_lookup_duration_seconds",
		Help:      "Round-trip time of compound name lookups.",
		Buckets:   prometheus.DefBuckets,
	})

	// Sessions tracks live scanning sessions.
	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Live scanning sessions.",
	})
)
