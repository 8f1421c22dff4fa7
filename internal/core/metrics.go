package core

import (
	"strconv"

	"github.com/JonMunkholm/PharmaDash/internal/filter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Records in the loaded table
	datasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pharmadash_dataset_records",
			Help: "Number of records in the loaded pricing table",
		},
	)

	// Filter evaluations partitioned by whether any field was constrained
	filterEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadash_filter_evaluations_total",
			Help: "Total number of filter evaluations",
		},
		[]string{"constrained"},
	)

	// Size of filter results
	filterResultRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pharmadash_filter_result_rows",
			Help:    "Number of records matched per filter evaluation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// Exports partitioned by format
	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadash_exports_total",
			Help: "Total number of completed exports",
		},
		[]string{"format"},
	)

	exportsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pharmadash_exports_active",
			Help: "Number of exports currently being written",
		},
	)
)

func observeFilter(c filter.Constraints, matched int) {
	filterEvaluations.WithLabelValues(strconv.FormatBool(!c.IsZero())).Inc()
	filterResultRows.Observe(float64(matched))
}
