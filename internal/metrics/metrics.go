// Package metrics provides Prometheus metrics for the collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsCollected counts records built by providers.
	RecordsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workflowpop",
			Name:      "records_collected_total",
			Help:      "Total number of records built by providers",
		},
		[]string{"source", "region"},
	)

	// UnitFailures counts absorbed failures of a single query, feed, keyword or provider call.
	UnitFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workflowpop",
			Name:      "unit_failures_total",
			Help:      "Total number of failed collection units",
		},
		[]string{"source", "unit"},
	)

	// UpsertTotal counts record writes by outcome.
	UpsertTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workflowpop",
			Name:      "upsert_total",
			Help:      "Total number of record upserts",
		},
		[]string{"status"},
	)

	// CollectionDuration measures full collection cycles.
	CollectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "workflowpop",
			Name:      "collection_duration_seconds",
			Help:      "Duration of collection cycles in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// LastCollectionTimestamp is the unix time the last cycle finished.
	LastCollectionTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "workflowpop",
			Name:      "last_collection_timestamp_seconds",
			Help:      "Unix time of the last finished collection cycle",
		},
	)
)
