// Package metrics exposes the Prometheus instruments shared across the
// pipeline. Registration happens once at import time on the default
// registry; the router serves them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleaner_items_deleted_total",
		Help: "Items successfully deleted across all plans.",
	})

	BytesFreed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleaner_bytes_freed_total",
		Help: "Bytes reclaimed by successful deletions.",
	})

	ItemFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleaner_item_failures_total",
		Help: "Per-item execution failures by error class.",
	}, []string{"class"})

	ActiveExecutions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cleaner_active_executions",
		Help: "Plans currently executing.",
	})

	BackupsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleaner_backups_created_total",
		Help: "Backups created before deletion, by kind.",
	}, []string{"kind"})

	BackupsRestored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleaner_backups_restored_total",
		Help: "Backups restored to their target paths.",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleaner_classification_cache_hits_total",
		Help: "Classification cache lookups served from memory or store.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleaner_classification_cache_misses_total",
		Help: "Classification cache lookups that found no fresh record.",
	})
)
