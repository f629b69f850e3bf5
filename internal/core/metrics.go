package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_import_runs_total",
		Help: "Product imports by result (completed, failed, rejected).",
	}, []string{"result"})

	importRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_import_rows_total",
		Help: "Imported rows by outcome (added, skipped, duplicate).",
	}, []string{"outcome"})

	importDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_import_duration_seconds",
		Help:    "Duration of completed product imports.",
		Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
	})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_exports_total",
		Help: "Product exports by format.",
	}, []string{"format"})

	stockChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_stock_changes_total",
		Help: "Stock history entries recorded.",
	})
)
