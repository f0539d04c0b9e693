// Package metrics holds the prometheus collectors for the attendance engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_toggles_total",
	Help: "Toggle requests by outcome (marked, unmarked, rejected).",
}, []string{"outcome"})

var LedgerLoads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_ledger_loads_total",
	Help: "Ledger loads by result (ok, missing, read_error, decode_error).",
}, []string{"result"})

var MalformedRecords = promauto.NewCounter(prometheus.CounterOpts{
	Name: "attendance_malformed_records_total",
	Help: "Stored records dropped because their date or time did not parse.",
})

var IntegrityViolations = promauto.NewCounter(prometheus.CounterOpts{
	Name: "attendance_integrity_violations_total",
	Help: "Loaded ledgers that held more than one record for a day.",
})

var LedgerSaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_ledger_saves_total",
	Help: "Full-ledger saves by result (ok, error).",
}, []string{"result"})

var ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "attendance_active_sessions",
	Help: "Sessions currently held by the session manager.",
})

var Exports = promauto.NewCounter(prometheus.CounterOpts{
	Name: "attendance_csv_exports_total",
	Help: "CSV exports served.",
})

var SnapshotWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_snapshot_writes_total",
	Help: "CSV snapshot files written by the worker, by result.",
}, []string{"result"})
