// Package observability holds the Prometheus collectors of the distribution engine.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	entryLoggedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "daywell",
		Subsystem: "distribution",
		Name:      "last_entry_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity entry accepted.",
	})

	entriesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "daywell",
		Subsystem: "distribution",
		Name:      "entries_logged_total",
		Help:      "Number of activity entries accepted.",
	})

	snapshotReadsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daywell",
		Subsystem: "distribution",
		Name:      "snapshot_reads_total",
		Help:      "Distribution snapshots served, labeled by whether the user was frozen.",
	}, []string{"frozen"})

	freezeTransitionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daywell",
		Subsystem: "distribution",
		Name:      "freeze_transitions_total",
		Help:      "Freeze mode transitions, labeled entered or exited.",
	}, []string{"transition"})
)

func init() {
	prometheus.MustRegister(entryLoggedGauge, entriesLoggedCounter, snapshotReadsCounter, freezeTransitionsCounter)
}

// RecordEntryLogged counts an accepted entry and updates the watermark gauge.
func RecordEntryLogged(ts time.Time) {
	entriesLoggedCounter.Inc()
	if ts.IsZero() {
		return
	}
	entryLoggedGauge.Set(float64(ts.Unix()))
}

// RecordDistributionRead counts a served snapshot.
func RecordDistributionRead(frozen bool) {
	snapshotReadsCounter.WithLabelValues(strconv.FormatBool(frozen)).Inc()
}

// RecordFreezeTransition counts entering (true) or exiting (false) freeze mode.
func RecordFreezeTransition(entered bool) {
	label := "exited"
	if entered {
		label = "entered"
	}
	freezeTransitionsCounter.WithLabelValues(label).Inc()
}
