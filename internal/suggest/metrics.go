package suggest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	generatedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daywell",
		Subsystem: "suggestions",
		Name:      "generated_total",
		Help:      "Suggestion results returned, by source and fallback reason.",
	}, []string{"source", "reason"})

	dispatchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "daywell",
		Subsystem: "suggestions",
		Name:      "dispatch_duration_seconds",
		Help:      "Latency of the single upstream generation call.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(generatedCounter, dispatchLatency)
}

func recordGenerated(result Result) {
	reason := result.FallbackReason
	if reason == "" {
		reason = ReasonNone
	}
	generatedCounter.WithLabelValues(string(result.Source), reason).Inc()
}

func recordDispatch(d time.Duration) {
	dispatchLatency.Observe(d.Seconds())
}
