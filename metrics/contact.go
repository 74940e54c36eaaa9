// metrics/contact.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var submissions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contact_submissions_total",
		Help: "Contact form submission cycles by outcome (sent, failed, rejected, busy).",
	},
	[]string{"outcome"},
)

var relaySends = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "contact_relay_send_duration_seconds",
		Help:    "Duration of outbound email relay sends.",
		Buckets: []float64{0.05, 0.25, 1, 3, 10, 30},
	},
	[]string{"stage", "result"},
)

// ObserveSubmission counts one finished submission cycle.
func ObserveSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

// ObserveRelaySend records one relay call for stage ("notification" or
// "acknowledgment").
func ObserveRelaySend(stage string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	relaySends.WithLabelValues(stage, result).Observe(d.Seconds())
}
