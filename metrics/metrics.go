// Package metrics exposes Prometheus counters for stream processing
// outcomes. The processors themselves stay side-effect free; the consumer
// loop records outcomes here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for processed payloads.
const (
	OutcomeHandled = "handled"
	OutcomeDropped = "dropped"
	OutcomeError   = "error"
)

// Taxonomy labels.
const (
	TaxonomyChat = "chat"
	TaxonomyStep = "step"
)

var messagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "waldiez_stream_messages_total",
		Help: "Stream payloads processed, by taxonomy and outcome.",
	},
	[]string{"taxonomy", "outcome"},
)

var parseFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "waldiez_stream_parse_failures_total",
		Help: "Payloads the recovery parser could not turn into an envelope.",
	},
)

// ObserveMessage records one processed payload.
func ObserveMessage(taxonomy, outcome string) {
	messagesTotal.WithLabelValues(taxonomy, outcome).Inc()
}

// ObserveParseFailure records one unrecoverable payload.
func ObserveParseFailure() {
	parseFailures.Inc()
}
