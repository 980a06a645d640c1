// Package observability exposes Prometheus metrics for the purchase
// pipeline: purchase outcomes, proof submissions, and best-effort
// extension failures. The /metrics endpoint is mounted by the API server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Purchase Metrics ───────────────────────────────────────────────────────

// PurchasesTotal counts purchase attempts by outcome.
// result: completed | unavailable | rejected | error
var PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "reloop",
	Subsystem: "purchase",
	Name:      "requests_total",
	Help:      "Total purchase requests by outcome.",
}, []string{"result"})

// PurchaseAmountCents observes the distribution of purchase totals.
var PurchaseAmountCents = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "reloop",
	Subsystem: "purchase",
	Name:      "amount_cents",
	Help:      "Purchase totals in currency minor units.",
	Buckets:   []float64{100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000},
})

// ─── Proof Metrics ──────────────────────────────────────────────────────────

// ProofSubmissionsTotal counts proof submissions by final status.
// status: confirmed | pending | failed
var ProofSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "reloop",
	Subsystem: "proof",
	Name:      "submissions_total",
	Help:      "Total proof chain submissions by final status.",
}, []string{"status"})

// ProofSubmitSeconds observes backend submission latency.
var ProofSubmitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "reloop",
	Subsystem: "proof",
	Name:      "submit_seconds",
	Help:      "Proof backend submission latency in seconds.",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
})

// ProofChainLength tracks the number of entries in the proof ledger.
var ProofChainLength = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "reloop",
	Subsystem: "proof",
	Name:      "chain_length",
	Help:      "Number of entries in the proof ledger.",
})

// ─── Impact Report Metrics ──────────────────────────────────────────────────

// ImpactReportFailures counts swallowed impact report write failures.
var ImpactReportFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "reloop",
	Subsystem: "impact",
	Name:      "report_failures_total",
	Help:      "Total impact report writes that failed and were logged.",
})
