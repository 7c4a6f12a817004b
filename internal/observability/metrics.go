// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Monitor metrics
	SignalsReceived   *prometheus.CounterVec
	MonitorErrors     *prometheus.CounterVec
	MonitorReconnects *prometheus.CounterVec

	// Extractor metrics
	CandidatesExtracted *prometheus.CounterVec
	ExtractionMisses    prometheus.Counter
	DuplicatesSkipped   prometheus.Counter

	// Validator metrics
	ValidationsTotal  *prometheus.CounterVec
	ValidationLatency prometheus.Histogram

	// Pool metrics
	AccountsEligible prometheus.Gauge
	TotalSpendable   prometheus.Gauge
	ReservedAccounts prometheus.Gauge

	// Execution metrics
	LegsSubmitted prometheus.Counter
	LegsConfirmed prometheus.Counter
	LegsFailed    *prometheus.CounterVec
	LegRetries    prometheus.Counter
	SpentSOL      prometheus.Counter
	LegLatency    prometheus.Histogram
	PlansExecuted *prometheus.CounterVec

	// Upstream metrics
	RPCCallLatency *prometheus.HistogramVec
	QuoteLatency   prometheus.Histogram
	QuoteErrors    *prometheus.CounterVec

	// Health metrics
	LastSignalSeen     prometheus.Gauge
	LastPlanExecuted   prometheus.Gauge
	BalanceRefreshFail prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_sniper"
	}

	return &Metrics{
		// Monitor metrics
		SignalsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "signals_received_total",
			Help:      "Total number of text signals received by platform",
		}, []string{"platform"}),
		MonitorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "errors_total",
			Help:      "Total number of monitor errors by platform",
		}, []string{"platform"}),
		MonitorReconnects: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "reconnects_total",
			Help:      "Total number of monitor reconnects by platform",
		}, []string{"platform"}),

		// Extractor metrics
		CandidatesExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "candidates_extracted_total",
			Help:      "Total number of candidate mints extracted by source format",
		}, []string{"format"}),
		ExtractionMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "misses_total",
			Help:      "Total number of signals with no extractable mint",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "duplicates_skipped_total",
			Help:      "Total number of candidates skipped as already seen",
		}),

		// Validator metrics
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator",
			Name:      "validations_total",
			Help:      "Total number of validations by decision",
		}, []string{"decision"}),
		ValidationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validator",
			Name:      "latency_seconds",
			Help:      "Validation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Pool metrics
		AccountsEligible: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "accounts_eligible",
			Help:      "Number of funding accounts currently eligible for selection",
		}),
		TotalSpendable: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "total_spendable_sol",
			Help:      "Total spendable SOL across eligible accounts",
		}),
		ReservedAccounts: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "reserved_accounts",
			Help:      "Number of accounts currently reserved by in-flight plans",
		}),

		// Execution metrics
		LegsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "legs_submitted_total",
			Help:      "Total number of purchase legs submitted on chain",
		}),
		LegsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "legs_confirmed_total",
			Help:      "Total number of purchase legs confirmed",
		}),
		LegsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "legs_failed_total",
			Help:      "Total number of purchase legs failed by error kind",
		}, []string{"kind"}),
		LegRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "leg_retries_total",
			Help:      "Total number of leg submission retries",
		}),
		SpentSOL: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "spent_sol_total",
			Help:      "Total SOL spent on confirmed legs",
		}),
		LegLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "leg_latency_seconds",
			Help:      "Leg duration from start to terminal state in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
		}),
		PlansExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "plans_executed_total",
			Help:      "Total number of purchase plans executed by strategy",
		}, []string{"strategy"}),

		// Upstream metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		QuoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "quote_latency_seconds",
			Help:      "Swap quote request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		QuoteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "quote_errors_total",
			Help:      "Total number of quote errors by kind",
		}, []string{"kind"}),

		// Health metrics
		LastSignalSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_signal_timestamp",
			Help:      "Unix timestamp of last signal received",
		}),
		LastPlanExecuted: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_plan_timestamp",
			Help:      "Unix timestamp of last executed plan",
		}),
		BalanceRefreshFail: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "balance_refresh_failures_total",
			Help:      "Total number of failed balance refresh sweeps",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSignal increments the signal counter and refreshes the health gauge.
func RecordSignal(platform string, unixNow int64) {
	DefaultMetrics.SignalsReceived.WithLabelValues(platform).Inc()
	DefaultMetrics.LastSignalSeen.Set(float64(unixNow))
}

// RecordCandidate increments the candidates extracted counter.
func RecordCandidate(format string) {
	DefaultMetrics.CandidatesExtracted.WithLabelValues(format).Inc()
}

// RecordValidation records a validation outcome and its duration.
func RecordValidation(decision string, seconds float64) {
	DefaultMetrics.ValidationsTotal.WithLabelValues(decision).Inc()
	DefaultMetrics.ValidationLatency.Observe(seconds)
}

// RecordLegConfirmed records a confirmed leg and the SOL it spent.
func RecordLegConfirmed(amountSOL, seconds float64) {
	DefaultMetrics.LegsConfirmed.Inc()
	DefaultMetrics.SpentSOL.Add(amountSOL)
	DefaultMetrics.LegLatency.Observe(seconds)
}

// RecordLegFailed records a failed leg by error kind.
func RecordLegFailed(kind string, seconds float64) {
	DefaultMetrics.LegsFailed.WithLabelValues(kind).Inc()
	DefaultMetrics.LegLatency.Observe(seconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// UpdatePoolGauges updates the funding pool gauges.
func UpdatePoolGauges(eligible int, spendableSOL float64, reserved int) {
	DefaultMetrics.AccountsEligible.Set(float64(eligible))
	DefaultMetrics.TotalSpendable.Set(spendableSOL)
	DefaultMetrics.ReservedAccounts.Set(float64(reserved))
}
