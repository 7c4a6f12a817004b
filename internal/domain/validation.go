package domain

import "time"

// Decision is the outcome of a safety validation.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// Metrics holds market observations collected during validation.
// A nil field means the upstream data source could not supply the metric;
// the corresponding threshold check is skipped (fail-open).
type Metrics struct {
	LiquiditySOL   *float64 // aggregated liquidity in SOL
	PriceImpactPct *float64 // estimated impact for the configured trade size
	BuyTaxPct      *float64
	SellTaxPct     *float64
	HolderCount    *int
}

// ValidationResult is the accept/reject decision for one candidate mint.
// Reason is set only on Reject and names the first violated metric
// with observed vs threshold values.
type ValidationResult struct {
	Mint     string
	Decision Decision
	Reason   string
	Metrics  Metrics
	Elapsed  time.Duration
}

// Accepted reports whether the candidate passed validation.
func (r *ValidationResult) Accepted() bool {
	return r.Decision == DecisionAccept
}
