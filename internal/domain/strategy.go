package domain

// StrategyKind selects how purchase legs are distributed across accounts.
type StrategyKind string

const (
	// StrategySingleFixed plans N legs of a fixed amount from one account.
	// Legs from one account run sequentially: a single balance cannot
	// safely back two concurrent spends.
	StrategySingleFixed StrategyKind = "SINGLE_FIXED"
	// StrategyMultiFixed plans fixed-amount legs on every eligible account.
	StrategyMultiFixed StrategyKind = "MULTI_FIXED"
	// StrategyMultiProportional plans one leg per eligible account using
	// its entire spendable balance.
	StrategyMultiProportional StrategyKind = "MULTI_PROPORTIONAL"
)

// IsValid checks if the kind is a known value.
func (k StrategyKind) IsValid() bool {
	return k == StrategySingleFixed || k == StrategyMultiFixed || k == StrategyMultiProportional
}

// Strategy is the tagged variant consumed by pool selection.
type Strategy struct {
	Kind StrategyKind

	// AmountSOL is the fixed per-leg amount (single-fixed, multi-fixed).
	AmountSOL float64
	// LegCount is legs total (single-fixed) or legs per account (multi-fixed).
	LegCount int
	// MaxTradesPerAccount caps lifetime purchases per account; 0 disables.
	MaxTradesPerAccount int

	// SmartSplit redistributes single-fixed amounts into a decreasing
	// sequence, front-loading size while liquidity is untouched.
	SmartSplit bool
	// JitterPct applies ±N% randomization to planned amounts; 0 disables.
	JitterPct float64
	// MaxLegSOL clamps any planned amount; 0 disables.
	MaxLegSOL float64
}
