package domain

import "time"

// ExecutionSummary aggregates leg outcomes for one processed candidate.
// TotalSpentSOL sums planned amounts of Confirmed legs only; a Failed
// leg leaves no funds spent.
type ExecutionSummary struct {
	PlanID        string
	Mint          string
	Platform      Platform
	Strategy      StrategyKind
	Succeeded     int
	Failed        int
	TotalSpentSOL float64
	TokensBought  float64
	Signatures    []string // confirmations, in leg order
	Elapsed       time.Duration
	CreatedAt     time.Time
}

// SuccessRate returns the fraction of legs that confirmed, in percent.
func (s *ExecutionSummary) SuccessRate() float64 {
	total := s.Succeeded + s.Failed
	if total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(total) * 100
}
