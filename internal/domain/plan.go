package domain

import "time"

// LegStatus is the lifecycle state of one purchase leg.
type LegStatus string

const (
	LegPending   LegStatus = "PENDING"
	LegSubmitted LegStatus = "SUBMITTED"
	LegConfirmed LegStatus = "CONFIRMED"
	LegFailed    LegStatus = "FAILED"
)

// Terminal reports whether the status is final.
func (s LegStatus) Terminal() bool {
	return s == LegConfirmed || s == LegFailed
}

// PurchaseLeg is one atomic purchase attempt using one funding account.
type PurchaseLeg struct {
	LegID      string
	AccountRef string  // funding account pubkey
	AmountSOL  float64 // planned spend
	Status     LegStatus
	Signature  string // transaction signature, set on Confirmed
	Error      string // failure description, set on Failed
	Attempts   int    // submission attempts including retries
	OutTokens  float64
	StartedAt  time.Time
	FinishedAt time.Time
}

// PurchasePlan is the full set of legs produced for one accepted candidate.
// The plan is never retried as a whole; legs transition independently and
// the plan is terminal once every leg is.
type PurchasePlan struct {
	PlanID    string
	Candidate CandidateReference
	Strategy  StrategyKind
	Legs      []*PurchaseLeg
	CreatedAt time.Time
}

// Done reports whether every leg has reached a terminal state.
func (p *PurchasePlan) Done() bool {
	for _, leg := range p.Legs {
		if !leg.Status.Terminal() {
			return false
		}
	}
	return true
}

// Accounts returns the distinct account refs used by the plan,
// in leg order.
func (p *PurchasePlan) Accounts() []string {
	seen := make(map[string]bool, len(p.Legs))
	var refs []string
	for _, leg := range p.Legs {
		if !seen[leg.AccountRef] {
			seen[leg.AccountRef] = true
			refs = append(refs, leg.AccountRef)
		}
	}
	return refs
}
