// Package reporter aggregates executed plans into summaries. The
// aggregation is a pure function of the plan: summarizing the same
// plan twice yields the same summary, and nothing here mutates legs.
package reporter

import (
	"time"

	"solana-sniper/internal/domain"
)

// Summarize folds a plan's terminal legs into an execution summary.
// Legs that never reached a terminal state count as failed; spend and
// token totals come from confirmed legs only.
func Summarize(plan *domain.PurchasePlan) *domain.ExecutionSummary {
	summary := &domain.ExecutionSummary{
		PlanID:    plan.PlanID,
		Mint:      plan.Candidate.Mint,
		Platform:  plan.Candidate.Platform,
		Strategy:  plan.Strategy,
		CreatedAt: plan.CreatedAt,
	}

	var lastFinish time.Time
	for _, leg := range plan.Legs {
		switch leg.Status {
		case domain.LegConfirmed:
			summary.Succeeded++
			summary.TotalSpentSOL += leg.AmountSOL
			summary.TokensBought += leg.OutTokens
			if leg.Signature != "" {
				summary.Signatures = append(summary.Signatures, leg.Signature)
			}
		default:
			summary.Failed++
		}
		if leg.FinishedAt.After(lastFinish) {
			lastFinish = leg.FinishedAt
		}
	}

	if !plan.CreatedAt.IsZero() && lastFinish.After(plan.CreatedAt) {
		summary.Elapsed = lastFinish.Sub(plan.CreatedAt)
	}
	return summary
}
