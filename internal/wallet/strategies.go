package wallet

import (
	"math"
	"math/rand"
	"sort"

	"solana-sniper/internal/domain"
)

// Each strategy is a pure function from (eligible accounts, config) to
// planned legs. The planned total per account never exceeds its
// spendable balance; callers rely on that invariant instead of
// re-checking at submission time.

// planSingleFixed plans LegCount legs of AmountSOL from the single
// account with the deepest spendable balance that can cover the whole
// sequence. One account cannot back concurrent spends, so the
// distributor runs these legs sequentially.
func planSingleFixed(accounts []*domain.FundingAccount, s domain.Strategy, rng *rand.Rand) []PlannedLeg {
	if s.AmountSOL <= 0 || s.LegCount <= 0 {
		return nil
	}
	total := s.AmountSOL * float64(s.LegCount)

	var best *domain.FundingAccount
	for _, acc := range accounts {
		if acc.Spendable() < total {
			continue
		}
		if best == nil || acc.Spendable() > best.Spendable() {
			best = acc
		}
	}
	if best == nil {
		return nil
	}

	amounts := make([]float64, s.LegCount)
	for i := range amounts {
		amounts[i] = s.AmountSOL
	}
	if s.SmartSplit && s.LegCount > 1 {
		amounts = smartSplit(total, s.LegCount)
	}

	legs := make([]PlannedLeg, 0, s.LegCount)
	for _, amt := range amounts {
		legs = append(legs, PlannedLeg{
			AccountRef: best.Ref,
			AmountSOL:  clampAmount(jitter(amt, s.JitterPct, rng), s.MaxLegSOL),
		})
	}
	return capToSpendable(legs, map[string]float64{best.Ref: best.Spendable()})
}

// planMultiFixed plans LegCount legs of AmountSOL on every eligible
// account that can cover its whole share.
func planMultiFixed(accounts []*domain.FundingAccount, s domain.Strategy, rng *rand.Rand) []PlannedLeg {
	if s.AmountSOL <= 0 || s.LegCount <= 0 {
		return nil
	}
	perAccount := s.AmountSOL * float64(s.LegCount)

	var legs []PlannedLeg
	spendable := make(map[string]float64)
	for _, acc := range accounts {
		if acc.Spendable() < perAccount {
			continue
		}
		spendable[acc.Ref] = acc.Spendable()
		for i := 0; i < s.LegCount; i++ {
			legs = append(legs, PlannedLeg{
				AccountRef: acc.Ref,
				AmountSOL:  clampAmount(jitter(s.AmountSOL, s.JitterPct, rng), s.MaxLegSOL),
			})
		}
	}
	return capToSpendable(legs, spendable)
}

// planMultiProportional plans one leg per eligible account using its
// entire spendable balance.
func planMultiProportional(accounts []*domain.FundingAccount, s domain.Strategy) []PlannedLeg {
	var legs []PlannedLeg
	for _, acc := range accounts {
		amt := clampAmount(acc.Spendable(), s.MaxLegSOL)
		if amt <= 0 {
			continue
		}
		legs = append(legs, PlannedLeg{AccountRef: acc.Ref, AmountSOL: amt})
	}
	return legs
}

// smartSplit produces a decreasing amount sequence summing to total:
// early legs run larger while liquidity is untouched, the tail shrinks.
func smartSplit(total float64, n int) []float64 {
	if n <= 1 {
		return []float64{total}
	}

	amounts := make([]float64, 0, n)
	remaining := total
	base := total / float64(n)
	for i := 0; i < n; i++ {
		if i == n-1 {
			amounts = append(amounts, round4(remaining))
			break
		}
		factor := float64(n-i) / float64(n)
		amt := base * (1 + factor*0.5)
		if limit := remaining * 0.6; amt > limit {
			amt = limit
		}
		amt = round4(amt)
		amounts = append(amounts, amt)
		remaining -= amt
	}
	// Keep the sequence strictly non-increasing after rounding.
	sort.Sort(sort.Reverse(sort.Float64Slice(amounts)))
	return amounts
}

// jitter applies ±pct randomization for trade-size masking.
func jitter(amount, pct float64, rng *rand.Rand) float64 {
	if pct <= 0 || rng == nil {
		return amount
	}
	variation := (rng.Float64()*2 - 1) * pct / 100
	return round4(amount * (1 + variation))
}

func clampAmount(amount, max float64) float64 {
	if max > 0 && amount > max {
		return max
	}
	return amount
}

// capToSpendable scales down trailing legs so that no account's planned
// total exceeds its spendable balance after jitter and rounding. Legs
// that would shrink to dust are dropped.
func capToSpendable(legs []PlannedLeg, spendable map[string]float64) []PlannedLeg {
	const dust = 0.0001

	used := make(map[string]float64)
	out := legs[:0]
	for _, leg := range legs {
		budget := spendable[leg.AccountRef] - used[leg.AccountRef]
		if budget < dust {
			continue
		}
		if leg.AmountSOL > budget {
			leg.AmountSOL = floor4(budget)
		}
		if leg.AmountSOL < dust {
			continue
		}
		used[leg.AccountRef] += leg.AmountSOL
		out = append(out, leg)
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// floor4 rounds down so a capped amount never exceeds its budget.
func floor4(v float64) float64 {
	return math.Floor(v*1e4) / 1e4
}
