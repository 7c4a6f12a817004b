package wallet

import (
	"math"
	"math/rand"
	"testing"

	"solana-sniper/internal/domain"
)

func acct(ref string, balance, reserve float64) *domain.FundingAccount {
	return &domain.FundingAccount{Ref: ref, BalanceSOL: balance, FeeReserve: reserve}
}

func sumLegs(legs []PlannedLeg) float64 {
	var total float64
	for _, leg := range legs {
		total += leg.AmountSOL
	}
	return total
}

func TestPlanSingleFixedPicksDeepestAccount(t *testing.T) {
	accounts := []*domain.FundingAccount{
		acct("a", 0.5, 0),
		acct("b", 2.0, 0),
		acct("c", 1.0, 0),
	}
	legs := planSingleFixed(accounts, domain.Strategy{
		Kind: domain.StrategySingleFixed, AmountSOL: 0.2, LegCount: 3,
	}, nil)

	if len(legs) != 3 {
		t.Fatalf("got %d legs, want 3", len(legs))
	}
	for _, leg := range legs {
		if leg.AccountRef != "b" {
			t.Fatalf("leg on %q, want deepest account b", leg.AccountRef)
		}
	}
}

func TestPlanSingleFixedNoAccountCoversTotal(t *testing.T) {
	accounts := []*domain.FundingAccount{acct("a", 0.25, 0)}
	legs := planSingleFixed(accounts, domain.Strategy{
		Kind: domain.StrategySingleFixed, AmountSOL: 0.1, LegCount: 3,
	}, nil)
	if legs != nil {
		t.Fatalf("got %d legs, want none: 0.25 cannot cover 0.3", len(legs))
	}
}

func TestPlanMultiFixedSkipsShallowAccounts(t *testing.T) {
	accounts := []*domain.FundingAccount{
		acct("a", 1.0, 0),
		acct("b", 0.15, 0), // cannot cover 2 x 0.1
		acct("c", 0.4, 0),
	}
	legs := planMultiFixed(accounts, domain.Strategy{
		Kind: domain.StrategyMultiFixed, AmountSOL: 0.1, LegCount: 2,
	}, nil)

	if len(legs) != 4 {
		t.Fatalf("got %d legs, want 4", len(legs))
	}
	perAccount := make(map[string]int)
	for _, leg := range legs {
		perAccount[leg.AccountRef]++
		if leg.AmountSOL != 0.1 {
			t.Errorf("leg amount = %v, want 0.1", leg.AmountSOL)
		}
	}
	if perAccount["a"] != 2 || perAccount["c"] != 2 || perAccount["b"] != 0 {
		t.Fatalf("legs per account = %v, want a:2 c:2", perAccount)
	}
}

func TestPlanMultiProportionalUsesFullSpendable(t *testing.T) {
	accounts := []*domain.FundingAccount{
		acct("a", 0.55, 0.05),
		acct("b", 0.05, 0.05), // spendable zero, skipped
	}
	legs := planMultiProportional(accounts, domain.Strategy{
		Kind: domain.StrategyMultiProportional,
	})

	if len(legs) != 1 {
		t.Fatalf("got %d legs, want 1", len(legs))
	}
	if legs[0].AccountRef != "a" || legs[0].AmountSOL != 0.5 {
		t.Fatalf("leg = %+v, want account a amount 0.5", legs[0])
	}
}

func TestPlanMultiProportionalClampsToMaxLeg(t *testing.T) {
	accounts := []*domain.FundingAccount{acct("a", 5.0, 0)}
	legs := planMultiProportional(accounts, domain.Strategy{
		Kind: domain.StrategyMultiProportional, MaxLegSOL: 1.0,
	})
	if len(legs) != 1 || legs[0].AmountSOL != 1.0 {
		t.Fatalf("legs = %+v, want one leg of 1.0", legs)
	}
}

func TestSmartSplitDecreasingAndSumsToTotal(t *testing.T) {
	amounts := smartSplit(1.0, 4)
	if len(amounts) != 4 {
		t.Fatalf("got %d amounts, want 4", len(amounts))
	}

	var sum float64
	for i, amt := range amounts {
		sum += amt
		if amt <= 0 {
			t.Errorf("amount %d = %v, want positive", i, amt)
		}
		if i > 0 && amt > amounts[i-1] {
			t.Errorf("amounts not non-increasing: %v", amounts)
		}
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("amounts sum to %v, want 1.0", sum)
	}
	if amounts[0] <= amounts[len(amounts)-1] {
		t.Errorf("first leg %v should exceed last %v", amounts[0], amounts[len(amounts)-1])
	}
}

func TestSmartSplitFirstLegCapped(t *testing.T) {
	// No leg may take more than 60% of what remains at its turn.
	amounts := smartSplit(1.0, 2)
	if amounts[0] > 0.6+1e-9 {
		t.Fatalf("first leg %v exceeds 60%% of total", amounts[0])
	}
}

func TestJitterStaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		got := jitter(1.0, 15, rng)
		if got < 0.85-1e-9 || got > 1.15+1e-9 {
			t.Fatalf("jitter produced %v, want within [0.85, 1.15]", got)
		}
	}
	if got := jitter(1.0, 0, rng); got != 1.0 {
		t.Fatalf("zero jitter changed amount to %v", got)
	}
}

func TestCapToSpendableShrinksAndDrops(t *testing.T) {
	legs := []PlannedLeg{
		{AccountRef: "a", AmountSOL: 0.3},
		{AccountRef: "a", AmountSOL: 0.3},
		{AccountRef: "a", AmountSOL: 0.3},
	}
	capped := capToSpendable(legs, map[string]float64{"a": 0.5})

	if len(capped) != 2 {
		t.Fatalf("got %d legs, want 2", len(capped))
	}
	if capped[0].AmountSOL != 0.3 {
		t.Errorf("first leg = %v, want 0.3", capped[0].AmountSOL)
	}
	if capped[1].AmountSOL != 0.2 {
		t.Errorf("second leg = %v, want capped to 0.2", capped[1].AmountSOL)
	}
	if total := sumLegs(capped); total > 0.5+1e-9 {
		t.Errorf("capped total %v exceeds spendable 0.5", total)
	}
}
