// Package validator applies safety heuristics to candidate mints before
// any funds are committed.
//
// Policy asymmetry, deliberate: a single metric the data source cannot
// supply is skipped (fail-open), while blowing the total validation
// time budget is a rejection (fail-closed).
package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

// MarketData supplies market observations for a mint. Each lookup may
// independently fail or time out; a failed lookup yields "metric
// unavailable" rather than a hard validation error.
type MarketData interface {
	// Liquidity returns aggregated pool liquidity in SOL.
	Liquidity(ctx context.Context, mint string) (float64, error)
	// PriceImpact returns estimated price impact in percent for a buy
	// of tradeSizeSOL.
	PriceImpact(ctx context.Context, mint string, tradeSizeSOL float64) (float64, error)
	// Taxes returns simulated buy and sell tax in percent.
	Taxes(ctx context.Context, mint string) (buyPct, sellPct float64, err error)
	// HolderCount returns the number of token holders.
	HolderCount(ctx context.Context, mint string) (int, error)
	// SellQuote reports whether a token→SOL route exists. A refused
	// reverse quote is the honeypot signal.
	SellQuote(ctx context.Context, mint string) (bool, error)
}

// Thresholds holds the configured risk limits. A zero value disables
// the corresponding check.
type Thresholds struct {
	MinLiquiditySOL   float64
	MaxPriceImpactPct float64
	MaxBuyTaxPct      float64
	MaxSellTaxPct     float64
	MinHolders        int
	CheckHoneypot     bool
	TradeSizeSOL      float64 // probe size for the impact estimate
	Timeout           time.Duration
	Blacklist         []string
}

// Validator decides whether a candidate is safe to buy.
type Validator struct {
	market     MarketData
	thresholds Thresholds
	blacklist  map[string]bool
	log        zerolog.Logger
}

// New creates a Validator.
func New(market MarketData, thresholds Thresholds, log zerolog.Logger) *Validator {
	bl := make(map[string]bool, len(thresholds.Blacklist))
	for _, mint := range thresholds.Blacklist {
		bl[mint] = true
	}
	return &Validator{
		market:     market,
		thresholds: thresholds,
		blacklist:  bl,
		log:        log.With().Str("component", "validator").Logger(),
	}
}

// Validate runs the configured checks against mint and returns the
// decision. Checks run cheapest and most decisive first and reject
// short-circuits; liquidity absence is the most common instant
// disqualifier. The whole run is bounded by the configured timeout;
// exceeding it is a rejection with reason "validation timeout".
func (v *Validator) Validate(ctx context.Context, mint string) *domain.ValidationResult {
	started := time.Now()
	result := &domain.ValidationResult{Mint: mint, Decision: domain.DecisionAccept}

	if v.blacklist[mint] {
		return v.reject(result, started, "mint is blacklisted")
	}

	if v.thresholds.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.thresholds.Timeout)
		defer cancel()
	}

	// Liquidity
	if v.thresholds.MinLiquiditySOL > 0 {
		liq, err := v.market.Liquidity(ctx, mint)
		if ctx.Err() != nil {
			return v.timeout(result, started)
		}
		if err != nil {
			v.skip(mint, "liquidity", err)
		} else {
			result.Metrics.LiquiditySOL = &liq
			if liq < v.thresholds.MinLiquiditySOL {
				return v.reject(result, started,
					fmt.Sprintf("liquidity %.2f SOL below minimum %.2f SOL", liq, v.thresholds.MinLiquiditySOL))
			}
		}
	}

	// Price impact
	if v.thresholds.MaxPriceImpactPct > 0 {
		impact, err := v.market.PriceImpact(ctx, mint, v.thresholds.TradeSizeSOL)
		if ctx.Err() != nil {
			return v.timeout(result, started)
		}
		if err != nil {
			v.skip(mint, "price_impact", err)
		} else {
			result.Metrics.PriceImpactPct = &impact
			if impact > v.thresholds.MaxPriceImpactPct {
				return v.reject(result, started,
					fmt.Sprintf("price impact %.2f%% above maximum %.2f%%", impact, v.thresholds.MaxPriceImpactPct))
			}
		}
	}

	// Taxes
	if v.thresholds.MaxBuyTaxPct > 0 || v.thresholds.MaxSellTaxPct > 0 {
		buyTax, sellTax, err := v.market.Taxes(ctx, mint)
		if ctx.Err() != nil {
			return v.timeout(result, started)
		}
		if err != nil {
			v.skip(mint, "taxes", err)
		} else {
			result.Metrics.BuyTaxPct = &buyTax
			result.Metrics.SellTaxPct = &sellTax
			if v.thresholds.MaxBuyTaxPct > 0 && buyTax > v.thresholds.MaxBuyTaxPct {
				return v.reject(result, started,
					fmt.Sprintf("buy tax %.1f%% above maximum %.1f%%", buyTax, v.thresholds.MaxBuyTaxPct))
			}
			if v.thresholds.MaxSellTaxPct > 0 && sellTax > v.thresholds.MaxSellTaxPct {
				return v.reject(result, started,
					fmt.Sprintf("sell tax %.1f%% above maximum %.1f%%", sellTax, v.thresholds.MaxSellTaxPct))
			}
		}
	}

	// Holder count
	if v.thresholds.MinHolders > 0 {
		holders, err := v.market.HolderCount(ctx, mint)
		if ctx.Err() != nil {
			return v.timeout(result, started)
		}
		if err != nil {
			v.skip(mint, "holders", err)
		} else {
			result.Metrics.HolderCount = &holders
			if holders < v.thresholds.MinHolders {
				return v.reject(result, started,
					fmt.Sprintf("holder count %d below minimum %d", holders, v.thresholds.MinHolders))
			}
		}
	}

	// Honeypot probe: a token with no sell route is unsellable.
	if v.thresholds.CheckHoneypot {
		sellable, err := v.market.SellQuote(ctx, mint)
		if ctx.Err() != nil {
			return v.timeout(result, started)
		}
		if err != nil {
			v.skip(mint, "honeypot", err)
		} else if !sellable {
			return v.reject(result, started, "no sell route: possible honeypot")
		}
	}

	result.Elapsed = time.Since(started)
	v.log.Info().Str("mint", mint).Dur("elapsed", result.Elapsed).Msg("candidate accepted")
	return result
}

func (v *Validator) reject(r *domain.ValidationResult, started time.Time, reason string) *domain.ValidationResult {
	r.Decision = domain.DecisionReject
	r.Reason = reason
	r.Elapsed = time.Since(started)
	v.log.Warn().Str("mint", r.Mint).Str("reason", reason).Msg("candidate rejected")
	return r
}

func (v *Validator) timeout(r *domain.ValidationResult, started time.Time) *domain.ValidationResult {
	return v.reject(r, started, "validation timeout")
}

func (v *Validator) skip(mint, metric string, err error) {
	v.log.Debug().Str("mint", mint).Str("metric", metric).Err(err).
		Msg("metric unavailable, check skipped")
}
