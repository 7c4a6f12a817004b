// Package marketdata derives the validator's safety metrics from
// aggregator quotes and chain state. Solana pools expose no tax or
// liquidity registry, so everything here is probed: liquidity from a
// quote ladder, taxes from a round trip, honeypots from the reverse
// route.
package marketdata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"solana-sniper/internal/extractor"
	"solana-sniper/internal/swap"
)

// QuoteProvider prices swaps. Satisfied by *swap.Client.
type QuoteProvider interface {
	GetQuote(ctx context.Context, p swap.QuoteParams) (*swap.Quote, error)
}

// HolderSource counts token accounts for a mint.
type HolderSource interface {
	TokenAccountCount(ctx context.Context, mint string) (int, error)
}

// Config tunes the probing behavior.
type Config struct {
	// ProbeSizeSOL is the trade size for tax and honeypot probes.
	ProbeSizeSOL float64
	// SlippageBps is passed through on probe quotes.
	SlippageBps int
	// MaxLadderImpactPct stops the liquidity ladder once a rung's
	// impact crosses this bound.
	MaxLadderImpactPct float64
}

// DefaultConfig returns probing defaults suited to fresh pools.
func DefaultConfig() Config {
	return Config{
		ProbeSizeSOL:       0.1,
		SlippageBps:        500,
		MaxLadderImpactPct: 30,
	}
}

// ladderSOL is the ascending probe sizes for liquidity estimation.
var ladderSOL = []float64{0.05, 0.25, 1, 5, 25}

// Source implements the validator's market data lookups.
type Source struct {
	quotes  QuoteProvider
	holders HolderSource
	config  Config
	log     zerolog.Logger
}

// NewSource builds a Source. holders may be nil when no RPC endpoint
// can serve token account scans; HolderCount then reports unavailable.
func NewSource(quotes QuoteProvider, holders HolderSource, cfg Config, log zerolog.Logger) *Source {
	if cfg.ProbeSizeSOL <= 0 {
		cfg.ProbeSizeSOL = DefaultConfig().ProbeSizeSOL
	}
	if cfg.SlippageBps <= 0 {
		cfg.SlippageBps = DefaultConfig().SlippageBps
	}
	if cfg.MaxLadderImpactPct <= 0 {
		cfg.MaxLadderImpactPct = DefaultConfig().MaxLadderImpactPct
	}
	return &Source{
		quotes:  quotes,
		holders: holders,
		config:  cfg,
		log:     log.With().Str("component", "marketdata").Logger(),
	}
}

func (s *Source) buyQuote(ctx context.Context, mint string, sizeSOL float64) (*swap.Quote, error) {
	return s.quotes.GetQuote(ctx, swap.QuoteParams{
		InputMint:      extractor.WSOL,
		OutputMint:     mint,
		AmountLamports: swap.SolToLamports(sizeSOL),
		SlippageBps:    s.config.SlippageBps,
	})
}

// Liquidity estimates pool depth in SOL by walking the quote ladder.
// Under constant product pricing a buy of size x against reserves r
// moves the price by roughly x/r, so each rung yields the estimate
// size/impact; the deepest rung still under the impact bound wins.
func (s *Source) Liquidity(ctx context.Context, mint string) (float64, error) {
	var best float64
	var quoted bool

	for _, size := range ladderSOL {
		quote, err := s.buyQuote(ctx, mint, size)
		if err != nil {
			if !quoted {
				return 0, fmt.Errorf("liquidity probe %s: %w", mint, err)
			}
			break
		}
		quoted = true

		impact := quote.PriceImpactPct
		if impact <= 0 {
			// Impact too small to measure at this rung; the pool is at
			// least two orders deeper than the probe.
			best = size * 100
			continue
		}
		best = size / impact
		if impact*100 >= s.config.MaxLadderImpactPct {
			break
		}
	}

	s.log.Debug().Str("mint", mint).Float64("liquidity_sol", best).Msg("liquidity estimated")
	return best, nil
}

// PriceImpact quotes a buy of tradeSizeSOL and returns the impact in
// percent.
func (s *Source) PriceImpact(ctx context.Context, mint string, tradeSizeSOL float64) (float64, error) {
	quote, err := s.buyQuote(ctx, mint, tradeSizeSOL)
	if err != nil {
		return 0, fmt.Errorf("impact quote %s: %w", mint, err)
	}
	return quote.PriceImpactPct * 100, nil
}

// Taxes estimates buy and sell tax from a round trip. The SOL lost
// beyond the two legs' price impact is attributed to transfer fees,
// split evenly between the sides since the quotes cannot tell them
// apart.
func (s *Source) Taxes(ctx context.Context, mint string) (buyPct, sellPct float64, err error) {
	buy, err := s.buyQuote(ctx, mint, s.config.ProbeSizeSOL)
	if err != nil {
		return 0, 0, fmt.Errorf("tax buy probe %s: %w", mint, err)
	}

	sell, err := s.quotes.GetQuote(ctx, swap.QuoteParams{
		InputMint:      mint,
		OutputMint:     extractor.WSOL,
		AmountLamports: buy.OutAmount,
		SlippageBps:    s.config.SlippageBps,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("tax sell probe %s: %w", mint, err)
	}

	in := float64(buy.InAmount)
	back := float64(sell.OutAmount)
	if in <= 0 {
		return 0, 0, fmt.Errorf("tax probe %s: zero input amount", mint)
	}

	lossPct := (1 - back/in) * 100
	lossPct -= (buy.PriceImpactPct + sell.PriceImpactPct) * 100
	if lossPct < 0 {
		lossPct = 0
	}
	return lossPct / 2, lossPct / 2, nil
}

// HolderCount counts token accounts holding the mint.
func (s *Source) HolderCount(ctx context.Context, mint string) (int, error) {
	if s.holders == nil {
		return 0, fmt.Errorf("holder count %s: no holder source configured", mint)
	}
	return s.holders.TokenAccountCount(ctx, mint)
}

// SellQuote probes the reverse route. A token that quotes fine on the
// way in but has no route out is the classic honeypot shape.
func (s *Source) SellQuote(ctx context.Context, mint string) (bool, error) {
	buy, err := s.buyQuote(ctx, mint, s.config.ProbeSizeSOL)
	if err != nil {
		return false, fmt.Errorf("honeypot buy probe %s: %w", mint, err)
	}

	_, err = s.quotes.GetQuote(ctx, swap.QuoteParams{
		InputMint:      mint,
		OutputMint:     extractor.WSOL,
		AmountLamports: buy.OutAmount,
		SlippageBps:    s.config.SlippageBps,
	})
	if err != nil {
		if swap.KindOf(err) == swap.KindNoRoute {
			return false, nil
		}
		return false, fmt.Errorf("honeypot sell probe %s: %w", mint, err)
	}
	return true, nil
}
