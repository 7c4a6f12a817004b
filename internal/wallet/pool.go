// Package wallet manages the funding account pool. The pool is the only
// shared mutable state touched by concurrent legs; every reservation,
// release and balance decrement happens under one lock.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

// Pool errors.
var (
	// ErrNoEligibleAccounts is returned when selection yields zero legs.
	// An empty or fully-reserved pool is an expected outcome, not a fault.
	ErrNoEligibleAccounts = errors.New("no eligible accounts")

	// ErrReservationConflict is returned when a reserve or commit races
	// with another plan holding the account.
	ErrReservationConflict = errors.New("account reservation conflict")

	// ErrUnknownAccount is returned for an account ref the pool does not hold.
	ErrUnknownAccount = errors.New("unknown account")
)

// BalanceSource supplies the current balance of an account in SOL.
type BalanceSource interface {
	Balance(ctx context.Context, pubkey string) (float64, error)
}

// Config holds pool-level settings.
type Config struct {
	// FeeReserveSOL is withheld per account for network fees.
	FeeReserveSOL float64
	// MinBalanceSOL excludes near-empty accounts from selection.
	MinBalanceSOL float64
}

// Pool holds the funding accounts and serializes all mutation.
type Pool struct {
	mu       sync.Mutex
	accounts []*domain.FundingAccount
	config   Config
	source   BalanceSource
	rng      *rand.Rand
	log      zerolog.Logger
}

// NewPool builds a pool from account pubkeys. Every pubkey must be a
// valid on-curve ed25519 point: funding accounts are real keypairs,
// not PDAs.
func NewPool(pubkeys []string, cfg Config, source BalanceSource, log zerolog.Logger) (*Pool, error) {
	if len(pubkeys) == 0 {
		return nil, errors.New("no funding accounts configured")
	}

	accounts := make([]*domain.FundingAccount, 0, len(pubkeys))
	for i, pk := range pubkeys {
		if err := validateAccountKey(pk); err != nil {
			return nil, fmt.Errorf("account %d (%s): %w", i+1, shorten(pk), err)
		}
		accounts = append(accounts, &domain.FundingAccount{
			Ref:        pk,
			Index:      i + 1,
			FeeReserve: cfg.FeeReserveSOL,
		})
	}

	return &Pool{
		accounts: accounts,
		config:   cfg,
		source:   source,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log.With().Str("component", "wallet_pool").Logger(),
	}, nil
}

// validateAccountKey checks that pk decodes to a 32-byte on-curve point.
func validateAccountKey(pk string) error {
	raw, err := base58.Decode(pk)
	if err != nil {
		return fmt.Errorf("decode pubkey: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("pubkey is %d bytes, want 32", len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("pubkey not on curve: %w", err)
	}
	return nil
}

// seedRand replaces the jitter source. Tests use a fixed seed.
func (p *Pool) seedRand(seed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng = rand.New(rand.NewSource(seed))
}

// RefreshBalances re-queries every account balance. Failures leave the
// previous observation in place; a stale balance is caught later by the
// aggregator's insufficient-funds error.
func (p *Pool) RefreshBalances(ctx context.Context) {
	refs := p.refs()

	balances := make(map[string]float64, len(refs))
	for _, ref := range refs {
		bal, err := p.source.Balance(ctx, ref)
		if err != nil {
			p.log.Warn().Str("account", shorten(ref)).Err(err).Msg("balance refresh failed")
			continue
		}
		balances[ref] = bal
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, acc := range p.accounts {
		if bal, ok := balances[acc.Ref]; ok {
			acc.BalanceSOL = bal
		}
	}
}

func (p *Pool) refs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	refs := make([]string, len(p.accounts))
	for i, acc := range p.accounts {
		refs[i] = acc.Ref
	}
	return refs
}

// PlannedLeg pairs a funding account with a planned purchase amount.
type PlannedLeg struct {
	AccountRef string
	AmountSOL  float64
}

// Selection is the outcome of one planning cycle. Accounts listed in
// Reserved are held by the caller until Release.
type Selection struct {
	Legs     []PlannedLeg
	Reserved []string
}

// Select plans purchase legs per the strategy and atomically reserves
// the accounts used, preventing a concurrent plan from double-spending
// the same balance. Returns ErrNoEligibleAccounts when nothing can fund
// a leg.
func (p *Pool) Select(strategy domain.Strategy) (*Selection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var legs []PlannedLeg
	switch strategy.Kind {
	case domain.StrategySingleFixed:
		legs = planSingleFixed(p.eligible(strategy), strategy, p.rng)
	case domain.StrategyMultiFixed:
		legs = planMultiFixed(p.eligible(strategy), strategy, p.rng)
	case domain.StrategyMultiProportional:
		legs = planMultiProportional(p.eligible(strategy), strategy)
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", strategy.Kind)
	}

	if len(legs) == 0 {
		return nil, ErrNoEligibleAccounts
	}

	sel := &Selection{Legs: legs}
	seen := make(map[string]bool)
	for _, leg := range legs {
		if seen[leg.AccountRef] {
			continue
		}
		seen[leg.AccountRef] = true
		sel.Reserved = append(sel.Reserved, leg.AccountRef)
	}
	for _, ref := range sel.Reserved {
		p.byRef(ref).Reserved = true
	}

	p.log.Debug().Int("legs", len(legs)).Int("accounts", len(sel.Reserved)).
		Str("strategy", string(strategy.Kind)).Msg("plan selected")
	return sel, nil
}

// eligible returns unreserved accounts above the minimum balance and
// under the per-account trade limit. Caller holds the lock.
func (p *Pool) eligible(strategy domain.Strategy) []*domain.FundingAccount {
	var out []*domain.FundingAccount
	for _, acc := range p.accounts {
		if acc.Reserved {
			continue
		}
		if p.config.MinBalanceSOL > 0 && acc.BalanceSOL < p.config.MinBalanceSOL {
			continue
		}
		if strategy.MaxTradesPerAccount > 0 && acc.TradeCount >= strategy.MaxTradesPerAccount {
			continue
		}
		out = append(out, acc)
	}
	return out
}

// Release frees the reservations taken by Select. It is called exactly
// once per selection, whether the legs succeeded or failed.
func (p *Pool) Release(refs []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ref := range refs {
		if acc := p.byRef(ref); acc != nil {
			acc.Reserved = false
		}
	}
}

// Commit records a confirmed spend: the balance decrement and usage
// bookkeeping are one atomic step with respect to other legs.
func (p *Pool) Commit(ref string, amountSOL float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc := p.byRef(ref)
	if acc == nil {
		return ErrUnknownAccount
	}
	if !acc.Reserved {
		return ErrReservationConflict
	}
	acc.BalanceSOL -= amountSOL
	if acc.BalanceSOL < 0 {
		acc.BalanceSOL = 0
	}
	acc.TradeCount++
	acc.LastUsed = time.Now()
	return nil
}

// byRef finds an account by pubkey. Caller holds the lock.
func (p *Pool) byRef(ref string) *domain.FundingAccount {
	for _, acc := range p.accounts {
		if acc.Ref == ref {
			return acc
		}
	}
	return nil
}

// Snapshot returns copies of the accounts for reporting.
func (p *Pool) Snapshot() []domain.FundingAccount {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.FundingAccount, len(p.accounts))
	for i, acc := range p.accounts {
		out[i] = *acc
	}
	return out
}

// TotalSpendable sums spendable balance across unreserved accounts.
func (p *Pool) TotalSpendable() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total float64
	for _, acc := range p.accounts {
		if !acc.Reserved {
			total += acc.Spendable()
		}
	}
	return total
}

// setBalance is a test hook; balances normally come from RefreshBalances.
func (p *Pool) setBalance(ref string, balance float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if acc := p.byRef(ref); acc != nil {
		acc.BalanceSOL = balance
	}
}

func shorten(pk string) string {
	if len(pk) <= 16 {
		return pk
	}
	return pk[:8] + "..." + pk[len(pk)-8:]
}
