// Package distributor drives purchase plans to completion. Legs on
// distinct accounts run concurrently under one process-wide in-flight
// cap; legs sharing an account run sequentially because a single
// balance cannot back two concurrent spends. A plan is never retried
// or rolled back as a whole; each leg independently reaches CONFIRMED
// or FAILED.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/extractor"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/swap"
)

// CancelledReason marks legs abandoned at a leg boundary after
// shutdown was requested. Submitted legs are never abandoned.
const CancelledReason = "cancelled"

// Quoter prices swaps. Satisfied by *swap.Client.
type Quoter interface {
	GetQuote(ctx context.Context, p swap.QuoteParams) (*swap.Quote, error)
}

// TxBuilder turns quotes into unsigned transactions. Satisfied by
// *swap.Client.
type TxBuilder interface {
	BuildSwap(ctx context.Context, quote *swap.Quote, userPubkey string, priorityFeeLamports uint64) (string, error)
}

// Signer signs a transaction as the given funding account. Satisfied
// by *wallet.Keystore.
type Signer interface {
	Sign(accountRef, txBase64 string) (signedTx, signature string, err error)
}

// Broadcaster submits transactions and reports their confirmation
// state. Satisfied by *solana.HTTPClient.
type Broadcaster interface {
	SendTransaction(ctx context.Context, signedTxBase64 string, opts *solana.SendOptions) (string, error)
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*solana.SignatureStatus, error)
}

// Committer records a confirmed spend against the funding pool.
// Satisfied by *wallet.Pool.
type Committer interface {
	Commit(ref string, amountSOL float64) error
}

// Config tunes execution behavior.
type Config struct {
	// MaxInFlight caps concurrently executing legs across all plans.
	MaxInFlight int64
	// SlippageBps is the tolerance passed on every quote.
	SlippageBps int
	// PriorityFeeLamports is attached to every swap transaction.
	PriorityFeeLamports uint64
	// MaxAttempts bounds submissions per leg including the first.
	MaxAttempts int
	// RequoteOnRetry refreshes the quote before each retry instead of
	// resubmitting against stale pricing.
	RequoteOnRetry bool
	// RetryInitialDelay and RetryMaxDelay bound the backoff between
	// attempts.
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	// ConfirmInterval is the signature status polling period.
	ConfirmInterval time.Duration
	// ConfirmTimeout bounds the wait for one submission to confirm.
	ConfirmTimeout time.Duration
	// SkipPreflight submits without simulation for lower latency.
	SkipPreflight bool
}

// DefaultConfig returns execution defaults.
func DefaultConfig() Config {
	return Config{
		MaxInFlight:         8,
		SlippageBps:         swap.DefaultSlippageBps,
		MaxAttempts:         3,
		RequoteOnRetry:      true,
		RetryInitialDelay:   500 * time.Millisecond,
		RetryMaxDelay:       5 * time.Second,
		ConfirmInterval:     time.Second,
		ConfirmTimeout:      45 * time.Second,
		SkipPreflight:       true,
		PriorityFeeLamports: 0,
	}
}

// Distributor executes purchase plans.
type Distributor struct {
	quotes   Quoter
	builder  TxBuilder
	signer   Signer
	chain    Broadcaster
	pool     Committer
	inflight *semaphore.Weighted
	config   Config
	log      zerolog.Logger
}

// NewDistributor wires the execution dependencies. The in-flight
// semaphore is owned here so every plan shares the same cap.
func NewDistributor(quotes Quoter, builder TxBuilder, signer Signer, chain Broadcaster, pool Committer, cfg Config, log zerolog.Logger) *Distributor {
	def := DefaultConfig()
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = def.MaxInFlight
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryInitialDelay <= 0 {
		cfg.RetryInitialDelay = def.RetryInitialDelay
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = def.RetryMaxDelay
	}
	if cfg.ConfirmInterval <= 0 {
		cfg.ConfirmInterval = def.ConfirmInterval
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = def.ConfirmTimeout
	}
	if cfg.SlippageBps <= 0 {
		cfg.SlippageBps = def.SlippageBps
	}
	return &Distributor{
		quotes:   quotes,
		builder:  builder,
		signer:   signer,
		chain:    chain,
		pool:     pool,
		inflight: semaphore.NewWeighted(cfg.MaxInFlight),
		config:   cfg,
		log:      log.With().Str("component", "distributor").Logger(),
	}
}

// Execute runs every leg of the plan to a terminal state and returns
// once the plan is done. ctx cancellation stops legs that have not
// started; legs already running finish, a submitted transaction is
// never abandoned mid-flight.
func (d *Distributor) Execute(ctx context.Context, plan *domain.PurchasePlan) {
	log := d.log.With().Str("plan_id", plan.PlanID).Str("mint", plan.Candidate.Mint).Logger()
	log.Info().Int("legs", len(plan.Legs)).Str("strategy", string(plan.Strategy)).Msg("executing plan")

	byAccount := make(map[string][]*domain.PurchaseLeg)
	var order []string
	for _, leg := range plan.Legs {
		if _, seen := byAccount[leg.AccountRef]; !seen {
			order = append(order, leg.AccountRef)
		}
		byAccount[leg.AccountRef] = append(byAccount[leg.AccountRef], leg)
	}

	var wg sync.WaitGroup
	for _, ref := range order {
		legs := byAccount[ref]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, leg := range legs {
				d.runLeg(ctx, plan, leg, log)
			}
		}()
	}
	wg.Wait()

	log.Info().Bool("done", plan.Done()).Msg("plan finished")
}

// runLeg drives one leg to a terminal state.
func (d *Distributor) runLeg(ctx context.Context, plan *domain.PurchasePlan, leg *domain.PurchaseLeg, log zerolog.Logger) {
	// The only cancellation point: a leg that has not started.
	if ctx.Err() != nil {
		d.failLeg(leg, CancelledReason)
		return
	}
	if err := d.inflight.Acquire(ctx, 1); err != nil {
		d.failLeg(leg, CancelledReason)
		return
	}
	defer d.inflight.Release(1)

	// Once running, the leg is immune to shutdown. A submitted
	// transaction has to be confirmed or observed failing.
	legCtx := context.WithoutCancel(ctx)

	leg.StartedAt = time.Now()
	log = log.With().Str("leg_id", leg.LegID).Str("account", shortRef(leg.AccountRef)).
		Float64("amount_sol", leg.AmountSOL).Logger()

	var quote *swap.Quote
	operation := func() error {
		leg.Attempts++
		if quote == nil || d.config.RequoteOnRetry {
			var err error
			quote, err = d.quotes.GetQuote(legCtx, swap.QuoteParams{
				InputMint:      extractor.WSOL,
				OutputMint:     plan.Candidate.Mint,
				AmountLamports: swap.SolToLamports(leg.AmountSOL),
				SlippageBps:    d.config.SlippageBps,
			})
			if err != nil {
				return retryable(err)
			}
		}
		if err := d.submit(legCtx, leg, quote); err != nil {
			return retryable(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.config.RetryInitialDelay
	bo.MaxInterval = d.config.RetryMaxDelay
	bo.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithMaxRetries(bo, uint64(d.config.MaxAttempts-1)))
	if err != nil {
		d.failLeg(leg, err.Error())
		log.Warn().Err(err).Int("attempts", leg.Attempts).Str("kind", string(swap.KindOf(err))).Msg("leg failed")
		return
	}

	log.Info().Str("signature", leg.Signature).Int("attempts", leg.Attempts).Msg("leg confirmed")
}

// submit sends one attempt and waits for its confirmation.
func (d *Distributor) submit(ctx context.Context, leg *domain.PurchaseLeg, quote *swap.Quote) error {
	tx, err := d.builder.BuildSwap(ctx, quote, leg.AccountRef, d.config.PriorityFeeLamports)
	if err != nil {
		return err
	}

	signedTx, _, err := d.signer.Sign(leg.AccountRef, tx)
	if err != nil {
		// A signing failure is local and permanent.
		return swap.NewError(swap.KindUnknown, "sign transaction", err)
	}

	sig, err := d.chain.SendTransaction(ctx, signedTx, &solana.SendOptions{SkipPreflight: d.config.SkipPreflight})
	if err != nil {
		return classify(err)
	}

	leg.Status = domain.LegSubmitted
	leg.Signature = sig

	status, err := d.awaitConfirmation(ctx, sig)
	if err != nil {
		return err
	}
	if status.Failed() {
		return classify(fmt.Errorf("transaction failed on chain: %v", status.Err))
	}

	if err := d.pool.Commit(leg.AccountRef, leg.AmountSOL); err != nil {
		// The spend happened on chain regardless; surface the
		// bookkeeping fault but keep the leg confirmed.
		d.log.Error().Err(err).Str("leg_id", leg.LegID).Msg("commit after confirmation failed")
	}
	leg.Status = domain.LegConfirmed
	leg.OutTokens = float64(quote.OutAmount)
	leg.FinishedAt = time.Now()
	return nil
}

// awaitConfirmation polls signature status until it is terminal. An
// expired wait fails the attempt as transient, so the leg resubmits
// (with a fresh quote when configured) until its attempts run out.
func (d *Distributor) awaitConfirmation(ctx context.Context, sig string) (*solana.SignatureStatus, error) {
	deadline := time.After(d.config.ConfirmTimeout)
	ticker := time.NewTicker(d.config.ConfirmInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, backoff.Permanent(swap.NewError(swap.KindUnknown, "confirmation interrupted", ctx.Err()))
		case <-deadline:
			return nil, swap.NewError(swap.KindNetwork,
				fmt.Sprintf("confirmation timeout after %s", d.config.ConfirmTimeout), nil)
		case <-ticker.C:
			statuses, err := d.chain.GetSignatureStatuses(ctx, []string{sig})
			if err != nil {
				// Polling errors are absorbed; the deadline decides.
				continue
			}
			if len(statuses) == 0 || statuses[0] == nil {
				continue
			}
			if statuses[0].Confirmed() || statuses[0].Failed() {
				return statuses[0], nil
			}
		}
	}
}

func (d *Distributor) failLeg(leg *domain.PurchaseLeg, reason string) {
	leg.Status = domain.LegFailed
	leg.Error = reason
	leg.FinishedAt = time.Now()
}

// classify wraps raw transport or node errors into the swap taxonomy.
func classify(err error) error {
	var se *swap.Error
	if errors.As(err, &se) {
		return err
	}
	return swap.Classify(err.Error(), err)
}

// retryable maps an attempt error onto backoff semantics: transient
// errors retry, everything else is permanent.
func retryable(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return err
	}
	if swap.IsTransient(err) {
		return err
	}
	return backoff.Permanent(err)
}

func shortRef(ref string) string {
	if len(ref) <= 16 {
		return ref
	}
	return ref[:8] + "..." + ref[len(ref)-8:]
}
