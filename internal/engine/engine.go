// Package engine wires the signal-to-trade pipeline: text signals in,
// extracted candidates validated, purchase plans selected, executed and
// journaled. One engine instance serves every monitor source.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/idhash"
	"solana-sniper/internal/journal"
	"solana-sniper/internal/monitor"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/reporter"
	"solana-sniper/internal/wallet"
)

// Extractor finds candidate mints in raw text.
type Extractor interface {
	Extract(text string) []domain.CandidateReference
}

// Validator decides whether a candidate is safe to buy.
type Validator interface {
	Validate(ctx context.Context, mint string) *domain.ValidationResult
}

// Pool plans legs and manages account reservations.
type Pool interface {
	Select(strategy domain.Strategy) (*wallet.Selection, error)
	Release(refs []string)
}

// Executor drives a plan's legs to their terminal states.
type Executor interface {
	Execute(ctx context.Context, plan *domain.PurchasePlan)
}

// Config holds engine behavior settings.
type Config struct {
	// Strategy is the plan selection strategy for every candidate.
	Strategy domain.Strategy
	// DedupeWindow suppresses repeat signals for the same mint.
	// Zero keeps every seen mint suppressed for the process lifetime.
	DedupeWindow time.Duration
	// SourceRestartDelay is the pause before restarting a failed
	// monitor source.
	SourceRestartDelay time.Duration
	// EventBuffer is the capacity of the shared signal channel.
	EventBuffer int
}

// DefaultConfig returns engine defaults.
func DefaultConfig() Config {
	return Config{
		DedupeWindow:       0,
		SourceRestartDelay: 5 * time.Second,
		EventBuffer:        256,
	}
}

// Stats are process-lifetime engine totals.
type Stats struct {
	SignalsSeen   int
	Candidates    int
	Accepted      int
	Rejected      int
	PlansExecuted int
	LegsConfirmed int
	LegsFailed    int
	TotalSpentSOL float64
}

// Engine runs the pipeline.
type Engine struct {
	extractor Extractor
	validator Validator
	pool      Pool
	exec      Executor
	journal   *journal.Journal
	config    Config
	log       zerolog.Logger

	mu    sync.Mutex
	seen  map[string]time.Time
	stats Stats
}

// New creates an engine. The journal may be nil; execution then leaves
// no persistent trace.
func New(ex Extractor, val Validator, pool Pool, exec Executor, jrnl *journal.Journal, cfg Config, log zerolog.Logger) *Engine {
	if cfg.SourceRestartDelay <= 0 {
		cfg.SourceRestartDelay = 5 * time.Second
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	return &Engine{
		extractor: ex,
		validator: val,
		pool:      pool,
		exec:      exec,
		journal:   jrnl,
		config:    cfg,
		log:       log.With().Str("component", "engine").Logger(),
		seen:      make(map[string]time.Time),
	}
}

// Run consumes signals from the sources until ctx is cancelled. A
// source that returns an error is restarted after a delay; Run itself
// returns only on cancellation.
func (e *Engine) Run(ctx context.Context, sources []monitor.Source) error {
	events := make(chan monitor.TextEvent, e.config.EventBuffer)

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src monitor.Source) {
			defer wg.Done()
			e.runSource(ctx, src, events)
		}(src)
	}

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case event := <-events:
			e.HandleSignal(ctx, event)
		}
	}
}

// runSource keeps one source alive, restarting it after failures.
func (e *Engine) runSource(ctx context.Context, src monitor.Source, out chan<- monitor.TextEvent) {
	log := e.log.With().Str("source", src.Name()).Logger()

	for {
		err := src.Run(ctx, out)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}
		log.Warn().Err(err).Dur("restart_in", e.config.SourceRestartDelay).Msg("source stopped")
		observability.DefaultMetrics.MonitorErrors.WithLabelValues(src.Name()).Inc()

		select {
		case <-ctx.Done():
			return
		case <-time.After(e.config.SourceRestartDelay):
		}
	}
}

// HandleSignal processes one text signal end to end and returns the
// summaries of the plans it executed, in candidate order.
func (e *Engine) HandleSignal(ctx context.Context, event monitor.TextEvent) []*domain.ExecutionSummary {
	e.mu.Lock()
	e.stats.SignalsSeen++
	e.mu.Unlock()
	observability.RecordSignal(string(event.Platform), time.Now().Unix())

	refs := e.extractor.Extract(event.Text)
	if len(refs) == 0 {
		observability.DefaultMetrics.ExtractionMisses.Inc()
		return nil
	}

	var summaries []*domain.ExecutionSummary
	for _, ref := range refs {
		ref.Platform = event.Platform
		ref.Source = event.Source
		ref.DetectedAt = event.SeenAt

		if summary := e.processCandidate(ctx, ref); summary != nil {
			summaries = append(summaries, summary)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return summaries
}

// processCandidate validates one candidate and, if accepted, plans and
// executes a purchase.
func (e *Engine) processCandidate(ctx context.Context, ref domain.CandidateReference) *domain.ExecutionSummary {
	log := e.log.With().Str("mint", ref.Mint).Str("source", ref.Source).Logger()

	e.mu.Lock()
	e.stats.Candidates++
	if !e.markSeen(ref.Mint) {
		e.mu.Unlock()
		observability.DefaultMetrics.DuplicatesSkipped.Inc()
		log.Debug().Msg("duplicate candidate skipped")
		return nil
	}
	e.mu.Unlock()
	observability.RecordCandidate(string(ref.Format))

	result := e.validator.Validate(ctx, ref.Mint)
	observability.RecordValidation(string(result.Decision), result.Elapsed.Seconds())
	e.journalValidation(ctx, ref, result)

	e.mu.Lock()
	if result.Accepted() {
		e.stats.Accepted++
	} else {
		e.stats.Rejected++
	}
	e.mu.Unlock()

	if !result.Accepted() {
		log.Info().Str("reason", result.Reason).Msg("candidate rejected")
		return nil
	}

	sel, err := e.pool.Select(e.config.Strategy)
	if err != nil {
		log.Warn().Err(err).Msg("no plan possible")
		return nil
	}

	plan := e.buildPlan(ref, sel)
	log.Info().Str("plan_id", plan.PlanID).Int("legs", len(plan.Legs)).Msg("executing plan")

	e.exec.Execute(ctx, plan)
	e.pool.Release(sel.Reserved)

	summary := reporter.Summarize(plan)
	e.journalExecution(ctx, plan, summary)
	e.recordExecution(summary)

	log.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Float64("spent_sol", summary.TotalSpentSOL).
		Msg("plan finished")
	return summary
}

// markSeen records the mint in the dedupe window. Returns false when
// the mint is still suppressed. Caller holds the lock.
func (e *Engine) markSeen(mint string) bool {
	now := time.Now()
	if last, ok := e.seen[mint]; ok {
		if e.config.DedupeWindow <= 0 || now.Sub(last) < e.config.DedupeWindow {
			return false
		}
	}
	e.seen[mint] = now
	return true
}

func (e *Engine) buildPlan(ref domain.CandidateReference, sel *wallet.Selection) *domain.PurchasePlan {
	createdAt := time.Now().UTC()
	planID := idhash.ComputePlanID(ref.Mint, ref.Platform, ref.Source, createdAt.UnixMilli())

	legs := make([]*domain.PurchaseLeg, len(sel.Legs))
	for i, planned := range sel.Legs {
		legs[i] = &domain.PurchaseLeg{
			LegID:      idhash.ComputeLegID(planID, planned.AccountRef, i),
			AccountRef: planned.AccountRef,
			AmountSOL:  planned.AmountSOL,
			Status:     domain.LegPending,
		}
	}

	return &domain.PurchasePlan{
		PlanID:    planID,
		Candidate: ref,
		Strategy:  e.config.Strategy.Kind,
		Legs:      legs,
		CreatedAt: createdAt,
	}
}

func (e *Engine) journalValidation(ctx context.Context, ref domain.CandidateReference, result *domain.ValidationResult) {
	if e.journal == nil || e.journal.Validations == nil {
		return
	}
	rec := &journal.ValidationRecord{
		ValidationResult: *result,
		Platform:         ref.Platform,
		CheckedAt:        time.Now().UTC(),
	}
	if err := e.journal.Validations.Insert(ctx, rec); err != nil {
		e.log.Error().Err(err).Str("mint", ref.Mint).Msg("journal validation failed")
	}
}

func (e *Engine) journalExecution(ctx context.Context, plan *domain.PurchasePlan, summary *domain.ExecutionSummary) {
	if e.journal == nil {
		return
	}
	if e.journal.Plans != nil {
		if err := e.journal.Plans.Insert(ctx, plan); err != nil {
			e.log.Error().Err(err).Str("plan_id", plan.PlanID).Msg("journal plan failed")
		}
	}
	if e.journal.Summaries != nil {
		if err := e.journal.Summaries.Insert(ctx, summary); err != nil {
			e.log.Error().Err(err).Str("plan_id", plan.PlanID).Msg("journal summary failed")
		}
	}
}

func (e *Engine) recordExecution(summary *domain.ExecutionSummary) {
	e.mu.Lock()
	e.stats.PlansExecuted++
	e.stats.LegsConfirmed += summary.Succeeded
	e.stats.LegsFailed += summary.Failed
	e.stats.TotalSpentSOL += summary.TotalSpentSOL
	e.mu.Unlock()

	observability.DefaultMetrics.PlansExecuted.WithLabelValues(string(summary.Strategy)).Inc()
	observability.DefaultMetrics.LastPlanExecuted.Set(float64(time.Now().Unix()))
}

// Stats returns a copy of the engine totals.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// LogStats writes the current totals at info level.
func (e *Engine) LogStats() {
	s := e.Stats()
	e.log.Info().
		Int("signals", s.SignalsSeen).
		Int("candidates", s.Candidates).
		Int("accepted", s.Accepted).
		Int("rejected", s.Rejected).
		Int("plans", s.PlansExecuted).
		Int("legs_confirmed", s.LegsConfirmed).
		Int("legs_failed", s.LegsFailed).
		Float64("spent_sol", s.TotalSpentSOL).
		Msg("engine totals")
}
