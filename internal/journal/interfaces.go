// Package journal persists what the engine did: every validation
// verdict, every executed plan with its terminal legs, and the summary
// derived from it. Records are append-only; execution state never
// flows back out of the journal into the live pipeline.
package journal

import (
	"context"
	"time"

	"solana-sniper/internal/domain"
)

// ValidationRecord is a journaled validator verdict.
type ValidationRecord struct {
	domain.ValidationResult
	Platform  domain.Platform
	CheckedAt time.Time
}

// ValidationStore records validator outcomes.
type ValidationStore interface {
	// Insert adds a validation record.
	Insert(ctx context.Context, rec *ValidationRecord) error

	// GetByMint retrieves all records for a mint, ordered by check time ASC.
	GetByMint(ctx context.Context, mint string) ([]*ValidationRecord, error)
}

// PlanStore records executed purchase plans. Plans are journaled once,
// after every leg is terminal.
type PlanStore interface {
	// Insert adds a plan with its legs. Returns ErrDuplicateKey if
	// plan_id exists.
	Insert(ctx context.Context, plan *domain.PurchasePlan) error

	// GetByID retrieves a plan with its legs. Returns ErrNotFound if
	// not exists.
	GetByID(ctx context.Context, planID string) (*domain.PurchasePlan, error)

	// GetByMint retrieves all plans for a mint, ordered by creation ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.PurchasePlan, error)
}

// SummaryStore records execution summaries.
type SummaryStore interface {
	// Insert adds a summary. Returns ErrDuplicateKey if plan_id exists.
	Insert(ctx context.Context, s *domain.ExecutionSummary) error

	// GetByPlanID retrieves the summary for a plan. Returns ErrNotFound
	// if not exists.
	GetByPlanID(ctx context.Context, planID string) (*domain.ExecutionSummary, error)

	// GetRecent retrieves the newest summaries, ordered by creation DESC.
	GetRecent(ctx context.Context, limit int) ([]*domain.ExecutionSummary, error)
}

// Journal bundles the stores one engine instance writes to.
type Journal struct {
	Validations ValidationStore
	Plans       PlanStore
	Summaries   SummaryStore
}
