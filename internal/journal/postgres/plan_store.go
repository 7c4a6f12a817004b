package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/journal"
)

// PlanStore implements journal.PlanStore using PostgreSQL. Plan and
// legs are written in one transaction; a plan is never journaled half.
type PlanStore struct {
	pool *Pool
}

// NewPlanStore creates a new PlanStore.
func NewPlanStore(pool *Pool) *PlanStore {
	return &PlanStore{pool: pool}
}

// Compile-time interface check.
var _ journal.PlanStore = (*PlanStore)(nil)

// Insert adds a plan with its legs. Returns ErrDuplicateKey if plan_id
// exists.
func (s *PlanStore) Insert(ctx context.Context, plan *domain.PurchasePlan) error {
	if plan == nil || plan.PlanID == "" {
		return journal.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert plan: %w", err)
	}
	defer tx.Rollback(ctx)

	planQuery := `
		INSERT INTO plans (
			plan_id, mint, platform, source, format, raw_text, strategy, detected_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, planQuery,
		plan.PlanID,
		plan.Candidate.Mint,
		string(plan.Candidate.Platform),
		plan.Candidate.Source,
		string(plan.Candidate.Format),
		plan.Candidate.RawText,
		string(plan.Strategy),
		nullTime(plan.Candidate.DetectedAt),
		plan.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return journal.ErrDuplicateKey
		}
		return fmt.Errorf("insert plan: %w", err)
	}

	legQuery := `
		INSERT INTO plan_legs (
			leg_id, plan_id, leg_index, account_ref, amount_sol, status,
			signature, error, attempts, out_tokens, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for i, leg := range plan.Legs {
		_, err = tx.Exec(ctx, legQuery,
			leg.LegID,
			plan.PlanID,
			i,
			leg.AccountRef,
			leg.AmountSOL,
			string(leg.Status),
			leg.Signature,
			leg.Error,
			leg.Attempts,
			leg.OutTokens,
			nullTime(leg.StartedAt),
			nullTime(leg.FinishedAt),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return journal.ErrDuplicateKey
			}
			return fmt.Errorf("insert leg %s: %w", leg.LegID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a plan with its legs. Returns ErrNotFound if not
// exists.
func (s *PlanStore) GetByID(ctx context.Context, planID string) (*domain.PurchasePlan, error) {
	query := `
		SELECT plan_id, mint, platform, source, format, raw_text, strategy, detected_at, created_at
		FROM plans
		WHERE plan_id = $1
	`

	row := s.pool.QueryRow(ctx, query, planID)
	plan, err := scanPlan(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, journal.ErrNotFound
		}
		return nil, fmt.Errorf("get plan by id: %w", err)
	}

	if plan.Legs, err = s.legsByPlan(ctx, planID); err != nil {
		return nil, err
	}
	return plan, nil
}

// GetByMint retrieves all plans for a mint, ordered by creation ASC.
func (s *PlanStore) GetByMint(ctx context.Context, mint string) ([]*domain.PurchasePlan, error) {
	query := `
		SELECT plan_id, mint, platform, source, format, raw_text, strategy, detected_at, created_at
		FROM plans
		WHERE mint = $1
		ORDER BY created_at ASC, plan_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get plans by mint: %w", err)
	}
	defer rows.Close()

	var result []*domain.PurchasePlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		result = append(result, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, plan := range result {
		if plan.Legs, err = s.legsByPlan(ctx, plan.PlanID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *PlanStore) legsByPlan(ctx context.Context, planID string) ([]*domain.PurchaseLeg, error) {
	query := `
		SELECT leg_id, account_ref, amount_sol, status,
			signature, error, attempts, out_tokens, started_at, finished_at
		FROM plan_legs
		WHERE plan_id = $1
		ORDER BY leg_index ASC
	`

	rows, err := s.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("get legs by plan: %w", err)
	}
	defer rows.Close()

	var legs []*domain.PurchaseLeg
	for rows.Next() {
		var (
			leg        domain.PurchaseLeg
			status     string
			startedAt  *time.Time
			finishedAt *time.Time
		)
		err := rows.Scan(
			&leg.LegID,
			&leg.AccountRef,
			&leg.AmountSOL,
			&status,
			&leg.Signature,
			&leg.Error,
			&leg.Attempts,
			&leg.OutTokens,
			&startedAt,
			&finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan leg: %w", err)
		}
		leg.Status = domain.LegStatus(status)
		leg.StartedAt = timeValue(startedAt)
		leg.FinishedAt = timeValue(finishedAt)
		legs = append(legs, &leg)
	}
	return legs, rows.Err()
}

func scanPlan(row pgx.Row) (*domain.PurchasePlan, error) {
	var (
		plan       domain.PurchasePlan
		platform   string
		format     string
		strategy   string
		detectedAt *time.Time
	)
	err := row.Scan(
		&plan.PlanID,
		&plan.Candidate.Mint,
		&platform,
		&plan.Candidate.Source,
		&format,
		&plan.Candidate.RawText,
		&strategy,
		&detectedAt,
		&plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	plan.Candidate.Platform = domain.Platform(platform)
	plan.Candidate.Format = domain.SourceFormat(format)
	plan.Candidate.DetectedAt = timeValue(detectedAt)
	plan.Strategy = domain.StrategyKind(strategy)
	return &plan, nil
}

// nullTime maps the zero time onto NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
