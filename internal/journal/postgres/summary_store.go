package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/journal"
)

// SummaryStore implements journal.SummaryStore using PostgreSQL.
type SummaryStore struct {
	pool *Pool
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(pool *Pool) *SummaryStore {
	return &SummaryStore{pool: pool}
}

// Compile-time interface check.
var _ journal.SummaryStore = (*SummaryStore)(nil)

// Insert adds a summary. Returns ErrDuplicateKey if plan_id exists.
func (s *SummaryStore) Insert(ctx context.Context, sum *domain.ExecutionSummary) error {
	if sum == nil || sum.PlanID == "" {
		return journal.ErrInvalidInput
	}

	query := `
		INSERT INTO summaries (
			plan_id, mint, platform, strategy, succeeded, failed,
			total_spent_sol, tokens_bought, signatures, elapsed_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		sum.PlanID,
		sum.Mint,
		string(sum.Platform),
		string(sum.Strategy),
		sum.Succeeded,
		sum.Failed,
		sum.TotalSpentSOL,
		sum.TokensBought,
		sum.Signatures,
		sum.Elapsed.Milliseconds(),
		sum.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return journal.ErrDuplicateKey
		}
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// GetByPlanID retrieves the summary for a plan. Returns ErrNotFound if
// not exists.
func (s *SummaryStore) GetByPlanID(ctx context.Context, planID string) (*domain.ExecutionSummary, error) {
	query := `
		SELECT plan_id, mint, platform, strategy, succeeded, failed,
			total_spent_sol, tokens_bought, signatures, elapsed_ms, created_at
		FROM summaries
		WHERE plan_id = $1
	`

	sum, err := scanSummary(s.pool.QueryRow(ctx, query, planID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, journal.ErrNotFound
		}
		return nil, fmt.Errorf("get summary by plan id: %w", err)
	}
	return sum, nil
}

// GetRecent retrieves the newest summaries, ordered by creation DESC.
func (s *SummaryStore) GetRecent(ctx context.Context, limit int) ([]*domain.ExecutionSummary, error) {
	if limit <= 0 {
		return nil, journal.ErrInvalidInput
	}

	query := `
		SELECT plan_id, mint, platform, strategy, succeeded, failed,
			total_spent_sol, tokens_bought, signatures, elapsed_ms, created_at
		FROM summaries
		ORDER BY created_at DESC, plan_id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent summaries: %w", err)
	}
	defer rows.Close()

	var result []*domain.ExecutionSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		result = append(result, sum)
	}
	return result, rows.Err()
}

func scanSummary(row pgx.Row) (*domain.ExecutionSummary, error) {
	var (
		sum       domain.ExecutionSummary
		platform  string
		strategy  string
		elapsedMs int64
	)
	err := row.Scan(
		&sum.PlanID,
		&sum.Mint,
		&platform,
		&strategy,
		&sum.Succeeded,
		&sum.Failed,
		&sum.TotalSpentSOL,
		&sum.TokensBought,
		&sum.Signatures,
		&elapsedMs,
		&sum.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sum.Platform = domain.Platform(platform)
	sum.Strategy = domain.StrategyKind(strategy)
	sum.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	return &sum, nil
}
