package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/journal"
)

// ValidationStore implements journal.ValidationStore using PostgreSQL.
type ValidationStore struct {
	pool *Pool
}

// NewValidationStore creates a new ValidationStore.
func NewValidationStore(pool *Pool) *ValidationStore {
	return &ValidationStore{pool: pool}
}

// Compile-time interface check.
var _ journal.ValidationStore = (*ValidationStore)(nil)

// Insert adds a validation record.
func (s *ValidationStore) Insert(ctx context.Context, rec *journal.ValidationRecord) error {
	if rec == nil || rec.Mint == "" {
		return journal.ErrInvalidInput
	}

	query := `
		INSERT INTO validations (
			mint, platform, decision, reason,
			liquidity_sol, price_impact_pct, buy_tax_pct, sell_tax_pct, holder_count,
			elapsed_ms, checked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.Mint,
		string(rec.Platform),
		string(rec.Decision),
		rec.Reason,
		rec.Metrics.LiquiditySOL,
		rec.Metrics.PriceImpactPct,
		rec.Metrics.BuyTaxPct,
		rec.Metrics.SellTaxPct,
		rec.Metrics.HolderCount,
		rec.Elapsed.Milliseconds(),
		rec.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert validation: %w", err)
	}
	return nil
}

// GetByMint retrieves all records for a mint, ordered by check time ASC.
func (s *ValidationStore) GetByMint(ctx context.Context, mint string) ([]*journal.ValidationRecord, error) {
	query := `
		SELECT mint, platform, decision, reason,
			liquidity_sol, price_impact_pct, buy_tax_pct, sell_tax_pct, holder_count,
			elapsed_ms, checked_at
		FROM validations
		WHERE mint = $1
		ORDER BY checked_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get validations by mint: %w", err)
	}
	defer rows.Close()

	var result []*journal.ValidationRecord
	for rows.Next() {
		rec, err := scanValidation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan validation: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func scanValidation(row pgx.Row) (*journal.ValidationRecord, error) {
	var (
		rec       journal.ValidationRecord
		platform  string
		decision  string
		elapsedMs int64
		checkedAt time.Time
	)
	err := row.Scan(
		&rec.Mint,
		&platform,
		&decision,
		&rec.Reason,
		&rec.Metrics.LiquiditySOL,
		&rec.Metrics.PriceImpactPct,
		&rec.Metrics.BuyTaxPct,
		&rec.Metrics.SellTaxPct,
		&rec.Metrics.HolderCount,
		&elapsedMs,
		&checkedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Platform = domain.Platform(platform)
	rec.Decision = domain.Decision(decision)
	rec.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	rec.CheckedAt = checkedAt
	return &rec, nil
}
