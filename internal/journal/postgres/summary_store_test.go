package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/journal"
)

func testSummary(planID string, createdAt time.Time) *domain.ExecutionSummary {
	return &domain.ExecutionSummary{
		PlanID:        planID,
		Mint:          "MintSummary",
		Platform:      domain.PlatformTelegram,
		Strategy:      domain.StrategyMultiProportional,
		Succeeded:     2,
		Failed:        1,
		TotalSpentSOL: 0.3,
		TokensBought:  4200,
		Signatures:    []string{"sigA", "sigB"},
		Elapsed:       9 * time.Second,
		CreatedAt:     createdAt,
	}
}

func TestSummaryStore_InsertAndGetByPlanID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSummaryStore(pool)

	createdAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	sum := testSummary("summary-plan-1", createdAt)

	require.NoError(t, store.Insert(ctx, sum))

	got, err := store.GetByPlanID(ctx, "summary-plan-1")
	require.NoError(t, err)

	assert.Equal(t, sum.PlanID, got.PlanID)
	assert.Equal(t, sum.Mint, got.Mint)
	assert.Equal(t, domain.PlatformTelegram, got.Platform)
	assert.Equal(t, domain.StrategyMultiProportional, got.Strategy)
	assert.Equal(t, 2, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.InDelta(t, 0.3, got.TotalSpentSOL, 0.0001)
	assert.InDelta(t, 4200, got.TokensBought, 0.0001)
	assert.Equal(t, []string{"sigA", "sigB"}, got.Signatures)
	assert.Equal(t, 9*time.Second, got.Elapsed)
	assert.True(t, got.CreatedAt.Equal(createdAt))
}

func TestSummaryStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSummaryStore(pool)

	sum := testSummary("summary-dup", time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Insert(ctx, sum))
	assert.ErrorIs(t, store.Insert(ctx, sum), journal.ErrDuplicateKey)
}

func TestSummaryStore_GetByPlanIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewSummaryStore(pool).GetByPlanID(context.Background(), "no-such-summary")
	assert.ErrorIs(t, err, journal.ErrNotFound)
}

func TestSummaryStore_GetRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSummaryStore(pool)

	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"recent-a", "recent-b", "recent-c"} {
		sum := testSummary(id, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Insert(ctx, sum))
	}

	recent, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "recent-c", recent[0].PlanID)
	assert.Equal(t, "recent-b", recent[1].PlanID)

	_, err = store.GetRecent(ctx, 0)
	assert.ErrorIs(t, err, journal.ErrInvalidInput)
}
