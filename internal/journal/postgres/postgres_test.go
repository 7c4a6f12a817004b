package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPoolJournalSizing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	cfg := pool.Config()
	require.EqualValues(t, journalMaxConns, cfg.MaxConns)
	require.EqualValues(t, journalMinConns, cfg.MinConns)
	require.Equal(t, journalConnIdleTimeout, cfg.MaxConnIdleTime)
}
