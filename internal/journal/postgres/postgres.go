// Package postgres implements the journal stores on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The journal is a low-volume audit log written by one engine; a
// handful of connections is plenty, and an idle pool should shrink.
const (
	journalMaxConns        = 4
	journalMinConns        = 1
	journalConnIdleTimeout = 5 * time.Minute
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to Postgres with pool limits sized for journal
// writes. DSN parameters still win over the defaults set here.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	// ParseConfig fills pool sizing with generic defaults, so only
	// leave them alone when the DSN sets them explicitly.
	if !strings.Contains(dsn, "pool_max_conns") {
		config.MaxConns = journalMaxConns
	}
	if !strings.Contains(dsn, "pool_min_conns") {
		config.MinConns = journalMinConns
	}
	if !strings.Contains(dsn, "pool_max_conn_idle_time") {
		config.MaxConnIdleTime = journalConnIdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// unique_violation, the code behind every ErrDuplicateKey mapping.
const pgErrUniqueViolation = "23505"

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
