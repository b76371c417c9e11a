package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx, so the
// store works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a RateLimitStore backed by an atomic upsert counter.
// It is used when several proxy instances must share one limit; single
// instances use MemoryStore instead.
//
// Schema:
//
//	CREATE TABLE rate_limit_counters (
//	    bucket     TEXT PRIMARY KEY,
//	    count      INTEGER NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db    DBTX
	pool  *pgxpool.Pool
	nowFn func() time.Time
}

// NewPostgresStore creates a store over an existing connection or pool.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db, nowFn: time.Now}
}

// DialPostgresStore connects a new pool to the given DSN and wraps it in a
// store. Close releases the pool.
func DialPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting rate limit store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging rate limit store: %w", err)
	}
	return &PostgresStore{db: pool, pool: pool, nowFn: time.Now}, nil
}

// Close releases the owned connection pool, if any.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// IncrementAndCheck implements RateLimitStore with a single upsert that
// returns the post-increment count. Expired buckets are pruned
// opportunistically; a failed prune never affects the check.
func (p *PostgresStore) IncrementAndCheck(ctx context.Context, client string, limit int, window time.Duration) (RateLimitResult, error) {
	now := p.nowFn()
	key, resetAt := bucketKey(client, now, window)

	var count int
	err := p.db.QueryRow(ctx, `
		INSERT INTO rate_limit_counters (bucket, count, expires_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (bucket)
		DO UPDATE SET count = rate_limit_counters.count + 1
		RETURNING count`,
		key, resetAt,
	).Scan(&count)
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("incrementing rate limit counter: %w", err)
	}

	_, _ = p.db.Exec(ctx, `DELETE FROM rate_limit_counters WHERE expires_at < $1`, now)

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:   count <= limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
