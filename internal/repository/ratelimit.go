package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noscite/noscite-assistant/internal/domain"
)

type RateLimitRepository struct {
	db dbtx
}

func NewRateLimitRepository(pool *pgxpool.Pool) *RateLimitRepository {
	return &RateLimitRepository{db: pool}
}

// Consume atomically admits one request for (identifier, endpoint).
// An expired window is reset in place. When the quota is spent the
// conditional upsert affects no row and the counter is left untouched.
func (r *RateLimitRepository) Consume(ctx context.Context, identifier, endpoint string, quota domain.Quota, now time.Time) (bool, error) {
	if quota.Max <= 0 {
		return false, nil
	}

	var count int
	err := r.db.QueryRow(ctx,
		`INSERT INTO rate_limits AS rl (identifier, endpoint, window_start, request_count)
		 VALUES ($1, $2, $3, 1)
		 ON CONFLICT (identifier, endpoint) DO UPDATE SET
		   window_start  = CASE WHEN rl.window_start <= $4 THEN EXCLUDED.window_start ELSE rl.window_start END,
		   request_count = CASE WHEN rl.window_start <= $4 THEN 1 ELSE rl.request_count + 1 END
		 WHERE rl.window_start <= $4 OR rl.request_count < $5
		 RETURNING rl.request_count`,
		identifier, endpoint, now, now.Add(-quota.Window), quota.Max,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *RateLimitRepository) Get(ctx context.Context, identifier, endpoint string) (*domain.RateLimitCounter, error) {
	var c domain.RateLimitCounter
	err := r.db.QueryRow(ctx,
		`SELECT identifier, endpoint, window_start, request_count
		 FROM rate_limits WHERE identifier = $1 AND endpoint = $2`,
		identifier, endpoint,
	).Scan(&c.Identifier, &c.Endpoint, &c.WindowStart, &c.RequestCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// DeleteOlderThan removes counters whose window started before cutoff.
func (r *RateLimitRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM rate_limits WHERE window_start < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
