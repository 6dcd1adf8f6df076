package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noscite/noscite-assistant/internal/service"
)

// TxRunner hands a transaction-bound KnowledgeRepository to document writes.
type TxRunner struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(w service.ChunkWriter) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, r.opts, func(tx pgx.Tx) error {
		return fn(NewKnowledgeRepositoryWithTx(tx))
	})
}
