package service

import (
	"context"

	"github.com/noscite/noscite-assistant/internal/domain"
)

// ChunkWriter is the part of the knowledge index a document replacement
// writes through.
type ChunkWriter interface {
	Upsert(ctx context.Context, e *domain.KnowledgeEntry) error
	DeleteDocumentChunksFrom(ctx context.Context, slug string, from int) (int64, error)
}

// TxRunner runs fn in one transaction; any error rolls every write back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(w ChunkWriter) error) error
}
