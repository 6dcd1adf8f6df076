package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

const embeddingCachePrefix = "embedding:"

// Embedder is the upstream the cache sits in front of.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingCache memoises embeddings by model and text. Cache failures are
// logged and otherwise ignored.
type EmbeddingCache struct {
	client *Client
	next   Embedder
	model  string
	ttl    time.Duration
}

func NewEmbeddingCache(client *Client, next Embedder, model string, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{client: client, next: next, model: model, ttl: ttl}
}

func (c *EmbeddingCache) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	if data, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached []float32
		if err := json.Unmarshal(data, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	embedding, err := c.next.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(embedding); err == nil {
		if err := c.client.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("embedding cache write failed")
		}
	}

	return embedding, nil
}

func (c *EmbeddingCache) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return embeddingCachePrefix + hex.EncodeToString(sum[:])
}
