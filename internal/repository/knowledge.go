package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/pagination"
	"github.com/noscite/noscite-assistant/internal/service"
)

const knowledgeColumns = `source_id, title, content, content_type, created_at, updated_at`

type KnowledgeRepository struct {
	db dbtx
}

func NewKnowledgeRepository(pool *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{db: pool}
}

func NewKnowledgeRepositoryWithTx(tx pgx.Tx) *KnowledgeRepository {
	return &KnowledgeRepository{db: tx}
}

// Upsert inserts the entry or overwrites the row with the same source id.
// created_at is preserved on overwrite.
func (r *KnowledgeRepository) Upsert(ctx context.Context, e *domain.KnowledgeEntry) error {
	if err := domain.ValidateKnowledgeEntry(e); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid knowledge entry", err)
	}

	var embedding *pgvector.Vector
	if len(e.Embedding) > 0 {
		v := pgvector.NewVector(e.Embedding)
		embedding = &v
	}

	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	_, err := r.db.Exec(ctx,
		`INSERT INTO knowledge_base (source_id, title, content, content_type, embedding, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (source_id) DO UPDATE SET
		   title = EXCLUDED.title,
		   content = EXCLUDED.content,
		   content_type = EXCLUDED.content_type,
		   embedding = EXCLUDED.embedding,
		   updated_at = EXCLUDED.updated_at`,
		e.SourceID, e.Title, e.Content, e.ContentType, embedding, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *KnowledgeRepository) GetBySourceID(ctx context.Context, sourceID string) (*domain.KnowledgeEntry, error) {
	var e domain.KnowledgeEntry
	var embedding *pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT `+knowledgeColumns+`, embedding FROM knowledge_base WHERE source_id = $1`,
		sourceID,
	).Scan(&e.SourceID, &e.Title, &e.Content, &e.ContentType, &e.CreatedAt, &e.UpdatedAt, &embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeNotFound
		}
		return nil, err
	}
	if embedding != nil {
		e.Embedding = embedding.Slice()
	}
	return &e, nil
}

// SearchSemantic returns entries of the given types whose cosine similarity to
// embedding is at least threshold, closest first.
func (r *KnowledgeRepository) SearchSemantic(ctx context.Context, embedding []float32, types []domain.ContentType, threshold float64, limit int) ([]*domain.KnowledgeEntry, error) {
	if limit <= 0 || len(types) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+knowledgeColumns+`, 1 - (embedding <=> $1) AS similarity
		 FROM knowledge_base
		 WHERE embedding IS NOT NULL
		   AND content_type = ANY($2)
		   AND 1 - (embedding <=> $1) >= $3
		 ORDER BY embedding <=> $1
		 LIMIT $4`,
		pgvector.NewVector(embedding), contentTypeStrings(types), threshold, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.KnowledgeEntry
	for rows.Next() {
		var e domain.KnowledgeEntry
		if err := rows.Scan(&e.SourceID, &e.Title, &e.Content, &e.ContentType, &e.CreatedAt, &e.UpdatedAt, &e.Similarity); err != nil {
			return nil, err
		}
		results = append(results, &e)
	}
	return results, rows.Err()
}

// SearchKeyword returns entries whose content or title contains keyword,
// case-insensitively, most recently updated first.
func (r *KnowledgeRepository) SearchKeyword(ctx context.Context, keyword string, types []domain.ContentType, limit int) ([]*domain.KnowledgeEntry, error) {
	if keyword == "" || limit <= 0 || len(types) == 0 {
		return nil, nil
	}

	pattern := "%" + escapeLike(keyword) + "%"
	rows, err := r.db.Query(ctx,
		`SELECT `+knowledgeColumns+`
		 FROM knowledge_base
		 WHERE content_type = ANY($1)
		   AND (content ILIKE $2 OR title ILIKE $2)
		 ORDER BY updated_at DESC, source_id
		 LIMIT $3`,
		contentTypeStrings(types), pattern, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKnowledgeRows(rows)
}

func (r *KnowledgeRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.KnowledgePageResult, error) {
	limit = pagination.ClampLimit(limit)

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+knowledgeColumns+`
			 FROM knowledge_base
			 WHERE (updated_at, source_id) < ($1, $2)
			 ORDER BY updated_at DESC, source_id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+knowledgeColumns+`
			 FROM knowledge_base
			 ORDER BY updated_at DESC, source_id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanKnowledgeRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.SourceID, last.UpdatedAt)
	}

	return &service.KnowledgePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// DeleteStale removes entries of the given types whose source id is not in keep.
func (r *KnowledgeRepository) DeleteStale(ctx context.Context, keep []string, types []domain.ContentType) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}
	if keep == nil {
		keep = []string{}
	}
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM knowledge_base WHERE content_type = ANY($1) AND NOT (source_id = ANY($2))`,
		contentTypeStrings(types), keep,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// DeleteDocumentChunksFrom removes the chunks doc-<slug>-<n> of a document with n >= from.
// The suffix is only cast once the row matched the pattern.
func (r *KnowledgeRepository) DeleteDocumentChunksFrom(ctx context.Context, slug string, from int) (int64, error) {
	if slug == "" {
		return 0, domain.ErrMissingRequiredField
	}
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM knowledge_base
		 WHERE content_type = $1
		   AND CASE WHEN source_id ~ $2
		            THEN substring(source_id from '[0-9]+$')::numeric >= $3::bigint
		            ELSE false
		       END`,
		domain.ContentTypeDocument, "^"+regexp.QuoteMeta(DocumentSourcePrefix(slug))+"[0-9]+$", from,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// DocumentSourcePrefix is the source id prefix shared by the chunks of a document.
func DocumentSourcePrefix(slug string) string {
	return "doc-" + slug + "-"
}

func scanKnowledgeRows(rows pgx.Rows) ([]*domain.KnowledgeEntry, error) {
	var results []*domain.KnowledgeEntry
	for rows.Next() {
		var e domain.KnowledgeEntry
		if err := rows.Scan(&e.SourceID, &e.Title, &e.Content, &e.ContentType, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, &e)
	}
	return results, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards. Postgres uses backslash as the
// default escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
