//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/pagination"
	"github.com/noscite/noscite-assistant/internal/service"
	"github.com/noscite/noscite-assistant/internal/testutil"
)

const testDimensions = 1536

// unitVector returns a vector with the given leading components and zeros elsewhere.
func unitVector(components ...float32) []float32 {
	v := make([]float32, testDimensions)
	copy(v, components)
	return v
}

func newTestPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	return testutil.NewTestPool(ctx, t, testutil.StartPostgres(ctx, t), "../../migrations")
}

func TestKnowledgeRepository_UpsertOverwritesBySourceID(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewKnowledgeRepository(pool)

	first := domain.NewKnowledgeEntry("home-page", "Home", "prima versione", domain.ContentTypeWebsite, unitVector(1))
	require.NoError(t, repo.Upsert(ctx, first))

	second := domain.NewKnowledgeEntry("home-page", "Home", "seconda versione", domain.ContentTypeWebsite, unitVector(0, 1))
	require.NoError(t, repo.Upsert(ctx, second))

	got, err := repo.GetBySourceID(ctx, "home-page")
	require.NoError(t, err)
	assert.Equal(t, "seconda versione", got.Content)
	assert.Len(t, got.Embedding, testDimensions)
	assert.InDelta(t, 1.0, got.Embedding[1], 1e-6)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM knowledge_base`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestKnowledgeRepository_UpsertRejectsInvalidEntry(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewKnowledgeRepository(pool)

	err := repo.Upsert(ctx, &domain.KnowledgeEntry{SourceID: "x", Content: "c", ContentType: "video"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeValidation, domain.CodeOf(err))
}

func TestKnowledgeRepository_GetBySourceID_NotFound(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)

	_, err := NewKnowledgeRepository(pool).GetBySourceID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrKnowledgeNotFound)
}

func TestKnowledgeRepository_SearchSemantic(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewKnowledgeRepository(pool)

	entries := []*domain.KnowledgeEntry{
		domain.NewKnowledgeEntry("close", "Percorsi", "percorsi formativi", domain.ContentTypeWebsite, unitVector(1, 0.1)),
		domain.NewKnowledgeEntry("closer", "Servizi", "servizi di consulenza", domain.ContentTypeWebsite, unitVector(1)),
		domain.NewKnowledgeEntry("far", "Contatti", "scrivici", domain.ContentTypeWebsite, unitVector(0, 1)),
		domain.NewKnowledgeEntry("doc-manuale-0", "Manuale", "capitolo uno", domain.ContentTypeDocument, unitVector(1)),
		domain.NewKnowledgeEntry("no-vector", "Blog", "articolo", domain.ContentTypeBlogPost, nil),
	}
	for _, e := range entries {
		require.NoError(t, repo.Upsert(ctx, e))
	}

	results, err := repo.SearchSemantic(ctx, unitVector(1), domain.SiteContentTypes, 0.7, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "closer", results[0].SourceID)
	assert.Equal(t, "close", results[1].SourceID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.GreaterOrEqual(t, results[1].Similarity, 0.7)

	docs, err := repo.SearchSemantic(ctx, unitVector(1), domain.DocumentContentTypes, 0.7, 3)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-manuale-0", docs[0].SourceID)

	limited, err := repo.SearchSemantic(ctx, unitVector(1), domain.SiteContentTypes, 0.7, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestKnowledgeRepository_SearchKeyword(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewKnowledgeRepository(pool)

	require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry("a", "Formazione", "Corsi di FORMAZIONE aziendale", domain.ContentTypeWebsite, nil)))
	require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry("b", "Sconto 100%", "offerta", domain.ContentTypeBlogPost, nil)))
	require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry("c", "Altro", "niente di rilevante", domain.ContentTypeWebsite, nil)))

	results, err := repo.SearchKeyword(ctx, "formazione", domain.SiteContentTypes, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].SourceID)

	results, err = repo.SearchKeyword(ctx, "100%", domain.SiteContentTypes, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].SourceID)

	results, err = repo.SearchKeyword(ctx, "%", domain.SiteContentTypes, 5)
	require.NoError(t, err)
	require.Len(t, results, 1, "a lone wildcard must match literally")

	results, err = repo.SearchKeyword(ctx, "", domain.SiteContentTypes, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestKnowledgeRepository_ListWithCursor(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewKnowledgeRepository(pool)

	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry(id, id, "contenuto "+id, domain.ContentTypeWebsite, nil)))
	}

	page, err := repo.ListWithCursor(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextCursor)

	cursor, err := pagination.DecodeCursor(page.NextCursor)
	require.NoError(t, err)

	next, err := repo.ListWithCursor(ctx, cursor, 2)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.False(t, next.HasMore)
	assert.Empty(t, next.NextCursor)

	seen := map[string]bool{}
	for _, e := range append(page.Items, next.Items...) {
		seen[e.SourceID] = true
	}
	assert.Len(t, seen, 3)
}

func TestKnowledgeRepository_DeleteStaleKeepsDocuments(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewKnowledgeRepository(pool)

	require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry("home-page", "Home", "c", domain.ContentTypeWebsite, nil)))
	require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry("blog-old", "Old", "c", domain.ContentTypeBlogPost, nil)))
	require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry("doc-a-0", "Doc", "c", domain.ContentTypeDocument, nil)))

	deleted, err := repo.DeleteStale(ctx, []string{"home-page"}, domain.SiteContentTypes)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetBySourceID(ctx, "blog-old")
	assert.ErrorIs(t, err, domain.ErrKnowledgeNotFound)
	_, err = repo.GetBySourceID(ctx, "doc-a-0")
	assert.NoError(t, err)
}

func TestKnowledgeRepository_DeleteDocumentChunksFrom(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewKnowledgeRepository(pool)

	for _, id := range []string{"doc-guida-0", "doc-guida-1", "doc-guida-2", "doc-guida-10", "doc-guida-avanzata-3"} {
		require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry(id, "Guida", "c", domain.ContentTypeDocument, nil)))
	}

	deleted, err := repo.DeleteDocumentChunksFrom(ctx, "guida", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	_, err = repo.GetBySourceID(ctx, "doc-guida-0")
	assert.NoError(t, err)
	_, err = repo.GetBySourceID(ctx, "doc-guida-avanzata-3")
	assert.NoError(t, err, "chunks of another document sharing the prefix are untouched")
}

func TestKnowledgeRepository_DeleteDocumentChunksFrom_LongSuffix(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	repo := NewKnowledgeRepository(pool)

	require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry("doc-guida-0", "Guida", "c", domain.ContentTypeDocument, nil)))
	require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry("doc-guida-99999999999999999999", "Guida", "c", domain.ContentTypeDocument, nil)))
	require.NoError(t, repo.Upsert(ctx, domain.NewKnowledgeEntry("doc-altro-123456789012345678901234", "Altro", "c", domain.ContentTypeDocument, nil)))

	deleted, err := repo.DeleteDocumentChunksFrom(ctx, "guida", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetBySourceID(ctx, "doc-guida-0")
	assert.NoError(t, err)
	_, err = repo.GetBySourceID(ctx, "doc-altro-123456789012345678901234")
	assert.NoError(t, err)
}

func TestTxRunner_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(ctx, t)
	runner := NewTxRunner(pool)

	err := runner.WithTx(ctx, func(w service.ChunkWriter) error {
		if err := w.Upsert(ctx, domain.NewKnowledgeEntry("doc-x-0", "X", "c", domain.ContentTypeDocument, nil)); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = NewKnowledgeRepository(pool).GetBySourceID(ctx, "doc-x-0")
	assert.ErrorIs(t, err, domain.ErrKnowledgeNotFound)
}
