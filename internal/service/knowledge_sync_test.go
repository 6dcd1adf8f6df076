package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/noscite/noscite-assistant/internal/content"
	"github.com/noscite/noscite-assistant/internal/domain"
)

func testPages() []content.Page {
	return []content.Page{
		{SourceID: "home-page", Title: "Home", Section: "", Content: "Benvenuti in Noscite"},
		{SourceID: "atheneum-page", Title: "Atheneum", Section: content.SectionPercorsi, Content: "I nostri percorsi formativi"},
	}
}

func newSyncService(embedder *MockEmbeddingClient, repo *MockKnowledgeRepository, blogs *MockBlogRepository) *KnowledgeSyncService {
	svc := NewKnowledgeSyncService(embedder, repo, blogs)
	svc.pages = testPages
	return svc
}

func TestKnowledgeSyncService_SyncPagesAndBlogs(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockKnowledgeRepository)
	blogs := new(MockBlogRepository)

	published := time.Now()
	blogs.On("ListPublished", mock.Anything).Return([]*domain.BlogPost{
		{ID: "42", Title: "Leadership", Excerpt: "Breve", Content: "<p>Il <b>ruolo</b> del leader</p>", Published: true, PublishedAt: &published},
	}, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)

	var upserted []*domain.KnowledgeEntry
	repo.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		upserted = append(upserted, args.Get(1).(*domain.KnowledgeEntry))
	}).Return(nil)

	res, err := newSyncService(embedder, repo, blogs).Sync(ctx, SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Synced)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Results, 3)
	assert.Equal(t, SyncStatusSynced, res.Results[2].Status)

	require.Len(t, upserted, 3)
	blog := upserted[2]
	assert.Equal(t, "blog-42", blog.SourceID)
	assert.Equal(t, domain.ContentTypeBlogPost, blog.ContentType)
	assert.Equal(t, "Leadership\n\nBreve\n\nIl ruolo del leader", blog.Content)
	assert.Equal(t, domain.ContentTypeWebsite, upserted[0].ContentType)

	repo.AssertNotCalled(t, "DeleteStale", mock.Anything, mock.Anything, mock.Anything)
}

func TestKnowledgeSyncService_ReportsPerSourceErrors(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockKnowledgeRepository)
	blogs := new(MockBlogRepository)

	blogs.On("ListPublished", mock.Anything).Return([]*domain.BlogPost{}, nil)
	embedder.On("GenerateEmbedding", mock.Anything, "Benvenuti in Noscite").Return(nil, assert.AnError)
	embedder.On("GenerateEmbedding", mock.Anything, "I nostri percorsi formativi").Return([]float32{1}, nil)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	res, err := newSyncService(embedder, repo, blogs).Sync(ctx, SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Synced)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, SyncStatusError, res.Results[0].Status)
	assert.NotEmpty(t, res.Results[0].Error)
	repo.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestKnowledgeSyncService_PruneRemovesOrphans(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockKnowledgeRepository)
	blogs := new(MockBlogRepository)

	blogs.On("ListPublished", mock.Anything).Return([]*domain.BlogPost{{ID: "7", Title: "Post", Content: "<p>x</p>"}}, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	repo.On("DeleteStale", mock.Anything, []string{"home-page", "atheneum-page", "blog-7"}, domain.SiteContentTypes).Return(int64(2), nil)

	res, err := newSyncService(embedder, repo, blogs).Sync(ctx, SyncOptions{Prune: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Pruned)
	repo.AssertExpectations(t)
}

func TestKnowledgeSyncService_BlogFailureSkipsPrune(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockKnowledgeRepository)
	blogs := new(MockBlogRepository)

	blogs.On("ListPublished", mock.Anything).Return(nil, assert.AnError)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	res, err := newSyncService(embedder, repo, blogs).Sync(ctx, SyncOptions{Prune: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)
	assert.Len(t, res.Errors, 1)
	repo.AssertNotCalled(t, "DeleteStale", mock.Anything, mock.Anything, mock.Anything)
}

func TestKnowledgeSyncService_IdempotentSourceIDs(t *testing.T) {
	ctx := context.Background()
	embedder := new(MockEmbeddingClient)
	repo := new(MockKnowledgeRepository)
	blogs := new(MockBlogRepository)

	blogs.On("ListPublished", mock.Anything).Return([]*domain.BlogPost{}, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)

	ids := map[string]int{}
	repo.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ids[args.Get(1).(*domain.KnowledgeEntry).SourceID]++
	}).Return(nil)

	svc := newSyncService(embedder, repo, blogs)
	_, err := svc.Sync(ctx, SyncOptions{})
	require.NoError(t, err)
	_, err = svc.Sync(ctx, SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"home-page": 2, "atheneum-page": 2}, ids)
}
