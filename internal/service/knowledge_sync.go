package service

import (
	"context"
	"strings"

	"github.com/noscite/noscite-assistant/internal/content"
	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/logging"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

// BlogRepositoryInterface lists the commentarium posts to index.
type BlogRepositoryInterface interface {
	ListPublished(ctx context.Context) ([]*domain.BlogPost, error)
}

const (
	SyncStatusSynced = "synced"
	SyncStatusError  = "error"
)

type SyncOptions struct {
	// Prune deletes site entries whose source id was not part of this sync.
	Prune bool
}

type SyncItemResult struct {
	SourceID string `json:"sourceId"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

type SyncResult struct {
	Synced  int              `json:"synced"`
	Total   int              `json:"total"`
	Results []SyncItemResult `json:"results"`
	Errors  []string         `json:"errors,omitempty"`
	Pruned  int64            `json:"pruned,omitempty"`
}

// KnowledgeSyncService re-indexes the site pages and published blog posts.
type KnowledgeSyncService struct {
	embedder EmbeddingClient
	repo     KnowledgeRepositoryInterface
	blogs    BlogRepositoryInterface
	pages    func() []content.Page
}

func NewKnowledgeSyncService(embedder EmbeddingClient, repo KnowledgeRepositoryInterface, blogs BlogRepositoryInterface) *KnowledgeSyncService {
	return &KnowledgeSyncService{
		embedder: embedder,
		repo:     repo,
		blogs:    blogs,
		pages:    content.Pages,
	}
}

type syncSource struct {
	sourceID    string
	title       string
	text        string
	contentType domain.ContentType
}

// Sync embeds and upserts every source. A failing source is reported in the
// result and does not stop the others. Pruning is skipped when the blog
// listing failed, so that blog rows are never removed by accident.
func (s *KnowledgeSyncService) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeSyncService.Sync", telemetry.SpanAttributes{Operation: "sync"})
	defer span.End()

	logger := logging.FromContext(ctx)
	result := &SyncResult{Results: []SyncItemResult{}}

	sources := make([]syncSource, 0, 16)
	for _, p := range s.pages() {
		sources = append(sources, syncSource{
			sourceID:    p.SourceID,
			title:       p.Title,
			text:        p.Content,
			contentType: domain.ContentTypeWebsite,
		})
	}

	blogsOK := true
	posts, err := s.blogs.ListPublished(ctx)
	if err != nil {
		blogsOK = false
		logger.Error().Err(err).Msg("failed to list blog posts")
		result.Errors = append(result.Errors, "blog: impossibile leggere gli articoli pubblicati")
	}
	for _, p := range posts {
		sources = append(sources, syncSource{
			sourceID:    p.SourceID(),
			title:       p.Title,
			text:        blogText(p),
			contentType: domain.ContentTypeBlogPost,
		})
	}

	result.Total = len(sources)
	keep := make([]string, 0, len(sources))

	for _, src := range sources {
		keep = append(keep, src.sourceID)
		item := SyncItemResult{SourceID: src.sourceID, Title: src.title, Status: SyncStatusSynced}

		if err := s.syncOne(ctx, src); err != nil {
			logger.Warn().Err(err).Str("source_id", src.sourceID).Msg("knowledge sync failed for source")
			item.Status = SyncStatusError
			item.Error = err.Error()
			result.Errors = append(result.Errors, src.sourceID+": "+err.Error())
		} else {
			result.Synced++
		}
		result.Results = append(result.Results, item)
	}

	if opts.Prune && blogsOK {
		pruned, err := s.repo.DeleteStale(ctx, keep, domain.SiteContentTypes)
		if err != nil {
			span.SetError(err)
			return result, err
		}
		result.Pruned = pruned
	}

	logger.Info().
		Int("synced", result.Synced).
		Int("total", result.Total).
		Int64("pruned", result.Pruned).
		Msg("knowledge sync completed")

	return result, nil
}

func (s *KnowledgeSyncService) syncOne(ctx context.Context, src syncSource) error {
	text := strings.TrimSpace(src.text)
	if text == "" {
		return domain.ErrMissingRequiredField
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return err
	}

	return s.repo.Upsert(ctx, domain.NewKnowledgeEntry(src.sourceID, src.title, text, src.contentType, embedding))
}

func blogText(p *domain.BlogPost) string {
	parts := []string{p.Title}
	if ex := strings.TrimSpace(p.Excerpt); ex != "" {
		parts = append(parts, ex)
	}
	if body := content.HTMLToText(p.Content); body != "" {
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n\n")
}
