package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/logging"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

// Query asks for the best entries of each source group.
type Query struct {
	Text          string
	SiteLimit     int
	DocumentLimit int
}

// Retrieved holds ranked entries per source group.
type Retrieved struct {
	Site      []*domain.KnowledgeEntry
	Documents []*domain.KnowledgeEntry
}

// Empty reports whether no group has entries.
func (r *Retrieved) Empty() bool {
	return r == nil || (len(r.Site) == 0 && len(r.Documents) == 0)
}

// Retriever finds knowledge entries relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, q Query) (*Retrieved, error)
}

// SemanticRetriever embeds the query once and searches both groups by
// cosine similarity.
type SemanticRetriever struct {
	embedder  EmbeddingClient
	repo      KnowledgeRepositoryInterface
	threshold float64
}

func NewSemanticRetriever(embedder EmbeddingClient, repo KnowledgeRepositoryInterface, threshold float64) *SemanticRetriever {
	return &SemanticRetriever{embedder: embedder, repo: repo, threshold: threshold}
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, q Query) (*Retrieved, error) {
	ctx, span := telemetry.StartSpan(ctx, "SemanticRetriever.Retrieve", telemetry.SpanAttributes{Operation: "retrieve_semantic"})
	defer span.End()

	embedding, err := r.embedder.GenerateEmbedding(ctx, q.Text)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
	}

	site, err := r.repo.SearchSemantic(ctx, embedding, domain.SiteContentTypes, r.threshold, q.SiteLimit)
	if err != nil {
		return nil, err
	}
	docs, err := r.repo.SearchSemantic(ctx, embedding, domain.DocumentContentTypes, r.threshold, q.DocumentLimit)
	if err != nil {
		return nil, err
	}

	return &Retrieved{Site: site, Documents: docs}, nil
}

// KeywordRetriever matches a single keyword extracted from the query.
type KeywordRetriever struct {
	repo KnowledgeRepositoryInterface
}

func NewKeywordRetriever(repo KnowledgeRepositoryInterface) *KeywordRetriever {
	return &KeywordRetriever{repo: repo}
}

func (r *KeywordRetriever) Retrieve(ctx context.Context, q Query) (*Retrieved, error) {
	keyword := ExtractKeyword(q.Text)
	if keyword == "" {
		return &Retrieved{}, nil
	}

	site, err := r.repo.SearchKeyword(ctx, keyword, domain.SiteContentTypes, q.SiteLimit)
	if err != nil {
		return nil, err
	}
	docs, err := r.repo.SearchKeyword(ctx, keyword, domain.DocumentContentTypes, q.DocumentLimit)
	if err != nil {
		return nil, err
	}

	return &Retrieved{Site: site, Documents: docs}, nil
}

// FallbackRetriever runs Fallback when Primary fails or finds nothing.
// It never returns an error.
type FallbackRetriever struct {
	Primary  Retriever
	Fallback Retriever
}

func NewFallbackRetriever(primary, fallback Retriever) *FallbackRetriever {
	return &FallbackRetriever{Primary: primary, Fallback: fallback}
}

func (r *FallbackRetriever) Retrieve(ctx context.Context, q Query) (*Retrieved, error) {
	logger := logging.FromContext(ctx)

	res, err := r.Primary.Retrieve(ctx, q)
	if err == nil && !res.Empty() {
		return res, nil
	}
	if err != nil {
		logger.Warn().Err(err).Msg("semantic retrieval failed, using keyword fallback")
	}

	if r.Fallback == nil {
		return &Retrieved{}, nil
	}

	res, err = r.Fallback.Retrieve(ctx, q)
	if err != nil {
		logger.Warn().Err(err).Msg("keyword retrieval failed")
		return &Retrieved{}, nil
	}
	if res == nil {
		return &Retrieved{}, nil
	}
	return res, nil
}

// ExtractKeyword returns the first word of query longer than three runes,
// stripped of surrounding punctuation, or "" when there is none.
func ExtractKeyword(query string) string {
	for _, word := range strings.Fields(query) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(word) > 3 {
			return word
		}
	}
	return ""
}
