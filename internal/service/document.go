package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/logging"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

// DocumentArchive keeps the raw text of ingested documents and returns the
// object key it was stored under.
type DocumentArchive interface {
	ArchiveDocument(ctx context.Context, slug, title, text string) (string, error)
}

type DocumentInput struct {
	Title    string
	Content  string
	Filename string
}

type DocumentResult struct {
	Slug       string `json:"slug"`
	SourceID   string `json:"sourceId"`
	Chunks     int    `json:"chunks"`
	Removed    int64  `json:"removed"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// DocumentService chunks, embeds and indexes operator-supplied documents.
type DocumentService struct {
	embedder EmbeddingClient
	tx       TxRunner
	archive  DocumentArchive
	chunkCfg ChunkConfig
}

// NewDocumentService creates a DocumentService. archive may be nil.
func NewDocumentService(embedder EmbeddingClient, tx TxRunner, archive DocumentArchive) *DocumentService {
	return &DocumentService{
		embedder: embedder,
		tx:       tx,
		archive:  archive,
		chunkCfg: DefaultChunkConfig(),
	}
}

// Ingest replaces the chunks of the document identified by its slug. All
// embeddings are computed before the transaction opens.
func (s *DocumentService) Ingest(ctx context.Context, in DocumentInput) (*DocumentResult, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewValidationError("title è obbligatorio")
	}

	base := strings.TrimSuffix(path.Base(in.Filename), path.Ext(in.Filename))
	if strings.TrimSpace(in.Filename) == "" {
		base = title
	}
	slug := Slugify(base)
	if slug == "" {
		return nil, domain.NewValidationError("impossibile ricavare un identificativo dal titolo")
	}

	chunks := chunkText(in.Content, s.chunkCfg)
	if len(chunks) == 0 {
		return nil, domain.NewValidationError("content è obbligatorio")
	}

	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Ingest", telemetry.SpanAttributes{
		SourceID:  slug,
		Operation: "ingest",
	})
	defer span.End()

	embeddings := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		emb, err := s.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
		}
		embeddings[i] = emb
	}

	result := &DocumentResult{
		Slug:     slug,
		SourceID: ChunkSourceID(slug, 0),
		Chunks:   len(chunks),
	}

	if s.archive != nil {
		key, err := s.archive.ArchiveDocument(ctx, slug, title, in.Content)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("slug", slug).Msg("document archive failed")
		} else {
			result.ArchiveKey = key
		}
	}

	err := s.tx.WithTx(ctx, func(knowledge ChunkWriter) error {
		for i, chunk := range chunks {
			entry := domain.NewKnowledgeEntry(ChunkSourceID(slug, i), title, chunk, domain.ContentTypeDocument, embeddings[i])
			if err := knowledge.Upsert(ctx, entry); err != nil {
				return err
			}
		}
		removed, err := knowledge.DeleteDocumentChunksFrom(ctx, slug, len(chunks))
		if err != nil {
			return err
		}
		result.Removed = removed
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return result, nil
}

// ChunkSourceID returns the source id of the n-th chunk of a document.
func ChunkSourceID(slug string, n int) string {
	return fmt.Sprintf("doc-%s-%d", slug, n)
}

// Slugify lower-cases s, strips accents and joins alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
