package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/pagination"
)

// KnowledgeRepositoryInterface defines the repository interface for knowledge persistence
type KnowledgeRepositoryInterface interface {
	Upsert(ctx context.Context, e *domain.KnowledgeEntry) error
	SearchSemantic(ctx context.Context, embedding []float32, types []domain.ContentType, threshold float64, limit int) ([]*domain.KnowledgeEntry, error)
	SearchKeyword(ctx context.Context, keyword string, types []domain.ContentType, limit int) ([]*domain.KnowledgeEntry, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*KnowledgePageResult, error)
	DeleteStale(ctx context.Context, keep []string, types []domain.ContentType) (int64, error)
	DeleteDocumentChunksFrom(ctx context.Context, slug string, from int) (int64, error)
}

type KnowledgePageResult struct {
	Items      []*domain.KnowledgeEntry
	NextCursor string
	HasMore    bool
}

// EmbeddingClient turns text into a vector.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// KnowledgeService exposes read access to the knowledge corpus for operators.
type KnowledgeService struct {
	repo KnowledgeRepositoryInterface
}

func NewKnowledgeService(repo KnowledgeRepositoryInterface) *KnowledgeService {
	return &KnowledgeService{repo: repo}
}

type ListKnowledgeInput struct {
	Cursor string
	Limit  int
}

type ListKnowledgeOutput struct {
	Items   []*domain.KnowledgeEntry
	Cursor  string
	HasMore bool
}

func (s *KnowledgeService) List(ctx context.Context, input ListKnowledgeInput) (*ListKnowledgeOutput, error) {
	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewValidationError("cursor non valido")
	}

	page, err := s.repo.ListWithCursor(ctx, cursor, pagination.ClampLimit(input.Limit))
	if err != nil {
		return nil, err
	}

	return &ListKnowledgeOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}
