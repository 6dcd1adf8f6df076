package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/llm"
	"github.com/noscite/noscite-assistant/internal/mailer"
	"github.com/noscite/noscite-assistant/internal/pagination"
)

// MockKnowledgeRepository is a mock implementation of KnowledgeRepositoryInterface
type MockKnowledgeRepository struct {
	mock.Mock
}

func (m *MockKnowledgeRepository) Upsert(ctx context.Context, e *domain.KnowledgeEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockKnowledgeRepository) SearchSemantic(ctx context.Context, embedding []float32, types []domain.ContentType, threshold float64, limit int) ([]*domain.KnowledgeEntry, error) {
	args := m.Called(ctx, embedding, types, threshold, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeEntry), args.Error(1)
}

func (m *MockKnowledgeRepository) SearchKeyword(ctx context.Context, keyword string, types []domain.ContentType, limit int) ([]*domain.KnowledgeEntry, error) {
	args := m.Called(ctx, keyword, types, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeEntry), args.Error(1)
}

func (m *MockKnowledgeRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*KnowledgePageResult, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*KnowledgePageResult), args.Error(1)
}

func (m *MockKnowledgeRepository) DeleteStale(ctx context.Context, keep []string, types []domain.ContentType) (int64, error) {
	args := m.Called(ctx, keep, types)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockKnowledgeRepository) DeleteDocumentChunksFrom(ctx context.Context, slug string, from int) (int64, error) {
	args := m.Called(ctx, slug, from)
	return args.Get(0).(int64), args.Error(1)
}

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockProvider is a mock implementation of llm.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockRateLimitStore is a mock implementation of RateLimitStore
type MockRateLimitStore struct {
	mock.Mock
}

func (m *MockRateLimitStore) Consume(ctx context.Context, identifier, endpoint string, quota domain.Quota, now time.Time) (bool, error) {
	args := m.Called(ctx, identifier, endpoint, quota, now)
	return args.Bool(0), args.Error(1)
}

// MockBlogRepository is a mock implementation of BlogRepositoryInterface
type MockBlogRepository struct {
	mock.Mock
}

func (m *MockBlogRepository) ListPublished(ctx context.Context) ([]*domain.BlogPost, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BlogPost), args.Error(1)
}

// MockCaptchaVerifier is a mock implementation of CaptchaVerifier
type MockCaptchaVerifier struct {
	mock.Mock
}

func (m *MockCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	args := m.Called(ctx, token, remoteIP)
	return args.Bool(0), args.Error(1)
}

// MockMailer is a mock implementation of Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, e mailer.Email) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// MockContactRepository is a mock implementation of ContactRepositoryInterface
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) Create(ctx context.Context, c *domain.ContactSubmission) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockRoleRepository is a mock implementation of RoleRepositoryInterface
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) HasRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleRepository) Grant(ctx context.Context, userID string, role domain.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Revoke(ctx context.Context, userID string, role domain.Role) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

// MockTxRunner runs fn against the wrapped knowledge repository.
type MockTxRunner struct {
	mock.Mock
	knowledge KnowledgeRepositoryInterface
}

func (m *MockTxRunner) WithTx(ctx context.Context, fn func(w ChunkWriter) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.knowledge)
}

// MockUUIDGenerator is a mock implementation of UUIDGenerator
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		id := m.uuids[m.callCount]
		m.callCount++
		return id
	}
	return "default-uuid"
}

func entry(sourceID, title, content string, ct domain.ContentType) *domain.KnowledgeEntry {
	return &domain.KnowledgeEntry{SourceID: sourceID, Title: title, Content: content, ContentType: ct}
}
