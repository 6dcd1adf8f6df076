package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/noscite/noscite-assistant/internal/content"
	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/llm"
	"github.com/noscite/noscite-assistant/internal/repository/memory"
)

type chatFixture struct {
	svc       *ChatService
	embedder  *MockEmbeddingClient
	repo      *MockKnowledgeRepository
	provider  *MockProvider
	limits    *memory.RateLimitStore
	convStore *memory.ConversationStore
}

func newChatFixture(quota domain.Quota) *chatFixture {
	f := &chatFixture{
		embedder:  new(MockEmbeddingClient),
		repo:      new(MockKnowledgeRepository),
		provider:  new(MockProvider),
		limits:    memory.NewRateLimitStore(),
		convStore: memory.NewConversationStore(),
	}

	cfg := DefaultChatConfig()
	cfg.Quota = quota

	retriever := NewFallbackRetriever(
		NewSemanticRetriever(f.embedder, f.repo, 0.7),
		NewKeywordRetriever(f.repo),
	)
	f.svc = NewChatService(
		NewRateLimiter(f.limits),
		retriever,
		NewContextAssembler(DefaultContextBudget),
		NewGenerator(f.provider, testGeneratorConfig()),
		NewConversationService(f.convStore),
		cfg,
	)
	return f
}

func atheneumEntry() *domain.KnowledgeEntry {
	for _, p := range content.Pages() {
		if p.SourceID == "atheneum-page" {
			return entry(p.SourceID, p.Title, p.Content, domain.ContentTypeWebsite)
		}
	}
	panic("atheneum-page missing")
}

func TestChatService_PercorsiQuestion(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(domain.Quota{Max: 20, Window: time.Hour})

	vec := []float32{1, 0}
	f.embedder.On("GenerateEmbedding", mock.Anything, "Quali percorsi formativi offrite?").Return(vec, nil)
	f.repo.On("SearchSemantic", mock.Anything, vec, domain.SiteContentTypes, 0.7, 5).
		Return([]*domain.KnowledgeEntry{atheneumEntry()}, nil)
	f.repo.On("SearchSemantic", mock.Anything, vec, domain.DocumentContentTypes, 0.7, 3).
		Return([]*domain.KnowledgeEntry{}, nil)
	f.provider.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return strings.Contains(req.System, "FONTE SITO WEB - ")
	})).Return(&llm.Response{Text: "Offriamo diversi [percorsi formativi](/percorsi)."}, nil)

	out, err := f.svc.Chat(ctx, ChatInput{Message: "Quali percorsi formativi offrite?", SessionID: "fresh-1", ClientIP: "1.2.3.4"})
	require.NoError(t, err)

	assert.Equal(t, "fresh-1", out.SessionID)
	assert.Contains(t, out.Response, "](https://noscite.it/percorsi)")
	assert.Contains(t, out.Sources, "atheneum-page")
	assert.Equal(t, 1, f.limits.Count("1.2.3.4:fresh-1", domain.EndpointChat))

	msgs, err := f.convStore.GetMessages(ctx, "fresh-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Quali percorsi formativi offrite?", msgs[0].Content)
	assert.Equal(t, out.Response, msgs[1].Content)
}

func TestChatService_RateLimitedLeavesConversationUntouched(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(domain.Quota{Max: 20, Window: time.Hour})

	f.embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	f.repo.On("SearchSemantic", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.KnowledgeEntry{}, nil)
	f.repo.On("SearchKeyword", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.KnowledgeEntry{}, nil)
	f.provider.On("Complete", mock.Anything, mock.Anything).Return(&llm.Response{Text: "risposta"}, nil)

	in := ChatInput{Message: "Ciao, informazioni", SessionID: "s-limit", ClientIP: "9.9.9.9"}
	for i := 0; i < 20; i++ {
		_, err := f.svc.Chat(ctx, in)
		require.NoError(t, err)
	}
	before, err := f.convStore.GetMessages(ctx, "s-limit")
	require.NoError(t, err)

	_, err = f.svc.Chat(ctx, in)
	require.ErrorIs(t, err, domain.ErrRateLimited)

	after, err := f.convStore.GetMessages(ctx, "s-limit")
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	f.provider.AssertNumberOfCalls(t, "Complete", 20)
}

func TestChatService_GenerationFailure(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(domain.Quota{Max: 20, Window: time.Hour})

	f.embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	f.repo.On("SearchKeyword", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.KnowledgeEntry{}, nil)
	f.provider.On("Complete", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := f.svc.Chat(ctx, ChatInput{Message: "Domanda qualsiasi", SessionID: "s-err", ClientIP: "1.1.1.1"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeUpstream, domain.CodeOf(err))
	assert.Equal(t, 0, f.convStore.Len())
}

func TestChatService_SendsPriorTurnsAsHistory(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(domain.Quota{Max: 20, Window: time.Hour})

	f.embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	f.repo.On("SearchSemantic", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.KnowledgeEntry{}, nil)
	f.repo.On("SearchKeyword", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.KnowledgeEntry{}, nil)
	f.provider.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool { return len(req.Messages) == 1 })).
		Return(&llm.Response{Text: "prima"}, nil).Once()
	f.provider.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool { return len(req.Messages) == 3 })).
		Return(&llm.Response{Text: "seconda"}, nil).Once()

	_, err := f.svc.Chat(ctx, ChatInput{Message: "Primo messaggio", SessionID: "h", ClientIP: "ip"})
	require.NoError(t, err)
	out, err := f.svc.Chat(ctx, ChatInput{Message: "Secondo messaggio", SessionID: "h", ClientIP: "ip"})
	require.NoError(t, err)
	assert.Equal(t, "seconda", out.Response)
	f.provider.AssertExpectations(t)
}
