package service

import (
	"context"
	"time"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/logging"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

// ResponseGenerator produces the assistant reply.
type ResponseGenerator interface {
	Generate(ctx context.Context, contextBlock, userMessage string, history []domain.Message) (string, error)
}

// ChatConfig holds the chat pipeline limits.
type ChatConfig struct {
	Quota         domain.Quota
	SiteTopK      int
	DocumentTopK  int
	HistoryLength int
}

func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Quota:         domain.Quota{Max: 20, Window: 60 * time.Minute},
		SiteTopK:      5,
		DocumentTopK:  3,
		HistoryLength: 10,
	}
}

// ChatService runs one chat turn: admission, retrieval, generation and persistence.
type ChatService struct {
	limiter       *RateLimiter
	retriever     Retriever
	assembler     *ContextAssembler
	generator     ResponseGenerator
	conversations *ConversationService
	cfg           ChatConfig
}

func NewChatService(
	limiter *RateLimiter,
	retriever Retriever,
	assembler *ContextAssembler,
	generator ResponseGenerator,
	conversations *ConversationService,
	cfg ChatConfig,
) *ChatService {
	return &ChatService{
		limiter:       limiter,
		retriever:     retriever,
		assembler:     assembler,
		generator:     generator,
		conversations: conversations,
		cfg:           cfg,
	}
}

// ChatInput is an already validated chat request.
type ChatInput struct {
	Message   string
	SessionID string
	ClientIP  string
}

type ChatOutput struct {
	Response  string
	SessionID string
	Sources   []string
}

// Chat answers one message. A rejected request returns domain.ErrRateLimited
// and leaves the conversation untouched.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatService.Chat", telemetry.SpanAttributes{
		SessionID: in.SessionID,
		Operation: "chat",
	})
	defer span.End()

	logger := logging.FromContext(ctx)

	if !s.limiter.CheckAndConsume(ctx, in.ClientIP+":"+in.SessionID, domain.EndpointChat, s.cfg.Quota) {
		return nil, domain.ErrRateLimited
	}

	history, err := s.conversations.History(ctx, in.SessionID, s.cfg.HistoryLength)
	if err != nil {
		logger.Warn().Err(err).Str("session_id", in.SessionID).Msg("failed to load conversation history")
		history = nil
	}

	retrieved, err := s.retriever.Retrieve(ctx, Query{
		Text:          in.Message,
		SiteLimit:     s.cfg.SiteTopK,
		DocumentLimit: s.cfg.DocumentTopK,
	})
	if err != nil || retrieved == nil {
		if err != nil {
			logger.Warn().Err(err).Msg("retrieval failed, answering without context")
		}
		retrieved = &Retrieved{}
	}

	contextBlock := s.assembler.Assemble(retrieved.Site, retrieved.Documents)

	reply, err := s.generator.Generate(ctx, contextBlock, in.Message, history)
	if err != nil {
		return nil, err
	}

	if err := s.conversations.AppendTurn(ctx, in.SessionID, in.Message, reply); err != nil {
		logger.Error().Err(err).Str("session_id", in.SessionID).Msg("failed to persist conversation turn")
	}

	return &ChatOutput{
		Response:  reply,
		SessionID: in.SessionID,
		Sources:   sourceIDs(retrieved),
	}, nil
}

func sourceIDs(r *Retrieved) []string {
	ids := make([]string, 0, len(r.Site)+len(r.Documents))
	for _, e := range r.Site {
		ids = append(ids, e.SourceID)
	}
	for _, e := range r.Documents {
		ids = append(ids, e.SourceID)
	}
	return ids
}
