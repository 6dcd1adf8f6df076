package service

import (
	"context"
	"errors"
	"time"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

// ConversationRepositoryInterface persists session message histories.
type ConversationRepositoryInterface interface {
	AppendMessages(ctx context.Context, sessionID string, msgs []domain.Message, now time.Time) error
	GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error)
	DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// ConversationService accumulates chat turns per session.
type ConversationService struct {
	repo ConversationRepositoryInterface
	now  func() time.Time
}

func NewConversationService(repo ConversationRepositoryInterface) *ConversationService {
	return &ConversationService{repo: repo, now: time.Now}
}

// AppendTurn stores the user message and the assistant reply of one exchange.
func (s *ConversationService) AppendTurn(ctx context.Context, sessionID, userText, assistantText string) error {
	ctx, span := telemetry.StartSpan(ctx, "ConversationService.AppendTurn", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "persist",
	})
	defer span.End()

	now := s.now().UTC()
	if err := s.repo.AppendMessages(ctx, sessionID, domain.NewTurn(userText, assistantText, now), now); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

// History returns the last limit messages of the session. An unknown
// session has an empty history.
func (s *ConversationService) History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	msgs, err := s.repo.GetMessages(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return domain.LastMessages(msgs, limit), nil
}
