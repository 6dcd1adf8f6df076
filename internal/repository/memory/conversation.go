package memory

import (
	"context"
	"sync"
	"time"

	"github.com/noscite/noscite-assistant/internal/domain"
)

type ConversationStore struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{conversations: make(map[string]*domain.Conversation)}
}

func (s *ConversationStore) AppendMessages(_ context.Context, sessionID string, msgs []domain.Message, now time.Time) error {
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[sessionID]
	if !ok {
		c = &domain.Conversation{SessionID: sessionID, CreatedAt: now}
		s.conversations[sessionID] = c
	}
	c.Messages = append(c.Messages, msgs...)
	c.UpdatedAt = now
	return nil
}

func (s *ConversationStore) GetMessages(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[sessionID]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	out := make([]domain.Message, len(c.Messages))
	copy(out, c.Messages)
	return out, nil
}

func (s *ConversationStore) DeleteInactiveSince(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, c := range s.conversations {
		if c.UpdatedAt.Before(cutoff) {
			delete(s.conversations, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored conversations.
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}
