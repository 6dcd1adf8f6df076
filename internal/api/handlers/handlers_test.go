package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/noscite/noscite-assistant/internal/audit"
	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/service"
)

func newEvents(buf *bytes.Buffer) *audit.Logger {
	return audit.NewLogger(zerolog.New(buf))
}

// eventTypes returns the event_type of every security line in buf.
func eventTypes(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	var types []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		if et, ok := m["event_type"].(string); ok {
			types = append(types, et)
		}
	}
	return types
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Chat(ctx context.Context, in service.ChatInput) (*service.ChatOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatOutput), args.Error(1)
}

type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Submit(ctx context.Context, in service.ContactInput) (*domain.ContactSubmission, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContactSubmission), args.Error(1)
}

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Sync(ctx context.Context, opts service.SyncOptions) (*service.SyncResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncResult), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Ingest(ctx context.Context, in service.DocumentInput) (*service.DocumentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentResult), args.Error(1)
}

type MockKnowledgeLister struct {
	mock.Mock
}

func (m *MockKnowledgeLister) List(ctx context.Context, input service.ListKnowledgeInput) (*service.ListKnowledgeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListKnowledgeOutput), args.Error(1)
}
