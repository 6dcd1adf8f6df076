package domain

import "time"

// MessageRole identifies the author of a conversation message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one entry of a conversation. Messages are never mutated once stored.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Conversation holds the ordered message history of a chat session.
type Conversation struct {
	SessionID string
	UserID    *string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTurn returns the user and assistant messages of one exchange, both stamped at now.
func NewTurn(userText, assistantText string, now time.Time) []Message {
	return []Message{
		{Role: MessageRoleUser, Content: userText, Timestamp: now},
		{Role: MessageRoleAssistant, Content: assistantText, Timestamp: now},
	}
}

// LastMessages returns at most n trailing messages.
func LastMessages(messages []Message, n int) []Message {
	if n <= 0 {
		return nil
	}
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
