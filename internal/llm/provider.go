// Package llm defines the provider-neutral chat completion contract.
package llm

import (
	"context"
	"errors"
)

// Role of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message sent to a provider
type Message struct {
	Role    Role
	Content string
}

// Request contains chat completion parameters. Messages are the prior
// history followed by the current user message.
type Request struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Response contains the generated text
type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Provider defines the interface for chat completion providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// Complete generates the assistant reply for req
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ErrEmptyResponse is returned when a provider answers without text
var ErrEmptyResponse = errors.New("empty response from provider")

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient (rate limiting, 5xx, network).
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// IsRetryableStatus reports whether an HTTP status from a provider is transient.
func IsRetryableStatus(status int) bool {
	return status == 429 || status >= 500
}
