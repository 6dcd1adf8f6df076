package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/noscite/noscite-assistant/internal/llm"
)

// ChatAPI is the subset of the SDK used for completions
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatProvider implements llm.Provider on the chat completions endpoint
type ChatProvider struct {
	api   ChatAPI
	model string
}

// NewChatProvider creates a chat provider from cfg
func NewChatProvider(cfg Config) *ChatProvider {
	return NewChatProviderWithAPI(cfg.sdkClient(), cfg.ChatModel)
}

// NewChatProviderWithAPI creates a chat provider over an existing API
func NewChatProviderWithAPI(api ChatAPI, model string) *ChatProvider {
	if model == "" {
		model = DefaultChatModel
	}
	return &ChatProvider{api: api, model: model}
}

func (p *ChatProvider) Name() string {
	return "openai"
}

// Complete sends the system prompt, history and user message in order
func (p *ChatProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", classify(err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.Response{
		Text:       resp.Choices[0].Message.Content,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func chatRole(r llm.Role) string {
	switch r {
	case llm.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case llm.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

// classify marks rate limiting, server and transport errors as retryable.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if llm.IsRetryableStatus(apiErr.HTTPStatusCode) {
			return llm.Retryable(err)
		}
		return err
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if llm.IsRetryableStatus(reqErr.HTTPStatusCode) {
			return llm.Retryable(err)
		}
		return err
	}

	return llm.Retryable(err)
}
