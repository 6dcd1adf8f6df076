// Package gemini provides the Gemini chat completion provider.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/noscite/noscite-assistant/internal/llm"
)

const DefaultModel = "gemini-1.5-flash"

// ContentGenerator runs one generation call. The SDK-backed implementation
// is used in production.
type ContentGenerator interface {
	Generate(ctx context.Context, model string, req llm.Request) (*genai.GenerateContentResponse, error)
	Close() error
}

type Provider struct {
	gen   ContentGenerator
	model string
}

// NewProvider creates a provider backed by the Gemini API
func NewProvider(ctx context.Context, apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return NewProviderWithGenerator(&sdkGenerator{client: client}, model), nil
}

// NewProviderWithGenerator creates a provider over gen
func NewProviderWithGenerator(gen ContentGenerator, model string) *Provider {
	if model == "" {
		model = DefaultModel
	}
	return &Provider{gen: gen, model: model}
}

func (p *Provider) Name() string {
	return "gemini"
}

// Close releases the underlying client
func (p *Provider) Close() error {
	return p.gen.Close()
}

func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("gemini: no messages")
	}

	resp, err := p.gen.Generate(ctx, p.model, req)
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", classify(err))
	}

	text := responseText(resp)
	if text == "" {
		return nil, llm.ErrEmptyResponse
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Text:       text,
		Model:      p.model,
		TokensUsed: tokensUsed,
	}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if llm.IsRetryableStatus(apiErr.Code) {
			return llm.Retryable(err)
		}
		return err
	}

	return llm.Retryable(err)
}

type sdkGenerator struct {
	client *genai.Client
}

func (g *sdkGenerator) Generate(ctx context.Context, model string, req llm.Request) (*genai.GenerateContentResponse, error) {
	generativeModel := g.client.GenerativeModel(model)
	generativeModel.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		generativeModel.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		generativeModel.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}

	history, last := splitHistory(req.Messages)
	session := generativeModel.StartChat()
	session.History = history

	return session.SendMessage(ctx, genai.Text(last.Content))
}

func (g *sdkGenerator) Close() error {
	return g.client.Close()
}

// splitHistory converts all but the last message to Gemini contents.
// Gemini names the assistant role "model".
func splitHistory(messages []llm.Message) ([]*genai.Content, llm.Message) {
	last := messages[len(messages)-1]
	history := make([]*genai.Content, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return history, last
}
