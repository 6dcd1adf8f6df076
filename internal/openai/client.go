package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultEmbeddingModel      = openai.AdaEmbeddingV2
	DefaultEmbeddingDimensions = 1536
	DefaultChatModel           = openai.GPT4oMini
)

var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	ErrNoEmbedding     = errors.New("no embedding data returned")
)

// EmbeddingAPI is the SDK call used for embeddings.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Config is shared by the embedding client and the chat provider.
type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
}

func (c Config) sdkClient() *openai.Client {
	sdkCfg := openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		sdkCfg.BaseURL = c.BaseURL
	}
	return openai.NewClientWithConfig(sdkCfg)
}

// Client produces the vectors stored in knowledge_base.embedding. Every
// vector must have exactly the configured dimensions, matching the column.
type Client struct {
	api        EmbeddingAPI
	model      openai.EmbeddingModel
	dimensions int
}

func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

func NewClientWithConfig(cfg Config) *Client {
	return NewClientWithAPI(cfg.sdkClient(), cfg.EmbeddingModel, cfg.EmbeddingDimensions)
}

func NewClientWithAPI(api EmbeddingAPI, model openai.EmbeddingModel, dimensions int) *Client {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{api: api, model: model, dimensions: dimensions}
}

func (c *Client) Model() string {
	return string(c.model)
}

// GenerateEmbedding embeds text with newlines folded to spaces. The
// dimensions parameter is only sent to models that accept it.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil, ErrEmptyText
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	}
	if strings.HasPrefix(string(c.model), "text-embedding-3") {
		req.Dimensions = c.dimensions
	}

	resp, err := c.api.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoEmbedding
	}

	embedding := resp.Data[0].Embedding
	if len(embedding) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrWrongDimensions, len(embedding), c.dimensions)
	}
	return embedding, nil
}
