package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient provides chat completions through the Anthropic API.
// Anthropic has no embedding endpoint, so an AnthropicClient delegates
// embeddings to a fallback client (typically an OpenAI-compatible local
// endpoint); embedding calls fail if no fallback is configured.
type AnthropicClient struct {
	client            *anthropic.Client
	model             string
	embeddingFallback Client
	logger            *zap.Logger
}

// NewAnthropicClient creates a new Anthropic chat client.
// embeddingFallback may be nil when embeddings are not needed.
func NewAnthropicClient(apiKey, model string, embeddingFallback Client, logger *zap.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &AnthropicClient{
		client:            anthropic.NewClient(apiKey),
		model:             model,
		embeddingFallback: embeddingFallback,
		logger:            logger.Named("llm"),
	}, nil
}

// GenerateResponse generates a chat completion response.
func (c *AnthropicClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	temp := float32(temperature)

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: systemMessage,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
		MaxTokens:   4096,
		Temperature: &temp,
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classifyError(err, c.model, "anthropic")
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	c.logger.Info("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Content[0].GetText(), nil
}

// CreateEmbedding delegates to the embedding fallback client.
func (c *AnthropicClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if c.embeddingFallback == nil {
		return nil, fmt.Errorf("anthropic provider has no embedding endpoint and no fallback is configured")
	}
	return c.embeddingFallback.CreateEmbedding(ctx, input)
}

// CreateEmbeddings delegates to the embedding fallback client.
func (c *AnthropicClient) CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	if c.embeddingFallback == nil {
		return nil, fmt.Errorf("anthropic provider has no embedding endpoint and no fallback is configured")
	}
	return c.embeddingFallback.CreateEmbeddings(ctx, inputs)
}

// Model returns the configured chat model name.
func (c *AnthropicClient) Model() string {
	return c.model
}
