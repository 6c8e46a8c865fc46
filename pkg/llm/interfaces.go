// Package llm provides chat-completion and embedding clients for the
// collaborator services (semantic matcher embeddings, NLU extraction).
package llm

import "context"

// Client defines the interface for LLM operations. Use this interface for
// dependency injection to enable mocking in tests.
type Client interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// CreateEmbedding generates an embedding vector for the input text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// CreateEmbeddings generates embeddings for multiple inputs in order.
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)

	// Model returns the configured chat model name.
	Model() string
}

// Ensure implementations satisfy Client at compile time.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
	_ Client = (*MockClient)(nil)
)
