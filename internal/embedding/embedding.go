// Package embedding converts text into fixed-dimension vectors.
//
// Two interchangeable providers exist: Gemini (hosted, default) and
// OpenAI. A deployment must use the same provider for ingestion and
// querying; the storage layer rejects collections whose dimension does
// not match the configured provider.
package embedding

import (
	"context"
	"fmt"
)

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension is the fixed length of vectors this embedder produces.
	Dimension() int
}

// New selects an embedding provider by name. Supported providers are
// "gemini" and "openai".
func New(ctx context.Context, provider, apiKey string) (Embedder, error) {
	switch provider {
	case "", "gemini":
		return NewGeminiEmbedder(ctx, apiKey)
	case "openai":
		return NewOpenAIEmbedder(apiKey)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
