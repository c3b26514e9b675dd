// Package retriever turns a question into ranked document texts by
// embedding it and querying the vector store.
package retriever

import (
	"context"
	"fmt"

	"github.com/govlk/rag-chatbot/internal/storage"
)

// DefaultTopK is used when the caller does not specify a result count.
const DefaultTopK = 3

// Embedder is the slice of the embedding gateway the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the slice of the vector store the retriever needs.
type Searcher interface {
	Query(ctx context.Context, embedding []float32, topK int) ([]storage.SearchResult, error)
}

// Retriever orchestrates query embedding and nearest-neighbor lookup.
type Retriever struct {
	embedder Embedder
	store    Searcher
}

// New creates a retriever over the given embedder and store.
func New(embedder Embedder, store Searcher) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve returns up to topK document texts nearest to the question, best
// match first. An empty collection yields an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	results, err := r.store.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	docs := make([]string, 0, len(results))
	for _, result := range results {
		if result.Document == "" {
			continue
		}
		docs = append(docs, result.Document)
	}
	return docs, nil
}
