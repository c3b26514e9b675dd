// Package ingest runs the document ingestion pipeline: chunk the extracted
// text, embed each chunk, and batch-store the survivors.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/govlk/rag-chatbot/internal/chunker"
)

var (
	// ErrEmptyDocument means the source yielded no text to ingest.
	ErrEmptyDocument = errors.New("document contains no text")

	// ErrAllChunksFailed means no chunk survived embedding.
	ErrAllChunksFailed = errors.New("failed to embed any chunk")
)

// Document is one extracted source ready for ingestion.
type Document struct {
	Text     string
	Filename string
	Title    string
	Category string
	Source   string
}

// Result reports what an ingestion stored.
type Result struct {
	DocumentID      string `json:"document_id"`
	ChunksProcessed int    `json:"chunks_processed"`
	TotalTextLength int    `json:"total_text_length"`
}

// Embedder is the slice of the embedding gateway the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Storer is the slice of the vector store the pipeline needs.
type Storer interface {
	Add(ctx context.Context, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]any) error
}

// Pipeline chunks, embeds, and stores documents. A failed chunk embedding
// is logged and skipped; only a document with zero surviving chunks fails.
type Pipeline struct {
	embedder  Embedder
	store     Storer
	provider  string
	chunkSize int
	overlap   int
	logger    *slog.Logger
}

// NewPipeline creates an ingestion pipeline. provider names the embedding
// backend and is recorded in chunk metadata. chunkSize/overlap <= 0 fall
// back to the chunker defaults.
func NewPipeline(embedder Embedder, store Storer, provider string, chunkSize, overlap int, logger *slog.Logger) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	if overlap < 0 {
		overlap = chunker.DefaultOverlap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		embedder:  embedder,
		store:     store,
		provider:  provider,
		chunkSize: chunkSize,
		overlap:   overlap,
		logger:    logger,
	}
}

// Ingest chunks the document, embeds each chunk, and stores all surviving
// chunks in one batch. Chunk ids are "{base}_chunk_{ordinal}" with a fresh
// base id per document.
func (p *Pipeline) Ingest(ctx context.Context, doc Document) (*Result, error) {
	if doc.Text == "" {
		return nil, ErrEmptyDocument
	}

	chunks := chunker.Chunk(doc.Text, p.chunkSize, p.overlap)
	baseID := uuid.New().String()
	uploadedAt := time.Now().UTC().Format(time.RFC3339)

	var (
		ids        []string
		documents  []string
		embeddings [][]float32
		metadatas  []map[string]any
	)

	for i, chunk := range chunks {
		embedding, err := p.embedder.Embed(ctx, chunk)
		if err != nil {
			p.logger.Warn("skipping chunk after embedding failure",
				"document_id", baseID, "chunk_index", i, "error", err)
			continue
		}

		ids = append(ids, fmt.Sprintf("%s_chunk_%d", baseID, i))
		documents = append(documents, chunk)
		embeddings = append(embeddings, embedding)
		metadatas = append(metadatas, map[string]any{
			"document_id":      baseID,
			"filename":         doc.Filename,
			"title":            doc.Title,
			"category":         doc.Category,
			"source":           doc.Source,
			"upload_timestamp": uploadedAt,
			"total_length":     len(doc.Text),
			"chunk_index":      i,
			"chunk_length":     len(chunk),
			"total_chunks":     len(chunks),
			"embedder":         p.provider,
		})
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: document %s", ErrAllChunksFailed, baseID)
	}

	if err := p.store.Add(ctx, ids, documents, embeddings, metadatas); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	p.logger.Info("ingested document",
		"document_id", baseID,
		"filename", doc.Filename,
		"chunks", len(ids),
		"skipped", len(chunks)-len(ids),
		"length", len(doc.Text),
	)

	return &Result{
		DocumentID:      baseID,
		ChunksProcessed: len(ids),
		TotalTextLength: len(doc.Text),
	}, nil
}
