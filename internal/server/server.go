// Package server exposes the RAG backend's HTTP API: document ingestion,
// raw vector queries, and the conversational chat endpoint.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/govlk/rag-chatbot/internal/ingest"
	"github.com/govlk/rag-chatbot/internal/memory"
	"github.com/govlk/rag-chatbot/internal/storage"
)

// Embedder is the slice of the embedding gateway the handlers need.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the slice of the storage adapter the handlers need.
type VectorStore interface {
	Add(ctx context.Context, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]any) error
	Query(ctx context.Context, embedding []float32, topK int) ([]storage.SearchResult, error)
}

// DocRetriever returns ranked document texts for a question.
type DocRetriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]string, error)
}

// Ingestor runs the document ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, doc ingest.Document) (*ingest.Result, error)
}

// Answerer generates chat answers and degrades failures to text.
type Answerer interface {
	Answer(ctx context.Context, prompt string) string
	Apology(err error) string
}

// Config wires the server's collaborators.
type Config struct {
	Embedder  Embedder
	Store     VectorStore
	Retriever DocRetriever
	Pipeline  Ingestor
	Answerer  Answerer
	Memory    *memory.Store
	Health    HealthChecker
	Logger    *slog.Logger
}

// Server holds the handler dependencies.
type Server struct {
	embedder  Embedder
	store     VectorStore
	retriever DocRetriever
	pipeline  Ingestor
	answerer  Answerer
	memory    *memory.Store
	health    HealthChecker
	logger    *slog.Logger
}

// New creates the API server.
func New(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mem := cfg.Memory
	if mem == nil {
		mem = memory.NewStore(memory.DefaultLimit)
	}
	return &Server{
		embedder:  cfg.Embedder,
		store:     cfg.Store,
		retriever: cfg.Retriever,
		pipeline:  cfg.Pipeline,
		answerer:  cfg.Answerer,
		memory:    mem,
		health:    cfg.Health,
		logger:    logger,
	}
}

// Handler returns the routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", NewHealthHandler(s.health))
	mux.HandleFunc("POST /docs/add_document", s.handleAddDocument)
	mux.HandleFunc("POST /docs/upload_pdf", s.handleUploadPDF)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("POST /chat", s.handleChat)

	return withCORS(mux)
}

// withCORS allows cross-origin requests from any origin, matching the
// permissive policy of the upstream web client.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Session-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
