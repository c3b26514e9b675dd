// Package main provides the HTTP API server for the governance RAG backend.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/govlk/rag-chatbot/internal/embedding"
	"github.com/govlk/rag-chatbot/internal/generator"
	"github.com/govlk/rag-chatbot/internal/ingest"
	"github.com/govlk/rag-chatbot/internal/memory"
	"github.com/govlk/rag-chatbot/internal/retriever"
	"github.com/govlk/rag-chatbot/internal/server"
	"github.com/govlk/rag-chatbot/internal/storage"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger := slog.Default()

	// Configuration from environment
	provider := getEnv("EMBEDDING_PROVIDER", "gemini")
	geminiKey := os.Getenv("GEMINI_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")
	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)
	qdrantAPIKey := os.Getenv("QDRANT_API_KEY")
	collection := getEnv("QDRANT_COLLECTION", storage.DefaultCollection)
	port := getEnv("PORT", "8080")

	// Initialize the embedding provider
	apiKey := geminiKey
	if provider == "openai" {
		apiKey = openaiKey
	}
	embedder, err := embedding.New(ctx, provider, apiKey)
	if err != nil {
		log.Fatalf("failed to create embedder: %v", err)
	}

	// Initialize storage; the collection dimension must match the embedder
	store, err := storage.NewQdrantStorage(storage.Config{
		Host:       qdrantHost,
		Port:       qdrantPort,
		APIKey:     qdrantAPIKey,
		Collection: collection,
		Dimension:  embedder.Dimension(),
	})
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	// Initialize the answer generator
	gen, err := generator.NewGeminiGenerator(ctx, geminiKey)
	if err != nil {
		log.Fatalf("failed to create generator: %v", err)
	}
	defer gen.Close()

	srv := server.New(&server.Config{
		Embedder:  embedder,
		Store:     store,
		Retriever: retriever.New(embedder, store),
		Pipeline:  ingest.NewPipeline(embedder, store, provider, 0, -1, logger),
		Answerer:  generator.NewAnswerer(gen, logger),
		Memory:    memory.NewStore(memory.DefaultLimit),
		Health:    store,
		Logger:    logger,
	})

	addr := "0.0.0.0:" + port
	log.Printf("Starting RAG backend on %s (collection %q, embedder %s)", addr, collection, provider)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
