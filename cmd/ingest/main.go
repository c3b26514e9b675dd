// Package main provides the ingestion CLI for the governance RAG backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/govlk/rag-chatbot/internal/embedding"
	"github.com/govlk/rag-chatbot/internal/extract"
	"github.com/govlk/rag-chatbot/internal/ghsource"
	"github.com/govlk/rag-chatbot/internal/ingest"
	"github.com/govlk/rag-chatbot/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Governance document ingestion tool",
	Long: `CLI tool for managing the governance document collection in Qdrant.

Environment variables:
  GEMINI_API_KEY      Gemini API key (default embedding provider)
  OPENAI_API_KEY      OpenAI API key (EMBEDDING_PROVIDER=openai)
  EMBEDDING_PROVIDER  gemini (default) or openai
  QDRANT_HOST         Qdrant hostname (default: localhost)
  QDRANT_PORT         Qdrant gRPC port (default: 6334)
  QDRANT_API_KEY      Qdrant API key (hosted deployments)
  QDRANT_COLLECTION   Collection name (default: my_documents)
  GITHUB_TOKEN        GitHub token for sync (optional)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the collection if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, store, err := buildComponents(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("ensure collection: %w", err)
		}
		fmt.Println("Collection ready")
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored documents and recreate the collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, store, err := buildComponents(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ClearCollection(ctx); err != nil {
			return fmt.Errorf("clear collection: %w", err)
		}
		fmt.Println("Collection cleared")
		return nil
	},
}

var (
	fileTitle    string
	fileCategory string
	fileSource   string
)

var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Ingest a local PDF, markdown, or text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pipeline, store, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := ingestFile(ctx, pipeline, args[0], fileTitle, fileCategory, fileSource)
		if err != nil {
			return err
		}

		fmt.Printf("Ingested %s\n", args[0])
		fmt.Printf("  Document ID: %s\n", result.DocumentID)
		fmt.Printf("  Chunks: %d\n", result.ChunksProcessed)
		fmt.Printf("  Text length: %d\n", result.TotalTextLength)
		return nil
	},
}

var (
	syncOwner    string
	syncRepo     string
	syncPath     string
	syncCategory string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest all markdown/text documents from a GitHub repository path",
	Long: `Fetches every .md and .txt file under the given repository directory
and runs each through the ingestion pipeline. Documents that fail to
ingest are reported and skipped.`,
	RunE: runSync,
}

func init() {
	fileCmd.Flags().StringVar(&fileTitle, "title", "", "document title")
	fileCmd.Flags().StringVar(&fileCategory, "category", "", "document category")
	fileCmd.Flags().StringVar(&fileSource, "source", "", "document source")

	syncCmd.Flags().StringVar(&syncOwner, "owner", "", "repository owner (required)")
	syncCmd.Flags().StringVar(&syncRepo, "repo", "", "repository name (required)")
	syncCmd.Flags().StringVar(&syncPath, "path", "docs", "directory within the repository")
	syncCmd.Flags().StringVar(&syncCategory, "category", "governance", "category for synced documents")
	syncCmd.MarkFlagRequired("owner")
	syncCmd.MarkFlagRequired("repo")

	rootCmd.AddCommand(initCmd, clearCmd, fileCmd, syncCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	pipeline, store, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	fetcher, err := ghsource.NewFetcher(syncOwner, syncRepo, syncPath)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	paths, err := fetcher.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	fmt.Printf("Found %d documents under %s\n", len(paths), fetcher.Source())

	var ingested, failed, chunks int
	for _, path := range paths {
		data, err := fetcher.FetchDocument(ctx, path)
		if err != nil {
			fmt.Printf("  skip %s: %v\n", path, err)
			failed++
			continue
		}

		text, err := extract.Text(data)
		if err != nil {
			fmt.Printf("  skip %s: %v\n", path, err)
			failed++
			continue
		}

		result, err := pipeline.Ingest(ctx, ingest.Document{
			Text:     text,
			Filename: filepath.Base(path),
			Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Category: syncCategory,
			Source:   fetcher.Source(),
		})
		if err != nil {
			fmt.Printf("  skip %s: %v\n", path, err)
			failed++
			continue
		}

		ingested++
		chunks += result.ChunksProcessed
	}

	fmt.Println()
	fmt.Println("Sync complete!")
	fmt.Printf("  Documents: %d/%d\n", ingested, len(paths))
	fmt.Printf("  Chunks: %d\n", chunks)
	if failed > 0 {
		fmt.Printf("  Failed: %d\n", failed)
	}
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))
	return nil
}

// ingestFile extracts a local file and runs it through the pipeline.
func ingestFile(ctx context.Context, pipeline *ingest.Pipeline, path, title, category, source string) (*ingest.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = extract.PDF(data)
	case ".md", ".txt":
		text, err = extract.Text(data)
	default:
		return nil, errors.New("unsupported file type (want .pdf, .md, or .txt)")
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return pipeline.Ingest(ctx, ingest.Document{
		Text:     text,
		Filename: filepath.Base(path),
		Title:    title,
		Category: category,
		Source:   source,
	})
}

// buildComponents wires the embedder and storage from environment config.
func buildComponents(ctx context.Context) (embedding.Embedder, *storage.QdrantStorage, error) {
	provider := getEnv("EMBEDDING_PROVIDER", "gemini")

	apiKey := os.Getenv("GEMINI_API_KEY")
	if provider == "openai" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	embedder, err := embedding.New(ctx, provider, apiKey)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}

	store, err := storage.NewQdrantStorage(storage.Config{
		Host:       getEnv("QDRANT_HOST", "localhost"),
		Port:       getEnvInt("QDRANT_PORT", 6334),
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		Collection: getEnv("QDRANT_COLLECTION", storage.DefaultCollection),
		Dimension:  embedder.Dimension(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to Qdrant: %w", err)
	}

	return embedder, store, nil
}

// buildPipeline wires a ready-to-use ingestion pipeline.
func buildPipeline(ctx context.Context) (*ingest.Pipeline, *storage.QdrantStorage, error) {
	embedder, store, err := buildComponents(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ensure collection: %w", err)
	}

	provider := getEnv("EMBEDDING_PROVIDER", "gemini")
	return ingest.NewPipeline(embedder, store, provider, 0, -1, slog.Default()), store, nil
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
