package storage

// DefaultCollection is the Qdrant collection used when none is configured.
const DefaultCollection = "my_documents"

// SearchResult is one nearest-neighbor match from the collection.
type SearchResult struct {
	// Document is the stored chunk text.
	Document string `json:"document"`

	// Metadata holds every payload field stored alongside the chunk.
	Metadata map[string]any `json:"metadata"`

	// Score is the similarity score reported by Qdrant (cosine, higher
	// is closer).
	Score float32 `json:"score"`
}
