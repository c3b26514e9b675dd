package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedEmbedder fails embedding for chunk ordinals listed in failAt.
type scriptedEmbedder struct {
	calls  int
	failAt map[int]bool
}

func (f *scriptedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	i := f.calls
	f.calls++
	if f.failAt[i] {
		return nil, errors.New("provider unavailable")
	}
	return []float32{float32(i), 1}, nil
}

type captureStore struct {
	ids        []string
	documents  []string
	embeddings [][]float32
	metadatas  []map[string]any
	err        error
	addCalls   int
}

func (c *captureStore) Add(ctx context.Context, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]any) error {
	c.addCalls++
	c.ids = ids
	c.documents = documents
	c.embeddings = embeddings
	c.metadatas = metadatas
	return c.err
}

// fiveChunkText produces a document that chunks into exactly five pieces
// with size 100 / overlap 20 (unbroken text, raw cuts every 100 bytes,
// windows starting at 0, 80, 160, 240, 320).
func fiveChunkText() string {
	return strings.Repeat("x", 420)
}

func TestIngest_StoresAllChunksInOneBatch(t *testing.T) {
	store := &captureStore{}
	p := NewPipeline(&scriptedEmbedder{}, store, "gemini", 100, 20, nil)

	result, err := p.Ingest(context.Background(), Document{
		Text:     fiveChunkText(),
		Filename: "budget.pdf",
		Title:    "Budget",
		Category: "finance",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.addCalls)
	assert.Equal(t, 5, result.ChunksProcessed)
	assert.Equal(t, 420, result.TotalTextLength)
	assert.Len(t, store.ids, 5)
	assert.Len(t, store.embeddings, 5)

	for i, id := range store.ids {
		assert.Equal(t, fmt.Sprintf("%s_chunk_%d", result.DocumentID, i), id)
	}

	meta := store.metadatas[0]
	assert.Equal(t, result.DocumentID, meta["document_id"])
	assert.Equal(t, "budget.pdf", meta["filename"])
	assert.Equal(t, "finance", meta["category"])
	assert.Equal(t, 420, meta["total_length"])
	assert.Equal(t, 5, meta["total_chunks"])
	assert.Equal(t, "gemini", meta["embedder"])
	assert.NotEmpty(t, meta["upload_timestamp"])
}

func TestIngest_SkipsFailedChunks(t *testing.T) {
	embedder := &scriptedEmbedder{failAt: map[int]bool{1: true, 3: true}}
	store := &captureStore{}
	p := NewPipeline(embedder, store, "gemini", 100, 20, nil)

	result, err := p.Ingest(context.Background(), Document{Text: fiveChunkText()})
	require.NoError(t, err)

	assert.Equal(t, 3, result.ChunksProcessed)
	assert.Len(t, store.ids, 3)

	// Ordinals in ids reflect the original chunk positions.
	assert.True(t, strings.HasSuffix(store.ids[0], "_chunk_0"))
	assert.True(t, strings.HasSuffix(store.ids[1], "_chunk_2"))
	assert.True(t, strings.HasSuffix(store.ids[2], "_chunk_4"))
}

func TestIngest_FailsWhenNoChunkSurvives(t *testing.T) {
	embedder := &scriptedEmbedder{failAt: map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}}
	store := &captureStore{}
	p := NewPipeline(embedder, store, "gemini", 100, 20, nil)

	_, err := p.Ingest(context.Background(), Document{Text: fiveChunkText()})

	assert.ErrorIs(t, err, ErrAllChunksFailed)
	assert.Zero(t, store.addCalls, "nothing should be stored")
}

func TestIngest_RejectsEmptyDocument(t *testing.T) {
	p := NewPipeline(&scriptedEmbedder{}, &captureStore{}, "gemini", 0, -1, nil)

	_, err := p.Ingest(context.Background(), Document{Text: ""})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIngest_PropagatesStoreError(t *testing.T) {
	store := &captureStore{err: errors.New("qdrant down")}
	p := NewPipeline(&scriptedEmbedder{}, store, "gemini", 100, 20, nil)

	_, err := p.Ingest(context.Background(), Document{Text: fiveChunkText()})
	assert.ErrorContains(t, err, "qdrant down")
}

func TestIngest_ThreeChunksFor2500ByteDocument(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 36; i++ {
		fmt.Fprintf(&b, "Clause %03d obliges the ministry to publish procurement data. ", i)
	}
	text := b.String() // 36 x 61 = 2196... padded below to ~2500
	text += strings.Repeat("Public records remain open for inspection. ", 8)

	store := &captureStore{}
	p := NewPipeline(&scriptedEmbedder{}, store, "gemini", 1000, 200, nil)

	result, err := p.Ingest(context.Background(), Document{Text: text})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksProcessed)
}
