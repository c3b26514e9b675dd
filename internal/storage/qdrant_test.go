//go:build integration

package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a local Qdrant on localhost:6334:
//
//	docker run -p 6334:6334 qdrant/qdrant
func newTestStorage(t *testing.T) *QdrantStorage {
	t.Helper()

	store, err := NewQdrantStorage(Config{
		Host:       "localhost",
		Port:       6334,
		Collection: "test_documents",
		Dimension:  4,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.ClearCollection(context.Background()))
	return store
}

func TestQdrantStorage_AddAndQuery(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	ids := []string{"doc1_chunk_0", "doc1_chunk_1", "doc2_chunk_0"}
	documents := []string{"budget policy", "election law", "land registry"}
	embeddings := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
	metadatas := []map[string]any{
		{"document_id": "doc1", "chunk_index": 0},
		{"document_id": "doc1", "chunk_index": 1},
		{"document_id": "doc2", "chunk_index": 0},
	}

	require.NoError(t, store.Add(ctx, ids, documents, embeddings, metadatas))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	results, err := store.Query(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "budget policy", results[0].Document)
	assert.Equal(t, "doc1_chunk_0", results[0].Metadata["chunk_id"])
	assert.Equal(t, "doc1", results[0].Metadata["document_id"])
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestQdrantStorage_QueryEmptyCollection(t *testing.T) {
	store := newTestStorage(t)

	results, err := store.Query(context.Background(), []float32{0, 0, 0, 1}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQdrantStorage_AddLengthMismatch(t *testing.T) {
	store := newTestStorage(t)

	err := store.Add(context.Background(),
		[]string{"a", "b"},
		[]string{"only one"},
		[][]float32{{1, 0, 0, 0}},
		[]map[string]any{{}},
	)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestQdrantStorage_DimensionMismatch(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.Query(context.Background(), []float32{1, 0}, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestQdrantStorage_AddOverwritesSameID(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		text := fmt.Sprintf("revision %d", i)
		require.NoError(t, store.Add(ctx,
			[]string{"doc3_chunk_0"},
			[]string{text},
			[][]float32{{0, 0, 0, 1}},
			[]map[string]any{{"document_id": "doc3"}},
		))
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	results, err := store.Query(ctx, []float32{0, 0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "revision 1", results[0].Document)
}
