package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendAndGet(t *testing.T) {
	store := NewStore(5)

	store.Append("s1", "User: hello")
	store.Append("s1", "Assistant: hi")

	lines := store.Get("s1")
	require.Len(t, lines, 2)
	assert.Equal(t, "User: hello", lines[0])
	assert.Equal(t, "Assistant: hi", lines[1])
}

func TestStore_EvictsOldestBeyondLimit(t *testing.T) {
	store := NewStore(5)

	for i := 0; i < 9; i++ {
		store.Append("s1", fmt.Sprintf("line %d", i))
	}

	lines := store.Get("s1")
	require.Len(t, lines, 5)
	assert.Equal(t, "line 4", lines[0])
	assert.Equal(t, "line 8", lines[4])
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	store := NewStore(5)

	store.Append("a", "from a")
	store.Append("b", "from b")

	assert.Equal(t, []string{"from a"}, store.Get("a"))
	assert.Equal(t, []string{"from b"}, store.Get("b"))
	assert.Empty(t, store.Get("c"))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := NewStore(5)
	store.Append("s1", "original")

	lines := store.Get("s1")
	lines[0] = "mutated"

	assert.Equal(t, []string{"original"}, store.Get("s1"))
}

func TestStore_ConcurrentAppends(t *testing.T) {
	store := NewStore(5)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			key := fmt.Sprintf("session-%d", w%2)
			for i := 0; i < 100; i++ {
				store.Append(key, fmt.Sprintf("w%d line %d", w, i))
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, store.Get("session-0"), 5)
	assert.Len(t, store.Get("session-1"), 5)
}
