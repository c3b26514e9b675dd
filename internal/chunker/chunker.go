// Package chunker splits raw document text into overlapping,
// boundary-aware segments sized for embedding.
package chunker

import "strings"

const (
	// DefaultChunkSize is the target window size in bytes.
	DefaultChunkSize = 1000

	// DefaultOverlap is how many bytes consecutive chunks share.
	DefaultOverlap = 200
)

// Chunk splits text into overlapping segments of at most size bytes.
// Each window is shrunk to the last sentence boundary (". ") inside it
// when one exists past the window start, else to the last space, else cut
// at size. Chunks are trimmed of surrounding whitespace; empty ones are
// dropped. The start position strictly increases every iteration, so the
// loop terminates for any input and any overlap.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		// A full-window overlap would stall the loop.
		overlap = size - 1
	}

	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			window := text[start:end]
			if i := strings.LastIndex(window, ". "); i > 0 {
				end = start + i + 1 // keep the period
			} else if i := strings.LastIndex(window, " "); i > 0 {
				end = start + i
			}
		}

		if piece := strings.TrimSpace(text[start:end]); piece != "" {
			chunks = append(chunks, piece)
		}

		if end >= len(text) {
			break
		}

		next := end - overlap
		if next <= start {
			// Boundary shrink ate the whole step. Skip the overlap
			// rather than loop forever.
			next = end
		}
		start = next
	}

	return chunks
}
