package generator

import (
	"context"
	"fmt"
	"log/slog"
)

// apologyPrefix opens every degraded answer. Kept stable so clients and
// tests can recognize the failure path.
const apologyPrefix = "Sorry, I encountered an error while processing your request: "

// Answerer wraps a Generator with the chat endpoint's failure policy:
// every provider failure becomes a successful, human-readable answer, so
// the conversational contract is never broken by a transport error.
type Answerer struct {
	generator Generator
	logger    *slog.Logger
}

// NewAnswerer creates an answerer over the given generator.
func NewAnswerer(g Generator, logger *slog.Logger) *Answerer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{generator: g, logger: logger}
}

// Answer generates a reply for the prompt. Provider failures are mapped to
// an apology answer instead of an error.
func (a *Answerer) Answer(ctx context.Context, p string) string {
	text, err := a.generator.Generate(ctx, p)
	if err != nil {
		return a.Apology(err)
	}
	return text
}

// Apology converts a provider failure into the degraded answer text. This
// is the single place where errors become user-visible prose.
func (a *Answerer) Apology(err error) string {
	a.logger.Warn("degrading provider failure to text answer", "error", err)
	return fmt.Sprintf("%s%v", apologyPrefix, err)
}
