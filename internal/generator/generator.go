// Package generator produces chat answers from assembled prompts, with a
// degrade-to-text policy for provider failures.
package generator

import "context"

// Generator is a text-in, text-out completion provider.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
