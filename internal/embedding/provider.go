// Package embedding provides vector embedding generation for text.
package embedding

import (
	"context"
	"errors"
)

// ErrModelUnavailable indicates the embedding backend could not be
// reached or initialized. Callers treat this as a degraded mode:
// column mapping falls back to manual assignment.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Provider generates embeddings from text.
type Provider interface {
	// EmbedBatch generates one embedding per input text, in input
	// order. An empty input yields an empty (non-nil error free)
	// result.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
