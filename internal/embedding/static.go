package embedding

import (
	"context"
	"fmt"
)

// StaticProvider serves embeddings from a fixed lookup table. It backs
// deterministic tests and offline golden runs where a live model would
// make mapping suggestions unreproducible.
type StaticProvider struct {
	Model   string
	Dims    int
	Vectors map[string][]float32
}

// EmbedBatch returns the table entry for each text, in input order.
// Unknown texts are an error: a static table is exhaustive by intent.
func (p *StaticProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, ok := p.Vectors[text]
		if !ok {
			return nil, fmt.Errorf("%w: no static vector for %q", ErrModelUnavailable, text)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// ModelName returns the configured model name.
func (p *StaticProvider) ModelName() string {
	return p.Model
}

// Dimensions returns the configured vector dimensions.
func (p *StaticProvider) Dimensions() int {
	return p.Dims
}
