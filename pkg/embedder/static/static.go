// Package static provides a deterministic, offline embedder.Provider.
//
// Vectors are derived from a hash of the input text, so the same text
// always embeds to the same unit vector without any network dependency.
// The vectors carry no semantic meaning; the provider exists for tests,
// examples, and environments where a real embedding API is unavailable
// but the retrieval pipeline still needs to run end to end.
package static

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Provider implements embedder.Provider with hash-derived vectors.
type Provider struct {
	dimensions int
}

// NewProvider creates a static provider producing vectors of the given
// dimension. A non-positive dimension defaults to 384.
func NewProvider(dimensions int) *Provider {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &Provider{dimensions: dimensions}
}

// Embed returns the deterministic unit vector for the text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, p.dimensions)

	// Seed a simple counter-mode PRNG from the text hash so every
	// component is reproducible.
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	var norm float64
	for i := range vec {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], seed+uint64(i))
		g := fnv.New64a()
		g.Write(buf[:])
		v := float64(int64(g.Sum64()))/math.MaxInt64 - 0.5
		vec[i] = v
		norm += v * v
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec, nil
}

// EmbedBatch embeds each text independently.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	embeddings := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

// Dimensions returns the vector dimension.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
