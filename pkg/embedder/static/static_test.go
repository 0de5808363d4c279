package static_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopack/memopack-go/pkg/embedder/static"
)

func TestEmbedDeterministic(t *testing.T) {
	p := static.NewProvider(64)

	a, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := p.Embed(context.Background(), "goodbye")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestEmbedUnitNorm(t *testing.T) {
	p := static.NewProvider(128)

	vec, err := p.Embed(context.Background(), "some text")
	require.NoError(t, err)
	require.Len(t, vec, 128)

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedBatch(t *testing.T) {
	p := static.NewProvider(0)
	assert.Equal(t, 384, p.Dimensions())

	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := p.Embed(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])

	assert.NoError(t, p.Close())
}
