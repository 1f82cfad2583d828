package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(0)
	assert.Equal(t, "hash", e.Name())

	vecs, err := e.Embed(context.Background(), []string{
		"Enterprise pricing per month",
		"enterprise PRICING, per month!",
		"The office opens at nine",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 4)

	for _, v := range vecs[:3] {
		assert.Len(t, v, DefaultHashDimensions)
		assert.InDelta(t, 1.0, math.Sqrt(dot(v, v)), 1e-5)
	}
	assert.Equal(t, vecs[0], vecs[1])
	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
	assert.Zero(t, dot(vecs[3], vecs[3]))
}

func TestHashEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashEmbedder(8).Embed(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}
