package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const DefaultHashDimensions = 256

// HashEmbedder is an offline embedder using signed feature hashing of word
// unigrams and bigrams. Vectors are L2 normalized.
type HashEmbedder struct {
	dims int
}

func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Name() string { return "hash" }

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	tokens := tokenize(text)
	for i, tok := range tokens {
		e.add(v, tok, 1)
		if i > 0 {
			e.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (e *HashEmbedder) add(v []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dims))
	// top bit picks the sign so unrelated collisions tend to cancel
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
