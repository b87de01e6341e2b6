package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// MockEmbedder is an offline embedder that hashes lowercase word tokens into a
// fixed number of buckets. Comments sharing words land close together, which
// is enough for the topic model to form meaningful clusters in tests and demos.
type MockEmbedder struct {
	dim int
}

// NewMockEmbedder creates a new mock embedder with the specified dimension.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{dim: dim}
}

// Dimension returns the embedding dimension.
func (e *MockEmbedder) Dimension() int {
	return e.dim
}

// EmbedBatch embeds every text independently.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result[i] = e.embed(text)
	}
	return result, nil
}

func (e *MockEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[int(h.Sum32()%uint32(e.dim))] += 1
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v * v)
	}
	if norm := float32(math.Sqrt(sum)); norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
