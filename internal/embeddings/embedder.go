// Package embeddings turns document chunks and questions into vectors.
package embeddings

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmbeddingCount is returned when a backend answers with a different
// number of vectors than texts sent.
var ErrEmbeddingCount = errors.New("embedding count mismatch")

// Embedder produces one vector per input text, in input order. Name is
// "<provider>/<model>" and is stamped on every indexed chunk.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// embedBatched splits texts into runs of at most size and calls embed on
// each, checking that every run comes back complete.
func embedBatched(texts []string, size int, embed func(batch []string) ([][]float32, error)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		batch := texts[start:min(start+size, len(texts))]
		vecs, err := embed(batch)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("%w: got %d, sent %d", ErrEmbeddingCount, len(vecs), len(batch))
		}
		out = append(out, vecs...)
	}
	return out, nil
}
