// ABOUTME: QueryEmbedder converts customer text into a vector comparable to the snapshot
// ABOUTME: No retries here; the transport client owns retry policy
package core

import (
	"context"
	"errors"
	"strings"
)

// QueryEmbedder validates embeddings returned by an Embedder
type QueryEmbedder struct {
	embedder Embedder
}

// NewQueryEmbedder creates a QueryEmbedder
func NewQueryEmbedder(embedder Embedder) *QueryEmbedder {
	return &QueryEmbedder{embedder: embedder}
}

// Embed returns the query vector. dim of 0 skips the dimension check.
func (q *QueryEmbedder) Embed(ctx context.Context, text string, dim int) ([]float64, error) {
	if q.embedder == nil {
		return nil, &EmbeddingUnavailableError{Err: errors.New("no embedder configured")}
	}

	vector, err := q.embedder.Embed(ctx, strings.TrimSpace(text))
	if err != nil {
		return nil, &EmbeddingUnavailableError{Err: err}
	}
	if len(vector) == 0 {
		return nil, &EmbeddingUnavailableError{Err: errors.New("empty embedding returned")}
	}
	if dim > 0 && len(vector) != dim {
		return nil, &DimensionMismatchError{Expected: dim, Got: len(vector)}
	}

	return vector, nil
}
