// ABOUTME: Narrow interfaces the pipeline depends on
// ABOUTME: Model services and the catalog are injected so tests can use stubs
package core

import (
	"context"

	"github.com/harper/partfinder/internal/llm"
	"github.com/harper/partfinder/internal/models"
)

// Embedder turns text into a vector using a fixed model
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChatModel returns a single text completion
type ChatModel interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Catalog is the read-only view of the product catalog
type Catalog interface {
	FetchAllWithEmbeddings(ctx context.Context) ([]models.ProductRow, error)
	FetchBySKUs(ctx context.Context, skus []string) ([]models.Product, error)
	FetchCandidates(ctx context.Context, filter CandidateFilter) ([]models.Product, error)
}
