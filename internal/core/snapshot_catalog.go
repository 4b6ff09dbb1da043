// ABOUTME: SnapshotCatalog serves catalog reads from the loaded snapshot
// ABOUTME: Used when no live catalog is available and by tests
package core

import (
	"context"
	"strings"

	"github.com/harper/partfinder/internal/models"
)

// SnapshotCatalog implements Catalog over a SnapshotHolder
type SnapshotCatalog struct {
	holder *SnapshotHolder
}

// NewSnapshotCatalog creates a catalog view of holder's current snapshot
func NewSnapshotCatalog(holder *SnapshotHolder) *SnapshotCatalog {
	return &SnapshotCatalog{holder: holder}
}

// FetchAllWithEmbeddings re-encodes the snapshot's vectors
func (c *SnapshotCatalog) FetchAllWithEmbeddings(ctx context.Context) ([]models.ProductRow, error) {
	snap := c.holder.Current()
	if snap == nil {
		return nil, ErrStoreEmpty
	}

	rows := make([]models.ProductRow, len(snap.Products))
	for i, p := range snap.Products {
		rows[i] = models.ProductRow{Product: p, EmbeddingPayload: models.EncodeVector(snap.Vectors[i])}
	}
	return rows, nil
}

// FetchBySKUs returns matching products in request order
func (c *SnapshotCatalog) FetchBySKUs(ctx context.Context, skus []string) ([]models.Product, error) {
	snap := c.holder.Current()
	if snap == nil {
		return nil, ErrStoreEmpty
	}

	products := make([]models.Product, 0, len(skus))
	for _, sku := range skus {
		if p, ok := snap.Product(strings.TrimSpace(sku)); ok {
			products = append(products, p)
		}
	}
	return products, nil
}

// FetchCandidates scans the snapshot with filter
func (c *SnapshotCatalog) FetchCandidates(ctx context.Context, filter CandidateFilter) ([]models.Product, error) {
	snap := c.holder.Current()
	if snap == nil {
		return nil, ErrStoreEmpty
	}

	var products []models.Product
	for _, p := range snap.Products {
		if filter.Matches(p) {
			products = append(products, p)
		}
	}
	return products, nil
}
