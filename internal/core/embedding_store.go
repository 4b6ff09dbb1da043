// ABOUTME: EmbeddingStore loads the catalog's embedding matrix into an immutable snapshot
// ABOUTME: SnapshotHolder swaps whole snapshots atomically so readers never lock
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harper/partfinder/internal/models"
)

// RowSource yields catalog rows that carry an embedding payload
type RowSource interface {
	FetchAllWithEmbeddings(ctx context.Context) ([]models.ProductRow, error)
}

// SnapshotOptions controls how rows are decoded
type SnapshotOptions struct {
	// Dimension pins the vector length; 0 infers it from the first valid row
	Dimension int
}

// Snapshot is a read-only embedding matrix aligned with its products.
// Products[i] is described by Vectors[i].
type Snapshot struct {
	Products []models.Product
	Vectors  [][]float64
	Dim      int
	LoadedAt time.Time
	Skipped  int

	bySKU map[string]int
}

// LoadSnapshot decodes every row from source into a new snapshot.
// Rows that fail to decode are logged and skipped.
func LoadSnapshot(ctx context.Context, source RowSource, opts SnapshotOptions) (*Snapshot, error) {
	rows, err := source.FetchAllWithEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embedded products: %w", err)
	}

	snap := &Snapshot{
		Products: make([]models.Product, 0, len(rows)),
		Vectors:  make([][]float64, 0, len(rows)),
		Dim:      opts.Dimension,
		bySKU:    make(map[string]int, len(rows)),
	}

	for _, row := range rows {
		if len(row.EmbeddingPayload) == 0 {
			continue
		}

		vector, err := models.DecodeVector(row.EmbeddingPayload)
		if err != nil {
			log.Printf("[Snapshot] Skipping %s: %v", row.Product.SKU, err)
			snap.Skipped++
			continue
		}
		if snap.Dim == 0 {
			snap.Dim = len(vector)
		}
		if len(vector) != snap.Dim {
			log.Printf("[Snapshot] Skipping %s: dimension %d, expected %d", row.Product.SKU, len(vector), snap.Dim)
			snap.Skipped++
			continue
		}
		if _, dup := snap.bySKU[row.Product.SKU]; dup {
			log.Printf("[Snapshot] Skipping duplicate SKU %s", row.Product.SKU)
			snap.Skipped++
			continue
		}

		product := row.Product
		product.Embedding = vector
		snap.bySKU[product.SKU] = len(snap.Products)
		snap.Products = append(snap.Products, product)
		snap.Vectors = append(snap.Vectors, vector)
	}

	if len(snap.Products) == 0 {
		return nil, ErrStoreEmpty
	}

	snap.LoadedAt = time.Now()
	return snap, nil
}

// NewSnapshot builds a snapshot from already decoded products.
// Each product's Embedding becomes its row; products without one are dropped.
func NewSnapshot(products []models.Product) (*Snapshot, error) {
	snap := &Snapshot{bySKU: make(map[string]int, len(products))}
	for _, p := range products {
		if len(p.Embedding) == 0 {
			continue
		}
		if snap.Dim == 0 {
			snap.Dim = len(p.Embedding)
		}
		if len(p.Embedding) != snap.Dim {
			return nil, &DimensionMismatchError{Expected: snap.Dim, Got: len(p.Embedding)}
		}
		snap.bySKU[p.SKU] = len(snap.Products)
		snap.Products = append(snap.Products, p)
		snap.Vectors = append(snap.Vectors, p.Embedding)
	}
	if len(snap.Products) == 0 {
		return nil, ErrStoreEmpty
	}
	snap.LoadedAt = time.Now()
	return snap, nil
}

// Len returns the number of embedded products
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Products)
}

// Rank returns the topK products closest to query
func (s *Snapshot) Rank(query []float64, topK int) []models.ScoredProduct {
	if s == nil {
		return []models.ScoredProduct{}
	}

	hits := Rank(query, s.Vectors, topK)
	results := make([]models.ScoredProduct, len(hits))
	for i, h := range hits {
		results[i] = models.ScoredProduct{Product: s.Products[h.Index], Similarity: h.Score}
	}
	return results
}

// Product looks up an embedded product by SKU (case-insensitive)
func (s *Snapshot) Product(sku string) (models.Product, bool) {
	if s == nil {
		return models.Product{}, false
	}
	idx, ok := s.bySKU[sku]
	if !ok {
		idx, ok = s.bySKU[strings.ToUpper(sku)]
	}
	if !ok {
		return models.Product{}, false
	}
	return s.Products[idx], true
}

// SnapshotHolder owns the current snapshot.
// Reloads are serialized; reads are a single atomic load.
type SnapshotHolder struct {
	source RowSource
	opts   SnapshotOptions

	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewSnapshotHolder creates an empty holder; call Reload to populate it
func NewSnapshotHolder(source RowSource, opts SnapshotOptions) *SnapshotHolder {
	return &SnapshotHolder{source: source, opts: opts}
}

// NewStaticHolder wraps an already loaded snapshot
func NewStaticHolder(snap *Snapshot) *SnapshotHolder {
	h := &SnapshotHolder{}
	h.current.Store(snap)
	return h
}

// Current returns the active snapshot, or nil before the first successful load
func (h *SnapshotHolder) Current() *Snapshot {
	return h.current.Load()
}

// Reload builds a fresh snapshot and swaps it in.
// On failure the previous snapshot stays active.
func (h *SnapshotHolder) Reload(ctx context.Context) (*Snapshot, error) {
	if h.source == nil {
		return nil, errors.New("snapshot holder has no row source")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap, err := LoadSnapshot(ctx, h.source, h.opts)
	if err != nil {
		return nil, err
	}

	h.current.Store(snap)
	log.Printf("[Snapshot] Loaded %d products (dim=%d, skipped=%d)", snap.Len(), snap.Dim, snap.Skipped)
	return snap, nil
}
