// ABOUTME: CatalogMirror stores the product catalog in Charm KV
// ABOUTME: Push and pull whole catalogs; also serves as a read-only search catalog
package charm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
)

// productRecord is the stored form of one catalog row
type productRecord struct {
	Product   models.Product `json:"product"`
	Embedding []byte         `json:"embedding,omitempty"`
	Order     int            `json:"order"`
}

// Manifest describes the last push
type Manifest struct {
	PushedAt time.Time `json:"pushed_at"`
	Count    int       `json:"count"`
	Embedded int       `json:"embedded"`
}

// PushResult reports what a push changed
type PushResult struct {
	Written int
	Removed int
}

// CatalogMirror reads and writes catalog rows in a KV store
type CatalogMirror struct {
	kv KV
}

// NewCatalogMirror creates a mirror over kv
func NewCatalogMirror(kv KV) *CatalogMirror {
	return &CatalogMirror{kv: kv}
}

// Push replaces the mirrored catalog with rows
func (m *CatalogMirror) Push(ctx context.Context, rows []models.ProductRow) (PushResult, error) {
	var result PushResult
	keep := make(map[string]struct{}, len(rows))
	embedded := 0

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		data, err := json.Marshal(productRecord{Product: row.Product, Embedding: row.EmbeddingPayload, Order: i})
		if err != nil {
			return result, fmt.Errorf("failed to marshal %s: %w", row.Product.SKU, err)
		}
		key := ProductKey(row.Product.SKU)
		if err := m.kv.Set(key, data); err != nil {
			return result, err
		}
		keep[key] = struct{}{}
		result.Written++
		if len(row.EmbeddingPayload) > 0 {
			embedded++
		}
	}

	existing, err := m.kv.ListKeys(ProductPrefix)
	if err != nil {
		return result, err
	}
	for _, key := range existing {
		if _, ok := keep[key]; ok {
			continue
		}
		if err := m.kv.Delete(key); err != nil {
			return result, err
		}
		result.Removed++
	}

	manifest, err := json.Marshal(Manifest{PushedAt: time.Now().UTC(), Count: len(rows), Embedded: embedded})
	if err != nil {
		return result, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := m.kv.Set(ManifestKey, manifest); err != nil {
		return result, err
	}

	log.Printf("[Charm] Pushed %d products, removed %d", result.Written, result.Removed)
	return result, nil
}

// Pull returns every mirrored row in its original catalog order
func (m *CatalogMirror) Pull(ctx context.Context) ([]models.ProductRow, error) {
	keys, err := m.kv.ListKeys(ProductPrefix)
	if err != nil {
		return nil, err
	}

	records := make([]productRecord, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := m.get(key)
		if err != nil {
			log.Printf("[Charm] Skipping %s: %v", key, err)
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Order < records[j].Order })

	rows := make([]models.ProductRow, len(records))
	for i, rec := range records {
		rows[i] = models.ProductRow{Product: rec.Product, EmbeddingPayload: rec.Embedding}
	}
	return rows, nil
}

// Manifest returns the last push manifest, if any
func (m *CatalogMirror) Manifest() (Manifest, bool, error) {
	keys, err := m.kv.ListKeys(ManifestKey)
	if err != nil {
		return Manifest{}, false, err
	}
	if len(keys) == 0 {
		return Manifest{}, false, nil
	}

	data, err := m.kv.Get(ManifestKey)
	if err != nil {
		return Manifest{}, false, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, false, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return manifest, true, nil
}

// FetchAllWithEmbeddings returns mirrored rows that carry an embedding
func (m *CatalogMirror) FetchAllWithEmbeddings(ctx context.Context) ([]models.ProductRow, error) {
	rows, err := m.Pull(ctx)
	if err != nil {
		return nil, err
	}

	embedded := rows[:0]
	for _, row := range rows {
		if len(row.EmbeddingPayload) > 0 {
			embedded = append(embedded, row)
		}
	}
	return embedded, nil
}

// FetchBySKUs returns the requested products in request order
func (m *CatalogMirror) FetchBySKUs(ctx context.Context, skus []string) ([]models.Product, error) {
	keys, err := m.kv.ListKeys(ProductPrefix)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		present[key] = struct{}{}
	}

	products := make([]models.Product, 0, len(skus))
	seen := make(map[string]struct{}, len(skus))
	for _, sku := range skus {
		key := ProductKey(sku)
		if _, ok := present[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		rec, err := m.get(key)
		if err != nil {
			return nil, err
		}
		products = append(products, rec.Product)
	}
	return products, nil
}

// FetchCandidates scans the mirror with filter
func (m *CatalogMirror) FetchCandidates(ctx context.Context, filter core.CandidateFilter) ([]models.Product, error) {
	rows, err := m.Pull(ctx)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	for _, row := range rows {
		if filter.Matches(row.Product) {
			products = append(products, row.Product)
		}
	}
	return products, nil
}

func (m *CatalogMirror) get(key string) (productRecord, error) {
	data, err := m.kv.Get(key)
	if err != nil {
		return productRecord{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	var rec productRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return productRecord{}, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return rec, nil
}
