// ABOUTME: Deterministic stand-ins for the model services and catalog
// ABOUTME: Shared by the pipeline tests in this package
package core

import (
	"context"
	"errors"
	"sync"

	"github.com/harper/partfinder/internal/llm"
	"github.com/harper/partfinder/internal/models"
)

// stubEmbedder returns a fixed vector per text, or def for unknown text
type stubEmbedder struct {
	vectors map[string][]float64
	def     []float64
	err     error

	mu    sync.Mutex
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return s.def, nil
}

// stubChat answers completions through respond and records every request
type stubChat struct {
	respond func(req llm.CompletionRequest) (string, error)

	mu       sync.Mutex
	requests []llm.CompletionRequest
}

func (s *stubChat) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.respond(req)
}

func (s *stubChat) Requests() []llm.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.CompletionRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// chatByPurpose routes intent (JSON mode) and narrative calls to different answers
func chatByPurpose(intent string, intentErr error, narrative string, narrativeErr error) *stubChat {
	return &stubChat{respond: func(req llm.CompletionRequest) (string, error) {
		if req.JSONMode {
			return intent, intentErr
		}
		return narrative, narrativeErr
	}}
}

var errTransport = errors.New("connection reset by peer")

// rowSource is an in-memory RowSource
type rowSource struct {
	rows []models.ProductRow
	err  error
}

func (r *rowSource) FetchAllWithEmbeddings(ctx context.Context) ([]models.ProductRow, error) {
	return r.rows, r.err
}

// memCatalog is a Catalog that returns candidates verbatim, ignoring the filter
type memCatalog struct {
	products []models.Product
	err      error
	filters  []CandidateFilter
}

func (m *memCatalog) FetchAllWithEmbeddings(ctx context.Context) ([]models.ProductRow, error) {
	rows := make([]models.ProductRow, len(m.products))
	for i, p := range m.products {
		rows[i] = models.ProductRow{Product: p, EmbeddingPayload: models.EncodeVector(p.Embedding)}
	}
	return rows, nil
}

func (m *memCatalog) FetchBySKUs(ctx context.Context, skus []string) ([]models.Product, error) {
	var out []models.Product
	for _, sku := range skus {
		for _, p := range m.products {
			if p.SKU == sku {
				out = append(out, p)
			}
		}
	}
	return out, m.err
}

func (m *memCatalog) FetchCandidates(ctx context.Context, filter CandidateFilter) ([]models.Product, error) {
	m.filters = append(m.filters, filter)
	return m.products, m.err
}

func product(sku, name, brand, category string, price float64, inStock bool, embedding ...float64) models.Product {
	return models.Product{
		SKU:          sku,
		Name:         name,
		Brand:        brand,
		Category:     category,
		RegularPrice: price,
		SalePrice:    price,
		InStock:      inStock,
		Embedding:    embedding,
	}
}

// testCatalog is a small appliance-parts catalog with 3-dimensional embeddings
func testCatalog() []models.Product {
	return []models.Product{
		product("W10295370A", "Whirlpool Refrigerator Water Filter", "Whirlpool", "refrigerator", 49.99, true, 1, 0, 0),
		product("W10190961", "Whirlpool Ice Maker Assembly", "Whirlpool", "refrigerator", 89.99, true, 0.6, 0.8, 0),
		product("WPW10348269", "Whirlpool Dishwasher Drain Pump", "Whirlpool", "dishwasher", 54.50, true, 0, 1, 0),
		product("DA29-00020B", "Samsung Refrigerator Water Filter", "Samsung", "refrigerator", 44.00, true, 0.9, 0, 0.1),
		product("WE11X10018", "GE Dryer Drive Belt", "GE", "dryer", 19.95, false, 0, 0, 1),
	}
}

func loadedHolder(products []models.Product) *SnapshotHolder {
	snap, err := NewSnapshot(products)
	if err != nil {
		panic(err)
	}
	return NewStaticHolder(snap)
}
