// ABOUTME: Shared stubs for command tests
// ABOUTME: A scripted pipeline and an in-memory Charm KV

package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
)

type stubPipeline struct {
	requests []core.SearchRequest
	err      error
	products map[string]models.Product
}

func newStubPipeline() *stubPipeline {
	return &stubPipeline{products: map[string]models.Product{
		"W10295370A":  {SKU: "W10295370A", Name: "Whirlpool Water Filter", Brand: "Whirlpool", SalePrice: 49.99, RegularPrice: 59.99, InStock: true},
		"DA29-00020B": {SKU: "DA29-00020B", Name: "Samsung Water Filter", Brand: "Samsung", SalePrice: 44},
	}}
}

func (s *stubPipeline) HandleWithOptions(ctx context.Context, req core.SearchRequest) (models.SearchResultBundle, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return models.SearchResultBundle{}, s.err
	}

	reply := fmt.Sprintf("Reply %d to %s", len(s.requests), req.Query)
	return models.SearchResultBundle{
		RequestID: fmt.Sprintf("req-%d", len(s.requests)),
		Query:     req.Query,
		ParsedIntent: models.ParsedIntent{
			Intent: models.Ptr(models.IntentFindPart),
			Brand:  models.Ptr("Whirlpool"),
		},
		RankedProducts: []models.ScoredProduct{
			{Product: s.products["W10295370A"], Similarity: 0.912},
		},
		Upsells: []models.UpsellCandidate{
			{Product: models.Product{SKU: "W10311524", Name: "Whirlpool Air Filter", SalePrice: 24.5}},
		},
		Narrative:           reply,
		ConversationHistory: models.AppendTurn(req.History, req.Query, reply),
	}, nil
}

func (s *stubPipeline) Lookup(ctx context.Context, sku string) (models.Product, error) {
	p, ok := s.products[strings.ToUpper(sku)]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", core.ErrProductNotFound, sku)
	}
	return p, nil
}

func (s *stubPipeline) Compare(ctx context.Context, skus []string) ([]models.Product, core.NarrativeResult, error) {
	var out []models.Product
	for _, sku := range skus {
		if p, ok := s.products[strings.ToUpper(sku)]; ok {
			out = append(out, p)
		}
	}
	return out, core.NarrativeResult{Text: core.FallbackComparison(out), Outcome: core.OutcomeDegraded}, nil
}

// memKV is an in-memory charm.KV
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("Key not found")
	}
	return v, nil
}

func (m *memKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) ListKeys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
