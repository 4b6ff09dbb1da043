// ABOUTME: UpsellSelector picks complementary in-stock products for the top match
// ABOUTME: Relaxes brand+category to brand-only to unconstrained, sampling randomly
package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/harper/partfinder/internal/models"
)

// CandidateFilter is the deterministic upsell predicate.
// Empty strings and a false HasPriceBand disable their constraint.
type CandidateFilter struct {
	ExcludeSKUs     map[string]struct{}
	Brand           string
	ExcludeCategory string
	HasPriceBand    bool
	MinPrice        float64
	MaxPrice        float64
	InStockOnly     bool
}

// Matches reports whether p satisfies every constraint
func (f CandidateFilter) Matches(p models.Product) bool {
	if _, excluded := f.ExcludeSKUs[p.SKU]; excluded {
		return false
	}
	if f.InStockOnly && !p.InStock {
		return false
	}
	if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
		return false
	}
	if f.ExcludeCategory != "" && strings.EqualFold(p.Category, f.ExcludeCategory) {
		return false
	}
	if f.HasPriceBand && (p.SalePrice < f.MinPrice || p.SalePrice > f.MaxPrice) {
		return false
	}
	return true
}

// ExcludedSKUs returns the excluded set as a slice
func (f CandidateFilter) ExcludedSKUs() []string {
	skus := make([]string, 0, len(f.ExcludeSKUs))
	for sku := range f.ExcludeSKUs {
		skus = append(skus, sku)
	}
	return skus
}

// UpsellSelector chooses cross-sell products
type UpsellSelector struct {
	minRatio float64
	maxRatio float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUpsellSelector creates a selector with a price band of [minRatio, maxRatio]
// times the anchor price. A nil rng seeds from the clock.
func NewUpsellSelector(minRatio, maxRatio float64, rng *rand.Rand) *UpsellSelector {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &UpsellSelector{minRatio: minRatio, maxRatio: maxRatio, rng: rng}
}

// Tiers returns the filters tried in order for the given primary results
func (u *UpsellSelector) Tiers(primary []models.ScoredProduct) []CandidateFilter {
	if len(primary) == 0 {
		return nil
	}

	anchor := primary[0]
	base := CandidateFilter{
		ExcludeSKUs: models.SKUSet(primary),
		InStockOnly: true,
	}
	if anchor.SalePrice > 0 {
		base.HasPriceBand = true
		base.MinPrice = anchor.SalePrice * u.minRatio
		base.MaxPrice = anchor.SalePrice * u.maxRatio
	}

	brand := strings.TrimSpace(anchor.Brand)
	category := strings.TrimSpace(anchor.Category)

	var tiers []CandidateFilter
	if brand != "" && category != "" {
		f := base
		f.Brand = brand
		f.ExcludeCategory = category
		tiers = append(tiers, f)
	}
	if brand != "" {
		f := base
		f.Brand = brand
		tiers = append(tiers, f)
	}
	tiers = append(tiers, base)
	return tiers
}

// Select returns up to count upsells that never repeat a primary SKU
func (u *UpsellSelector) Select(ctx context.Context, primary []models.ScoredProduct, catalog Catalog, count int) ([]models.UpsellCandidate, error) {
	if len(primary) == 0 || count < 1 || catalog == nil {
		return []models.UpsellCandidate{}, nil
	}

	for _, filter := range u.Tiers(primary) {
		found, err := catalog.FetchCandidates(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch upsell candidates: %w", err)
		}

		pool := make([]models.Product, 0, len(found))
		seen := make(map[string]struct{}, len(found))
		for _, p := range found {
			if _, dup := seen[p.SKU]; dup || !filter.Matches(p) {
				continue
			}
			seen[p.SKU] = struct{}{}
			pool = append(pool, p)
		}
		if len(pool) == 0 {
			continue
		}

		return u.sample(pool, count), nil
	}

	return []models.UpsellCandidate{}, nil
}

func (u *UpsellSelector) sample(pool []models.Product, count int) []models.UpsellCandidate {
	u.mu.Lock()
	u.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	u.mu.Unlock()

	if count > len(pool) {
		count = len(pool)
	}
	out := make([]models.UpsellCandidate, count)
	for i := range out {
		out[i] = models.UpsellCandidate{Product: pool[i]}
	}
	return out
}
