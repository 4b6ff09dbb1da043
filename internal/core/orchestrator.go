// ABOUTME: SearchContext runs the full search pipeline for one query
// ABOUTME: Built once at startup and shared read-only across concurrent requests
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harper/partfinder/internal/models"
)

// ErrProductNotFound is returned by Lookup for an unknown SKU
var ErrProductNotFound = errors.New("product not found")

// SearchContextConfig wires the pipeline's collaborators
type SearchContextConfig struct {
	Holder   *SnapshotHolder
	Catalog  Catalog
	Embedder Embedder
	Chat     ChatModel
	Lexicon  *Lexicon

	UpsellCount    int
	UpsellMinRatio float64
	UpsellMaxRatio float64
	Rand           *rand.Rand
}

// SearchOptions narrows ranked results after scoring
type SearchOptions struct {
	Brand       string   `json:"brand,omitempty"`
	Category    string   `json:"category,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	InStockOnly bool     `json:"in_stock_only,omitempty"`
}

// Active reports whether any filter is set
func (o SearchOptions) Active() bool {
	return o.Brand != "" || o.Category != "" || o.MinPrice != nil || o.MaxPrice != nil || o.InStockOnly
}

// Matches reports whether p passes the filters
func (o SearchOptions) Matches(p models.Product) bool {
	if o.Brand != "" && !strings.EqualFold(p.Brand, o.Brand) {
		return false
	}
	if o.Category != "" && !strings.Contains(strings.ToLower(p.Category), strings.ToLower(o.Category)) {
		return false
	}
	price := displayPrice(p)
	if o.MinPrice != nil && price < *o.MinPrice {
		return false
	}
	if o.MaxPrice != nil && price > *o.MaxPrice {
		return false
	}
	if o.InStockOnly && !p.InStock {
		return false
	}
	return true
}

// SearchRequest is one call into the pipeline
type SearchRequest struct {
	Query   string
	History []models.ChatMessage
	TopK    int
	Options SearchOptions
}

// HealthReport describes the pipeline's readiness
type HealthReport struct {
	Ready              bool      `json:"ready"`
	ProductCount       int       `json:"product_count"`
	Dimension          int       `json:"dimension"`
	Skipped            int       `json:"skipped"`
	LoadedAt           time.Time `json:"loaded_at,omitzero"`
	EmbedderConfigured bool      `json:"embedder_configured"`
	ChatConfigured     bool      `json:"chat_configured"`
}

// SearchContext holds the pipeline's shared, read-only handles
type SearchContext struct {
	holder   *SnapshotHolder
	catalog  Catalog
	parser   *IntentParser
	embedder *QueryEmbedder
	upsells  *UpsellSelector
	composer *ResponseComposer

	upsellCount int
	hasEmbedder bool
	hasChat     bool
}

// NewSearchContext validates cfg and builds the pipeline
func NewSearchContext(cfg SearchContextConfig) (*SearchContext, error) {
	if cfg.Holder == nil {
		return nil, errors.New("snapshot holder is required")
	}
	if cfg.UpsellCount < 0 {
		return nil, fmt.Errorf("upsell count must be >= 0, got %d", cfg.UpsellCount)
	}
	if cfg.UpsellMinRatio == 0 && cfg.UpsellMaxRatio == 0 {
		cfg.UpsellMinRatio, cfg.UpsellMaxRatio = 0.5, 1.5
	}
	if cfg.UpsellMinRatio <= 0 || cfg.UpsellMaxRatio < cfg.UpsellMinRatio {
		return nil, fmt.Errorf("invalid upsell price band [%g, %g]", cfg.UpsellMinRatio, cfg.UpsellMaxRatio)
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = NewSnapshotCatalog(cfg.Holder)
	}

	return &SearchContext{
		holder:      cfg.Holder,
		catalog:     catalog,
		parser:      NewIntentParser(cfg.Chat, cfg.Lexicon),
		embedder:    NewQueryEmbedder(cfg.Embedder),
		upsells:     NewUpsellSelector(cfg.UpsellMinRatio, cfg.UpsellMaxRatio, cfg.Rand),
		composer:    NewResponseComposer(cfg.Chat),
		upsellCount: cfg.UpsellCount,
		hasEmbedder: cfg.Embedder != nil,
		hasChat:     cfg.Chat != nil,
	}, nil
}

// Handle runs the pipeline without filters
func (s *SearchContext) Handle(ctx context.Context, query string, history []models.ChatMessage, topK int) (models.SearchResultBundle, error) {
	return s.HandleWithOptions(ctx, SearchRequest{Query: query, History: history, TopK: topK})
}

// HandleWithOptions runs parse, embed, rank, upsell and compose.
// Only embedding and an empty store fail the call; everything else degrades.
func (s *SearchContext) HandleWithOptions(ctx context.Context, req SearchRequest) (models.SearchResultBundle, error) {
	start := time.Now()
	requestID := uuid.New().String()
	query := strings.TrimSpace(req.Query)

	if query == "" {
		return models.SearchResultBundle{}, &SearchError{Kind: KindInvalidRequest, Err: errors.New("query cannot be empty")}
	}
	if req.TopK < 1 {
		return models.SearchResultBundle{}, &SearchError{Kind: KindInvalidRequest, Err: fmt.Errorf("top_k must be >= 1, got %d", req.TopK)}
	}
	if req.Options.MinPrice != nil && req.Options.MaxPrice != nil && *req.Options.MinPrice > *req.Options.MaxPrice {
		return models.SearchResultBundle{}, &SearchError{Kind: KindInvalidRequest, Err: errors.New("min_price cannot exceed max_price")}
	}

	snap := s.holder.Current()
	if snap.Len() == 0 {
		return models.SearchResultBundle{}, &SearchError{Kind: KindSearchUnavailable, Err: ErrStoreEmpty}
	}

	parsed := s.parser.Parse(ctx, query)
	if parsed.Outcome == OutcomeDegraded {
		log.Printf("[Search %s] Intent parse degraded: %v", requestID, parsed.Cause)
	}

	vector, err := s.embedder.Embed(ctx, query, snap.Dim)
	if err != nil {
		log.Printf("[Search %s] Embedding failed: %v", requestID, err)
		return models.SearchResultBundle{}, &SearchError{Kind: KindSearchUnavailable, Err: err}
	}

	var ranked []models.ScoredProduct
	if req.Options.Active() {
		ranked = filterRanked(snap.Rank(vector, snap.Len()), req.Options, req.TopK)
	} else {
		ranked = snap.Rank(vector, req.TopK)
	}

	upsells, err := s.upsells.Select(ctx, ranked, s.catalog, s.upsellCount)
	if err != nil {
		log.Printf("[Search %s] Upsell selection failed: %v", requestID, err)
		upsells = []models.UpsellCandidate{}
	}

	narrative := s.composer.Compose(ctx, ComposeInput{
		Query:    query,
		Intent:   parsed.Intent,
		Products: ranked,
		Upsells:  upsells,
		History:  req.History,
	})

	bundle := models.SearchResultBundle{
		RequestID:           requestID,
		Query:               query,
		ParsedIntent:        parsed.Intent,
		RankedProducts:      ranked,
		Upsells:             upsells,
		Narrative:           narrative.Text,
		NarrativeDegraded:   narrative.Outcome == OutcomeDegraded,
		ConversationHistory: models.AppendTurn(req.History, query, narrative.Text),
		Elapsed:             time.Since(start),
	}

	log.Printf("[Search %s] %d results, %d upsells in %s (intent=%s, narrative=%s)",
		requestID, len(ranked), len(upsells), bundle.Elapsed.Round(time.Millisecond), parsed.Outcome, narrative.Outcome)
	return bundle, nil
}

// Lookup returns one product by SKU
func (s *SearchContext) Lookup(ctx context.Context, sku string) (models.Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return models.Product{}, &SearchError{Kind: KindInvalidRequest, Err: errors.New("sku cannot be empty")}
	}

	products, err := s.catalog.FetchBySKUs(ctx, []string{sku})
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to fetch product %s: %w", sku, err)
	}
	for _, p := range products {
		if strings.EqualFold(p.SKU, sku) {
			return p, nil
		}
	}
	return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, sku)
}

// Compare fetches the given SKUs and describes their differences.
// Unknown SKUs are skipped.
func (s *SearchContext) Compare(ctx context.Context, skus []string) ([]models.Product, NarrativeResult, error) {
	if len(skus) < 2 {
		return nil, NarrativeResult{}, &SearchError{Kind: KindInvalidRequest, Err: errors.New("compare needs at least two SKUs")}
	}

	normalized := make([]string, 0, len(skus))
	for _, sku := range skus {
		if sku = strings.ToUpper(strings.TrimSpace(sku)); sku != "" {
			normalized = append(normalized, sku)
		}
	}

	products, err := s.catalog.FetchBySKUs(ctx, normalized)
	if err != nil {
		return nil, NarrativeResult{}, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, s.composer.Compare(ctx, products), nil
}

// Health reports the state of the snapshot and model clients
func (s *SearchContext) Health() HealthReport {
	snap := s.holder.Current()
	report := HealthReport{
		EmbedderConfigured: s.hasEmbedder,
		ChatConfigured:     s.hasChat,
	}
	if snap != nil {
		report.Ready = snap.Len() > 0 && s.hasEmbedder
		report.ProductCount = snap.Len()
		report.Dimension = snap.Dim
		report.Skipped = snap.Skipped
		report.LoadedAt = snap.LoadedAt
	}
	return report
}

// Reload swaps in a fresh snapshot
func (s *SearchContext) Reload(ctx context.Context) (HealthReport, error) {
	if _, err := s.holder.Reload(ctx); err != nil {
		return s.Health(), fmt.Errorf("failed to reload snapshot: %w", err)
	}
	return s.Health(), nil
}

func filterRanked(ranked []models.ScoredProduct, opts SearchOptions, topK int) []models.ScoredProduct {
	out := make([]models.ScoredProduct, 0, topK)
	for _, p := range ranked {
		if !opts.Matches(p.Product) {
			continue
		}
		out = append(out, p)
		if len(out) == topK {
			break
		}
	}
	return out
}
