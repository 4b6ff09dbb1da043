// ABOUTME: Tests for MCP tool handlers against a stub pipeline
// ABOUTME: Checks argument parsing, error mapping and JSON responses
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

type stubPipeline struct {
	lastRequest core.SearchRequest
	searchErr   error
	products    map[string]models.Product
	reloadErr   error
}

func (s *stubPipeline) HandleWithOptions(ctx context.Context, req core.SearchRequest) (models.SearchResultBundle, error) {
	s.lastRequest = req
	if s.searchErr != nil {
		return models.SearchResultBundle{}, s.searchErr
	}
	reply := "Try the Whirlpool filter."
	return models.SearchResultBundle{
		RequestID: "req-1",
		Query:     req.Query,
		RankedProducts: []models.ScoredProduct{
			{Product: models.Product{SKU: "W10295370A", Name: "Water Filter"}, Similarity: 0.9},
		},
		Upsells:             []models.UpsellCandidate{},
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

func (s *stubPipeline) Health() core.HealthReport {
	return core.HealthReport{Ready: true, ProductCount: 2, Dimension: 3}
}

func (s *stubPipeline) Reload(ctx context.Context) (core.HealthReport, error) {
	return s.Health(), s.reloadErr
}

func newStubPipeline() *stubPipeline {
	return &stubPipeline{products: map[string]models.Product{
		"W10295370A":  {SKU: "W10295370A", Name: "Whirlpool Water Filter", SalePrice: 49.99, InStock: true},
		"DA29-00020B": {SKU: "DA29-00020B", Name: "Samsung Water Filter", SalePrice: 44},
	}}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", result.Content[0])
	return ""
}

func TestSearchParts(t *testing.T) {
	pipeline := newStubPipeline()
	h := NewHandlers(pipeline, 5)

	result, err := h.SearchParts(context.Background(), callRequest("search_parts", map[string]any{
		"query":         "whirlpool water filter",
		"top_k":         float64(3),
		"brand":         "Whirlpool",
		"max_price":     float64(60),
		"in_stock_only": true,
	}))
	if err != nil {
		t.Fatalf("SearchParts() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("SearchParts() returned tool error: %s", resultText(t, result))
	}

	if pipeline.lastRequest.TopK != 3 {
		t.Errorf("TopK = %d, want 3", pipeline.lastRequest.TopK)
	}
	opts := pipeline.lastRequest.Options
	if opts.Brand != "Whirlpool" || !opts.InStockOnly || opts.MaxPrice == nil || *opts.MaxPrice != 60 || opts.MinPrice != nil {
		t.Errorf("Options = %+v", opts)
	}

	var bundle models.SearchResultBundle
	if err := json.Unmarshal([]byte(resultText(t, result)), &bundle); err != nil {
		t.Fatalf("response is not a bundle: %v", err)
	}
	if bundle.RequestID != "req-1" || len(bundle.RankedProducts) != 1 {
		t.Errorf("bundle = %+v", bundle)
	}
}

func TestSearchParts_DefaultTopK(t *testing.T) {
	pipeline := newStubPipeline()
	h := NewHandlers(pipeline, 7)

	if _, err := h.SearchParts(context.Background(), callRequest("search_parts", map[string]any{"query": "belt"})); err != nil {
		t.Fatalf("SearchParts() error = %v", err)
	}
	if pipeline.lastRequest.TopK != 7 {
		t.Errorf("TopK = %d, want default 7", pipeline.lastRequest.TopK)
	}
	if pipeline.lastRequest.Options.Active() {
		t.Errorf("no filters were passed, got %+v", pipeline.lastRequest.Options)
	}
}

func TestSearchParts_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		err     error
		wantMsg string
	}{
		{"missing query", map[string]any{}, nil, "query argument is required"},
		{"invalid request", map[string]any{"query": " "}, &core.SearchError{Kind: core.KindInvalidRequest, Err: errors.New("query is empty")}, "invalid request: query is empty"},
		{"unavailable", map[string]any{"query": "filter"}, &core.SearchError{Kind: core.KindSearchUnavailable, Err: core.ErrStoreEmpty}, "search unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := newStubPipeline()
			pipeline.searchErr = tt.err
			h := NewHandlers(pipeline, 5)

			result, err := h.SearchParts(context.Background(), callRequest("search_parts", tt.args))
			if err != nil {
				t.Fatalf("SearchParts() error = %v", err)
			}
			if !result.IsError {
				t.Fatal("expected tool error")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.wantMsg) {
				t.Errorf("error text = %q, want to contain %q", text, tt.wantMsg)
			}
		})
	}
}

func TestChatParts_CarriesHistory(t *testing.T) {
	pipeline := newStubPipeline()
	h := NewHandlers(pipeline, 5)

	result, err := h.ChatParts(context.Background(), callRequest("chat_parts", map[string]any{
		"message": "is it in stock?",
		"history": []interface{}{
			map[string]interface{}{"role": "user", "content": "water filter"},
			map[string]interface{}{"role": "assistant", "content": "Here are some filters."},
		},
	}))
	if err != nil {
		t.Fatalf("ChatParts() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("ChatParts() returned tool error: %s", resultText(t, result))
	}

	if len(pipeline.lastRequest.History) != 2 {
		t.Errorf("history passed = %d messages, want 2", len(pipeline.lastRequest.History))
	}

	var response struct {
		Reply   string               `json:"reply"`
		SKUs    []string             `json:"skus"`
		History []models.ChatMessage `json:"history"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if len(response.History) != 4 {
		t.Errorf("returned history = %d messages, want 4", len(response.History))
	}
	if response.Reply == "" || len(response.SKUs) != 1 {
		t.Errorf("response = %+v", response)
	}
}

func TestChatParts_RejectsBadHistory(t *testing.T) {
	h := NewHandlers(newStubPipeline(), 5)

	result, _ := h.ChatParts(context.Background(), callRequest("chat_parts", map[string]any{
		"message": "hi",
		"history": []interface{}{map[string]interface{}{"role": "robot", "content": "beep"}},
	}))
	if !result.IsError {
		t.Error("expected an invalid role to be rejected")
	}
}

func TestGetProduct(t *testing.T) {
	h := NewHandlers(newStubPipeline(), 5)

	result, _ := h.GetProduct(context.Background(), callRequest("get_product", map[string]any{"sku": "w10295370a"}))
	if result.IsError {
		t.Fatalf("GetProduct() returned tool error: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "Whirlpool Water Filter") || !strings.Contains(text, "$49.99") {
		t.Errorf("GetProduct() = %s", text)
	}

	result, _ = h.GetProduct(context.Background(), callRequest("get_product", map[string]any{"sku": "nope"}))
	if !result.IsError || !strings.Contains(resultText(t, result), "NOPE") {
		t.Errorf("unknown SKU should be a tool error naming the SKU")
	}
}

func TestCompareProducts(t *testing.T) {
	h := NewHandlers(newStubPipeline(), 5)

	result, _ := h.CompareProducts(context.Background(), callRequest("compare_products", map[string]any{
		"skus": []interface{}{"W10295370A", "DA29-00020B"},
	}))
	if result.IsError {
		t.Fatalf("CompareProducts() returned tool error: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "Lowest price") {
		t.Errorf("comparison missing summary: %s", text)
	}

	result, _ = h.CompareProducts(context.Background(), callRequest("compare_products", map[string]any{
		"skus": []interface{}{"W10295370A"},
	}))
	if !result.IsError {
		t.Error("a single SKU should be rejected")
	}
}

func TestHealthAndReload(t *testing.T) {
	pipeline := newStubPipeline()
	h := NewHandlers(pipeline, 5)

	result, _ := h.SearchHealth(context.Background(), callRequest("search_health", nil))
	var report core.HealthReport
	if err := json.Unmarshal([]byte(resultText(t, result)), &report); err != nil {
		t.Fatalf("bad health JSON: %v", err)
	}
	if !report.Ready || report.ProductCount != 2 {
		t.Errorf("report = %+v", report)
	}

	pipeline.reloadErr = errors.New("database locked")
	result, _ = h.ReloadSnapshot(context.Background(), callRequest("reload_snapshot", nil))
	if !result.IsError || !strings.Contains(resultText(t, result), "previous index still serving") {
		t.Errorf("reload failure should be reported as a tool error")
	}
}

func TestRegisterTools(t *testing.T) {
	server := mcpserver.NewMCPServer("partfinder-test", "0.0.0")
	if h := RegisterTools(server, newStubPipeline(), 5); h == nil {
		t.Fatal("RegisterTools() returned nil handlers")
	}
}
