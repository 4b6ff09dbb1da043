// ABOUTME: MCP tool handler implementations for the partfinder server
// ABOUTME: Translates tool arguments into pipeline calls and results into JSON text
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Pipeline is the part of core.SearchContext the tools use
type Pipeline interface {
	HandleWithOptions(ctx context.Context, req core.SearchRequest) (models.SearchResultBundle, error)
	Lookup(ctx context.Context, sku string) (models.Product, error)
	Compare(ctx context.Context, skus []string) ([]models.Product, core.NarrativeResult, error)
	Health() core.HealthReport
	Reload(ctx context.Context) (core.HealthReport, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	pipeline    Pipeline
	defaultTopK int
}

// NewHandlers creates handlers over pipeline
func NewHandlers(pipeline Pipeline, defaultTopK int) *Handlers {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &Handlers{pipeline: pipeline, defaultTopK: defaultTopK}
}

// SearchParts handles the search_parts tool
func (h *Handlers) SearchParts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	bundle, err := h.pipeline.HandleWithOptions(ctx, core.SearchRequest{
		Query:   query,
		TopK:    request.GetInt("top_k", h.defaultTopK),
		Options: searchOptions(request),
	})
	if err != nil {
		return searchErrorResult(err), nil
	}

	return jsonResult(bundle)
}

// ChatParts handles the chat_parts tool
func (h *Handlers) ChatParts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	history, err := historyArgument(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bundle, err := h.pipeline.HandleWithOptions(ctx, core.SearchRequest{
		Query:   message,
		History: history,
		TopK:    request.GetInt("top_k", h.defaultTopK),
	})
	if err != nil {
		return searchErrorResult(err), nil
	}

	skus := make([]string, 0, len(bundle.RankedProducts))
	for _, p := range bundle.RankedProducts {
		skus = append(skus, p.SKU)
	}

	response := map[string]interface{}{
		"request_id": bundle.RequestID,
		"reply":      bundle.Narrative,
		"degraded":   bundle.NarrativeDegraded,
		"skus":       skus,
		"history":    bundle.ConversationHistory,
	}
	return jsonResult(response)
}

// GetProduct handles the get_product tool
func (h *Handlers) GetProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sku, err := request.RequireString("sku")
	if err != nil {
		return mcp.NewToolResultError("sku argument is required and must be a string"), nil
	}

	product, err := h.pipeline.Lookup(ctx, sku)
	if err != nil {
		if errors.Is(err, core.ErrProductNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no product with SKU %s", strings.ToUpper(strings.TrimSpace(sku)))), nil
		}
		return searchErrorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"product":     product,
		"price_label": product.PriceLabel(),
		"stock_label": product.StockLabel(),
	})
}

// CompareProducts handles the compare_products tool
func (h *Handlers) CompareProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	skus := stringArray(request.GetArguments(), "skus")
	if len(skus) < 2 {
		return mcp.NewToolResultError("skus must list at least two SKUs"), nil
	}

	products, narrative, err := h.pipeline.Compare(ctx, skus)
	if err != nil {
		return searchErrorResult(err), nil
	}

	return jsonResult(map[string]interface{}{
		"products":   products,
		"comparison": narrative.Text,
		"degraded":   narrative.Outcome == core.OutcomeDegraded,
	})
}

// SearchHealth handles the search_health tool
func (h *Handlers) SearchHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.pipeline.Health())
}

// ReloadSnapshot handles the reload_snapshot tool
func (h *Handlers) ReloadSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := h.pipeline.Reload(ctx)
	if err != nil {
		log.Printf("[MCP] Reload failed: %v", err)
		return mcp.NewToolResultError(fmt.Sprintf("reload failed, previous index still serving: %v", err)), nil
	}
	return jsonResult(report)
}

func searchOptions(request mcp.CallToolRequest) core.SearchOptions {
	opts := core.SearchOptions{
		Brand:       strings.TrimSpace(request.GetString("brand", "")),
		Category:    strings.TrimSpace(request.GetString("category", "")),
		InStockOnly: request.GetBool("in_stock_only", false),
	}

	args := request.GetArguments()
	if v, ok := numberArgument(args, "min_price"); ok {
		opts.MinPrice = &v
	}
	if v, ok := numberArgument(args, "max_price"); ok {
		opts.MaxPrice = &v
	}
	return opts
}

func searchErrorResult(err error) *mcp.CallToolResult {
	switch {
	case core.IsKind(err, core.KindInvalidRequest):
		return mcp.NewToolResultError(fmt.Sprintf("invalid request: %v", errors.Unwrap(err)))
	case core.IsKind(err, core.KindSearchUnavailable):
		return mcp.NewToolResultError(fmt.Sprintf("search unavailable: %v", errors.Unwrap(err)))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// historyArgument decodes the optional history array
func historyArgument(args map[string]any) ([]models.ChatMessage, error) {
	raw, ok := args["history"]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, errors.New("history must be an array of {role, content} objects")
	}

	history := make([]models.ChatMessage, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("history[%d] must be an object", i)
		}
		role, _ := obj["role"].(string)
		content, _ := obj["content"].(string)
		msg := models.ChatMessage{Role: strings.ToLower(strings.TrimSpace(role)), Content: content}
		if err := msg.Validate(); err != nil {
			return nil, fmt.Errorf("history[%d]: %w", i, err)
		}
		history = append(history, msg)
	}
	return history, nil
}

// stringArray extracts a string array from tool arguments
func stringArray(args map[string]any, key string) []string {
	arr, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
			result = append(result, str)
		}
	}
	return result
}

func numberArgument(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
