// ABOUTME: MCP tool definitions and registration for the partfinder server
// ABOUTME: Declares JSON schemas for the search, chat, lookup and admin tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, pipeline Pipeline, defaultTopK int) *Handlers {
	handlers := NewHandlers(pipeline, defaultTopK)

	filterProperties := map[string]interface{}{
		"brand": map[string]interface{}{
			"type":        "string",
			"description": "Only return products from this brand (case-insensitive)",
		},
		"category": map[string]interface{}{
			"type":        "string",
			"description": "Only return products whose category contains this text",
		},
		"min_price": map[string]interface{}{
			"type":        "number",
			"description": "Minimum price in dollars",
		},
		"max_price": map[string]interface{}{
			"type":        "number",
			"description": "Maximum price in dollars",
		},
		"in_stock_only": map[string]interface{}{
			"type":        "boolean",
			"description": "Only return products that are in stock",
		},
	}

	searchProperties := map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "Natural language description of the part, e.g. 'whirlpool fridge water filter'",
		},
		"top_k": map[string]interface{}{
			"type":        "number",
			"description": "Number of ranked products to return (1-20)",
			"default":     defaultTopK,
		},
	}
	for k, v := range filterProperties {
		searchProperties[k] = v
	}

	// 1. search_parts - one-shot search returning the full result bundle
	server.AddTool(mcp.Tool{
		Name:        "search_parts",
		Description: "Search the appliance parts catalog. Returns ranked products, upsell suggestions, the parsed intent and a sales narrative.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: searchProperties,
			Required:   []string{"query"},
		},
	}, handlers.SearchParts)

	// 2. chat_parts - conversational turn carrying history
	server.AddTool(mcp.Tool{
		Name:        "chat_parts",
		Description: "Continue a parts-shopping conversation. Pass the history returned by the previous call to keep context.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Customer message",
				},
				"history": map[string]interface{}{
					"type":        "array",
					"description": "Prior conversation messages",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"role":    map[string]interface{}{"type": "string", "enum": []string{"user", "assistant"}},
							"content": map[string]interface{}{"type": "string"},
						},
						"required": []string{"role", "content"},
					},
				},
				"top_k": map[string]interface{}{
					"type":        "number",
					"description": "Number of ranked products to consider (1-20)",
					"default":     defaultTopK,
				},
			},
			Required: []string{"message"},
		},
	}, handlers.ChatParts)

	// 3. get_product - SKU lookup
	server.AddTool(mcp.Tool{
		Name:        "get_product",
		Description: "Get full details for one product by SKU.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sku": map[string]interface{}{
					"type":        "string",
					"description": "Product SKU, e.g. W10295370A",
				},
			},
			Required: []string{"sku"},
		},
	}, handlers.GetProduct)

	// 4. compare_products - side by side comparison
	server.AddTool(mcp.Tool{
		Name:        "compare_products",
		Description: "Compare two or more products by SKU and summarize the differences.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"skus": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "SKUs to compare (at least two)",
				},
			},
			Required: []string{"skus"},
		},
	}, handlers.CompareProducts)

	// 5. search_health - snapshot and model status
	server.AddTool(mcp.Tool{
		Name:        "search_health",
		Description: "Report whether the search index is loaded and the model clients are configured.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.SearchHealth)

	// 6. reload_snapshot - rebuild the in-memory index from the catalog
	server.AddTool(mcp.Tool{
		Name:        "reload_snapshot",
		Description: "Reload product embeddings from the catalog. The previous index keeps serving if the reload fails.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ReloadSnapshot)

	return handlers
}
