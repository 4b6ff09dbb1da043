// ABOUTME: ResponseComposer writes the customer-facing recommendation text
// ABOUTME: Model-written when possible, deterministic templates otherwise
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/harper/partfinder/internal/llm"
	"github.com/harper/partfinder/internal/models"
)

const (
	composeTemperature   = 0.7
	composeMaxTokens     = 300
	noMatchMaxTokens     = 200
	composeProductLimit  = 3
	fallbackUpsellLimit  = 2
	composeHistoryWindow = 6
	compatibleModelsCap  = 200
)

const salesSystemPrompt = `You are a friendly sales assistant for an appliance parts company.
A customer asked about parts and the catalog search returned the matches below.

Recommend the best match clearly and concisely. For each product give:
- product name and SKU
- price, including the discount when there is one
- compatibility with the customer's appliance when known
- stock status

If complementary products are listed, mention one or two as items customers also purchased.
Use bullet points, stay professional, and keep the answer under 150 words.`

const noMatchApology = "I couldn't find exact matches for your query. " +
	"Could you share more details like the brand, model number, or appliance type? " +
	"I'm happy to help you find the right part!"

const compareSystemPrompt = "You compare appliance parts for customers. Be concise and practical."

// ComposeInput is everything the composer may reference
type ComposeInput struct {
	Query    string
	Intent   models.ParsedIntent
	Products []models.ScoredProduct
	Upsells  []models.UpsellCandidate
	History  []models.ChatMessage
}

// NarrativeResult is the composed text plus how it was produced
type NarrativeResult struct {
	Text    string
	Outcome Outcome
	Cause   error
}

// ResponseComposer turns search results into prose
type ResponseComposer struct {
	model ChatModel
}

// NewResponseComposer creates a composer. A nil model always uses templates.
func NewResponseComposer(model ChatModel) *ResponseComposer {
	return &ResponseComposer{model: model}
}

// Compose always returns non-empty text
func (c *ResponseComposer) Compose(ctx context.Context, in ComposeInput) NarrativeResult {
	if len(in.Products) == 0 {
		return c.complete(ctx, llm.CompletionRequest{
			SystemPrompt: salesSystemPrompt,
			UserPrompt:   noMatchPrompt(in),
			History:      models.RecentMessages(in.History, composeHistoryWindow),
			Temperature:  composeTemperature,
			MaxTokens:    noMatchMaxTokens,
		}, noMatchApology)
	}

	return c.complete(ctx, llm.CompletionRequest{
		SystemPrompt: salesSystemPrompt,
		UserPrompt:   recommendationPrompt(in),
		History:      models.RecentMessages(in.History, composeHistoryWindow),
		Temperature:  composeTemperature,
		MaxTokens:    composeMaxTokens,
	}, FallbackNarrative(in.Products, in.Upsells))
}

// Compare writes a side-by-side comparison of products
func (c *ResponseComposer) Compare(ctx context.Context, products []models.Product) NarrativeResult {
	if len(products) == 0 {
		return NarrativeResult{Text: "No products found for comparison.", Outcome: OutcomeDegraded, Cause: errors.New("no products to compare")}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Compare these %d products. Cover price differences, key features, the best value option, and which suits which use case.\n\nProducts:\n", len(products))
	for _, p := range products {
		fmt.Fprintf(&b, "\n- %s (SKU %s) %s\n  Brand: %s\n  Stock: %s\n", p.Name, p.SKU, p.PriceLabel(), orNA(p.Brand), p.StockLabel())
	}

	return c.complete(ctx, llm.CompletionRequest{
		SystemPrompt: compareSystemPrompt,
		UserPrompt:   b.String(),
		Temperature:  composeTemperature,
		MaxTokens:    composeMaxTokens,
	}, FallbackComparison(products))
}

func (c *ResponseComposer) complete(ctx context.Context, req llm.CompletionRequest, fallback string) NarrativeResult {
	if c.model == nil {
		return NarrativeResult{Text: fallback, Outcome: OutcomeDegraded, Cause: errors.New("no chat model configured")}
	}

	text, err := c.model.Complete(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("model returned empty response")
	}
	if err != nil {
		log.Printf("[Composer] Using template response: %v", err)
		return NarrativeResult{Text: fallback, Outcome: OutcomeDegraded, Cause: err}
	}

	return NarrativeResult{Text: strings.TrimSpace(text), Outcome: OutcomeModel}
}

// FallbackNarrative lists up to three products and two upsells without a model
func FallbackNarrative(products []models.ScoredProduct, upsells []models.UpsellCandidate) string {
	if len(products) == 0 {
		return noMatchApology
	}

	lines := []string{"I found these products for you:", ""}
	for i, p := range products {
		if i == composeProductLimit {
			break
		}
		stock := "Out of Stock"
		if p.InStock {
			stock = "In Stock"
		}
		lines = append(lines,
			fmt.Sprintf("%d. **%s** (SKU: %s)", i+1, p.Name, p.SKU),
			fmt.Sprintf("   $%.2f - %s", displayPrice(p.Product), stock),
		)
	}

	if len(upsells) > 0 {
		lines = append(lines, "", "**Customers also purchased:**")
		for i, u := range upsells {
			if i == fallbackUpsellLimit {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s ($%.2f)", u.Name, displayPrice(u.Product)))
		}
	}

	return strings.Join(lines, "\n")
}

// FallbackComparison renders a plain comparison table
func FallbackComparison(products []models.Product) string {
	lines := []string{fmt.Sprintf("Comparing %d products:", len(products)), ""}
	cheapest := -1
	for i, p := range products {
		lines = append(lines, fmt.Sprintf("- **%s** (SKU: %s) %s, %s, %s", p.Name, p.SKU, p.PriceLabel(), orNA(p.Brand), p.StockLabel()))
		if displayPrice(p) > 0 && (cheapest < 0 || displayPrice(p) < displayPrice(products[cheapest])) {
			cheapest = i
		}
	}
	if cheapest >= 0 && len(products) > 1 {
		lines = append(lines, "", fmt.Sprintf("Lowest price: %s", products[cheapest].Name))
	}
	return strings.Join(lines, "\n")
}

func recommendationPrompt(in ComposeInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer query: %q\n", in.Query)
	if model := models.StringOrEmpty(in.Intent.ModelNumber); model != "" {
		fmt.Fprintf(&b, "Customer appliance model: %s\n", model)
	}

	b.WriteString("\nFound products:\n")
	for i, p := range in.Products {
		if i == composeProductLimit {
			break
		}
		fmt.Fprintf(&b, "\nProduct %d:\n- Name: %s\n- SKU: %s\n", i+1, p.Name, p.SKU)
		if p.Brand != "" {
			fmt.Fprintf(&b, "- Brand: %s\n", p.Brand)
		}
		fmt.Fprintf(&b, "- Price: %s\n- Stock: %s\n", p.PriceLabel(), p.StockLabel())
		if p.CompatibleModels != "" {
			fmt.Fprintf(&b, "- Compatible models: %s\n", truncate(p.CompatibleModels, compatibleModelsCap))
		}
		fmt.Fprintf(&b, "- Match score: %.2f\n", p.Similarity)
	}

	if len(in.Upsells) > 0 {
		b.WriteString("\nCustomers also purchased:\n")
		for _, u := range in.Upsells {
			fmt.Fprintf(&b, "- %s ($%.2f)", u.Name, displayPrice(u.Product))
			if u.Category != "" {
				fmt.Fprintf(&b, " Category: %s", u.Category)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nRecommend these products, highlight the best match and its price, and mention the upsells as items customers also purchased.")
	return b.String()
}

func noMatchPrompt(in ComposeInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer query: %q\n\nThe catalog search found no matching products.\n", in.Query)
	if brand := models.StringOrEmpty(in.Intent.Brand); brand != "" {
		fmt.Fprintf(&b, "The customer mentioned the brand %s.\n", brand)
	}
	b.WriteString("\nAcknowledge that nothing matched, suggest broadening the search (another brand, category, or a model number), and offer further help. Keep it under 100 words.")
	return b.String()
}

func displayPrice(p models.Product) float64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.RegularPrice
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
