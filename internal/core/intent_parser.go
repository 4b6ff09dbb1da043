// ABOUTME: IntentParser extracts structured intent from a customer query
// ABOUTME: Uses the chat model in JSON mode and falls back to lexicon rules
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/harper/partfinder/internal/llm"
	"github.com/harper/partfinder/internal/models"
)

const (
	intentTemperature   = 0.1
	intentMaxTokens     = 300
	fallbackKeywordSize = 10
)

const intentSystemPrompt = `You parse customer questions for an appliance parts distributor.

Return a single JSON object with exactly these keys:
- intent: "find_part" | "check_price" | "check_compatibility" | "general_question"
- part_type: the kind of part, e.g. "water filter", "ice maker", "door gasket", "drum", "motor"
- brand: the appliance brand if mentioned, e.g. "Whirlpool", "GE", "Samsung", "LG", "Frigidaire", "Bosch"
- model_number: the appliance model number if mentioned
- category: "refrigerator" | "dishwasher" | "washer" | "dryer" | "oven"
- keywords: list of important search terms
- price_sensitivity: "budget" | "premium" (words like "cheap" or "best quality")
- urgency: "urgent" | "normal" (words like "asap" or "urgent")

Use null for anything the query does not state or imply. Output JSON only.

Query: "I need a water filter for a Whirlpool fridge"
{"intent": "find_part", "part_type": "water filter", "brand": "Whirlpool", "model_number": null, "category": "refrigerator", "keywords": ["water", "filter", "whirlpool"], "price_sensitivity": null, "urgency": "normal"}

Query: "cheap ice maker for GE model GSS25GSHSS"
{"intent": "find_part", "part_type": "ice maker", "brand": "GE", "model_number": "GSS25GSHSS", "category": "refrigerator", "keywords": ["ice", "maker", "ge"], "price_sensitivity": "budget", "urgency": "normal"}

Query: "urgent need Whirlpool washer drum WFW9151YW00"
{"intent": "find_part", "part_type": "drum", "brand": "Whirlpool", "model_number": "WFW9151YW00", "category": "washer", "keywords": ["drum", "whirlpool", "washer"], "price_sensitivity": null, "urgency": "urgent"}

Query: "will the W10295370A filter fit my WRF535SMBM00?"
{"intent": "check_compatibility", "part_type": "water filter", "brand": null, "model_number": "WRF535SMBM00", "category": "refrigerator", "keywords": ["filter", "w10295370a", "fit"], "price_sensitivity": null, "urgency": "normal"}`

// IntentResult is the parse plus how it was produced
type IntentResult struct {
	Intent  models.ParsedIntent
	Outcome Outcome
	// Cause is set when Outcome is OutcomeDegraded
	Cause error
}

// IntentParser reads queries into ParsedIntent
type IntentParser struct {
	model   ChatModel
	lexicon *Lexicon
}

// NewIntentParser creates a parser. A nil model always uses the fallback.
func NewIntentParser(model ChatModel, lexicon *Lexicon) *IntentParser {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &IntentParser{model: model, lexicon: lexicon}
}

// Parse never fails; model problems produce a degraded rule-based parse
func (p *IntentParser) Parse(ctx context.Context, query string) IntentResult {
	if p.model == nil {
		return p.degrade(query, errors.New("no chat model configured"))
	}

	raw, err := p.model.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: intentSystemPrompt,
		UserPrompt:   query,
		Temperature:  intentTemperature,
		MaxTokens:    intentMaxTokens,
		JSONMode:     true,
	})
	if err != nil {
		log.Printf("[IntentParser] Model call failed, using fallback: %v", err)
		return p.degrade(query, err)
	}

	intent, err := decodeIntent(raw)
	if err != nil {
		log.Printf("[IntentParser] Unparseable model output, using fallback: %v", err)
		return p.degrade(query, err)
	}

	return IntentResult{Intent: intent, Outcome: OutcomeModel}
}

// Fallback runs the rule-based extractor directly
func (p *IntentParser) Fallback(query string) models.ParsedIntent {
	lower := strings.ToLower(query)
	words := strings.Fields(lower)
	if len(words) > fallbackKeywordSize {
		words = words[:fallbackKeywordSize]
	}

	return models.ParsedIntent{
		Intent:     models.Ptr(models.IntentFindPart),
		Brand:      p.lexicon.DetectBrand(lower),
		Category:   p.lexicon.DetectCategory(lower),
		Keywords:   words,
		Urgency:    models.Ptr(models.UrgencyNormal),
		IsFallback: true,
	}
}

func (p *IntentParser) degrade(query string, cause error) IntentResult {
	return IntentResult{
		Intent:  p.Fallback(query),
		Outcome: OutcomeDegraded,
		Cause:   cause,
	}
}

// decodeIntent reads each key independently; bad values become null
func decodeIntent(raw string) (models.ParsedIntent, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &fields); err != nil {
		return models.ParsedIntent{}, fmt.Errorf("failed to parse intent JSON: %w", err)
	}
	if fields == nil {
		return models.ParsedIntent{}, errors.New("intent JSON is not an object")
	}

	var intent models.ParsedIntent
	if s := stringField(fields, "intent"); s != nil {
		if k, ok := models.ParseIntentKind(*s); ok {
			intent.Intent = &k
		}
	}
	intent.PartType = stringField(fields, "part_type")
	intent.Brand = stringField(fields, "brand")
	intent.ModelNumber = stringField(fields, "model_number")
	if s := stringField(fields, "category"); s != nil {
		lower := strings.ToLower(*s)
		intent.Category = &lower
	}
	if s := stringField(fields, "price_sensitivity"); s != nil {
		if ps, ok := models.ParsePriceSensitivity(*s); ok {
			intent.PriceSensitivity = &ps
		}
	}
	if s := stringField(fields, "urgency"); s != nil {
		if u, ok := models.ParseUrgency(*s); ok {
			intent.Urgency = &u
		}
	}
	if list, ok := fields["keywords"].([]any); ok {
		intent.Keywords = make([]string, 0, len(list))
		for _, item := range list {
			if kw, ok := item.(string); ok && strings.TrimSpace(kw) != "" {
				intent.Keywords = append(intent.Keywords, strings.TrimSpace(kw))
			}
		}
	}

	return intent, nil
}

func stringField(fields map[string]any, key string) *string {
	s, ok := fields[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

// stripCodeFence removes a surrounding ```json ... ``` block
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
