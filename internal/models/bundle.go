// ABOUTME: SearchResultBundle is the pipeline's caller-facing output
// ABOUTME: Built once per request and returned by value
package models

import "time"

// SearchResultBundle carries everything produced for one query
type SearchResultBundle struct {
	RequestID           string            `json:"request_id" yaml:"request_id"`
	Query               string            `json:"query" yaml:"query"`
	ParsedIntent        ParsedIntent      `json:"parsed_intent" yaml:"parsed_intent"`
	RankedProducts      []ScoredProduct   `json:"ranked_products" yaml:"ranked_products"`
	Upsells             []UpsellCandidate `json:"upsells" yaml:"upsells"`
	Narrative           string            `json:"narrative" yaml:"narrative"`
	NarrativeDegraded   bool              `json:"narrative_degraded" yaml:"narrative_degraded"`
	ConversationHistory []ChatMessage     `json:"conversation_history" yaml:"conversation_history"`
	Elapsed             time.Duration     `json:"elapsed_ns" yaml:"elapsed"`
}

// TopProduct returns the best match, if any
func (b SearchResultBundle) TopProduct() (ScoredProduct, bool) {
	if len(b.RankedProducts) == 0 {
		return ScoredProduct{}, false
	}
	return b.RankedProducts[0], true
}
