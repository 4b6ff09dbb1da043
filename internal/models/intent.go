// ABOUTME: Structured query intent extracted from a customer utterance
// ABOUTME: Every field is always present; unset values marshal as JSON null
package models

import "strings"

// IntentKind classifies what the customer is trying to do
type IntentKind string

const (
	IntentFindPart           IntentKind = "find_part"
	IntentCheckPrice         IntentKind = "check_price"
	IntentCheckCompatibility IntentKind = "check_compatibility"
	IntentGeneralQuestion    IntentKind = "general_question"
)

// PriceSensitivity is the inferred budget preference
type PriceSensitivity string

const (
	PriceBudget  PriceSensitivity = "budget"
	PricePremium PriceSensitivity = "premium"
)

// Urgency is the inferred time pressure
type Urgency string

const (
	UrgencyUrgent Urgency = "urgent"
	UrgencyNormal Urgency = "normal"
)

// ParsedIntent is the structured reading of a query. Nil pointers mean null.
type ParsedIntent struct {
	Intent           *IntentKind       `json:"intent" yaml:"intent"`
	PartType         *string           `json:"part_type" yaml:"part_type"`
	Brand            *string           `json:"brand" yaml:"brand"`
	ModelNumber      *string           `json:"model_number" yaml:"model_number"`
	Category         *string           `json:"category" yaml:"category"`
	Keywords         []string          `json:"keywords" yaml:"keywords"`
	PriceSensitivity *PriceSensitivity `json:"price_sensitivity" yaml:"price_sensitivity"`
	Urgency          *Urgency          `json:"urgency" yaml:"urgency"`
	IsFallback       bool              `json:"is_fallback" yaml:"is_fallback"`
}

// ParseIntentKind maps a raw string to a known IntentKind
func ParseIntentKind(s string) (IntentKind, bool) {
	switch k := IntentKind(strings.ToLower(strings.TrimSpace(s))); k {
	case IntentFindPart, IntentCheckPrice, IntentCheckCompatibility, IntentGeneralQuestion:
		return k, true
	}
	return "", false
}

// ParsePriceSensitivity maps a raw string to a known PriceSensitivity
func ParsePriceSensitivity(s string) (PriceSensitivity, bool) {
	switch p := PriceSensitivity(strings.ToLower(strings.TrimSpace(s))); p {
	case PriceBudget, PricePremium:
		return p, true
	}
	return "", false
}

// ParseUrgency maps a raw string to a known Urgency
func ParseUrgency(s string) (Urgency, bool) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case UrgencyUrgent, UrgencyNormal:
		return u, true
	}
	return "", false
}

// StringOrEmpty dereferences an optional string
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
