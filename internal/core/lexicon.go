// ABOUTME: Brand and category vocabulary used by the rule-based intent fallback
// ABOUTME: Ships with a built-in table and can be overridden from a YAML file
package core

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// CategoryTerms maps a canonical category to the phrases that imply it
type CategoryTerms struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Lexicon is an ordered vocabulary; the first match wins
type Lexicon struct {
	Brands     []string        `yaml:"brands"`
	Categories []CategoryTerms `yaml:"categories"`
}

// DefaultLexicon returns the built-in appliance vocabulary
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Brands: []string{"whirlpool", "ge", "samsung", "lg", "frigidaire", "bosch", "kitchenaid", "maytag"},
		Categories: []CategoryTerms{
			{Name: "refrigerator", Keywords: []string{"fridge", "refrigerator", "freezer"}},
			{Name: "dishwasher", Keywords: []string{"dishwasher"}},
			{Name: "washer", Keywords: []string{"washer", "washing machine"}},
			{Name: "dryer", Keywords: []string{"dryer"}},
		},
	}
}

// LoadLexicon reads a YAML lexicon. Sections left empty keep the defaults.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon %s: %w", path, err)
	}

	defaults := DefaultLexicon()
	if len(lex.Brands) == 0 {
		lex.Brands = defaults.Brands
	}
	if len(lex.Categories) == 0 {
		lex.Categories = defaults.Categories
	}

	for i, b := range lex.Brands {
		lex.Brands[i] = strings.ToLower(strings.TrimSpace(b))
	}
	for i, c := range lex.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("lexicon category %d has no name", i)
		}
		for j, k := range c.Keywords {
			lex.Categories[i].Keywords[j] = strings.ToLower(strings.TrimSpace(k))
		}
	}

	return &lex, nil
}

// DetectBrand returns the display name of the first brand found in text.
// Brands match whole words so "ge" does not fire inside "fridge".
func (l *Lexicon) DetectBrand(text string) *string {
	lower := " " + strings.Join(tokenize(text), " ") + " "
	for _, brand := range l.Brands {
		if brand == "" {
			continue
		}
		if strings.Contains(lower, " "+brand+" ") {
			name := brandDisplayName(brand)
			return &name
		}
	}
	return nil
}

// DetectCategory returns the first category whose phrase appears in text
func (l *Lexicon) DetectCategory(text string) *string {
	lower := strings.ToLower(text)
	for _, c := range l.Categories {
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				name := c.Name
				return &name
			}
		}
	}
	return nil
}

// brandDisplayName title-cases a brand; two-letter brands are acronyms
func brandDisplayName(brand string) string {
	if len(brand) <= 2 {
		return strings.ToUpper(brand)
	}
	words := strings.Fields(brand)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
