// ABOUTME: Evaluation scenarios for search quality benchmarks
// ABOUTME: Each scenario pairs a customer query with the SKUs and intent we expect back

package eval

import (
	"fmt"
	"os"
	"strings"

	"github.com/harper/partfinder/internal/models"
	"gopkg.in/yaml.v3"
)

// Scenario is one benchmark query with its ground truth
type Scenario struct {
	ID          string               `yaml:"id" json:"id"`
	Name        string               `yaml:"name" json:"name"`
	Query       string               `yaml:"query" json:"query"`
	History     []models.ChatMessage `yaml:"history,omitempty" json:"history,omitempty"`
	GroundTruth GroundTruth          `yaml:"ground_truth" json:"ground_truth"`
}

// GroundTruth lists what a good answer contains. Empty fields are not checked.
type GroundTruth struct {
	// Any of these SKUs in the top-k counts as a hit
	ExpectedSKUs     []string          `yaml:"expected_skus" json:"expected_skus"`
	ExpectedIntent   models.IntentKind `yaml:"expected_intent,omitempty" json:"expected_intent,omitempty"`
	ExpectedBrand    string            `yaml:"expected_brand,omitempty" json:"expected_brand,omitempty"`
	ExpectedCategory string            `yaml:"expected_category,omitempty" json:"expected_category,omitempty"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios reads scenarios from a YAML file
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}

	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios %s: %w", path, err)
	}

	for i, s := range file.Scenarios {
		if strings.TrimSpace(s.Query) == "" {
			return nil, fmt.Errorf("scenario %d (%s) has no query", i, s.ID)
		}
		if s.ID == "" {
			file.Scenarios[i].ID = fmt.Sprintf("s%02d", i+1)
		}
	}
	return file.Scenarios, nil
}

// DefaultScenarios covers the common query shapes: plain part lookups,
// brand plus part, model numbers, price questions and a follow-up turn.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			ID:    "filter-whirlpool",
			Name:  "Brand + part",
			Query: "whirlpool refrigerator water filter",
			GroundTruth: GroundTruth{
				ExpectedSKUs:     []string{"W10295370A", "EDR1RXD1"},
				ExpectedIntent:   models.IntentFindPart,
				ExpectedBrand:    "whirlpool",
				ExpectedCategory: "refrigerator",
			},
		},
		{
			ID:    "dryer-belt",
			Name:  "Part without brand",
			Query: "my dryer drum stopped spinning, need a new belt",
			GroundTruth: GroundTruth{
				ExpectedSKUs:     []string{"WE12M29", "341241"},
				ExpectedIntent:   models.IntentFindPart,
				ExpectedCategory: "dryer",
			},
		},
		{
			ID:    "model-number",
			Name:  "Model number lookup",
			Query: "does W10295370A fit a WRF555SDFZ fridge",
			GroundTruth: GroundTruth{
				ExpectedSKUs:   []string{"W10295370A"},
				ExpectedIntent: models.IntentCheckCompatibility,
				ExpectedBrand:  "whirlpool",
			},
		},
		{
			ID:    "price-check",
			Name:  "Price question",
			Query: "how much is a samsung ice maker assembly",
			GroundTruth: GroundTruth{
				ExpectedSKUs:   []string{"DA97-07365G", "DA97-15217D"},
				ExpectedIntent: models.IntentCheckPrice,
				ExpectedBrand:  "samsung",
			},
		},
		{
			ID:    "dishwasher-pump",
			Name:  "Symptom description",
			Query: "dishwasher not draining, water sitting in the bottom",
			GroundTruth: GroundTruth{
				ExpectedSKUs:     []string{"W10348269", "154844301"},
				ExpectedCategory: "dishwasher",
			},
		},
		{
			ID:    "follow-up",
			Name:  "Follow-up turn with history",
			Query: "what about a cheaper one from GE?",
			History: []models.ChatMessage{
				{Role: models.RoleUser, Content: "refrigerator water filter"},
				{Role: models.RoleAssistant, Content: "The Whirlpool EveryDrop filter W10295370A is a popular choice."},
			},
			GroundTruth: GroundTruth{
				ExpectedSKUs:  []string{"MWF", "RPWFE"},
				ExpectedBrand: "ge",
			},
		},
	}
}
