// ABOUTME: Tests for evaluation metrics, scenario loading and the concurrent runner
// ABOUTME: Uses a scripted pipeline so scores are deterministic

package eval

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
)

// scriptedPipeline answers by query text
type scriptedPipeline struct {
	bundles map[string]models.SearchResultBundle
	calls   atomic.Int32
}

func (p *scriptedPipeline) HandleWithOptions(ctx context.Context, req core.SearchRequest) (models.SearchResultBundle, error) {
	p.calls.Add(1)
	bundle, ok := p.bundles[req.Query]
	if !ok {
		return models.SearchResultBundle{}, &core.SearchError{Kind: core.KindSearchUnavailable, Err: errors.New("embedding service unavailable")}
	}
	return bundle, nil
}

func ranked(skus ...string) []models.ScoredProduct {
	out := make([]models.ScoredProduct, len(skus))
	for i, sku := range skus {
		out[i] = models.ScoredProduct{Product: models.Product{SKU: sku}, Similarity: 1 - float64(i)/10}
	}
	return out
}

func TestHitAtK(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name     string
		ranked   []models.ScoredProduct
		expected []string
		wantHit  float64
		wantRank int
	}{
		{"first", ranked("A", "B"), []string{"a"}, 1, 1},
		{"third", ranked("A", "B", "C"), []string{"X", "C"}, 1, 3},
		{"miss", ranked("A", "B"), []string{"Z"}, 0, 0},
		{"nothing expected", ranked("A"), nil, 1, 0},
		{"empty ranking", nil, []string{"A"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, rank := m.HitAtK(tt.ranked, tt.expected)
			if hit != tt.wantHit || rank != tt.wantRank {
				t.Errorf("HitAtK() = %v, %d; want %v, %d", hit, rank, tt.wantHit, tt.wantRank)
			}
		})
	}
}

func TestIntentScore(t *testing.T) {
	m := NewMetricsCalculator()
	intent := models.ParsedIntent{
		Intent:   models.Ptr(models.IntentFindPart),
		Brand:    models.Ptr("Whirlpool"),
		Category: models.Ptr("refrigerator parts"),
	}

	tests := []struct {
		name  string
		truth GroundTruth
		want  float64
	}{
		{"all match", GroundTruth{ExpectedIntent: models.IntentFindPart, ExpectedBrand: "whirlpool", ExpectedCategory: "refrigerator"}, 1},
		{"brand wrong", GroundTruth{ExpectedIntent: models.IntentFindPart, ExpectedBrand: "ge"}, 0.5},
		{"nothing checked", GroundTruth{}, 1},
		{"intent wrong", GroundTruth{ExpectedIntent: models.IntentCheckPrice}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, details := m.IntentScore(intent, tt.truth)
			if got != tt.want {
				t.Errorf("IntentScore() = %v, want %v (%s)", got, tt.want, details)
			}
		})
	}

	_, details := m.IntentScore(models.ParsedIntent{}, GroundTruth{ExpectedIntent: models.IntentFindPart})
	if !strings.Contains(details, "intent=null") {
		t.Errorf("details = %q, want the null intent named", details)
	}
}

func TestRunner_Run(t *testing.T) {
	pipeline := &scriptedPipeline{bundles: map[string]models.SearchResultBundle{
		"water filter": {
			RankedProducts: ranked("OTHER", "W10295370A"),
			ParsedIntent:   models.ParsedIntent{Intent: models.Ptr(models.IntentFindPart)},
		},
		"belt": {
			RankedProducts:    ranked("NOPE"),
			ParsedIntent:      models.ParsedIntent{Intent: models.Ptr(models.IntentFindPart), IsFallback: true},
			NarrativeDegraded: true,
		},
	}}

	scenarios := []Scenario{
		{ID: "a", Query: "water filter", GroundTruth: GroundTruth{ExpectedSKUs: []string{"W10295370A"}, ExpectedIntent: models.IntentFindPart}},
		{ID: "b", Query: "belt", GroundTruth: GroundTruth{ExpectedSKUs: []string{"WE12M29"}}},
		{ID: "c", Query: "unknown"},
	}

	runner, err := NewRunner(pipeline, 3, 5, false)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	defer runner.Release()

	results, err := runner.Run(context.Background(), scenarios)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 3 || pipeline.calls.Load() != 3 {
		t.Fatalf("got %d results from %d calls, want 3", len(results), pipeline.calls.Load())
	}

	for i, want := range []string{StatusPass, StatusFail, StatusError} {
		if results[i].ScenarioID != scenarios[i].ID {
			t.Errorf("results[%d] is %s, want scenario order kept", i, results[i].ScenarioID)
		}
		if results[i].Status != want {
			t.Errorf("results[%d].Status = %s, want %s", i, results[i].Status, want)
		}
	}
	if results[0].FirstHitRank != 2 {
		t.Errorf("FirstHitRank = %d, want 2", results[0].FirstHitRank)
	}

	summary := runner.Summarize(results)
	if summary.Passed != 1 || summary.Failed != 1 || summary.Errors != 1 {
		t.Errorf("summary counts = %+v", summary)
	}
	if summary.HitRate != 1.0/3 {
		t.Errorf("HitRate = %v, want 1/3", summary.HitRate)
	}
	if summary.MeanReciprocal != 0.5/3 {
		t.Errorf("MeanReciprocal = %v, want 1/6", summary.MeanReciprocal)
	}
	if summary.FallbackRate != 1.0/3 || summary.DegradedRate != 1.0/3 {
		t.Errorf("rates = %v, %v", summary.FallbackRate, summary.DegradedRate)
	}
}

func TestRunner_ExportResults(t *testing.T) {
	runner, err := NewRunner(&scriptedPipeline{}, 1, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	defer runner.Release()

	path := filepath.Join(t.TempDir(), "report.json")
	results := []Result{{ScenarioID: "a", Status: StatusPass, HitAtK: 1, IntentScore: 1}}
	if err := runner.ExportResults(results, path); err != nil {
		t.Fatalf("ExportResults() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if report.Summary.Passed != 1 || report.TopK != 5 || len(report.Results) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestNewRunner_RequiresPipeline(t *testing.T) {
	if _, err := NewRunner(nil, 1, 5, false); err == nil {
		t.Error("NewRunner(nil) should fail")
	}
}

func TestLoadScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	content := `scenarios:
  - name: Filter
    query: whirlpool water filter
    ground_truth:
      expected_skus: [W10295370A]
      expected_intent: find_part
      expected_brand: whirlpool
  - id: followup
    query: cheaper one?
    history:
      - role: user
        content: water filter
    ground_truth:
      expected_skus: [MWF]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	scenarios, err := LoadScenarios(path)
	if err != nil {
		t.Fatalf("LoadScenarios() error = %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("len = %d, want 2", len(scenarios))
	}
	if scenarios[0].ID != "s01" {
		t.Errorf("missing id should default to s01, got %q", scenarios[0].ID)
	}
	if scenarios[0].GroundTruth.ExpectedIntent != models.IntentFindPart {
		t.Errorf("ExpectedIntent = %q", scenarios[0].GroundTruth.ExpectedIntent)
	}
	if len(scenarios[1].History) != 1 {
		t.Errorf("history not loaded: %+v", scenarios[1])
	}
}

func TestLoadScenarios_RejectsEmptyQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("scenarios:\n  - id: x\n    query: \"  \"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenarios(path); err == nil {
		t.Error("expected error for blank query")
	}
}

func TestDefaultScenarios(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range DefaultScenarios() {
		if s.ID == "" || s.Query == "" || len(s.GroundTruth.ExpectedSKUs) == 0 {
			t.Errorf("incomplete scenario %+v", s)
		}
		if seen[s.ID] {
			t.Errorf("duplicate scenario id %s", s.ID)
		}
		seen[s.ID] = true
		for _, msg := range s.History {
			if err := msg.Validate(); err != nil {
				t.Errorf("%s history: %v", s.ID, err)
			}
		}
	}
}
