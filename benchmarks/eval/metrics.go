// ABOUTME: Scoring for evaluation runs: hit@k, intent accuracy and degradation rates
// ABOUTME: Deterministic comparison of search bundles against ground truth

package eval

import (
	"fmt"
	"strings"
	"time"

	"github.com/harper/partfinder/internal/models"
)

// MetricsCalculator scores bundles against ground truth
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// HitAtK is 1.0 when any expected SKU appears in the ranked list, else 0.0.
// Also returns the 1-based rank of the first hit, or 0.
func (m *MetricsCalculator) HitAtK(ranked []models.ScoredProduct, expected []string) (float64, int) {
	if len(expected) == 0 {
		return 1.0, 0
	}
	want := make(map[string]struct{}, len(expected))
	for _, sku := range expected {
		want[strings.ToUpper(sku)] = struct{}{}
	}
	for i, p := range ranked {
		if _, ok := want[strings.ToUpper(p.SKU)]; ok {
			return 1.0, i + 1
		}
	}
	return 0.0, 0
}

// IntentScore is the fraction of checked intent fields that match.
// Returns 1.0 with no explanation when nothing is checked.
func (m *MetricsCalculator) IntentScore(intent models.ParsedIntent, truth GroundTruth) (float64, string) {
	checked, matched := 0, 0
	var misses []string

	if truth.ExpectedIntent != "" {
		checked++
		if intent.Intent != nil && *intent.Intent == truth.ExpectedIntent {
			matched++
		} else {
			misses = append(misses, fmt.Sprintf("intent=%s", kindOrNull(intent.Intent)))
		}
	}
	if truth.ExpectedBrand != "" {
		checked++
		if brand := models.StringOrEmpty(intent.Brand); strings.EqualFold(brand, truth.ExpectedBrand) {
			matched++
		} else {
			misses = append(misses, fmt.Sprintf("brand=%q", brand))
		}
	}
	if truth.ExpectedCategory != "" {
		checked++
		category := strings.ToLower(models.StringOrEmpty(intent.Category))
		if strings.Contains(category, strings.ToLower(truth.ExpectedCategory)) {
			matched++
		} else {
			misses = append(misses, fmt.Sprintf("category=%q", category))
		}
	}

	if checked == 0 {
		return 1.0, ""
	}
	if len(misses) == 0 {
		return 1.0, "intent matches ground truth"
	}
	return float64(matched) / float64(checked), "mismatched " + strings.Join(misses, ", ")
}

// Summary aggregates a run
type Summary struct {
	Total          int           `json:"total"`
	Passed         int           `json:"passed"`
	Failed         int           `json:"failed"`
	Errors         int           `json:"errors"`
	HitRate        float64       `json:"hit_rate"`
	MeanReciprocal float64       `json:"mean_reciprocal_rank"`
	IntentAccuracy float64       `json:"intent_accuracy"`
	FallbackRate   float64       `json:"fallback_rate"`
	DegradedRate   float64       `json:"degraded_rate"`
	MeanLatency    time.Duration `json:"mean_latency_ns"`
}

// Summarize aggregates results. Errored scenarios count as misses.
func (m *MetricsCalculator) Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	if s.Total == 0 {
		return s
	}

	var latency time.Duration
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusError:
			s.Errors++
		default:
			s.Failed++
		}
		s.HitRate += r.HitAtK
		if r.FirstHitRank > 0 {
			s.MeanReciprocal += 1 / float64(r.FirstHitRank)
		}
		s.IntentAccuracy += r.IntentScore
		if r.Fallback {
			s.FallbackRate++
		}
		if r.Degraded {
			s.DegradedRate++
		}
		latency += r.Elapsed
	}

	n := float64(s.Total)
	s.HitRate /= n
	s.MeanReciprocal /= n
	s.IntentAccuracy /= n
	s.FallbackRate /= n
	s.DegradedRate /= n
	s.MeanLatency = latency / time.Duration(s.Total)
	return s
}

func kindOrNull(k *models.IntentKind) string {
	if k == nil {
		return "null"
	}
	return string(*k)
}
