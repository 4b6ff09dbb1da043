// ABOUTME: Runner executes evaluation scenarios concurrently on an ants worker pool
// ABOUTME: Scores each bundle and exports a JSON report

package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
	"github.com/panjf2000/ants/v2"
)

// Result statuses
const (
	StatusPass  = "PASS"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
)

// Pipeline is the search entry point under test
type Pipeline interface {
	HandleWithOptions(ctx context.Context, req core.SearchRequest) (models.SearchResultBundle, error)
}

// Result is the scored outcome of one scenario
type Result struct {
	ScenarioID    string        `json:"scenario_id"`
	ScenarioName  string        `json:"scenario_name"`
	Query         string        `json:"query"`
	Status        string        `json:"status"`
	HitAtK        float64       `json:"hit_at_k"`
	FirstHitRank  int           `json:"first_hit_rank"`
	IntentScore   float64       `json:"intent_score"`
	IntentDetails string        `json:"intent_details,omitempty"`
	Fallback      bool          `json:"intent_fallback"`
	Degraded      bool          `json:"narrative_degraded"`
	TopSKUs       []string      `json:"top_skus"`
	Error         string        `json:"error,omitempty"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

// Runner executes scenarios against a pipeline
type Runner struct {
	pipeline Pipeline
	pool     *ants.Pool
	metrics  *MetricsCalculator
	topK     int
	verbose  bool
}

// NewRunner creates a runner with the given number of concurrent workers
func NewRunner(pipeline Pipeline, workers, topK int, verbose bool) (*Runner, error) {
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if workers < 1 {
		workers = 1
	}
	if topK < 1 {
		topK = 5
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Runner{
		pipeline: pipeline,
		pool:     pool,
		metrics:  NewMetricsCalculator(),
		topK:     topK,
		verbose:  verbose,
	}, nil
}

// Release frees the worker pool
func (r *Runner) Release() {
	r.pool.Release()
}

// Run executes every scenario and returns results in scenario order
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, len(scenarios))
	var wg sync.WaitGroup

	for i, scenario := range scenarios {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			results[i] = r.RunScenario(ctx, scenario)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to submit scenario %s: %w", scenario.ID, err)
		}
	}

	wg.Wait()
	return results, ctx.Err()
}

// RunScenario executes and scores one scenario
func (r *Runner) RunScenario(ctx context.Context, scenario Scenario) Result {
	result := Result{
		ScenarioID:   scenario.ID,
		ScenarioName: scenario.Name,
		Query:        scenario.Query,
		TopSKUs:      []string{},
	}

	start := time.Now()
	bundle, err := r.pipeline.HandleWithOptions(ctx, core.SearchRequest{
		Query:   scenario.Query,
		History: scenario.History,
		TopK:    r.topK,
	})
	result.Elapsed = time.Since(start)

	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		log.Printf("[Eval] %s errored: %v", scenario.ID, err)
		return result
	}

	for _, p := range bundle.RankedProducts {
		result.TopSKUs = append(result.TopSKUs, p.SKU)
	}
	result.HitAtK, result.FirstHitRank = r.metrics.HitAtK(bundle.RankedProducts, scenario.GroundTruth.ExpectedSKUs)
	result.IntentScore, result.IntentDetails = r.metrics.IntentScore(bundle.ParsedIntent, scenario.GroundTruth)
	result.Fallback = bundle.ParsedIntent.IsFallback
	result.Degraded = bundle.NarrativeDegraded

	result.Status = StatusFail
	if result.HitAtK == 1.0 && result.IntentScore == 1.0 {
		result.Status = StatusPass
	}

	if r.verbose {
		log.Printf("[Eval] %s: %s hit@%d=%.0f rank=%d intent=%.2f (%s)",
			scenario.ID, result.Status, r.topK, result.HitAtK, result.FirstHitRank, result.IntentScore, result.Elapsed.Round(time.Millisecond))
	}
	return result
}

// Summarize aggregates results
func (r *Runner) Summarize(results []Result) Summary {
	return r.metrics.Summarize(results)
}

// Report is the exported JSON document
type Report struct {
	Timestamp string   `json:"timestamp"`
	TopK      int      `json:"top_k"`
	Summary   Summary  `json:"summary"`
	Results   []Result `json:"results"`
}

// ExportResults writes a JSON report to outputPath
func (r *Runner) ExportResults(results []Result, outputPath string) error {
	report := Report{
		Timestamp: time.Now().Format(time.RFC3339),
		TopK:      r.topK,
		Summary:   r.Summarize(results),
		Results:   results,
	}

	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
