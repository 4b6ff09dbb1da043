// ABOUTME: Command-line benchmark runner for search quality scenarios
// ABOUTME: Runs scenarios against the configured catalog and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harper/partfinder/benchmarks/eval"
	"github.com/harper/partfinder/internal/bootstrap"
	"github.com/harper/partfinder/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	scenariosPath := flag.String("scenarios", "", "YAML scenario file. If empty, runs the built-in scenarios.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	workers := flag.Int("workers", 4, "Number of scenarios to run concurrently")
	topK := flag.Int("top-k", 0, "Results per query (0 uses PARTFINDER_TOP_K)")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.OpenAIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required for benchmarks")
	}
	k := *topK
	if k == 0 {
		k = cfg.DefaultTopK
	}

	scenarios := eval.DefaultScenarios()
	if *scenariosPath != "" {
		scenarios, err = eval.LoadScenarios(*scenariosPath)
		if err != nil {
			log.Fatalf("Failed to load scenarios: %v", err)
		}
	}

	fmt.Println("========================================")
	fmt.Println("partfinder search benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	ctx := context.Background()
	svc, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer svc.Close()

	if report := svc.Search.Health(); !report.Ready {
		log.Fatalf("Catalog is not ready (%d products loaded); import a catalog first", report.ProductCount)
	}

	runner, err := eval.NewRunner(svc.Search, *workers, k, *verbose)
	if err != nil {
		log.Fatalf("Failed to create benchmark runner: %v", err)
	}
	defer runner.Release()

	fmt.Printf("Running %d scenarios (top_k=%d, workers=%d)...\n", len(scenarios), k, *workers)

	results, err := runner.Run(ctx, scenarios)
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.ScenarioID, result.ScenarioName)
		fmt.Printf("  Hit@%d: %.2f (first hit rank %d)\n", k, result.HitAtK, result.FirstHitRank)
		fmt.Printf("  Intent: %.2f\n", result.IntentScore)
		if result.Error != "" {
			fmt.Printf("  Error: %s\n", result.Error)
		}
		fmt.Printf("  Status: %s\n", result.Status)
	}

	summary := runner.Summarize(results)

	fmt.Println("\n========================================")
	fmt.Printf("Total Scenarios: %d\n", summary.Total)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Printf("Errors: %d\n", summary.Errors)
	fmt.Printf("Hit rate: %.2f  MRR: %.2f  Intent accuracy: %.2f\n", summary.HitRate, summary.MeanReciprocal, summary.IntentAccuracy)
	fmt.Printf("Fallback rate: %.2f  Degraded rate: %.2f  Mean latency: %v\n", summary.FallbackRate, summary.DegradedRate, summary.MeanLatency)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if summary.Failed > 0 || summary.Errors > 0 {
		os.Exit(1)
	}
}
