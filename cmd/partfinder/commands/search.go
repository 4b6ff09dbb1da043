// ABOUTME: CLI command to search the parts catalog
// ABOUTME: Runs one query through the pipeline with optional result filters
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
	"github.com/spf13/cobra"
)

// searcher is the pipeline surface the search and chat commands use
type searcher interface {
	HandleWithOptions(ctx context.Context, req core.SearchRequest) (models.SearchResultBundle, error)
}

type searchFlags struct {
	topK     int
	raw      bool
	brand    string
	category string
	minPrice float64
	maxPrice float64
	inStock  bool
}

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for parts",
		Long: `Search the catalog with a plain-language description of a part.

Products are ranked by semantic similarity between the query and
each product's embedding. Brand and category hints in the query
steer the upsell suggestions, and a short sales reply is written
for the top matches.

Examples:
  partfinder search "whirlpool fridge water filter"
  partfinder search --top-k 10 "dryer belt"
  partfinder search --brand samsung --max-price 50 "ice maker"
  partfinder search --format json "dishwasher pump"
  partfinder search --raw --format yaml "washer door seal"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			topK, err := resolveTopK(flags.topK, a.Config.DefaultTopK)
			if err != nil {
				return err
			}

			return runSearch(cmd, a.Search, query, topK, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.topK, "top-k", "k", 0, "Number of ranked products (default from PARTFINDER_TOP_K)")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "Print the full result bundle including the parsed intent")
	cmd.Flags().StringVar(&flags.brand, "brand", "", "Only show products from this brand")
	cmd.Flags().StringVar(&flags.category, "category", "", "Only show products whose category contains this text")
	cmd.Flags().Float64Var(&flags.minPrice, "min-price", 0, "Minimum price in dollars")
	cmd.Flags().Float64Var(&flags.maxPrice, "max-price", 0, "Maximum price in dollars")
	cmd.Flags().BoolVar(&flags.inStock, "in-stock", false, "Only show products that are in stock")

	return cmd
}

func runSearch(cmd *cobra.Command, s searcher, query string, topK int, flags searchFlags) error {
	req := core.SearchRequest{
		Query: query,
		TopK:  topK,
		Options: core.SearchOptions{
			Brand:       strings.TrimSpace(flags.brand),
			Category:    strings.TrimSpace(flags.category),
			InStockOnly: flags.inStock,
		},
	}
	if cmd.Flags().Changed("min-price") {
		req.Options.MinPrice = &flags.minPrice
	}
	if cmd.Flags().Changed("max-price") {
		req.Options.MaxPrice = &flags.maxPrice
	}

	bundle, err := s.HandleWithOptions(cmd.Context(), req)
	if err != nil {
		return describeSearchError(err)
	}

	if len(bundle.RankedProducts) == 0 && !quiet && !structured() {
		fmt.Fprintf(cmd.ErrOrStderr(), "No products matched: %s\n", query)
	}
	return printBundle(cmd.OutOrStdout(), bundle, flags.raw)
}

// describeSearchError turns pipeline errors into actionable CLI messages
func describeSearchError(err error) error {
	switch {
	case core.IsKind(err, core.KindInvalidRequest):
		return fmt.Errorf("invalid search: %w", err)
	case core.IsKind(err, core.KindSearchUnavailable):
		return fmt.Errorf("search is unavailable (check OPENAI_API_KEY and that the catalog has embeddings): %w", err)
	}
	return fmt.Errorf("searching catalog: %w", err)
}
