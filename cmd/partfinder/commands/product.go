// ABOUTME: Product lookup and comparison commands
// ABOUTME: Fetch a product by SKU or compare several side by side
package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
	"github.com/spf13/cobra"
)

// productLookup is the pipeline surface the product commands use
type productLookup interface {
	Lookup(ctx context.Context, sku string) (models.Product, error)
	Compare(ctx context.Context, skus []string) ([]models.Product, core.NarrativeResult, error)
}

// NewProductCmd creates the product lookup command
func NewProductCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <sku>",
		Short: "Show details for one product",
		Long: `Show catalog details for a product by SKU.

SKUs are matched case-insensitively.

Examples:
  partfinder product W10295370A
  partfinder product --format json da29-00020b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return runProduct(cmd, a.Search, args[0])
		},
	}
}

func runProduct(cmd *cobra.Command, p productLookup, sku string) error {
	product, err := p.Lookup(cmd.Context(), sku)
	if err != nil {
		if errors.Is(err, core.ErrProductNotFound) {
			return fmt.Errorf("no product with SKU %s", sku)
		}
		return err
	}

	if structured() {
		return writeStructured(cmd.OutOrStdout(), product)
	}
	printProduct(cmd.OutOrStdout(), product)
	return nil
}

// NewCompareCmd creates the product comparison command
func NewCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <sku> <sku> [sku...]",
		Short: "Compare products side by side",
		Long: `Compare two or more products by SKU.

Prints a price and stock table followed by a short summary of the
differences. Unknown SKUs are skipped.

Examples:
  partfinder compare W10295370A DA29-00020B`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return runCompare(cmd, a.Search, args)
		},
	}
}

func runCompare(cmd *cobra.Command, p productLookup, skus []string) error {
	products, narrative, err := p.Compare(cmd.Context(), skus)
	if err != nil {
		return err
	}

	if structured() {
		return writeStructured(cmd.OutOrStdout(), map[string]interface{}{
			"products":   products,
			"comparison": narrative.Text,
			"degraded":   narrative.Outcome == core.OutcomeDegraded,
		})
	}

	out := cmd.OutOrStdout()
	if len(products) > 0 {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "SKU\tNAME\tBRAND\tPRICE\tSTOCK\n")
		fmt.Fprintf(tw, "---\t----\t-----\t-----\t-----\n")
		for _, p := range products {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.SKU, truncate(p.Name, 40), orDash(p.Brand), p.PriceLabel(), p.StockLabel())
		}
		tw.Flush()
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, narrative.Text)
	return nil
}
