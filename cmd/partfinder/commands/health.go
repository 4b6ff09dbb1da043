// ABOUTME: Health command reports catalog and model readiness
// ABOUTME: Loads the snapshot once and prints what the pipeline would serve
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/harper/partfinder/internal/core"
	"github.com/spf13/cobra"
)

// NewHealthCmd creates the health command
func NewHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that search is ready",
		Long: `Check whether the catalog snapshot loads and the model clients are configured.

Reports the product count, embedding dimension, rows skipped for bad
embeddings, and whether OPENAI_API_KEY produced working clients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return printHealth(cmd, a.Search.Health())
		},
	}
}

func printHealth(cmd *cobra.Command, report core.HealthReport) error {
	if structured() {
		return writeStructured(cmd.OutOrStdout(), report)
	}

	status := "Ready"
	if !report.Ready {
		status = "Not ready"
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Status:\t%s\n", status)
	fmt.Fprintf(tw, "Products:\t%d\n", report.ProductCount)
	fmt.Fprintf(tw, "Dimension:\t%d\n", report.Dimension)
	fmt.Fprintf(tw, "Skipped rows:\t%d\n", report.Skipped)
	fmt.Fprintf(tw, "Loaded:\t%s\n", formatTime(report.LoadedAt))
	fmt.Fprintf(tw, "Embeddings:\t%s\n", configured(report.EmbedderConfigured))
	fmt.Fprintf(tw, "Chat:\t%s\n", configured(report.ChatConfigured))
	return tw.Flush()
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
