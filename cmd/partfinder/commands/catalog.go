// ABOUTME: Catalog management commands for the local SQLite database
// ABOUTME: Import and export dumps, show counts, and delete products
package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewCatalogCmd creates the catalog command group
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local product catalog",
		Long: `Manage the local SQLite product catalog.

Dumps are YAML or JSON (chosen by file extension) and carry each
product's embedding as a list of numbers, so a catalog built
elsewhere can be loaded without re-embedding.`,
	}

	cmd.AddCommand(newCatalogImportCmd())
	cmd.AddCommand(newCatalogExportCmd())
	cmd.AddCommand(newCatalogStatsCmd())
	cmd.AddCommand(newCatalogDeleteCmd())

	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load products from a YAML or JSON dump",
		Long: `Load products from a YAML or JSON dump.

Existing products with the same SKU are replaced. A running
'partfinder mcp --watch' picks up the change automatically.

Examples:
  partfinder catalog import parts.yaml
  partfinder catalog import parts.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStorageApp()
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.Store()
			if err != nil {
				return err
			}

			count, err := store.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products into %s\n", count, store.Path())
			}
			return nil
		},
	}
}

func newCatalogExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the catalog to a dump file",
		Long: `Write the catalog to a dump file.

The extension picks the format: .json for JSON, .md for a Markdown
price list, anything else for YAML.

Examples:
  partfinder catalog export parts.yaml
  partfinder catalog export prices.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStorageApp()
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.Store()
			if err != nil {
				return err
			}

			path := args[0]
			if strings.EqualFold(filepath.Ext(path), ".md") {
				err = store.ExportToMarkdown(cmd.Context(), path)
			} else {
				err = store.ExportToFile(cmd.Context(), path)
			}
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported catalog to %s\n", path)
			}
			return nil
		},
	}
}

func newCatalogStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show product counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStorageApp()
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.Store()
			if err != nil {
				return err
			}

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if structured() {
				return writeStructured(cmd.OutOrStdout(), stats)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Database:\t%s\n", store.Path())
			fmt.Fprintf(tw, "Products:\t%d\n", stats.Total)
			fmt.Fprintf(tw, "With embeddings:\t%d\n", stats.Embedded)
			fmt.Fprintf(tw, "In stock:\t%d\n", stats.InStock)
			return tw.Flush()
		},
	}
}

func newCatalogDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <sku>",
		Short: "Remove a product from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStorageApp()
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.Store()
			if err != nil {
				return err
			}

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", strings.ToUpper(args[0]))
			}
			return nil
		},
	}
}
