// ABOUTME: Sync commands for Charm cloud catalog mirroring
// ABOUTME: Push and pull the catalog, plus status, keys and wipe management
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/harper/partfinder/internal/charm"
	"github.com/harper/partfinder/internal/models"
	"github.com/spf13/cobra"
)

// catalogRows lists every row of a local catalog
type catalogRows interface {
	All(ctx context.Context) ([]models.ProductRow, error)
}

// catalogWriter stores rows in a local catalog
type catalogWriter interface {
	UpsertRows(ctx context.Context, rows []models.ProductRow) error
}

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the catalog through Charm cloud",
		Long: `Mirror the product catalog through Charm cloud.

The local SQLite catalog is the source of truth. push copies it,
embeddings included, into Charm KV so other machines can pull it or
serve it directly with PARTFINDER_CATALOG_SOURCE=charm. Charm
authenticates with your SSH keys.`,
	}

	cmd.AddCommand(newSyncPushCmd())
	cmd.AddCommand(newSyncPullCmd())
	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncKeysCmd())
	cmd.AddCommand(newSyncWipeCmd())

	return cmd
}

func newSyncPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Copy the local catalog to Charm",
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
			client, err := a.Charm()
			if err != nil {
				return err
			}

			if err := pushCatalog(cmd.Context(), cmd.OutOrStdout(), store, charm.NewCatalogMirror(client)); err != nil {
				return err
			}
			if !a.Config.AutoSync {
				if err := client.Sync(); err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
			}
			return nil
		},
	}
}

func pushCatalog(ctx context.Context, out io.Writer, local catalogRows, mirror *charm.CatalogMirror) error {
	rows, err := local.All(ctx)
	if err != nil {
		return fmt.Errorf("reading local catalog: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("local catalog is empty, import products first")
	}

	result, err := mirror.Push(ctx, rows)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	if !quiet {
		fmt.Fprintf(out, "Pushed %d products (%d stale removed)\n", result.Written, result.Removed)
	}
	return nil
}

func newSyncPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Copy the Charm catalog into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStorageApp()
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.Charm()
			if err != nil {
				return err
			}
			if err := client.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			store, err := a.Store()
			if err != nil {
				return err
			}

			return pullCatalog(cmd.Context(), cmd.OutOrStdout(), charm.NewCatalogMirror(client), store)
		},
	}
}

func pullCatalog(ctx context.Context, out io.Writer, mirror *charm.CatalogMirror, local catalogWriter) error {
	rows, err := mirror.Pull(ctx)
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("charm catalog is empty, run 'partfinder sync push' on a machine with the catalog")
	}

	if err := local.UpsertRows(ctx, rows); err != nil {
		return fmt.Errorf("writing local catalog: %w", err)
	}

	if !quiet {
		fmt.Fprintf(out, "Pulled %d products\n", len(rows))
	}
	return nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStorageApp()
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.Charm()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			id, err := client.ID()
			if err != nil {
				fmt.Fprintln(out, "Status: Not connected")
				fmt.Fprintln(out, "Run 'partfinder sync keys' to check your SSH keys")
				return nil
			}

			fmt.Fprintln(out, "Status: Connected")
			fmt.Fprintf(out, "User ID: %s\n", id)
			fmt.Fprintf(out, "Host: %s\n", client.Config().Host)
			fmt.Fprintf(out, "Database: %s\n", client.Config().DBName)

			return printManifest(out, charm.NewCatalogMirror(client))
		},
	}
}

func printManifest(out io.Writer, mirror *charm.CatalogMirror) error {
	manifest, ok, err := mirror.Manifest()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "Catalog: not pushed yet")
		return nil
	}
	fmt.Fprintf(out, "Catalog: %d products, %d with embeddings\n", manifest.Count, manifest.Embedded)
	fmt.Fprintf(out, "Last push: %s\n", formatTime(manifest.PushedAt))
	return nil
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe the local Charm cache",
		Long: `Completely wipe the local Charm cache.

WARNING: This deletes all locally cached catalog data. Your cloud
data remains intact and will be re-synced on next access. The SQLite
catalog is not touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !confirm {
				fmt.Fprintln(out, "This will wipe ALL local Charm data!")
				fmt.Fprintln(out, "Run with --confirm to proceed")
				return nil
			}

			a, err := openStorageApp()
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.Charm()
			if err != nil {
				return err
			}
			if err := client.Reset(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}

			fmt.Fprintln(out, "Local data wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List authorized SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStorageApp()
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.Charm()
			if err != nil {
				return err
			}

			keys, err := client.GetAuthorizedKeys()
			if err != nil {
				return fmt.Errorf("failed to get authorized keys: %w", err)
			}

			out := cmd.OutOrStdout()
			if keys == "" {
				fmt.Fprintln(out, "No authorized keys found")
				return nil
			}

			fmt.Fprintln(out, "Authorized SSH keys:")
			fmt.Fprintln(out, keys)

			return nil
		},
	}
}
