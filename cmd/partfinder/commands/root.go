// ABOUTME: Root command and global flags for the partfinder CLI
// ABOUTME: Wires every subcommand and validates output flags
package commands

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
██████╗  █████╗ ██████╗ ████████╗███████╗██╗███╗   ██╗██████╗ ███████╗██████╗
██╔══██╗██╔══██╗██╔══██╗╚══██╔══╝██╔════╝██║████╗  ██║██╔══██╗██╔════╝██╔══██╗
██████╔╝███████║██████╔╝   ██║   █████╗  ██║██╔██╗ ██║██║  ██║█████╗  ██████╔╝
██╔═══╝ ██╔══██║██╔══██╗   ██║   ██╔══╝  ██║██║╚██╗██║██║  ██║██╔══╝  ██╔══██╗
██║     ██║  ██║██║  ██║   ██║   ██║     ██║██║ ╚████║██████╔╝███████╗██║  ██║
╚═╝     ╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═╝     ╚═╝╚═╝  ╚═══╝╚═════╝ ╚══════╝╚═╝  ╚═╝
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partfinder",
		Short: "Semantic search and sales chat for appliance parts",
		Long: banner + `
Find appliance parts by describing them in plain language.

partfinder ranks catalog products by embedding similarity, reads
brand and category hints from the query, suggests complementary
parts, and writes a short sales reply. It runs as a CLI, an
interactive chat, or an MCP server for LLM agents.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "table", "json", "yaml":
			default:
				return fmt.Errorf("--format must be auto, table, json, or yaml, got %q", outputFormat)
			}
			if quiet {
				log.SetOutput(io.Discard)
			} else if !verbose {
				log.SetFlags(0)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show pipeline logs and timings")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress logs and informational output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json, yaml")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewProductCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewHealthCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewCatalogCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
