// ABOUTME: Interactive chat command for conversational part search
// ABOUTME: Keeps conversation history across turns until the user quits
package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
	"github.com/spf13/cobra"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd() *cobra.Command {
	var topK int
	var showProducts bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the parts assistant",
		Long: `Start an interactive conversation with the parts assistant.

Each message is searched against the catalog and answered with a
short sales reply. Earlier turns are sent along so follow-up
questions like "is it in stock?" keep their context.

Type quit, exit, or q to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			k, err := resolveTopK(topK, a.Config.DefaultTopK)
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Appliance parts assistant. Describe what you need (quit to exit).")
			}
			_, err = chatLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.Search, k, showProducts)
			return err
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of ranked products per turn (default from PARTFINDER_TOP_K)")
	cmd.Flags().BoolVar(&showProducts, "products", false, "Print the ranked product table after each reply")

	return cmd
}

// chatLoop reads messages from in until EOF or a quit word and returns the final history
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, s searcher, topK int, showProducts bool) ([]models.ChatMessage, error) {
	var history []models.ChatMessage
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return history, scanner.Err()
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		switch strings.ToLower(message) {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return history, nil
		}

		bundle, err := s.HandleWithOptions(ctx, core.SearchRequest{Query: message, History: history, TopK: topK})
		if err != nil {
			if ctx.Err() != nil {
				return history, ctx.Err()
			}
			fmt.Fprintf(out, "Assistant: Sorry, I couldn't search right now (%v).\n", err)
			continue
		}

		fmt.Fprintf(out, "Assistant: %s\n", bundle.Narrative)
		if showProducts && len(bundle.RankedProducts) > 0 {
			fmt.Fprintln(out)
			printProductTable(out, bundle.RankedProducts)
		}
		history = bundle.ConversationHistory
	}
}
