// ABOUTME: Rendering helpers shared by search, chat, product and health commands
// ABOUTME: Writes tables with tabwriter and structured output as JSON or YAML
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harper/partfinder/internal/models"
	"gopkg.in/yaml.v3"
)

// structured reports whether the active format is machine readable
func structured() bool {
	return outputFormat == "json" || outputFormat == "yaml"
}

// writeStructured encodes v using the active format
func writeStructured(w io.Writer, v interface{}) error {
	switch outputFormat {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		jsonData, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", jsonData)
		return err
	}
}

// searchSummary is the compact structured view of a bundle
type searchSummary struct {
	RequestID string                   `json:"request_id" yaml:"request_id"`
	Narrative string                   `json:"narrative" yaml:"narrative"`
	Products  []models.ScoredProduct   `json:"products" yaml:"products"`
	Upsells   []models.UpsellCandidate `json:"upsells" yaml:"upsells"`
}

// printBundle renders a search result. raw prints every bundle field.
func printBundle(w io.Writer, bundle models.SearchResultBundle, raw bool) error {
	if structured() {
		if raw {
			return writeStructured(w, bundle)
		}
		return writeStructured(w, searchSummary{
			RequestID: bundle.RequestID,
			Narrative: bundle.Narrative,
			Products:  bundle.RankedProducts,
			Upsells:   bundle.Upsells,
		})
	}

	fmt.Fprintf(w, "%s\n", bundle.Narrative)
	if len(bundle.RankedProducts) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	printProductTable(w, bundle.RankedProducts)

	if len(bundle.Upsells) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Customers also purchased:")
		for _, u := range bundle.Upsells {
			fmt.Fprintf(w, "  - %s (%s) %s\n", truncate(u.Name, 50), u.SKU, u.PriceLabel())
		}
	}

	if raw {
		fmt.Fprintln(w)
		printIntent(w, bundle.ParsedIntent)
		fmt.Fprintf(w, "Request: %s  Elapsed: %s\n", bundle.RequestID, bundle.Elapsed)
	}
	return nil
}

func printProductTable(w io.Writer, products []models.ScoredProduct) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SCORE\tSKU\tNAME\tBRAND\tPRICE\tSTOCK\n")
	fmt.Fprintf(tw, "-----\t---\t----\t-----\t-----\t-----\n")
	for _, p := range products {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\t%s\t%s\n",
			p.Similarity,
			p.SKU,
			truncate(p.Name, 40),
			truncate(p.Brand, 15),
			p.PriceLabel(),
			p.StockLabel())
	}
	tw.Flush()
}

func printIntent(w io.Writer, intent models.ParsedIntent) {
	kind := "unknown"
	if intent.Intent != nil {
		kind = string(*intent.Intent)
	}
	source := "model"
	if intent.IsFallback {
		source = "fallback"
	}
	fmt.Fprintf(w, "Intent: %s (%s)  brand=%s  category=%s  part=%s\n",
		kind,
		source,
		orDash(models.StringOrEmpty(intent.Brand)),
		orDash(models.StringOrEmpty(intent.Category)),
		orDash(models.StringOrEmpty(intent.PartType)))
}

// printProduct renders full details for one product
func printProduct(w io.Writer, p models.Product) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SKU:\t%s\n", p.SKU)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Brand:\t%s\n", orDash(p.Brand))
	fmt.Fprintf(tw, "Category:\t%s\n", orDash(p.Category))
	fmt.Fprintf(tw, "Price:\t%s\n", p.PriceLabel())
	fmt.Fprintf(tw, "Stock:\t%s\n", p.StockLabel())
	if p.CompatibleModels != "" {
		fmt.Fprintf(tw, "Fits:\t%s\n", truncate(p.CompatibleModels, 80))
	}
	if p.ProductURL != "" {
		fmt.Fprintf(tw, "URL:\t%s\n", p.ProductURL)
	}
	tw.Flush()
	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
}
