// ABOUTME: Catalog dump export and import
// ABOUTME: Supports YAML and JSON dumps plus a Markdown price list
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/partfinder/internal/models"
	"gopkg.in/yaml.v3"
)

// DumpVersion is written into every export
const DumpVersion = "1.0"

// CatalogDump is the portable form of the products table
type CatalogDump struct {
	Version    string        `yaml:"version" json:"version"`
	ExportedAt string        `yaml:"exported_at" json:"exported_at"`
	Tool       string        `yaml:"tool" json:"tool"`
	Products   []DumpProduct `yaml:"products" json:"products"`
}

// DumpProduct is a product with its embedding as plain numbers
type DumpProduct struct {
	models.Product `yaml:",inline"`
	Embedding      []float64 `yaml:"embedding,omitempty,flow" json:"embedding,omitempty"`
}

// Export reads the whole catalog into a dump
func (s *ProductStore) Export(ctx context.Context) (*CatalogDump, error) {
	rows, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	dump := &CatalogDump{
		Version:    DumpVersion,
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "partfinder",
		Products:   make([]DumpProduct, 0, len(rows)),
	}
	for _, row := range rows {
		dp := DumpProduct{Product: row.Product}
		if len(row.EmbeddingPayload) > 0 {
			vector, err := models.DecodeVector(row.EmbeddingPayload)
			if err != nil {
				log.Printf("[Export] Dropping embedding for %s: %v", row.Product.SKU, err)
			} else {
				dp.Embedding = vector
			}
		}
		dump.Products = append(dump.Products, dp)
	}
	return dump, nil
}

// ExportToFile writes a YAML or JSON dump depending on the file extension
func (s *ProductStore) ExportToFile(ctx context.Context, outputPath string) error {
	dump, err := s.Export(ctx)
	if err != nil {
		return err
	}

	file, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if isJSON(outputPath) {
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(dump); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(dump); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// ExportToMarkdown writes a human readable price list
func (s *ProductStore) ExportToMarkdown(ctx context.Context, outputPath string) error {
	dump, err := s.Export(ctx)
	if err != nil {
		return err
	}

	file, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintf(file, "# Parts Catalog - %s\n\n", time.Now().Format("2006-01-02"))
	_, _ = fmt.Fprintf(file, "Generated: %s\n\n", dump.ExportedAt)
	_, _ = fmt.Fprintln(file, "| SKU | Product | Brand | Category | Price | Stock |")
	_, _ = fmt.Fprintln(file, "|-----|---------|-------|----------|-------|-------|")
	for _, p := range dump.Products {
		_, _ = fmt.Fprintf(file, "| %s | %s | %s | %s | %s | %s |\n",
			p.SKU, escapeCell(p.Name), escapeCell(p.Brand), escapeCell(p.Category), p.PriceLabel(), p.StockLabel())
	}
	return nil
}

// ImportFile loads a YAML or JSON dump and upserts every product.
// Returns the number of products written.
func (s *ProductStore) ImportFile(ctx context.Context, inputPath string) (int, error) {
	data, err := os.ReadFile(inputPath) // #nosec G304
	if err != nil {
		return 0, fmt.Errorf("failed to read dump: %w", err)
	}

	var dump CatalogDump
	if isJSON(inputPath) {
		err = json.Unmarshal(data, &dump)
	} else {
		err = yaml.Unmarshal(data, &dump)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to parse dump %s: %w", inputPath, err)
	}

	rows := make([]models.ProductRow, 0, len(dump.Products))
	for _, dp := range dump.Products {
		row := models.ProductRow{Product: dp.Product}
		if len(dp.Embedding) > 0 {
			row.EmbeddingPayload = models.EncodeVector(dp.Embedding)
		}
		rows = append(rows, row)
	}
	if err := s.UpsertRows(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func createOutput(outputPath string) (*os.File, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
