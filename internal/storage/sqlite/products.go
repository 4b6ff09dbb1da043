// ABOUTME: Product catalog persistence for SQLite
// ABOUTME: Implements the read-only catalog interface used by the search pipeline
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
)

// candidateLimit bounds how many upsell candidates one query reads
const candidateLimit = 200

const productColumns = `sku, product_name, brand, category, regular_price, sale_price, discount_percent,
	in_stock, stock_status, description, compatible_models, product_url`

// ProductStore handles product persistence
type ProductStore struct {
	db *DB
}

// NewProductStore creates a new ProductStore
func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{db: db}
}

// CatalogStats summarizes the table
type CatalogStats struct {
	Total    int `json:"total" yaml:"total"`
	Embedded int `json:"embedded" yaml:"embedded"`
	InStock  int `json:"in_stock" yaml:"in_stock"`
}

// FetchAllWithEmbeddings returns every row that has an embedding, in insertion order
func (s *ProductStore) FetchAllWithEmbeddings(ctx context.Context) ([]models.ProductRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`, embedding
		FROM products
		WHERE embedding IS NOT NULL
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedded products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows)
}

// All returns every row, with or without an embedding
func (s *ProductStore) All(ctx context.Context) ([]models.ProductRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`, embedding
		FROM products
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows)
}

// FetchBySKUs returns the products for skus in request order; unknown SKUs are skipped
func (s *ProductStore) FetchBySKUs(ctx context.Context, skus []string) ([]models.Product, error) {
	if len(skus) == 0 {
		return []models.Product{}, nil
	}

	placeholders := make([]string, len(skus))
	args := make([]any, len(skus))
	for i, sku := range skus {
		placeholders[i] = "?"
		args[i] = strings.ToUpper(strings.TrimSpace(sku))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE UPPER(sku) IN (`+strings.Join(placeholders, ",")+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by SKU: %w", err)
	}
	defer func() { _ = rows.Close() }()

	bySKU := make(map[string]models.Product, len(skus))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		bySKU[strings.ToUpper(p.SKU)] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	products := make([]models.Product, 0, len(bySKU))
	for _, sku := range args {
		if p, ok := bySKU[sku.(string)]; ok {
			products = append(products, p)
			delete(bySKU, sku.(string))
		}
	}
	return products, nil
}

// FetchCandidates returns products matching filter, in random order
func (s *ProductStore) FetchCandidates(ctx context.Context, filter core.CandidateFilter) ([]models.Product, error) {
	where := []string{"1 = 1"}
	var args []any

	if filter.InStockOnly {
		where = append(where, "in_stock = 1")
	}
	if filter.Brand != "" {
		where = append(where, "brand = ? COLLATE NOCASE")
		args = append(args, filter.Brand)
	}
	if filter.ExcludeCategory != "" {
		where = append(where, "(category IS NULL OR category <> ? COLLATE NOCASE)")
		args = append(args, filter.ExcludeCategory)
	}
	if filter.HasPriceBand {
		where = append(where, "sale_price BETWEEN ? AND ?")
		args = append(args, filter.MinPrice, filter.MaxPrice)
	}
	if excluded := filter.ExcludedSKUs(); len(excluded) > 0 {
		placeholders := make([]string, len(excluded))
		for i, sku := range excluded {
			placeholders[i] = "?"
			args = append(args, sku)
		}
		where = append(where, "sku NOT IN ("+strings.Join(placeholders, ",")+")")
	}
	args = append(args, candidateLimit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY RANDOM()
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upsell candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return products, nil
}

// Upsert inserts or replaces a product, encoding its embedding when present
func (s *ProductStore) Upsert(ctx context.Context, p models.Product) error {
	var payload []byte
	if len(p.Embedding) > 0 {
		payload = models.EncodeVector(p.Embedding)
	}
	return s.UpsertRow(ctx, models.ProductRow{Product: p, EmbeddingPayload: payload})
}

// UpsertRow inserts or replaces a product with a raw embedding payload
func (s *ProductStore) UpsertRow(ctx context.Context, row models.ProductRow) error {
	return upsertRow(ctx, s.db.Conn(), row)
}

// UpsertRows writes many rows in one transaction
func (s *ProductStore) UpsertRows(ctx context.Context, rows []models.ProductRow) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, row := range rows {
		if err := upsertRow(ctx, tx, row); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRow(ctx context.Context, ex execer, row models.ProductRow) error {
	p := row.Product
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("product SKU cannot be empty")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product %s has no name", p.SKU)
	}

	var payload any
	if len(row.EmbeddingPayload) > 0 {
		payload = row.EmbeddingPayload
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sku) DO UPDATE SET
			product_name = excluded.product_name,
			brand = excluded.brand,
			category = excluded.category,
			regular_price = excluded.regular_price,
			sale_price = excluded.sale_price,
			discount_percent = excluded.discount_percent,
			in_stock = excluded.in_stock,
			stock_status = excluded.stock_status,
			description = excluded.description,
			compatible_models = excluded.compatible_models,
			product_url = excluded.product_url,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`, p.SKU, p.Name, nullString(p.Brand), nullString(p.Category),
		nullFloat(p.RegularPrice), nullFloat(p.SalePrice), nullFloat(p.DiscountPercent),
		p.InStock, nullString(p.StockStatus), nullString(p.Description),
		nullString(p.CompatibleModels), nullString(p.ProductURL), payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.SKU, err)
	}
	return nil
}

// Delete removes a product by SKU
func (s *ProductStore) Delete(ctx context.Context, sku string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE UPPER(sku) = UPPER(?)`, sku)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", sku, err)
	}
	return nil
}

// Stats counts products, embedded products and in-stock products
func (s *ProductStore) Stats(ctx context.Context) (CatalogStats, error) {
	var stats CatalogStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN embedding IS NOT NULL THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN in_stock = 1 THEN 1 ELSE 0 END), 0)
		FROM products
	`).Scan(&stats.Total, &stats.Embedded, &stats.InStock)
	if err != nil {
		return CatalogStats{}, fmt.Errorf("failed to count products: %w", err)
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(sc scanner, extra ...any) (models.Product, error) {
	var (
		p                                                   models.Product
		brand, category, stockStatus, desc, compatible, url sql.NullString
		regularPrice, salePrice, discount                   sql.NullFloat64
	)

	dest := []any{&p.SKU, &p.Name, &brand, &category, &regularPrice, &salePrice, &discount,
		&p.InStock, &stockStatus, &desc, &compatible, &url}
	dest = append(dest, extra...)

	if err := sc.Scan(dest...); err != nil {
		return models.Product{}, fmt.Errorf("failed to scan product: %w", err)
	}

	p.Brand = brand.String
	p.Category = category.String
	p.RegularPrice = regularPrice.Float64
	p.SalePrice = salePrice.Float64
	p.DiscountPercent = discount.Float64
	p.StockStatus = stockStatus.String
	p.Description = desc.String
	p.CompatibleModels = compatible.String
	p.ProductURL = url.String
	return p, nil
}

func scanRows(rows *sql.Rows) ([]models.ProductRow, error) {
	var out []models.ProductRow
	for rows.Next() {
		var payload []byte
		p, err := scanProduct(rows, &payload)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ProductRow{Product: p, EmbeddingPayload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f != 0}
}
