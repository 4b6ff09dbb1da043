// ABOUTME: Product catalog records as seen by the search pipeline
// ABOUTME: Defines Product, ProductRow, ScoredProduct and UpsellCandidate
package models

import (
	"fmt"
	"strings"
)

// Product is a single catalog entry. Records are immutable for the lifetime of a snapshot.
type Product struct {
	SKU              string    `json:"sku" yaml:"sku"`
	Name             string    `json:"product_name" yaml:"product_name"`
	Brand            string    `json:"brand,omitempty" yaml:"brand,omitempty"`
	Category         string    `json:"category,omitempty" yaml:"category,omitempty"`
	RegularPrice     float64   `json:"regular_price,omitempty" yaml:"regular_price,omitempty"`
	SalePrice        float64   `json:"sale_price,omitempty" yaml:"sale_price,omitempty"`
	DiscountPercent  float64   `json:"discount_percent,omitempty" yaml:"discount_percent,omitempty"`
	InStock          bool      `json:"in_stock" yaml:"in_stock"`
	StockStatus      string    `json:"stock_status,omitempty" yaml:"stock_status,omitempty"`
	Description      string    `json:"description,omitempty" yaml:"description,omitempty"`
	CompatibleModels string    `json:"compatible_models,omitempty" yaml:"compatible_models,omitempty"`
	ProductURL       string    `json:"product_url,omitempty" yaml:"product_url,omitempty"`
	Embedding        []float64 `json:"-" yaml:"-"`
}

// ProductRow is a catalog row before its embedding payload has been decoded.
type ProductRow struct {
	Product          Product
	EmbeddingPayload []byte
}

// ScoredProduct is a product paired with its cosine similarity to a query.
type ScoredProduct struct {
	Product
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// UpsellCandidate is a complementary product surfaced next to the primary matches.
type UpsellCandidate struct {
	Product
}

// HasDiscount reports whether the sale price undercuts the regular price.
func (p Product) HasDiscount() bool {
	return p.SalePrice > 0 && p.RegularPrice > p.SalePrice
}

// Discount returns the discount percentage, deriving it from prices when not stored.
func (p Product) Discount() float64 {
	if p.DiscountPercent > 0 {
		return p.DiscountPercent
	}
	if !p.HasDiscount() {
		return 0
	}
	return (p.RegularPrice - p.SalePrice) / p.RegularPrice * 100
}

// PriceLabel renders the sale price, including the regular price and discount when discounted.
func (p Product) PriceLabel() string {
	if p.SalePrice <= 0 {
		if p.RegularPrice > 0 {
			return fmt.Sprintf("$%.2f", p.RegularPrice)
		}
		return "price unavailable"
	}
	if p.HasDiscount() {
		return fmt.Sprintf("$%.2f (was $%.2f, %.0f%% off)", p.SalePrice, p.RegularPrice, p.Discount())
	}
	return fmt.Sprintf("$%.2f", p.SalePrice)
}

// StockLabel returns a human readable stock status.
func (p Product) StockLabel() string {
	if status := strings.TrimSpace(p.StockStatus); status != "" {
		return status
	}
	if p.InStock {
		return "In Stock"
	}
	return "Out of Stock"
}

// SKUSet collects the SKUs of a ranked result list.
func SKUSet(products []ScoredProduct) map[string]struct{} {
	set := make(map[string]struct{}, len(products))
	for _, p := range products {
		set[p.SKU] = struct{}{}
	}
	return set
}
