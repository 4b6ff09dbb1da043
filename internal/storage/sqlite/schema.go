// ABOUTME: SQLite database schema for the product catalog
// ABOUTME: One row per SKU with an optional serialized embedding
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Products table (catalog rows with precomputed embeddings)
CREATE TABLE IF NOT EXISTS products (
    sku TEXT PRIMARY KEY,
    product_name TEXT NOT NULL,
    brand TEXT,
    category TEXT,
    regular_price REAL,
    sale_price REAL,
    discount_percent REAL,
    in_stock INTEGER NOT NULL DEFAULT 0,
    stock_status TEXT,
    description TEXT,
    compatible_models TEXT,
    product_url TEXT,
    embedding BLOB,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for upsell candidate lookups
CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_sale_price ON products(sale_price);
CREATE INDEX IF NOT EXISTS idx_products_in_stock ON products(in_stock);
`
