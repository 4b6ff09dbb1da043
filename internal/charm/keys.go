// ABOUTME: Key layout for catalog records stored in Charm KV
// ABOUTME: One record per SKU plus a manifest describing the last push
package charm

import "strings"

// Key prefixes for different entity types
const (
	ProductPrefix = "product:"
	ManifestKey   = "meta:manifest"
)

// ProductKey generates a key for a product SKU
func ProductKey(sku string) string {
	return ProductPrefix + strings.ToUpper(sku)
}

// SKUFromKey extracts the SKU from a product key
func SKUFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, ProductPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, ProductPrefix), true
}
