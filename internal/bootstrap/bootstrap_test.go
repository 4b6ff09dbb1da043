// ABOUTME: Tests for pipeline bootstrap from configuration
// ABOUTME: Uses a temporary SQLite catalog and no model keys

package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harper/partfinder/internal/config"
	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/models"
	"github.com/harper/partfinder/internal/storage/sqlite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:         filepath.Join(t.TempDir(), "products.db"),
		CatalogSource:  config.SourceSQLite,
		DefaultTopK:    5,
		UpsellCount:    2,
		UpsellMinRatio: 0.5,
		UpsellMaxRatio: 1.5,
	}
}

func TestOpen_EmptyCatalog(t *testing.T) {
	svc, err := Open(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close()

	health := svc.Search.Health()
	if health.Ready || health.ProductCount != 0 {
		t.Errorf("empty catalog health = %+v", health)
	}
	if health.EmbedderConfigured || health.ChatConfigured {
		t.Error("no API key means no model clients")
	}

	_, err = svc.Search.Handle(context.Background(), "water filter", nil, 5)
	if !core.IsKind(err, core.KindSearchUnavailable) {
		t.Errorf("Handle() error = %v, want search unavailable", err)
	}
}

func TestOpen_LoadsSnapshot(t *testing.T) {
	cfg := testConfig(t)

	store, err := sqlite.NewStorageWithPath(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	rows := []models.ProductRow{
		{Product: models.Product{SKU: "W10295370A", Name: "Water Filter", SalePrice: 49.99, InStock: true},
			EmbeddingPayload: models.EncodeVector([]float64{1, 0})},
		{Product: models.Product{SKU: "WE11X10018", Name: "Dryer Belt", SalePrice: 19.95},
			EmbeddingPayload: models.EncodeVector([]float64{0, 1})},
	}
	if err := store.UpsertRows(context.Background(), rows); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	svc, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer svc.Close()

	health := svc.Search.Health()
	if health.ProductCount != 2 || health.Dimension != 2 {
		t.Errorf("health = %+v", health)
	}

	p, err := svc.Search.Lookup(context.Background(), "we11x10018")
	if err != nil || p.Name != "Dryer Belt" {
		t.Errorf("Lookup() = %+v, %v", p, err)
	}
}

func TestOpen_BadLexicon(t *testing.T) {
	cfg := testConfig(t)
	cfg.LexiconPath = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := Open(context.Background(), cfg); err == nil {
		t.Error("Open() should fail on an unreadable lexicon")
	}
}

func TestNew_OpensStoreLazily(t *testing.T) {
	svc := New(testConfig(t))
	defer svc.Close()

	if svc.Search != nil {
		t.Error("New() should not build the pipeline")
	}
	first, err := svc.Store()
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	second, _ := svc.Store()
	if first != second {
		t.Error("Store() should reuse the open handle")
	}
}
