// ABOUTME: Tests for snapshot loading and atomic reloads
// ABOUTME: Verifies decode failures are skipped and alignment is preserved
package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/harper/partfinder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowOf(sku string, payload []byte) models.ProductRow {
	return models.ProductRow{Product: models.Product{SKU: sku, Name: sku + " part"}, EmbeddingPayload: payload}
}

func TestLoadSnapshot_SkipsUndecodableRows(t *testing.T) {
	source := &rowSource{rows: []models.ProductRow{
		rowOf("A", models.EncodeVector([]float64{1, 0, 0})),
		rowOf("BAD", []byte{1, 2, 3}),
		rowOf("NONE", nil),
		rowOf("B", []byte("[0, 1, 0]")),
		rowOf("SHORT", models.EncodeVector([]float64{1, 0})),
		rowOf("C", models.EncodeVector([]float64{0, 0, 1})),
	}}

	snap, err := LoadSnapshot(context.Background(), source, SnapshotOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Dim)
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, 2, snap.Skipped)
	require.Len(t, snap.Vectors, len(snap.Products))
	for i, p := range snap.Products {
		assert.Equal(t, p.Embedding, snap.Vectors[i], "product %s misaligned", p.SKU)
	}
	assert.Equal(t, []string{"A", "B", "C"}, []string{snap.Products[0].SKU, snap.Products[1].SKU, snap.Products[2].SKU})
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestLoadSnapshot_PinnedDimension(t *testing.T) {
	source := &rowSource{rows: []models.ProductRow{
		rowOf("A", models.EncodeVector([]float64{1, 0})),
		rowOf("B", models.EncodeVector([]float64{1, 0, 0})),
	}}

	snap, err := LoadSnapshot(context.Background(), source, SnapshotOptions{Dimension: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, "B", snap.Products[0].SKU)
}

func TestLoadSnapshot_Empty(t *testing.T) {
	source := &rowSource{rows: []models.ProductRow{rowOf("BAD", []byte("not a vector"))}}

	_, err := LoadSnapshot(context.Background(), source, SnapshotOptions{})

	assert.ErrorIs(t, err, ErrStoreEmpty)
}

func TestLoadSnapshot_SourceError(t *testing.T) {
	source := &rowSource{err: errors.New("database is locked")}

	_, err := LoadSnapshot(context.Background(), source, SnapshotOptions{})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStoreEmpty)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestSnapshot_RankTwoProductsWithLargeTopK(t *testing.T) {
	snap, err := NewSnapshot([]models.Product{
		product("A", "Alpha", "", "", 0, true, 1, 0),
		product("B", "Beta", "", "", 0, true, 0, 1),
	})
	require.NoError(t, err)

	results := snap.Rank([]float64{1, 0.1}, 5)

	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].SKU)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestSnapshot_RankOnlyReturnsLoadedSKUs(t *testing.T) {
	snap, err := NewSnapshot(testCatalog())
	require.NoError(t, err)

	loaded := map[string]bool{}
	for _, p := range snap.Products {
		loaded[p.SKU] = true
	}
	for _, r := range snap.Rank([]float64{0.3, 0.3, 0.3}, 10) {
		assert.True(t, loaded[r.SKU], "unexpected SKU %s", r.SKU)
	}
}

func TestSnapshot_Product(t *testing.T) {
	snap, err := NewSnapshot(testCatalog())
	require.NoError(t, err)

	p, ok := snap.Product("w10295370a")
	require.True(t, ok)
	assert.Equal(t, "Whirlpool Refrigerator Water Filter", p.Name)

	_, ok = snap.Product("MISSING")
	assert.False(t, ok)
}

func TestNewSnapshot_DimensionMismatch(t *testing.T) {
	_, err := NewSnapshot([]models.Product{
		product("A", "Alpha", "", "", 0, true, 1, 0),
		product("B", "Beta", "", "", 0, true, 1, 0, 0),
	})

	var dimErr *DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}

func TestSnapshotHolder_ReloadSwapsAndKeepsOnFailure(t *testing.T) {
	source := &rowSource{rows: []models.ProductRow{rowOf("A", models.EncodeVector([]float64{1, 0}))}}
	holder := NewSnapshotHolder(source, SnapshotOptions{})
	assert.Nil(t, holder.Current())

	first, err := holder.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, holder.Current())

	source.rows = append(source.rows, rowOf("B", models.EncodeVector([]float64{0, 1})))
	second, err := holder.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, holder.Current().Len())
	assert.Equal(t, 1, first.Len(), "old snapshot must not change")

	source.rows = nil
	_, err = holder.Reload(context.Background())
	assert.ErrorIs(t, err, ErrStoreEmpty)
	assert.Same(t, second, holder.Current())
}

func TestSnapshotHolder_ConcurrentReadsDuringReload(t *testing.T) {
	source := &rowSource{rows: []models.ProductRow{
		rowOf("A", models.EncodeVector([]float64{1, 0})),
		rowOf("B", models.EncodeVector([]float64{0, 1})),
	}}
	holder := NewSnapshotHolder(source, SnapshotOptions{})
	_, err := holder.Reload(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := holder.Current()
				assert.Len(t, snap.Vectors, snap.Len())
				snap.Rank([]float64{1, 0}, 2)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		_, err := holder.Reload(context.Background())
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestSnapshotHolder_NoSource(t *testing.T) {
	_, err := NewStaticHolder(nil).Reload(context.Background())
	assert.Error(t, err)
}
