package catalog_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"MiniPOS/internal/catalog"
)

func TestStore_LoadSeedsDefaultsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	slot := catalog.NewMemSlot()
	store := catalog.NewStore(slot, "", zap.NewNop())

	products, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultProducts(), products)

	raw, ok, err := slot.Get(ctx, catalog.DefaultKey)
	require.NoError(t, err)
	require.True(t, ok, "defaults must be persisted")

	var stored []catalog.Product
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, catalog.DefaultProducts(), stored)
}

func TestStore_LoadFallsBackOnMalformedData(t *testing.T) {
	for name, blob := range map[string]string{
		"not json":    "{{{",
		"not array":   `{"id":"coke"}`,
		"empty array": `[]`,
		"blank":       "  ",
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			slot := catalog.NewMemSlot()
			require.NoError(t, slot.Set(ctx, catalog.DefaultKey, []byte(blob)))

			products, err := catalog.NewStore(slot, "", nil).Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, catalog.DefaultProducts(), products)
		})
	}
}

func TestStore_LoadMigratesLegacyRecords(t *testing.T) {
	ctx := context.Background()
	slot := catalog.NewMemSlot()
	legacy := `[{"id":"tea","name":" Tee ","priceCents":250},{"id":"x","priceCents":-4,"category":"bogus","usageCount":3}, 7]`
	require.NoError(t, slot.Set(ctx, catalog.DefaultKey, []byte(legacy)))

	store := catalog.NewStore(slot, "", nil)
	products, err := store.Load(ctx)
	require.NoError(t, err)

	want := []catalog.Product{
		{ID: "tea", Name: "Tee", PriceCents: 250, Category: catalog.CategoryOther},
		{ID: "x", Category: catalog.CategoryOther, UsageCount: 3},
		{Category: catalog.CategoryOther},
	}
	assert.Equal(t, want, products)

	first, _, err := slot.Get(ctx, catalog.DefaultKey)
	require.NoError(t, err)

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, again)

	second, _, err := slot.Get(ctx, catalog.DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second), "migration must be idempotent")
}

func TestStore_SaveAllNormalizes(t *testing.T) {
	ctx := context.Background()
	slot := catalog.NewMemSlot()
	store := catalog.NewStore(slot, "custom", nil)

	require.NoError(t, store.SaveAll(ctx, []catalog.Product{{ID: " a ", PriceCents: -10, Category: "zzz"}}))

	raw, ok, err := slot.Get(ctx, "custom")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"a","name":"","priceCents":0,"category":"otros","usageCount":0}]`, string(raw))
}

func TestBoltSlot(t *testing.T) {
	ctx := context.Background()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "pos.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	slot, err := catalog.NewBoltSlot(db)
	require.NoError(t, err)
	require.NoError(t, slot.Ping(ctx))

	_, ok, err := slot.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, slot.Set(ctx, "k", []byte(`[1]`)))
	v, ok, err := slot.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[1]`), v)

	store := catalog.NewStore(slot, "", nil)
	products, err := store.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SaveAll(ctx, append(products, catalog.Product{ID: "tea", Name: "Tee", PriceCents: 250})))

	reloaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, reloaded, 6)
}
