//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MiniPOS/internal/catalog"
	"MiniPOS/internal/order"
	"MiniPOS/pkg/kit"
)

func storageCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func sampleOrders() (order.Order, order.Order) {
	coke := catalog.Product{ID: "coke", Name: "Coca-Cola", PriceCents: 300, Category: catalog.CategoryDrinks}
	beer := catalog.Product{ID: "beer", Name: "Bier", PriceCents: 450, Category: catalog.CategoryDrinks}
	older := order.Order{ID: "it-older", Items: []catalog.Product{coke}, TotalCents: 300, Timestamp: 1_000}
	newer := order.Order{ID: "it-newer", Items: []catalog.Product{coke, beer}, TotalCents: 750, Timestamp: 2_000}
	return older, newer
}

func TestPostgresStorage(t *testing.T) {
	dsn := getenv("E2E_DATABASE_URL", "")
	if dsn == "" {
		t.Skip("E2E_DATABASE_URL not set")
	}
	ctx := storageCtx(t)

	pool, err := kit.OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	t.Run("catalog slot", func(t *testing.T) {
		slot := catalog.NewPostgresSlot(pool)
		require.NoError(t, slot.EnsureSchema(ctx))
		key := fmt.Sprintf("it_products_%d", time.Now().UnixNano())

		seeded, err := catalog.NewStore(slot, key, nil).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, catalog.DefaultProducts(), seeded)

		next := append([]catalog.Product{{ID: "tea", Name: "Tee", PriceCents: 120, Category: catalog.CategoryDrinks}}, seeded...)
		require.NoError(t, catalog.NewStore(slot, key, nil).SaveAll(ctx, next))

		loaded, err := catalog.NewStore(slot, key, nil).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, next, loaded)
	})

	t.Run("order log", func(t *testing.T) {
		l := order.NewPostgresLog(pool, nil)
		require.NoError(t, l.EnsureSchema(ctx))
		require.NoError(t, l.ClearOrders(ctx))
		t.Cleanup(func() { _ = l.ClearOrders(context.Background()) })

		older, newer := sampleOrders()
		require.NoError(t, l.AddOrder(ctx, older))
		require.NoError(t, l.AddOrder(ctx, newer))

		// upsert: the same id replaces the stored document
		newer.Items = newer.Items[:1]
		newer.TotalCents = 300
		require.NoError(t, l.AddOrder(ctx, newer))

		_, err := pool.Exec(ctx, `INSERT INTO pos_orders (id, ts, doc) VALUES ($1, $2, $3)`,
			"it-legacy", 500, `{"id":"it-legacy","items":[{"id":"candy","name":"Bonbon","priceCents":99.6}],"timestamp":500}`)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO pos_orders (id, ts, doc) VALUES ($1, $2, $3)`,
			"it-broken", 400, `{"items":"nope"}`)
		require.NoError(t, err)

		all, err := l.AllOrders(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, newer, all[0])
		assert.Equal(t, older, all[1])
		assert.Equal(t, "it-legacy", all[2].ID)
		assert.EqualValues(t, 100, all[2].TotalCents)

		require.NoError(t, l.ClearOrders(ctx))
		all, err = l.AllOrders(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestRedisStorage(t *testing.T) {
	addr := getenv("E2E_REDIS_ADDR", "")
	if addr == "" {
		t.Skip("E2E_REDIS_ADDR not set")
	}
	ctx := storageCtx(t)

	rdb, err := kit.OpenRedis(ctx, addr, getenv("E2E_REDIS_PASSWORD", ""), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := fmt.Sprintf("it:%d:", time.Now().UnixNano())
	t.Cleanup(func() {
		_ = rdb.Del(context.Background(), prefix+catalog.DefaultKey, prefix+"orders").Err()
	})

	t.Run("catalog slot", func(t *testing.T) {
		slot := catalog.NewRedisSlot(rdb, prefix)
		require.NoError(t, slot.Ping(ctx))

		_, ok, err := slot.Get(ctx, catalog.DefaultKey)
		require.NoError(t, err)
		assert.False(t, ok)

		seeded, err := catalog.NewStore(slot, "", nil).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, catalog.DefaultProducts(), seeded)

		_, ok, err = slot.Get(ctx, catalog.DefaultKey)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("order log", func(t *testing.T) {
		l := order.NewRedisLog(rdb, prefix, nil)
		older, newer := sampleOrders()
		require.NoError(t, l.AddOrder(ctx, older))
		require.NoError(t, l.AddOrder(ctx, newer))
		require.NoError(t, rdb.HSet(ctx, prefix+"orders", "it-broken", "not json").Err())

		all, err := l.AllOrders(ctx)
		require.NoError(t, err)
		sort.Slice(all, func(i, j int) bool { return all[i].Timestamp < all[j].Timestamp })
		assert.Equal(t, []order.Order{older, newer}, all)

		require.NoError(t, l.ClearOrders(ctx))
		all, err = l.AllOrders(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
