package order_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MiniPOS/internal/catalog"
	"MiniPOS/internal/order"
)

type fixture struct {
	catalog *catalog.Service
	log     *order.MemLog
	flow    *order.Workflow
	clock   time.Time
}

func newFixture(t *testing.T, log order.Log) *fixture {
	t.Helper()
	ctx := context.Background()

	svc, err := catalog.NewService(ctx, catalog.NewStore(catalog.NewMemSlot(), "", nil))
	require.NoError(t, err)

	mem, _ := log.(*order.MemLog)
	f := &fixture{catalog: svc, log: mem, clock: time.UnixMilli(1_700_000_000_000)}

	seq := 0
	f.flow, err = order.NewWorkflow(ctx, order.WorkflowDeps{
		Catalog: svc,
		Log:     log,
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Second)
			return f.clock
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("o-%d", seq)
		},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) product(t *testing.T, id string) catalog.Product {
	t.Helper()
	p, ok := f.catalog.Get(id)
	require.True(t, ok, "product %s", id)
	return p
}

func TestCheckout_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, order.NewMemLog())

	coke := f.product(t, "coke")
	beer := f.product(t, "beer")

	f.flow.AddItem(coke)
	f.flow.AddItem(coke)
	f.flow.AddItem(beer)
	assert.EqualValues(t, 1050, f.flow.CurrentTotalCents())

	o, ok := f.flow.Checkout(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 1050, o.TotalCents)
	assert.Len(t, o.Items, 3)
	assert.Equal(t, "o-1", o.ID)
	assert.Equal(t, f.clock.UnixMilli(), o.Timestamp)

	assert.EqualValues(t, coke.UsageCount+2, f.product(t, "coke").UsageCount)
	assert.EqualValues(t, beer.UsageCount+1, f.product(t, "beer").UsageCount)

	stored, err := f.log.AllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, o, stored[0])
}

func TestCheckout_TotalIsSumOfItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, order.NewMemLog())

	all := f.catalog.GetAll()
	var want int64
	for i := 0; i < 17; i++ {
		p := all[(i*3)%len(all)]
		f.flow.AddItem(p)
		want += p.PriceCents
	}

	o, ok := f.flow.Checkout(ctx)
	require.True(t, ok)
	assert.Equal(t, want, o.TotalCents)
	assert.Equal(t, order.TotalCents(o.Items), o.TotalCents)
}

func TestCheckout_EmptiesBuilderAndPrependsOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, order.NewMemLog())

	f.flow.AddItem(f.product(t, "candy"))
	first, _ := f.flow.Checkout(ctx)

	f.flow.AddItem(f.product(t, "fanta"))
	second, ok := f.flow.Checkout(ctx)
	require.True(t, ok)

	assert.Empty(t, f.flow.CurrentOrder())
	assert.Zero(t, f.flow.CurrentTotalCents())

	orders := f.flow.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestCheckout_EmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, order.NewMemLog())

	_, ok := f.flow.Checkout(ctx)
	assert.False(t, ok)
	assert.Empty(t, f.flow.Orders())

	stored, err := f.log.AllOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCheckout_RemovingProductKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, order.NewMemLog())

	f.flow.AddItem(f.product(t, "empanada"))
	o, _ := f.flow.Checkout(ctx)

	require.NoError(t, f.catalog.Remove(ctx, "empanada"))
	require.NoError(t, f.catalog.Update(ctx, catalog.Product{ID: "coke", Name: "Cola Zero", PriceCents: 999}))

	orders := f.flow.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, o.Items, orders[0].Items)
	assert.Equal(t, "Empanada", orders[0].Items[0].Name)
}

func TestWorkflow_ItemsAreSnapshots(t *testing.T) {
	f := newFixture(t, order.NewMemLog())

	p := f.product(t, "coke")
	f.flow.AddItem(p)
	p.PriceCents = 1

	items := f.flow.CurrentOrder()
	items[0].Name = "changed"

	current := f.flow.CurrentOrder()
	assert.Equal(t, "Coca-Cola", current[0].Name)
	assert.EqualValues(t, 300, current[0].PriceCents)
}

func TestWorkflow_UndoAndClear(t *testing.T) {
	f := newFixture(t, order.NewMemLog())

	f.flow.UndoLastItem()
	assert.Empty(t, f.flow.CurrentOrder())

	f.flow.AddItem(f.product(t, "coke"))
	f.flow.AddItem(f.product(t, "beer"))
	f.flow.UndoLastItem()

	current := f.flow.CurrentOrder()
	require.Len(t, current, 1)
	assert.Equal(t, "coke", current[0].ID)

	f.flow.ClearOrder()
	assert.Empty(t, f.flow.CurrentOrder())
	assert.Empty(t, f.flow.Orders())
}

type failingLog struct {
	*order.MemLog
}

func (failingLog) AddOrder(context.Context, order.Order) error {
	return errors.New("quota exceeded")
}

func TestCheckout_LogFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := order.NewMetrics(reg)

	svc, err := catalog.NewService(ctx, catalog.NewStore(catalog.NewMemSlot(), "", nil))
	require.NoError(t, err)
	flow, err := order.NewWorkflow(ctx, order.WorkflowDeps{
		Catalog: svc,
		Log:     failingLog{MemLog: order.NewMemLog()},
		Metrics: metrics,
	})
	require.NoError(t, err)

	coke, _ := svc.Get("coke")
	flow.AddItem(coke)

	o, ok := flow.Checkout(ctx)
	require.True(t, ok)
	assert.NotEmpty(t, o.ID)
	assert.Empty(t, flow.CurrentOrder())
	require.Len(t, flow.Orders(), 1)
	assert.Equal(t, o.ID, flow.Orders()[0].ID)

	updated, _ := svc.Get("coke")
	assert.EqualValues(t, 1, updated.UsageCount)

	n, err := testutil.GatherAndCount(reg, "pos_order_log_write_failures_total", "pos_checkouts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type brokenCounter struct{}

func (brokenCounter) IncrementUsage(context.Context, string, int64) error {
	return errors.New("catalog write failed")
}

func TestCheckout_UsageFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	log := order.NewMemLog()
	flow, err := order.NewWorkflow(ctx, order.WorkflowDeps{Catalog: brokenCounter{}, Log: log})
	require.NoError(t, err)

	flow.AddItem(catalog.Product{ID: "x", Name: "X", PriceCents: 10})
	_, ok := flow.Checkout(ctx)
	require.True(t, ok)

	stored, err := log.AllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestNewWorkflow_LoadsNewestFirstAndRecomputesTotals(t *testing.T) {
	ctx := context.Background()
	log := order.NewMemLog()

	item := catalog.Product{ID: "coke", Name: "Coca-Cola", PriceCents: 300, Category: catalog.CategoryDrinks}
	for i, ts := range []int64{2000, 5000, 1000} {
		require.NoError(t, log.AddOrder(ctx, order.Order{
			ID:         fmt.Sprintf("o-%d", i),
			Items:      []catalog.Product{item, item},
			TotalCents: 1,
			Timestamp:  ts,
		}))
	}

	flow, err := order.NewWorkflow(ctx, order.WorkflowDeps{Catalog: brokenCounter{}, Log: log})
	require.NoError(t, err)

	orders := flow.Orders()
	require.Len(t, orders, 3)
	assert.EqualValues(t, []int64{5000, 2000, 1000}, []int64{orders[0].Timestamp, orders[1].Timestamp, orders[2].Timestamp})
	for _, o := range orders {
		assert.EqualValues(t, 600, o.TotalCents)
	}
}

func TestWorkflow_ClearOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, order.NewMemLog())

	f.flow.AddItem(f.product(t, "coke"))
	_, _ = f.flow.Checkout(ctx)

	require.NoError(t, f.flow.ClearOrders(ctx))
	assert.Empty(t, f.flow.Orders())

	stored, err := f.log.AllOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCheckout_CancelledRequestStillPersists(t *testing.T) {
	db := openBolt(t, filepath.Join(t.TempDir(), "pos.db"))
	t.Cleanup(func() { _ = db.Close() })

	slot, err := catalog.NewBoltSlot(db)
	require.NoError(t, err)
	svc, err := catalog.NewService(context.Background(), catalog.NewStore(slot, "", nil))
	require.NoError(t, err)
	l, err := order.NewBoltLog(db, nil)
	require.NoError(t, err)
	flow, err := order.NewWorkflow(context.Background(), order.WorkflowDeps{Catalog: svc, Log: l})
	require.NoError(t, err)

	coke, ok := svc.Get("coke")
	require.True(t, ok)
	flow.AddItem(coke)
	flow.AddItem(coke)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, ok := flow.Checkout(ctx)
	require.True(t, ok)

	stored, err := l.AllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, o.ID, stored[0].ID)

	after, _ := svc.Get("coke")
	assert.EqualValues(t, coke.UsageCount+2, after.UsageCount)

	reloaded, err := catalog.NewStore(slot, "", nil).Load(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, coke.UsageCount+2, reloaded[0].UsageCount)
}
