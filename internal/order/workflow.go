package order

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"MiniPOS/internal/catalog"
)

// UsageCounter is the part of the catalog the checkout touches.
type UsageCounter interface {
	IncrementUsage(ctx context.Context, id string, by int64) error
}

type WorkflowDeps struct {
	Catalog UsageCounter
	Log     Log
	Logger  *zap.Logger
	Metrics *Metrics

	Now   func() time.Time
	NewID func() string
}

// Workflow holds the till state: the order being built and the recent
// orders. An order is either building (current) or finalized (in orders).
type Workflow struct {
	mu sync.Mutex

	catalog UsageCounter
	log     Log
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
	newID   func() string

	current []catalog.Product
	orders  []Order
}

// NewWorkflow loads the recent-orders list from the log, newest first.
func NewWorkflow(ctx context.Context, deps WorkflowDeps) (*Workflow, error) {
	w := &Workflow{
		catalog: deps.Catalog,
		log:     deps.Log,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		now:     deps.Now,
		newID:   deps.NewID,
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.newID == nil {
		w.newID = uuid.NewString
	}

	stored, err := w.log.AllOrders(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load orders")
	}
	for i := range stored {
		stored[i] = stored[i].normalized()
	}
	SortNewestFirst(stored)
	w.orders = stored

	return w, nil
}

func (w *Workflow) Ping(ctx context.Context) error {
	return w.log.Ping(ctx)
}

// AddItem appends a snapshot of p. Repeats represent quantity.
func (w *Workflow) AddItem(p catalog.Product) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = append(w.current, p)
}

func (w *Workflow) UndoLastItem() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.current) == 0 {
		return
	}
	w.current = w.current[:len(w.current)-1]
}

func (w *Workflow) ClearOrder() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = nil
}

func (w *Workflow) CurrentOrder() []catalog.Product {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]catalog.Product(nil), w.current...)
}

func (w *Workflow) CurrentTotalCents() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return TotalCents(w.current)
}

// Orders returns the recent orders, newest first.
func (w *Workflow) Orders() []Order {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Order, len(w.orders))
	for i, o := range w.orders {
		out[i] = o.clone()
	}
	return out
}

// Checkout finalizes the current order. It reports false when there was
// nothing to check out.
//
// Failures to bump usage counters or to write the order log are logged and
// counted but do not stop the checkout: the till keeps going and the order
// appears in the recent list either way.
func (w *Workflow) Checkout(ctx context.Context) (Order, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.current) == 0 {
		return Order{}, false
	}
	items := w.current

	// Once the sale is taken it must reach storage even if the caller is gone.
	ctx = context.WithoutCancel(ctx)

	for _, q := range quantities(items) {
		if err := w.catalog.IncrementUsage(ctx, q.id, q.n); err != nil {
			w.metrics.usageIncrementFailed()
			w.logger.Error("increment usage failed",
				zap.String("product_id", q.id), zap.Int64("by", q.n), zap.Error(err))
		}
	}

	o := Order{
		ID:         w.newID(),
		Items:      items,
		TotalCents: TotalCents(items),
		Timestamp:  w.now().UnixMilli(),
	}

	if err := w.log.AddOrder(ctx, o); err != nil {
		w.metrics.logWriteFailed()
		w.logger.Error("order log write failed",
			zap.String("order_id", o.ID), zap.Int64("total_cents", o.TotalCents), zap.Error(err))
	}

	w.current = nil
	w.orders = append([]Order{o}, w.orders...)
	w.metrics.checkout(o.TotalCents)
	w.logger.Info("checkout",
		zap.String("order_id", o.ID), zap.Int("items", len(o.Items)), zap.Int64("total_cents", o.TotalCents))

	return o.clone(), true
}

// ClearOrders wipes the order log and the recent list. Admin use only.
func (w *Workflow) ClearOrders(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.log.ClearOrders(ctx); err != nil {
		return errors.Wrap(err, "clear orders")
	}
	w.orders = nil
	return nil
}

type quantity struct {
	id string
	n  int64
}

func quantities(items []catalog.Product) []quantity {
	idx := make(map[string]int, len(items))
	out := make([]quantity, 0, len(items))
	for _, p := range items {
		if i, ok := idx[p.ID]; ok {
			out[i].n++
			continue
		}
		idx[p.ID] = len(out)
		out = append(out, quantity{id: p.ID, n: 1})
	}
	return out
}
