package order

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"MiniPOS/internal/catalog"
)

// Order is a finalized sale. Items are full product snapshots so later
// catalog edits never change history.
type Order struct {
	ID         string            `json:"id"`
	Items      []catalog.Product `json:"items"`
	TotalCents int64             `json:"totalCents"`
	Timestamp  int64             `json:"timestamp"`
}

// Log is the append-only order store keyed by order id.
type Log interface {
	AddOrder(ctx context.Context, o Order) error
	AllOrders(ctx context.Context) ([]Order, error)
	ClearOrders(ctx context.Context) error
	Ping(ctx context.Context) error
}

func TotalCents(items []catalog.Product) int64 {
	var total int64
	for _, p := range items {
		total += p.PriceCents
	}
	return total
}

func (o Order) clone() Order {
	o.Items = append([]catalog.Product(nil), o.Items...)
	return o
}

// normalized is applied to everything read back from a Log: item snapshots
// are normalized and the total is recomputed from them.
func (o Order) normalized() Order {
	items := make([]catalog.Product, len(o.Items))
	for i, p := range o.Items {
		items[i] = p.Normalized()
	}
	o.Items = items
	o.TotalCents = TotalCents(items)
	return o
}

type storedOrder struct {
	ID        string            `json:"id"`
	Items     []json.RawMessage `json:"items"`
	Timestamp json.Number       `json:"timestamp"`
}

// decodeOrder reads one stored order without trusting its shape: every item
// goes through catalog normalization and the total is recomputed. Only a
// record whose envelope is unreadable or has no id is rejected.
func decodeOrder(data []byte) (Order, error) {
	var rec storedOrder
	if err := json.Unmarshal(data, &rec); err != nil {
		return Order{}, errors.Wrap(err, "decode order")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return Order{}, errors.New("order without id")
	}

	o := Order{
		ID:        rec.ID,
		Items:     make([]catalog.Product, 0, len(rec.Items)),
		Timestamp: millis(rec.Timestamp),
	}
	for _, item := range rec.Items {
		o.Items = append(o.Items, catalog.DecodeProduct(item))
	}
	return o.normalized(), nil
}

func millis(n json.Number) int64 {
	if v, err := n.Int64(); err == nil {
		return v
	}
	f, err := n.Float64()
	switch {
	case err != nil, math.IsNaN(f), math.IsInf(f, 0):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Trunc(f))
}

// SortNewestFirst orders by timestamp descending. Equal timestamps keep
// their relative order.
func SortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp > orders[j].Timestamp
	})
}
