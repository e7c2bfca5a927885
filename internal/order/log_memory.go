package order

import (
	"context"
	"sync"
)

type MemLog struct {
	mu sync.RWMutex
	m  map[string]Order
}

func NewMemLog() *MemLog {
	return &MemLog{m: map[string]Order{}}
}

func (l *MemLog) Ping(ctx context.Context) error { return nil }

func (l *MemLog) AddOrder(ctx context.Context, o Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[o.ID] = o.clone()
	return nil
}

func (l *MemLog) AllOrders(ctx context.Context) ([]Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Order, 0, len(l.m))
	for _, o := range l.m {
		out = append(out, o.clone())
	}
	return out, nil
}

func (l *MemLog) ClearOrders(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m = map[string]Order{}
	return nil
}
