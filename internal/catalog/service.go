package catalog

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Service owns the in-memory catalog snapshot. Every mutation persists the
// full resulting collection before it becomes visible.
type Service struct {
	mu       sync.RWMutex
	store    *Store
	products []Product

	suffix func() string
}

func NewService(ctx context.Context, store *Store) (*Service, error) {
	products, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:    store,
		products: products,
		suffix:   randomSuffix,
	}, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// GetAll returns a copy in insertion order, newest first.
func (s *Service) GetAll() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...)
}

func (s *Service) Get(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (s *Service) Add(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Product, 0, len(s.products)+1)
	next = append(next, p.Normalized())
	next = append(next, s.products...)
	return s.commit(ctx, next)
}

// Update replaces the product with the same id. Unknown ids are ignored.
func (s *Service) Update(ctx context.Context, p Product) error {
	p = p.Normalized()

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(p.ID)
	if i < 0 {
		return nil
	}

	next := append([]Product(nil), s.products...)
	next[i] = p
	return s.commit(ctx, next)
}

// Remove drops the product with the given id. Unknown ids are ignored.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return nil
	}

	next := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if p.ID != id {
			next = append(next, p)
		}
	}
	return s.commit(ctx, next)
}

// IncrementUsage adds by (at least 1) to the usage counter of id, saturating
// at MaxInt64.
func (s *Service) IncrementUsage(ctx context.Context, id string, by int64) error {
	by = max(1, by)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}

	next := append([]Product(nil), s.products...)
	if next[i].UsageCount > math.MaxInt64-by {
		next[i].UsageCount = math.MaxInt64
	} else {
		next[i].UsageCount = max(0, next[i].UsageCount+by)
	}
	return s.commit(ctx, next)
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	notSlugChar   = regexp.MustCompile(`[^a-z0-9-]`)
)

// GenerateID slugifies name and appends a random 6-character suffix.
// Collisions are not checked.
func (s *Service) GenerateID(name string) string {
	base := strings.TrimSpace(strings.ToLower(name))
	base = whitespaceRun.ReplaceAllString(base, "-")
	base = notSlugChar.ReplaceAllString(base, "")
	if base == "" {
		base = "product"
	}
	return base + "-" + s.suffix()
}

func (s *Service) indexOf(id string) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) commit(ctx context.Context, next []Product) error {
	if err := s.store.SaveAll(ctx, next); err != nil {
		return err
	}
	s.products = normalizeAll(next)
	return nil
}

func randomSuffix() string {
	return uuid.NewString()[:6]
}
