package catalog

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const DefaultKey = "pos_products_v1"

// Slot is a single-document key-value store. The catalog lives in one key.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

// Store persists the whole catalog as one JSON array. There is no partial
// write: every SaveAll replaces the document.
type Store struct {
	slot Slot
	key  string
	log  *zap.Logger
}

func NewStore(slot Slot, key string, log *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{slot: slot, key: key, log: log}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.slot.Ping(ctx)
}

// Load reads the catalog, re-normalizes every record and writes the result
// back so schema upgrades are applied once. An absent, unparsable or empty
// document yields the seed catalog.
func (s *Store) Load(ctx context.Context) ([]Product, error) {
	raw, ok, err := s.slot.Get(ctx, s.key)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}

	products, err := decodeCatalog(raw, ok)
	switch {
	case errors.Is(err, errNoCatalog):
		s.log.Info("no catalog stored, seeding defaults", zap.String("key", s.key))
		products = DefaultProducts()
	case err != nil:
		s.log.Warn("catalog unusable, falling back to defaults", zap.String("key", s.key), zap.Error(err))
		products = DefaultProducts()
	default:
		s.log.Info("catalog loaded", zap.String("key", s.key), zap.Int("products", len(products)))
	}

	if err := s.SaveAll(ctx, products); err != nil {
		return nil, err
	}
	return normalizeAll(products), nil
}

func (s *Store) SaveAll(ctx context.Context, products []Product) error {
	data, err := json.Marshal(normalizeAll(products))
	if err != nil {
		return errors.Wrap(err, "encode catalog")
	}
	if err := s.slot.Set(ctx, s.key, data); err != nil {
		return errors.Wrap(err, "write catalog")
	}
	return nil
}

var errNoCatalog = errors.New("no catalog stored")

func decodeCatalog(raw []byte, ok bool) ([]Product, error) {
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return nil, errNoCatalog
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	if len(records) == 0 {
		return nil, errors.New("empty catalog")
	}

	products := make([]Product, 0, len(records))
	for _, rec := range records {
		products = append(products, DecodeProduct(rec))
	}
	return products, nil
}

// DecodeProduct turns one stored product record of any shape into a
// normalized Product. Non-object records yield the zero-value defaults.
func DecodeProduct(rec []byte) Product {
	return Normalize(decodeRecord(rec))
}

func decodeRecord(rec []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(rec))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil
	}
	return m
}

func normalizeAll(products []Product) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p.Normalized()
	}
	return out
}
