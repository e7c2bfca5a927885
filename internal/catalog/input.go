package catalog

import (
	"strings"

	"github.com/cockroachdb/errors"

	"MiniPOS/pkg/money"
)

var (
	ErrInvalidProduct = errors.New("invalid product")
	ErrNotFound       = errors.New("product not found")
)

// ProductInput is what the admin screen submits. Price is a EUR string as
// typed by the operator ("3,50", "€ 3,50", "3.5").
type ProductInput struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	Category   string `json:"category"`
	UsageCount *int64 `json:"usage_count,omitempty"`
}

// Validate rejects empty names, non-positive or unparsable prices and
// categories outside the enumeration. The returned product has no id.
func (in ProductInput) Validate() (Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Product{}, invalid("name required")
	}

	cents, err := money.ParseEUR(in.Price)
	if err != nil || cents <= 0 {
		return Product{}, invalid("invalid price")
	}

	category, ok := ParseCategory(in.Category)
	if !ok {
		return Product{}, invalid("invalid category")
	}

	p := Product{Name: name, PriceCents: cents, Category: category}
	if in.UsageCount != nil {
		if *in.UsageCount < 0 {
			return Product{}, invalid("invalid usage count")
		}
		p.UsageCount = *in.UsageCount
	}
	return p, nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

func (e validationError) Is(target error) bool { return target == ErrInvalidProduct }

func invalid(msg string) error {
	return validationError(msg)
}
