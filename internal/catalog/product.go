package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Category string

const (
	CategoryDrinks Category = "bebidas"
	CategoryFood   Category = "comida"
	CategoryOther  Category = "otros"
)

var categories = []Category{CategoryDrinks, CategoryFood, CategoryOther}

func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory maps free-form input onto the fixed enumeration.
// Empty input is accepted as CategoryOther.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther, true
	}
	c := Category(s)
	return c, c.Valid()
}

type Product struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PriceCents int64    `json:"priceCents"`
	Category   Category `json:"category"`
	UsageCount int64    `json:"usageCount"`
}

// Normalized returns p with trimmed strings, non-negative counters and a
// category from the fixed enumeration. Every persisted product passes
// through here.
func (p Product) Normalized() Product {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.PriceCents = max(0, p.PriceCents)
	p.UsageCount = max(0, p.UsageCount)
	if !p.Category.Valid() {
		p.Category = CategoryOther
	}
	return p
}

// Normalize builds a well-formed Product out of an untyped stored record.
// Missing or invalid fields fall back to "", 0 and CategoryOther.
func Normalize(raw map[string]any) Product {
	category, _ := raw["category"].(string)

	return Product{
		ID:         text(raw["id"]),
		Name:       text(raw["name"]),
		PriceCents: count(raw["priceCents"], math.Round),
		Category:   Category(category),
		UsageCount: count(raw["usageCount"], math.Trunc),
	}.Normalized()
}

func DefaultProducts() []Product {
	return []Product{
		{ID: "coke", Name: "Coca-Cola", PriceCents: 300, Category: CategoryDrinks},
		{ID: "fanta", Name: "Fanta", PriceCents: 300, Category: CategoryDrinks},
		{ID: "beer", Name: "Bier", PriceCents: 450, Category: CategoryDrinks},
		{ID: "empanada", Name: "Empanada", PriceCents: 500, Category: CategoryFood},
		{ID: "candy", Name: "Bonbon", PriceCents: 100, Category: CategoryOther},
	}
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func count(v any, toInt func(float64) float64) int64 {
	var f float64
	switch t := v.(type) {
	case int:
		return max(0, int64(t))
	case int64:
		return max(0, t)
	case float64:
		f = t
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(toInt(f))
}
