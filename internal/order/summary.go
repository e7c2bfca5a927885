package order

import "MiniPOS/internal/catalog"

type Line struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Qty            int64  `json:"qty"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

// Summarize groups items by product id in order of first appearance. The
// name shown is the one captured by the first snapshot.
func Summarize(items []catalog.Product) []Line {
	idx := make(map[string]int, len(items))
	lines := make([]Line, 0, len(items))

	for _, p := range items {
		i, ok := idx[p.ID]
		if !ok {
			idx[p.ID] = len(lines)
			lines = append(lines, Line{ProductID: p.ID, Name: p.Name, Qty: 1, LineTotalCents: p.PriceCents})
			continue
		}
		lines[i].Qty++
		lines[i].LineTotalCents += p.PriceCents
	}
	return lines
}
