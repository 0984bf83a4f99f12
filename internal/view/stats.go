package view

import "github.com/adesaini/sweetshop-client/internal/model"

// lowStockThreshold is a display threshold for the dashboard, not a
// business rule: strictly below it counts as low stock.
const lowStockThreshold = 10

// Stats aggregates the current source items for the dashboard view.
func (c *Controller) Stats() model.Stats {
	return ComputeStats(c.source.Items())
}

// ComputeStats derives dashboard aggregates: item count, low-stock count,
// total inventory value, and the category with the most items (ties broken
// alphabetically for a stable display).
func ComputeStats(items []model.Sweet) model.Stats {
	st := model.Stats{TotalSweets: len(items)}
	counts := make(map[string]int)
	for _, s := range items {
		if s.Quantity < lowStockThreshold {
			st.LowStock++
		}
		st.TotalValue += s.Price * float64(s.Quantity)
		counts[s.Category]++
	}
	best := 0
	for cat, n := range counts {
		if n > best || (n == best && best > 0 && cat < st.PopularCategory) {
			best = n
			st.PopularCategory = cat
		}
	}
	if st.PopularCategory == "" {
		st.PopularCategory = "None"
	}
	return st
}
