package core

import "sort"

// CategoryAmount is the (category, amount) projection read for summaries.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// CategorySummary aggregates the expenses of one category.
type CategorySummary struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"total_amount"`
	Count       int     `json:"count"`
}

// Summarize groups rows by category and sorts the result by total amount,
// highest first. Equal totals are ordered by category name.
func Summarize(rows []CategoryAmount) []CategorySummary {
	index := make(map[string]int)
	out := make([]CategorySummary, 0)
	for _, r := range rows {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, CategorySummary{Category: r.Category})
		}
		out[i].TotalAmount += r.Amount
		out[i].Count++
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].Category < out[j].Category
	})
	return out
}
