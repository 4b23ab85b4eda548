package heatmap

import "sort"

// LegendEntry is one category and its palette rank.
type LegendEntry struct {
	Label string `json:"label"`
	Rank  int    `json:"rank"`
	Count int    `json:"count"`
}

// Legend maps category labels to 1-based ranks. It is immutable once built.
type Legend struct {
	entries []LegendEntry
	ranks   map[string]int
}

// BuildLegend ranks labels by descending frequency. Ties keep first-seen
// order. Labels past the (MaxCategories-1)th position all receive rank
// MaxCategories.
func BuildLegend(values []string) Legend {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	l := Legend{
		entries: make([]LegendEntry, len(order)),
		ranks:   make(map[string]int, len(order)),
	}
	for i, label := range order {
		rank := min(i+1, MaxCategories)
		l.entries[i] = LegendEntry{Label: label, Rank: rank, Count: counts[label]}
		l.ranks[label] = rank
	}
	return l
}

// SingleLabelLegend is the weighted-mode legend: one entry at rank 1, used
// only to title the raster.
func SingleLabelLegend(label string, count int) Legend {
	return Legend{
		entries: []LegendEntry{{Label: label, Rank: 1, Count: count}},
		ranks:   map[string]int{label: 1},
	}
}

// Rank returns the rank assigned to label.
func (l Legend) Rank(label string) (int, bool) {
	r, ok := l.ranks[label]
	return r, ok
}

// Entries returns a copy of the legend in rank order.
func (l Legend) Entries() []LegendEntry {
	out := make([]LegendEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of labels in the legend.
func (l Legend) Len() int { return len(l.entries) }

// MaxRank returns the highest rank in use, or 0 for an empty legend.
func (l Legend) MaxRank() int {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Rank
}
