package heatmap

import (
	"fmt"
	"sort"
)

// Outcome classifies how a cell was resolved.
type Outcome int

const (
	OutcomeEmpty     Outcome = iota // no sample in range
	OutcomeAmbiguous                // no clear categorical majority
	OutcomeAssigned                 // a value was written
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeAmbiguous:
		return "ambiguous"
	case OutcomeAssigned:
		return "assigned"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// resolver reduces a cell's vicinity to the value written into the grid.
type resolver interface {
	resolve(vicinity []Neighbor) (float64, Outcome, error)
}

// influenceResolver writes the dominant category's rank, reduced by the
// shortfall of its winning margin below maxWeight.
type influenceResolver struct {
	labels []string // parallel to the mapped samples
	legend Legend
}

func (r influenceResolver) resolve(vicinity []Neighbor) (float64, Outcome, error) {
	if len(vicinity) == 0 {
		return Sentinel, OutcomeEmpty, nil
	}

	var acc weightAccumulator
	for _, n := range vicinity {
		acc.add(r.labels[n.Index], n.Weight)
	}
	dominant, rest := acc.dominant()
	if dominant.weight < rest {
		return Sentinel, OutcomeAmbiguous, nil
	}

	rank, ok := r.legend.Rank(dominant.label)
	if !ok {
		return Sentinel, OutcomeEmpty, fmt.Errorf("%w: %q", ErrLegendMiss, dominant.label)
	}
	margin := dominant.weight - rest
	if margin >= maxWeight {
		return float64(rank), OutcomeAssigned, nil
	}
	return float64(rank) - (maxWeight - margin), OutcomeAssigned, nil
}

// weightedResolver writes the distance-weighted sum of numeric sample values.
type weightedResolver struct {
	values []float64 // parallel to the mapped samples
	clamp  bool
}

func (r weightedResolver) resolve(vicinity []Neighbor) (float64, Outcome, error) {
	if len(vicinity) == 0 {
		return Sentinel, OutcomeEmpty, nil
	}
	total := 0.0
	for _, n := range vicinity {
		total += n.Weight * r.values[n.Index]
	}
	if r.clamp && total > 1 {
		total = 1
	}
	return total, OutcomeAssigned, nil
}

type labelWeight struct {
	label  string
	weight float64
}

// weightAccumulator sums weights per label, remembering first-seen order.
type weightAccumulator struct {
	groups []labelWeight
	pos    map[string]int
}

func (a *weightAccumulator) add(label string, w float64) {
	if a.pos == nil {
		a.pos = make(map[string]int)
	}
	i, ok := a.pos[label]
	if !ok {
		i = len(a.groups)
		a.pos[label] = i
		a.groups = append(a.groups, labelWeight{label: label})
	}
	a.groups[i].weight += w
}

// dominant returns the heaviest group and the summed weight of all others.
// Equal weights keep first-seen order. No labels may be added afterwards.
func (a *weightAccumulator) dominant() (labelWeight, float64) {
	sort.SliceStable(a.groups, func(i, j int) bool {
		return a.groups[i].weight > a.groups[j].weight
	})
	rest := 0.0
	for _, g := range a.groups[1:] {
		rest += g.weight
	}
	return a.groups[0], rest
}
