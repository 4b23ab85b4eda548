package heatmap

import "fmt"

// MaxCategories is the number of distinct legend ranks the palette supports.
// Rarer categories beyond it share the last rank.
const MaxCategories = 10

// Sentinel marks a cell that no sample influenced.
const Sentinel = 0.0

// maxWeight is the weight of a sample sitting exactly on the queried cell. It is
// kept below 1 so that a fractional influence value never reaches the next
// lower integer rank.
const maxWeight = 0.999

// Mode selects how a cell's vicinity is reduced to a single value.
type Mode string

const (
	ModeInfluence Mode = "influence"
	ModeWeighted  Mode = "weighted"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeInfluence, ModeWeighted:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Point is a single normalized sample. Value holds a category label in
// influence mode and a decimal number in weighted mode.
type Point struct {
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value string  `json:"value"`
}

// Dataset is an ordered sequence of samples. Order matters: it decides legend
// tie-breaks and the summation order of weights.
type Dataset []Point

// Values returns the value column in dataset order.
func (d Dataset) Values() []string {
	values := make([]string, len(d))
	for i, p := range d {
		values[i] = p.Value
	}
	return values
}
