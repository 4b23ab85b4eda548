package heatmap

import "errors"

// Configuration errors. Compute reports them before touching any cell.
var (
	ErrInvalidMode      = errors.New("invalid mode")
	ErrInvalidScale     = errors.New("scale must be a positive number")
	ErrInvalidRadius    = errors.New("radius must be a positive number")
	ErrInvalidPadding   = errors.New("padding must be a non-negative number")
	ErrEmptyDataset     = errors.New("dataset has no points")
	ErrDegenerateBounds = errors.New("bounding box has zero extent")
	ErrNonNumericValue  = errors.New("value is not numeric")
)

// ErrLegendMiss means a category reached the resolver without a legend rank.
// The legend is built from the same dataset, so this is a programming error.
var ErrLegendMiss = errors.New("category missing from legend")
