package homder

import (
	"fmt"
	"math"

	"github.com/huangsam/tdacrash/schema"
	"gonum.org/v1/gonum/floats"
)

// Bin derives a sampling grid of nBins values and its step size for every
// dimension in dims. Each grid spans the smallest and largest birth or death
// seen in that dimension. A dimension whose range is degenerate borrows the
// largest value over all dimensions, and widens by half a unit when that is
// still degenerate.
func Bin(diagrams schema.DiagramSequence, dims []int, nBins int) (map[int][]float64, map[int]float64, error) {
	if nBins < 2 {
		return nil, nil, fmt.Errorf("%w: n_bins must be >= 2, got %d", ErrConfiguration, nBins)
	}
	dims = schema.NormalizeDimensions(dims)
	if len(dims) == 0 {
		return nil, nil, fmt.Errorf("%w: no homology dimensions", ErrConfiguration)
	}

	lows := make(map[int]float64, len(dims))
	highs := make(map[int]float64, len(dims))
	for _, dim := range dims {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i, d := range diagrams {
			pairs, err := d.Sub(dim)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: diagram %d: %v", ErrMalformedDiagram, i, err)
			}
			for _, p := range pairs {
				lo = min(lo, p.Birth)
				hi = max(hi, p.Death)
			}
		}
		if math.IsInf(lo, 1) {
			lo, hi = 0, 0
		}
		lows[dim], highs[dim] = lo, hi
	}

	globalHigh := math.Inf(-1)
	for _, hi := range highs {
		globalHigh = max(globalHigh, hi)
	}

	samplings := make(map[int][]float64, len(dims))
	steps := make(map[int]float64, len(dims))
	for _, dim := range dims {
		lo, hi := lows[dim], highs[dim]
		if lo == hi {
			hi = globalHigh
		}
		if lo >= hi {
			lo, hi = lo-0.5, lo+0.5
		}
		grid := make([]float64, nBins)
		floats.Span(grid, lo, hi)
		samplings[dim] = grid
		steps[dim] = (hi - lo) / float64(nBins-1)
	}
	return samplings, steps, nil
}
