// Package schema has configs, models and constants for all parts of tdacrash.
package schema

import (
	"fmt"
	"math"
	"slices"
)

// Point is a single (birth, death) pair tagged with its homology dimension.
// A point with Birth == Death is padding and carries no topological information.
type Point struct {
	Birth float64 `json:"birth"`
	Death float64 `json:"death"`
	Dim   int     `json:"dim"`
}

// IsPlaceholder reports whether the point is a zero-persistence padding point.
func (p Point) IsPlaceholder() bool {
	return p.Birth == p.Death
}

// Pair is a (birth, death) pair with the dimension tag dropped.
type Pair struct {
	Birth float64 `json:"birth"`
	Death float64 `json:"death"`
}

// Persistence returns the lifetime of the pair.
func (p Pair) Persistence() float64 {
	return p.Death - p.Birth
}

// Diagram is the persistence diagram of a single sliding window.
// Dimensions holds the sorted set of tracked homology dimensions.
type Diagram struct {
	Dimensions []int   `json:"dimensions"`
	Points     []Point `json:"points"`
}

// NewDiagram builds a diagram with a sorted, de-duplicated copy of dims.
func NewDiagram(dims []int, points []Point) Diagram {
	return Diagram{
		Dimensions: NormalizeDimensions(dims),
		Points:     slices.Clone(points),
	}
}

// Tracks reports whether dim is one of the tracked homology dimensions.
func (d Diagram) Tracks(dim int) bool {
	return slices.Contains(d.Dimensions, dim)
}

// Sub extracts the pairs of a single homology dimension, dropping placeholders.
// It returns an error describing the first malformed point it meets.
func (d Diagram) Sub(dim int) ([]Pair, error) {
	var pairs []Pair
	for i, p := range d.Points {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		if !d.Tracks(p.Dim) {
			return nil, fmt.Errorf("point %d: homology dimension %d is not tracked by %v", i, p.Dim, d.Dimensions)
		}
		if p.Dim != dim || p.IsPlaceholder() {
			continue
		}
		pairs = append(pairs, Pair{Birth: p.Birth, Death: p.Death})
	}
	return pairs, nil
}

func (p Point) validate() error {
	switch {
	case math.IsNaN(p.Birth) || math.IsNaN(p.Death):
		return fmt.Errorf("NaN coordinate in (%v, %v)", p.Birth, p.Death)
	case math.IsInf(p.Birth, 0) || math.IsInf(p.Death, 0):
		return fmt.Errorf("infinite coordinate in (%v, %v); clamp infinite bars upstream", p.Birth, p.Death)
	case p.Death < p.Birth:
		return fmt.Errorf("death %v precedes birth %v", p.Death, p.Birth)
	}
	return nil
}

// DiagramSequence is the time-ordered list of diagrams, one per sliding window.
type DiagramSequence []Diagram

// SameDimensions reports whether every diagram tracks exactly dims.
// It returns the index of the first offending diagram, or -1.
func (s DiagramSequence) SameDimensions(dims []int) int {
	want := NormalizeDimensions(dims)
	for i, d := range s {
		if !slices.Equal(NormalizeDimensions(d.Dimensions), want) {
			return i
		}
	}
	return -1
}

// NormalizeDimensions returns a sorted copy of dims without duplicates.
func NormalizeDimensions(dims []int) []int {
	out := slices.Clone(dims)
	slices.Sort(out)
	return slices.Compact(out)
}
