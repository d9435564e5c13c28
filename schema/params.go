package schema

import (
	"maps"
	"math"
	"slices"
)

// FeaturizationParams configures a single derivative computation.
// It is fixed for the duration of one call and never mutated by the engine.
type FeaturizationParams struct {
	HomologyDimensions []int             `json:"homology_dimensions"`
	Kind               Kind              `json:"kind"`
	NLayers            int               `json:"n_layers,omitempty"`   // landscape only
	Samplings          map[int][]float64 `json:"samplings,omitempty"`  // grid per dimension (closed-form kinds)
	StepSizes          map[int]float64   `json:"step_sizes,omitempty"` // grid spacing per dimension
	P                  float64           `json:"p"`                    // p-norm exponent, +Inf allowed
	Order              *float64          `json:"order,omitempty"`      // nil keeps one value per dimension
	Power              float64           `json:"power,omitempty"`      // silhouette weight exponent
	LayerPolicy        LayerPolicy       `json:"layer_policy,omitempty"`
	Workers            int               `json:"-"`
}

// Clone returns a deep copy of the params.
func (p FeaturizationParams) Clone() FeaturizationParams {
	clone := p
	clone.HomologyDimensions = slices.Clone(p.HomologyDimensions)
	if p.Samplings != nil {
		clone.Samplings = make(map[int][]float64, len(p.Samplings))
		for dim, grid := range p.Samplings {
			clone.Samplings[dim] = slices.Clone(grid)
		}
	}
	if p.StepSizes != nil {
		clone.StepSizes = maps.Clone(p.StepSizes)
	}
	if p.Order != nil {
		order := *p.Order
		clone.Order = &order
	}
	return clone
}

// HasSamplings reports whether a grid and step size exist for every tracked dimension.
func (p FeaturizationParams) HasSamplings() bool {
	for _, dim := range p.HomologyDimensions {
		if len(p.Samplings[dim]) == 0 {
			return false
		}
		if _, ok := p.StepSizes[dim]; !ok {
			return false
		}
	}
	return true
}

// EffectiveP returns the norm exponent, which is always +Inf for bottleneck.
func (p FeaturizationParams) EffectiveP() float64 {
	if p.Kind == BottleneckKind {
		return math.Inf(1)
	}
	return p.P
}

// EmbedParams configures the time-delay embedding and the sliding windows of the pipeline.
type EmbedParams struct {
	Dimension    int `json:"dimension"`     // length of each delay vector
	TimeDelay    int `json:"time_delay"`    // samples between coordinates
	Stride       int `json:"stride"`        // samples between consecutive vectors
	WindowSize   int `json:"window_size"`   // vectors per point cloud
	WindowStride int `json:"window_stride"` // vectors between consecutive windows
}
