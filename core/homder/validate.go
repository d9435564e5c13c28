package homder

import (
	"fmt"
	"math"
	"runtime"

	"github.com/huangsam/tdacrash/schema"
)

// checkInputs runs the eager checks in their fixed order: sequence length,
// params, then dimensions. minLen is the smallest accepted sequence length.
func checkInputs(diagrams schema.DiagramSequence, params schema.FeaturizationParams, minLen int) ([]int, error) {
	if len(diagrams) < minLen {
		return nil, fmt.Errorf("%w: need at least %d diagrams, got %d", ErrInsufficientData, minLen, len(diagrams))
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}
	dims := schema.NormalizeDimensions(params.HomologyDimensions)
	if err := CheckDimensions(diagrams, dims); err != nil {
		return nil, err
	}
	return dims, nil
}

// CheckDimensions reports ErrDimensionMismatch for the first diagram whose
// tracked dimensions differ from dims.
func CheckDimensions(diagrams schema.DiagramSequence, dims []int) error {
	dims = schema.NormalizeDimensions(dims)
	if i := diagrams.SameDimensions(dims); i >= 0 {
		return fmt.Errorf("%w: diagram %d tracks %v, want %v", ErrDimensionMismatch, i, diagrams[i].Dimensions, dims)
	}
	return nil
}

// validateParams reports the first invalid or missing parameter for params.Kind.
func validateParams(params schema.FeaturizationParams) error {
	if _, ok := schema.ValidKinds[params.Kind]; !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrConfiguration, params.Kind)
	}
	if len(params.HomologyDimensions) == 0 {
		return fmt.Errorf("%w: no homology dimensions", ErrConfiguration)
	}
	for _, dim := range params.HomologyDimensions {
		if dim < 0 {
			return fmt.Errorf("%w: negative homology dimension %d", ErrConfiguration, dim)
		}
	}
	if params.Kind != schema.BottleneckKind && !validExponent(params.P) {
		return fmt.Errorf("%w: p must be >= 1, got %v", ErrConfiguration, params.P)
	}
	if params.Order != nil && !validExponent(*params.Order) {
		return fmt.Errorf("%w: order must be >= 1, got %v", ErrConfiguration, *params.Order)
	}

	switch params.Kind {
	case schema.LandscapeKind:
		if params.NLayers < 1 {
			return fmt.Errorf("%w: n_layers must be >= 1, got %d", ErrConfiguration, params.NLayers)
		}
		if _, ok := schema.ValidLayerPolicies[params.LayerPolicy]; !ok && params.LayerPolicy != "" {
			return fmt.Errorf("%w: unknown layer policy %q", ErrConfiguration, params.LayerPolicy)
		}
	case schema.SilhouetteKind:
		if math.IsNaN(params.Power) || math.IsInf(params.Power, 0) || params.Power < 0 {
			return fmt.Errorf("%w: power must be a finite value >= 0, got %v", ErrConfiguration, params.Power)
		}
	}

	if params.Kind.IsClosedForm() {
		for _, dim := range params.HomologyDimensions {
			if err := validateGrid(dim, params.Samplings[dim], params.StepSizes); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateGrid(dim int, grid []float64, steps map[int]float64) error {
	if len(grid) == 0 {
		return fmt.Errorf("%w: no sampling grid for homology dimension %d", ErrConfiguration, dim)
	}
	for _, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: non-finite sampling value %v for homology dimension %d", ErrConfiguration, t, dim)
		}
	}
	step, ok := steps[dim]
	if !ok {
		return fmt.Errorf("%w: no step size for homology dimension %d", ErrConfiguration, dim)
	}
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return fmt.Errorf("%w: step size for homology dimension %d must be positive, got %v", ErrConfiguration, dim, step)
	}
	return nil
}

// validExponent accepts any p-norm exponent in [1, +Inf].
func validExponent(p float64) bool {
	return !math.IsNaN(p) && p >= 1
}

// workerCount resolves the pool size; non-positive values use every CPU.
func workerCount(requested int) int {
	if requested <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return requested
}
