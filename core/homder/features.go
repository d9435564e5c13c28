package homder

import (
	"math"
	"slices"

	"github.com/huangsam/tdacrash/schema"
	"gonum.org/v1/gonum/floats"
)

// feature is the vectorized form of one sub-diagram on a sampling grid.
// Landscapes are stored layer-major so the first k layers are a prefix.
type feature struct {
	values []float64
	layers int // landscape layers backed by real pairs
}

// tent is the triangle function of a pair evaluated at t.
func tent(p schema.Pair, t float64) float64 {
	return max(0, min(t-p.Birth, p.Death-t))
}

// featurize vectorizes pairs on the grid of dim according to params.Kind.
func featurize(pairs []schema.Pair, dim int, params schema.FeaturizationParams) feature {
	grid := params.Samplings[dim]
	switch params.Kind {
	case schema.BettiKind:
		return bettiCurve(pairs, grid)
	case schema.SilhouetteKind:
		return silhouette(pairs, grid, params.Power)
	default:
		return landscape(pairs, grid, params.NLayers)
	}
}

// landscape computes nLayers landscape layers. Layer k at t is the k-th
// largest tent value, or zero when fewer than k pairs exist.
func landscape(pairs []schema.Pair, grid []float64, nLayers int) feature {
	width := len(grid)
	out := feature{
		values: make([]float64, nLayers*width),
		layers: min(nLayers, len(pairs)),
	}
	if len(pairs) == 0 {
		return out
	}
	tents := make([]float64, len(pairs))
	for j, t := range grid {
		for i, p := range pairs {
			tents[i] = tent(p, t)
		}
		slices.Sort(tents)
		for k := range out.layers {
			out.values[k*width+j] = tents[len(tents)-1-k]
		}
	}
	return out
}

// bettiCurve counts the pairs alive at each grid value, with birth <= t < death.
func bettiCurve(pairs []schema.Pair, grid []float64) feature {
	out := feature{values: make([]float64, len(grid))}
	for j, t := range grid {
		for _, p := range pairs {
			if p.Birth <= t && t < p.Death {
				out.values[j]++
			}
		}
	}
	return out
}

// silhouette is the persistence-weighted mean of tents with weight (death-birth)^power.
func silhouette(pairs []schema.Pair, grid []float64, power float64) feature {
	out := feature{values: make([]float64, len(grid))}
	weights := make([]float64, len(pairs))
	for i, p := range pairs {
		weights[i] = math.Pow(p.Persistence(), power)
	}
	total := floats.Sum(weights)
	if total == 0 {
		return out
	}
	for j, t := range grid {
		var acc float64
		for i, p := range pairs {
			acc += weights[i] * tent(p, t)
		}
		out.values[j] = acc / total
	}
	return out
}

// featureDistance is the Lp distance between two features scaled by step^(1/p).
func featureDistance(a, b feature, dim int, params schema.FeaturizationParams) float64 {
	va, vb := a.values, b.values
	if params.Kind == schema.LandscapeKind && params.LayerPolicy == schema.SharedMinLayers {
		width := len(params.Samplings[dim])
		shared := min(a.layers, b.layers) * width
		va, vb = va[:shared], vb[:shared]
	}
	diff := make([]float64, len(va))
	floats.SubTo(diff, va, vb)
	p := params.P
	return floats.Norm(diff, p) * math.Pow(params.StepSizes[dim], 1/p)
}
