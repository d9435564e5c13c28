package homder

import (
	"context"
	"testing"

	"github.com/huangsam/tdacrash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBin(t *testing.T) {
	dims := []int{0, 1}
	seq := schema.DiagramSequence{
		diagram(dims, [3]float64{0, 1, 0}),
		diagram(dims, [3]float64{0.5, 2, 0}, [3]float64{0.25, 0.25, 1}),
	}

	samplings, steps, err := Bin(seq, dims, 5)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 1.5, 2}, samplings[0], 1e-12)
	assert.InDelta(t, 0.5, steps[0], 1e-12)

	// Dimension 1 only has a placeholder, so it borrows the global range end.
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 1.5, 2}, samplings[1], 1e-12)
	assert.InDelta(t, 0.5, steps[1], 1e-12)
}

func TestBinDegenerate(t *testing.T) {
	dims := []int{0}
	seq := schema.DiagramSequence{diagram(dims), diagram(dims)}
	samplings, steps, err := Bin(seq, dims, 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-0.5, 0, 0.5}, samplings[0], 1e-12)
	assert.InDelta(t, 0.5, steps[0], 1e-12)
}

func TestBinErrors(t *testing.T) {
	dims := []int{0}
	seq := schema.DiagramSequence{diagram(dims, [3]float64{0, 1, 0})}

	_, _, err := Bin(seq, dims, 1)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, _, err = Bin(seq, nil, 10)
	assert.ErrorIs(t, err, ErrConfiguration)

	bad := schema.DiagramSequence{diagram(dims, [3]float64{1, 0, 0})}
	_, _, err = Bin(bad, dims, 10)
	assert.ErrorIs(t, err, ErrMalformedDiagram)
}

func TestBinFeedsCompute(t *testing.T) {
	dims := []int{0}
	seq := schema.DiagramSequence{
		diagram(dims, [3]float64{0, 1, 0}),
		diagram(dims, [3]float64{0, 1, 0}),
		diagram(dims, [3]float64{0, 2, 0}),
	}
	samplings, steps, err := Bin(seq, dims, 50)
	require.NoError(t, err)

	params := schema.FeaturizationParams{
		HomologyDimensions: dims,
		Kind:               schema.LandscapeKind,
		NLayers:            1,
		Samplings:          samplings,
		StepSizes:          steps,
		P:                  2,
	}
	signal, err := Compute(context.Background(), seq, params)
	require.NoError(t, err)
	assert.Equal(t, 0.0, signal.PerDimension[0][0])
	assert.Greater(t, signal.PerDimension[1][0], 0.0)
}
