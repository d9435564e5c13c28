package core

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/huangsam/tdacrash/core/homder"
	"github.com/huangsam/tdacrash/internal/iocache"
	"github.com/huangsam/tdacrash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testSequence() schema.DiagramSequence {
	return schema.DiagramSequence{
		schema.NewDiagram([]int{0}, []schema.Point{{Birth: 0, Death: 1, Dim: 0}}),
		schema.NewDiagram([]int{0}, []schema.Point{{Birth: 0, Death: 2, Dim: 0}}),
		schema.NewDiagram([]int{0}, []schema.Point{{Birth: 0, Death: 2, Dim: 0}, {Birth: 0.5, Death: 0.5, Dim: 0}}),
	}
}

func landscapeParams() schema.FeaturizationParams {
	return schema.FeaturizationParams{
		HomologyDimensions: []int{0},
		Kind:               schema.LandscapeKind,
		NLayers:            1,
		P:                  2,
		LayerPolicy:        schema.PadLayers,
		Workers:            2,
	}
}

func TestResolveParams(t *testing.T) {
	params, err := ResolveParams(testSequence(), landscapeParams(), 5)
	require.NoError(t, err)
	require.True(t, params.HasSamplings())
	assert.Len(t, params.Samplings[0], 5)
	assert.InDelta(t, 0.0, params.Samplings[0][0], 1e-12)
	assert.InDelta(t, 2.0, params.Samplings[0][4], 1e-12)
	assert.InDelta(t, 0.5, params.StepSizes[0], 1e-12)
}

func TestResolveParams_PassThrough(t *testing.T) {
	bottleneck := landscapeParams()
	bottleneck.Kind = schema.BottleneckKind
	got, err := ResolveParams(testSequence(), bottleneck, 5)
	require.NoError(t, err)
	assert.False(t, got.HasSamplings(), "distance kinds need no grid")

	preset := landscapeParams()
	preset.Samplings = map[int][]float64{0: {0, 1}}
	preset.StepSizes = map[int]float64{0: 1}
	got, err = ResolveParams(testSequence(), preset, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, got.Samplings[0])

	single := landscapeParams()
	got, err = ResolveParams(testSequence()[:1], single, 5)
	require.NoError(t, err)
	assert.False(t, got.HasSamplings(), "short sequences are left to the engine")

	_, err = RunDerivative(context.Background(), testSequence()[:1], got, nil)
	assert.ErrorIs(t, err, homder.ErrInsufficientData)
}

func TestResolveParams_DimensionMismatch(t *testing.T) {
	mismatched := landscapeParams()
	mismatched.HomologyDimensions = []int{0, 1}
	_, err := ResolveParams(testSequence(), mismatched, 5)
	assert.ErrorIs(t, err, homder.ErrDimensionMismatch)
	assert.NotErrorIs(t, err, homder.ErrConfiguration)
	assert.Contains(t, err.Error(), "diagram 0 tracks [0], want [0 1]")
}

func TestFileParams(t *testing.T) {
	file := schema.DiagramFile{
		HomologyDimensions: []int{1, 0},
		Samplings:          map[int][]float64{0: {0, 1}, 1: {0, 2}},
		StepSizes:          map[int]float64{0: 1, 1: 2},
	}
	params := FileParams(file, schema.FeaturizationParams{Kind: schema.BettiKind})
	assert.Equal(t, []int{0, 1}, params.HomologyDimensions)
	assert.Equal(t, []float64{0, 2}, params.Samplings[1])
	assert.Equal(t, 2.0, params.StepSizes[1])

	// The file grid must not alias the params grid
	params.Samplings[0][0] = 9
	assert.Equal(t, 0.0, file.Samplings[0][0])

	explicit := FileParams(file, schema.FeaturizationParams{HomologyDimensions: []int{0}})
	assert.Equal(t, []int{0}, explicit.HomologyDimensions)
}

func TestRunDerivative_NoTracking(t *testing.T) {
	params, err := ResolveParams(testSequence(), landscapeParams(), 5)
	require.NoError(t, err)

	result, err := RunDerivative(context.Background(), testSequence(), params, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.Windows)
	require.Equal(t, 2, result.Signal.Len())
	assert.Greater(t, result.Signal.PerDimension[0][0], 0.0)
	assert.InDelta(t, 0.0, result.Signal.PerDimension[1][0], 1e-12, "a placeholder point changes nothing")
}

func TestRunDerivative_RecordsRun(t *testing.T) {
	params, err := ResolveParams(testSequence(), landscapeParams(), 5)
	require.NoError(t, err)
	ctx := WithRunID(context.Background(), "run-abc")

	store := &iocache.MockAnalysisStore{}
	store.On("BeginAnalysis", "run-abc", schema.LandscapeKind, mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(7), nil)
	store.On("RecordSignal", int64(7), mock.AnythingOfType("schema.DerivativeSignal")).Return(nil)
	store.On("EndAnalysis", int64(7), mock.AnythingOfType("time.Time"), 3).Return(nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAnalysisStore").Return(store)

	result, err := RunDerivative(ctx, testSequence(), params, mgr)
	require.NoError(t, err)
	assert.Equal(t, "run-abc", result.RunID)

	config := store.Calls[0].Arguments.Get(3).(map[string]any)
	assert.Equal(t, "landscape", config["kind"])
	assert.Equal(t, "2", config["p"])
	assert.Equal(t, 1, config["n_layers"])

	store.AssertExpectations(t)
	mgr.AssertExpectations(t)
}

func TestRunDerivative_TrackingFailuresAreNotFatal(t *testing.T) {
	params, err := ResolveParams(testSequence(), landscapeParams(), 5)
	require.NoError(t, err)

	store := &iocache.MockAnalysisStore{}
	store.On("BeginAnalysis", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAnalysisStore").Return(store)

	result, err := RunDerivative(context.Background(), testSequence(), params, mgr)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Signal.Len())
	store.AssertNotCalled(t, "RecordSignal", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "EndAnalysis", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunDerivative_EngineErrorSkipsRecording(t *testing.T) {
	store := &iocache.MockAnalysisStore{}
	store.On("BeginAnalysis", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(3), nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAnalysisStore").Return(store)

	_, err := RunDerivative(context.Background(), testSequence()[:1], landscapeParams(), mgr)
	assert.ErrorIs(t, err, homder.ErrInsufficientData)
	store.AssertNotCalled(t, "RecordSignal", mock.Anything, mock.Anything)
}

func TestComputeDistance(t *testing.T) {
	params := landscapeParams()
	params.Kind = schema.BottleneckKind
	params.P = math.Inf(1)

	matrix, err := ComputeDistance(context.Background(), testSequence(), params)
	require.NoError(t, err)
	assert.Equal(t, schema.BottleneckKind, matrix.Kind)
	assert.Equal(t, []int{0}, matrix.Dimensions)
	require.Len(t, matrix.Values, 3)
	for i := range 3 {
		assert.Equal(t, 0.0, matrix.Values[i][i])
		for j := range 3 {
			assert.Equal(t, matrix.Values[i][j], matrix.Values[j][i])
		}
	}
	// (0,1) vs (0,2): matching the points costs 1, sending both to the diagonal costs 1
	assert.InDelta(t, 1.0, matrix.Values[0][1], 1e-12)
	assert.InDelta(t, 0.0, matrix.Values[1][2], 1e-12)

	_, err = ComputeDistance(context.Background(), nil, params)
	assert.ErrorIs(t, err, homder.ErrInsufficientData)
}
