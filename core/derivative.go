package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/tdacrash/core/homder"
	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"
)

// ResolveParams fills in the sampling grids of a closed-form kind from the
// data when they are missing. Grids cannot be derived for dimensions the
// diagrams do not track, so that case fails with ErrDimensionMismatch.
// Sequences too short for the engine are passed through untouched.
func ResolveParams(seq schema.DiagramSequence, params schema.FeaturizationParams, nBins int) (schema.FeaturizationParams, error) {
	params = params.Clone()
	if !params.Kind.IsClosedForm() || params.HasSamplings() || len(seq) < 2 {
		return params, nil
	}
	if err := homder.CheckDimensions(seq, params.HomologyDimensions); err != nil {
		return params, err
	}
	samplings, steps, err := homder.Bin(seq, params.HomologyDimensions, nBins)
	if err != nil {
		return params, err
	}
	params.Samplings = samplings
	params.StepSizes = steps
	return params, nil
}

// FileParams applies the grids stored in a diagram file to params. Grids set
// on params win over the file.
func FileParams(file schema.DiagramFile, params schema.FeaturizationParams) schema.FeaturizationParams {
	params = params.Clone()
	if len(params.HomologyDimensions) == 0 {
		params.HomologyDimensions = schema.NormalizeDimensions(file.HomologyDimensions)
	}
	if !params.HasSamplings() && len(file.Samplings) > 0 {
		params.Samplings = make(map[int][]float64, len(file.Samplings))
		for dim, grid := range file.Samplings {
			params.Samplings[dim] = append([]float64(nil), grid...)
		}
		params.StepSizes = make(map[int]float64, len(file.StepSizes))
		for dim, step := range file.StepSizes {
			params.StepSizes[dim] = step
		}
	}
	return params
}

// RunDerivative computes the derivative of seq and records the run when mgr
// carries an analysis store. mgr may be nil.
func RunDerivative(ctx context.Context, seq schema.DiagramSequence, params schema.FeaturizationParams, mgr contract.CacheManager) (schema.DerivativeResult, error) {
	return runDerivative(ctx, seq, params, mgr, nil)
}

func runDerivative(ctx context.Context, seq schema.DiagramSequence, params schema.FeaturizationParams, mgr contract.CacheManager, extra map[string]any) (schema.DerivativeResult, error) {
	runID, ok := runIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
	}
	config := paramsConfig(params)
	for k, v := range extra {
		config[k] = v
	}
	tracker := beginRun(mgr, runID, params.Kind, config)

	signal, err := computeSignal(ctx, seq, params)
	if err != nil {
		return schema.DerivativeResult{}, err
	}
	tracker.recordSignal(signal)
	tracker.end(len(seq))

	return schema.DerivativeResult{
		RunID:   runID,
		Windows: len(seq),
		Params:  params,
		Signal:  signal,
	}, nil
}

// computeSignal wraps homder.Compute with a span and engine metrics.
func computeSignal(ctx context.Context, seq schema.DiagramSequence, params schema.FeaturizationParams) (schema.DerivativeSignal, error) {
	ctx, span := tracer.Start(ctx, "core.Compute",
		trace.WithAttributes(
			attribute.String("kind", string(params.Kind)),
			attribute.Int("diagrams", len(seq)),
			attribute.IntSlice("dims", params.HomologyDimensions),
		),
	)
	defer span.End()

	start := time.Now()
	signal, err := homder.Compute(ctx, seq, params)
	derivativeDuration.WithLabelValues("derivative", string(params.Kind)).Observe(time.Since(start).Seconds())
	derivativeRunsTotal.WithLabelValues("derivative", string(params.Kind), outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return schema.DerivativeSignal{}, err
	}
	span.SetAttributes(attribute.Int("transitions", signal.Len()))
	return signal, nil
}

// ComputeDistance returns the pairwise distance matrix of seq.
func ComputeDistance(ctx context.Context, seq schema.DiagramSequence, params schema.FeaturizationParams) (schema.DistanceMatrix, error) {
	ctx, span := tracer.Start(ctx, "core.PairwiseMatrix",
		trace.WithAttributes(
			attribute.String("kind", string(params.Kind)),
			attribute.Int("diagrams", len(seq)),
		),
	)
	defer span.End()

	start := time.Now()
	dense, err := homder.PairwiseMatrix(ctx, seq, params)
	derivativeDuration.WithLabelValues("distance", string(params.Kind)).Observe(time.Since(start).Seconds())
	derivativeRunsTotal.WithLabelValues("distance", string(params.Kind), outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return schema.DistanceMatrix{}, err
	}
	return schema.DistanceMatrix{
		Kind:       params.Kind,
		Dimensions: schema.NormalizeDimensions(params.HomologyDimensions),
		Values:     denseRows(dense),
	}, nil
}

func denseRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range r {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
