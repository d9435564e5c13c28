// Package homder computes the homological derivative of a persistence diagram sequence.
package homder

import (
	"context"
	"time"

	"github.com/huangsam/tdacrash/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Compute returns the derivative signal of diagrams: entry i measures the
// topological change from diagram i to diagram i+1.
//
// Inputs are checked before any work starts. The pair indices are then split
// into contiguous spans and each (dimension, span) runs as one task on a
// bounded pool. Tasks write disjoint cells, so the result does not depend on
// the worker count. The first failing task cancels the rest and no partial
// signal is returned.
func Compute(ctx context.Context, diagrams schema.DiagramSequence, params schema.FeaturizationParams) (schema.DerivativeSignal, error) {
	dims, err := checkInputs(diagrams, params, 2)
	if err != nil {
		return schema.DerivativeSignal{}, err
	}
	start := time.Now()
	nPairs := len(diagrams) - 1
	workers := workerCount(params.Workers)
	values := mat.NewDense(nPairs, len(dims), nil)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	spans := evenSlices(nPairs, workers)
	for col, dim := range dims {
		for _, s := range spans {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return computeSpan(diagrams, s, dim, col, params, values)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return schema.DerivativeSignal{}, err
	}

	signal := schema.DerivativeSignal{
		Kind:         params.Kind,
		Dimensions:   dims,
		PerDimension: make([][]float64, nPairs),
	}
	for i := range nPairs {
		signal.PerDimension[i] = mat.Row(nil, i, values)
	}
	if params.Order != nil {
		signal.Reduced = true
		signal.Values = make([]float64, nPairs)
		for i, row := range signal.PerDimension {
			signal.Values[i] = floats.Norm(row, *params.Order)
		}
	}

	logrus.WithFields(logrus.Fields{
		"kind":     params.Kind,
		"diagrams": len(diagrams),
		"dims":     dims,
		"workers":  workers,
		"elapsed":  time.Since(start),
	}).Debug("derivative computed")
	return signal, nil
}

// computeSpan fills column col of dst for the pairs in s. The span reads
// diagrams [s.lo, s.hi], one past its last pair index.
func computeSpan(diagrams schema.DiagramSequence, s span, dim, col int, params schema.FeaturizationParams, dst *mat.Dense) error {
	subs, err := subDiagrams(diagrams[s.lo:s.hi+1], s.lo, dim)
	if err != nil {
		return err
	}
	if !params.Kind.IsClosedForm() {
		for k := range len(subs) - 1 {
			dst.Set(s.lo+k, col, pairsDistance(subs[k], subs[k+1], params))
		}
		return nil
	}
	prev := featurize(subs[0], dim, params)
	for k := 1; k < len(subs); k++ {
		cur := featurize(subs[k], dim, params)
		dst.Set(s.lo+k-1, col, featureDistance(prev, cur, dim, params))
		prev = cur
	}
	return nil
}
