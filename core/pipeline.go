package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/huangsam/tdacrash/core/detect"
	"github.com/huangsam/tdacrash/core/embed"
	"github.com/huangsam/tdacrash/core/homder"
	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/internal/loader"
	"github.com/huangsam/tdacrash/schema"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RunPipeline turns a price column into a crash report: delay embedding,
// sliding windows, one persistence diagram per window, the derivative of the
// diagram sequence and its comparison with the price baseline.
func RunPipeline(ctx context.Context, cfg *contract.Config, oracle contract.DiagramOracle, mgr contract.CacheManager) (schema.DerivativeResult, error) {
	if cfg.Order == nil && len(cfg.Dimensions) != 1 {
		return schema.DerivativeResult{}, fmt.Errorf("%w: the crash report needs one value per step, set --order or track a single dimension", homder.ErrConfiguration)
	}

	prices, err := loader.LoadColumn(cfg.InputPath, cfg.Column)
	if err != nil {
		return schema.DerivativeResult{}, err
	}
	return runPipelineOnSeries(ctx, cfg, prices, oracle, mgr)
}

func runPipelineOnSeries(ctx context.Context, cfg *contract.Config, prices []float64, oracle contract.DiagramOracle, mgr contract.CacheManager) (schema.DerivativeResult, error) {
	e := cfg.Embed
	vectors, err := embed.Takens(prices, e.Dimension, e.TimeDelay, e.Stride)
	if err != nil {
		return schema.DerivativeResult{}, err
	}
	clouds, ranges, err := embed.Windows(vectors, e.WindowSize, e.WindowStride)
	if err != nil {
		return schema.DerivativeResult{}, err
	}
	if len(ranges) < 2 {
		return schema.DerivativeResult{}, fmt.Errorf("%w: %d prices give %d windows, need at least 2", homder.ErrInsufficientData, len(prices), len(ranges))
	}

	if !shouldSuppressHeader(ctx) {
		log.WithFields(log.Fields{
			"input":   cfg.InputPath,
			"prices":  len(prices),
			"vectors": len(vectors),
			"windows": len(ranges),
			"oracle":  oracle.ID(),
		}).Info("Running crash pipeline")
	}

	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetDiagramStore()
	}
	seq, err := computeDiagrams(ctx, clouds, oracle, store, cfg.Dimensions, cfg.Workers)
	if err != nil {
		return schema.DerivativeResult{}, err
	}

	params, err := ResolveParams(seq, cfg.FeaturizationParams(), cfg.NBins)
	if err != nil {
		return schema.DerivativeResult{}, err
	}
	extra := map[string]any{
		"input":         cfg.InputPath,
		"column":        cfg.Column,
		"embed_dim":     e.Dimension,
		"time_delay":    e.TimeDelay,
		"stride":        e.Stride,
		"window_size":   e.WindowSize,
		"window_stride": e.WindowStride,
		"oracle":        oracle.ID(),
	}
	result, err := runDerivative(ctx, seq, params, mgr, extra)
	if err != nil {
		return schema.DerivativeResult{}, err
	}

	baseline, err := detect.Baseline(prices, embed.SeriesRanges(ranges, e.Dimension, e.TimeDelay, e.Stride))
	if err != nil {
		return schema.DerivativeResult{}, err
	}
	report, err := detect.Detect(result.Signal.Scalars(), baseline, cfg.Threshold)
	if err != nil {
		return schema.DerivativeResult{}, err
	}
	result.Report = &report
	recordAlerts(report)

	fields := log.Fields{"first_alert": report.FirstAlert, "first_baseline_alert": report.FirstBaselineAlert}
	if lead, ok := detect.LeadTime(report); ok {
		fields["lead_steps"] = lead
	}
	log.WithFields(fields).Debug("Crash report built")
	return result, nil
}

func recordAlerts(report schema.Report) {
	for _, p := range report.Points {
		if p.Alert {
			pipelineAlertsTotal.WithLabelValues("signal").Inc()
		}
		if p.BaselineAlert {
			pipelineAlertsTotal.WithLabelValues("baseline").Inc()
		}
	}
}

// cloudJob is one point cloud waiting for its diagram.
type cloudJob struct {
	index int
	cloud [][]float64
}

// diagramResult carries the diagram of the cloud at index.
type diagramResult struct {
	index   int
	diagram schema.Diagram
	err     error
}

// computeDiagrams processes all clouds in parallel using a worker pool.
// Results keep the order of clouds. The first failure cancels the remaining
// oracle calls and is returned.
func computeDiagrams(ctx context.Context, clouds [][][]float64, oracle contract.DiagramOracle, store contract.CacheStore, dims []int, workers int) (schema.DiagramSequence, error) {
	ctx, span := tracer.Start(ctx, "core.computeDiagrams",
		trace.WithAttributes(
			attribute.Int("clouds", len(clouds)),
			attribute.Int("workers", workers),
		),
	)
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobCh := make(chan cloudJob, len(clouds))
	resultCh := make(chan diagramResult, len(clouds))
	var wg sync.WaitGroup

	// Start worker pool
	for range max(workers, 1) {
		wg.Go(func() {
			for job := range jobCh {
				if err := ctx.Err(); err != nil {
					resultCh <- diagramResult{index: job.index, err: err}
					continue
				}
				d, err := cachedDiagram(ctx, oracle, store, job.cloud, dims)
				if err != nil {
					cancel()
					err = fmt.Errorf("window %d: %w", job.index, err)
				}
				resultCh <- diagramResult{index: job.index, diagram: d, err: err}
			}
		})
	}

	for i, cloud := range clouds {
		jobCh <- cloudJob{index: i, cloud: cloud}
	}
	close(jobCh)

	wg.Wait()
	close(resultCh)

	seq := make(schema.DiagramSequence, len(clouds))
	var firstErr error
	for r := range resultCh {
		if r.err != nil {
			// Report the root failure rather than the cancellations it caused
			if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !errors.Is(r.err, context.Canceled)) {
				firstErr = r.err
			}
			continue
		}
		seq[r.index] = r.diagram
	}
	if firstErr != nil {
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, firstErr.Error())
		return nil, firstErr
	}
	return seq, nil
}
