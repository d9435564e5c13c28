// Package core has the orchestration for derivative, distance and pipeline runs.
package core

import (
	"context"
	"time"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/internal/loader"
	"github.com/huangsam/tdacrash/internal/outwriter"
	"github.com/huangsam/tdacrash/schema"
	log "github.com/sirupsen/logrus"
)

// ExecutorFunc defines the function signature for executing different run modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteDerivative computes the derivative of a diagram file and prints it.
// It serves as the main entry point for the 'derivative' command.
func ExecuteDerivative(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	seq, params, err := loadSequence(cfg)
	if err != nil {
		return err
	}
	logRunHeader(ctx, "Computing homological derivative", cfg, len(seq))

	result, err := RunDerivative(ctx, seq, params, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintDerivative(result, cfg, time.Since(start))
}

// ExecuteDistance computes the pairwise distance matrix of a diagram file and prints it.
// It serves as the main entry point for the 'distance' command.
func ExecuteDistance(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	start := time.Now()
	seq, params, err := loadSequence(cfg)
	if err != nil {
		return err
	}
	logRunHeader(ctx, "Computing pairwise distances", cfg, len(seq))

	matrix, err := ComputeDistance(ctx, seq, params)
	if err != nil {
		return err
	}
	return outwriter.PrintDistance(matrix, cfg, time.Since(start))
}

// ExecutePipeline runs the crash pipeline on a price CSV and prints the report.
// It serves as the main entry point for the 'pipeline' command.
func ExecutePipeline(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	oracle := contract.NewRipserOracle(cfg.RipserPath, cfg.MaxEdge)
	result, err := RunPipeline(ctx, cfg, oracle, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintDerivative(result, cfg, time.Since(start))
}

// loadSequence reads the diagram file named by cfg and resolves the params for it.
func loadSequence(cfg *contract.Config) (schema.DiagramSequence, schema.FeaturizationParams, error) {
	file, err := loader.LoadDiagramFile(cfg.InputPath)
	if err != nil {
		return nil, schema.FeaturizationParams{}, err
	}
	return prepareSequence(file, cfg.FeaturizationParams(), cfg.NBins)
}

func logRunHeader(ctx context.Context, msg string, cfg *contract.Config, diagrams int) {
	if shouldSuppressHeader(ctx) {
		return
	}
	log.WithFields(log.Fields{
		"input":    cfg.InputPath,
		"kind":     cfg.Kind,
		"dims":     cfg.Dimensions,
		"diagrams": diagrams,
		"workers":  cfg.Workers,
	}).Info(msg)
}
