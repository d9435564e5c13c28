// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/tdacrash/schema"
)

// DiagramOracle computes the persistence diagram of a point cloud.
// This allows the pipeline to be tested without an external persistence binary.
type DiagramOracle interface {
	// ID identifies the oracle and its settings. It is part of every cache key.
	ID() string

	// Diagram returns the persistence diagram of cloud for the given homology dimensions.
	Diagram(ctx context.Context, cloud [][]float64, dims []int) (schema.Diagram, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetDiagramStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Prune(before int64) (int64, error)
	Close() error
}

// AnalysisStore defines the interface for tracking derivative runs and storing signals.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis run and returns its unique ID
	BeginAnalysis(runUUID string, kind schema.Kind, startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the analysis run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalWindows int) error

	// RecordSignal stores every value of a derivative signal
	RecordSignal(analysisID int64, signal schema.DerivativeSignal) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every recorded run
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllSignalValues returns every recorded signal value
	GetAllSignalValues() ([]schema.SignalValueRecord, error)

	// Close closes the underlying connection
	Close() error
}
