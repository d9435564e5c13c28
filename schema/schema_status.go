package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// AnalysisStatus represents the status of the analysis store.
type AnalysisStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalWindows  int              `json:"total_windows"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// AnalysisRunRecord represents a row from the tdacrash_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	RunUUID       string
	Kind          string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int
	TotalWindows  *int
	ConfigParams  *string
}

// SignalValueRecord represents a row from the tdacrash_signal_values table.
// Dim is ReducedDim for values reduced across homology dimensions.
type SignalValueRecord struct {
	AnalysisID int64
	Step       int
	Dim        int
	Value      float64
}
