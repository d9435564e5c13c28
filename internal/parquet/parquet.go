// Package parquet provides data structures and functions for exporting
// derivative signals and analysis runs using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/tdacrash/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single derivative run with metadata.
// This struct maps to the tdacrash_analysis_runs database table.
type AnalysisRun struct {
	AnalysisID    int64      `parquet:"analysis_id,snappy"`
	RunUUID       string     `parquet:"run_uuid,snappy"`
	Kind          string     `parquet:"kind,snappy,dict"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	TotalWindows  *int32     `parquet:"total_windows,optional,snappy"`

	// ConfigParams contains the JSON-encoded featurization parameters
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// SignalValue is one value of a derivative signal in long format.
// Dim is schema.ReducedDim for values reduced across homology dimensions.
// This struct maps to the tdacrash_signal_values database table.
type SignalValue struct {
	AnalysisID int64   `parquet:"analysis_id,snappy"`
	Step       int32   `parquet:"step,snappy"`
	Dim        int32   `parquet:"dim,snappy"`
	Value      float64 `parquet:"value,snappy"`
}

// ReportRow is one transition of a crash-detection report.
type ReportRow struct {
	Index         int32   `parquet:"index,snappy"`
	Signal        float64 `parquet:"signal,snappy"`
	Baseline      float64 `parquet:"baseline,snappy"`
	Alert         bool    `parquet:"alert"`
	BaselineAlert bool    `parquet:"baseline_alert"`
}

// DistanceCell is one entry of a pairwise distance matrix in long format.
type DistanceCell struct {
	Row   int32   `parquet:"row,snappy"`
	Col   int32   `parquet:"col,snappy"`
	Value float64 `parquet:"value,snappy"`
}

// Write writes rows to w, with the schema derived from the struct tags of T.
func Write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows to a new Parquet file at outputPath.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Read reads every row of a Parquet file written by Write.
func Read[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	return rows, nil
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:    record.AnalysisID,
			RunUUID:       record.RunUUID,
			Kind:          record.Kind,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: toInt32(record.RunDurationMs),
			TotalWindows:  toInt32(record.TotalWindows),
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertSignalValueRecords converts schema.SignalValueRecord to SignalValue for Parquet export.
func ConvertSignalValueRecords(records []schema.SignalValueRecord) []SignalValue {
	result := make([]SignalValue, len(records))
	for i, record := range records {
		result[i] = SignalValue{
			AnalysisID: record.AnalysisID,
			Step:       int32(record.Step),
			Dim:        int32(record.Dim),
			Value:      record.Value,
		}
	}
	return result
}

// SignalValues flattens a derivative signal into long format, per-dimension
// values first and reduced values last.
func SignalValues(signal schema.DerivativeSignal) []SignalValue {
	var result []SignalValue
	for step, row := range signal.PerDimension {
		for i, value := range row {
			result = append(result, SignalValue{Step: int32(step), Dim: int32(signal.Dimensions[i]), Value: value})
		}
	}
	if signal.Reduced {
		for step, value := range signal.Values {
			result = append(result, SignalValue{Step: int32(step), Dim: schema.ReducedDim, Value: value})
		}
	}
	return result
}

// ReportRows converts the points of a crash-detection report.
func ReportRows(report schema.Report) []ReportRow {
	result := make([]ReportRow, len(report.Points))
	for i, p := range report.Points {
		result[i] = ReportRow{
			Index:         int32(p.Index),
			Signal:        p.Signal,
			Baseline:      p.Baseline,
			Alert:         p.Alert,
			BaselineAlert: p.BaselineAlert,
		}
	}
	return result
}

// DistanceCells flattens the upper triangle of a distance matrix, diagonal excluded.
func DistanceCells(matrix schema.DistanceMatrix) []DistanceCell {
	var result []DistanceCell
	for i, row := range matrix.Values {
		for j := i + 1; j < len(row); j++ {
			result = append(result, DistanceCell{Row: int32(i), Col: int32(j), Value: row[j]})
		}
	}
	return result
}

func toInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	out := int32(*v)
	return &out
}
