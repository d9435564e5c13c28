package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/internal/parquet"
)

// ExportAnalysis writes every stored run and signal value to two Parquet files
// named after outputFile, and reports progress on w.
func ExportAnalysis(w io.Writer, store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total analysis runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total signal values: %d\n", status.TableSizes[signalValuesTable])

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	signalValues, err := store.GetAllSignalValues()
	if err != nil {
		return fmt.Errorf("failed to retrieve signal values: %w", err)
	}

	runs := parquet.ConvertAnalysisRunRecords(analysisRuns)
	analysisRunsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteFile(runs, analysisRunsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d analysis runs to: %s\n", len(runs), analysisRunsFile)

	values := parquet.ConvertSignalValueRecords(signalValues)
	signalValuesFile := outputFile + ".signal_values.parquet"
	if err := parquet.WriteFile(values, signalValuesFile); err != nil {
		return fmt.Errorf("failed to write signal values: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d signal values to: %s\n", len(values), signalValuesFile)

	return nil
}
