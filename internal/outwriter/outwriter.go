// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/internal/parquet"
	"github.com/huangsam/tdacrash/schema"
)

// PrintDerivative outputs a derivative result, dispatching based on the output format configured.
// A result carrying a crash report prints the report next to the signal.
func PrintDerivative(result schema.DerivativeResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDerivativeCSV(w, result, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeDerivativeParquet(result, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDerivativeTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// PrintDistance outputs a pairwise distance matrix, dispatching based on the output format configured.
func PrintDistance(matrix schema.DistanceMatrix, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, matrix)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDistanceCSV(w, matrix, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteFile(parquet.DistanceCells(matrix), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDistanceTable(w, matrix, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// reportPath names the Parquet file holding the crash report next to outputFile.
func reportPath(outputFile string) string {
	return strings.TrimSuffix(outputFile, ".parquet") + ".report.parquet"
}

// writeDerivativeParquet writes the signal in long format to outputFile and
// the crash report, if any, next to it.
func writeDerivativeParquet(result schema.DerivativeResult, outputFile string) error {
	if err := parquet.WriteFile(parquet.SignalValues(result.Signal), outputFile); err != nil {
		return err
	}
	if result.Report == nil {
		return nil
	}
	return parquet.WriteFile(parquet.ReportRows(*result.Report), reportPath(outputFile))
}
