package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/internal/parquet"
	"github.com/huangsam/tdacrash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(withReport bool) schema.DerivativeResult {
	order := 2.0
	result := schema.DerivativeResult{
		RunID:   "run-1",
		Windows: 3,
		Params:  schema.FeaturizationParams{Kind: schema.LandscapeKind, HomologyDimensions: []int{0, 1}, Order: &order},
		Signal: schema.DerivativeSignal{
			Kind:         schema.LandscapeKind,
			Dimensions:   []int{0, 1},
			PerDimension: [][]float64{{0.3, 0.4}, {0, 0}},
			Values:       []float64{0.5, 0},
			Reduced:      true,
		},
	}
	if withReport {
		result.Report = &schema.Report{
			Threshold: 0.75,
			Points: []schema.ReportPoint{
				{Index: 0, Signal: 1, Baseline: 0, Alert: true},
				{Index: 1, Signal: 0, Baseline: 1, BaselineAlert: true},
			},
			FirstAlert:         0,
			FirstBaselineAlert: 1,
		}
	}
	return result
}

func sampleMatrix() schema.DistanceMatrix {
	return schema.DistanceMatrix{
		Kind:       schema.BottleneckKind,
		Dimensions: []int{0},
		Values:     [][]float64{{0, 1, 2}, {1, 0, 0.5}, {2, 0.5, 0}},
	}
}

func readCSV(t *testing.T, s string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteDerivativeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDerivativeCSV(&buf, sampleResult(false), createFormatter(2)))
	assert.Equal(t, [][]string{
		{"step", "h0", "h1", "reduced"},
		{"0", "0.30", "0.40", "0.50"},
		{"1", "0.00", "0.00", "0.00"},
	}, readCSV(t, buf.String()))

	buf.Reset()
	require.NoError(t, writeDerivativeCSV(&buf, sampleResult(true), createFormatter(1)))
	records := readCSV(t, buf.String())
	assert.Equal(t, []string{"step", "h0", "h1", "reduced", "signal", "baseline", "alert", "baseline_alert"}, records[0])
	assert.Equal(t, []string{"0", "0.3", "0.4", "0.5", "1.0", "0.0", contract.AlertValue, contract.QuietValue}, records[1])
	assert.Equal(t, contract.AlertValue, records[2][7])
}

func TestWriteDerivativeTable(t *testing.T) {
	cfg := &contract.Config{Precision: 2, Workers: 4, CacheBackend: schema.SQLiteBackend}
	var buf bytes.Buffer
	require.NoError(t, writeDerivativeTable(&buf, sampleResult(true), cfg, createFormatter(2), time.Second))

	out := buf.String()
	assert.Contains(t, out, "H0")
	assert.Contains(t, out, "H1")
	assert.NotContains(t, out, "H 0")
	assert.Contains(t, out, "baseline_alert")
	assert.Contains(t, out, "0.50")
	assert.Contains(t, out, contract.AlertValue)
	assert.Contains(t, out, "TDA alert at step 0, price alert at step 1 (lead 1 steps)")
	assert.Contains(t, out, "Derivative (landscape) of 3 diagrams")
}

func TestReportSummary(t *testing.T) {
	report := schema.Report{Threshold: 0.75, FirstAlert: -1, FirstBaselineAlert: 2}
	assert.Equal(t, "Threshold 0.75: TDA alert at never, price alert at step 2", reportSummary(report))
}

func TestWriteDistanceCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDistanceCSV(&buf, sampleMatrix(), createFormatter(1)))
	assert.Equal(t, [][]string{
		{"diagram", "0", "1", "2"},
		{"0", "0.0", "1.0", "2.0"},
		{"1", "1.0", "0.0", "0.5"},
		{"2", "2.0", "0.5", "0.0"},
	}, readCSV(t, buf.String()))
}

func TestWriteDistanceTable(t *testing.T) {
	var buf bytes.Buffer
	cfg := &contract.Config{Precision: 2, Workers: 1, Width: 200}
	require.NoError(t, writeDistanceTable(&buf, sampleMatrix(), cfg, createFormatter(2), time.Millisecond))
	assert.Contains(t, buf.String(), "0.50")
	assert.NotContains(t, buf.String(), "Showing")

	// A narrow terminal cuts the columns
	buf.Reset()
	cfg.Width = 10
	require.NoError(t, writeDistanceTable(&buf, sampleMatrix(), cfg, createFormatter(2), time.Millisecond))
	assert.Contains(t, buf.String(), "Showing 2 of 3 columns")
}

func TestMaxMatrixColumns(t *testing.T) {
	assert.Equal(t, 2, maxMatrixColumns(&contract.Config{Precision: 4, Width: 10}))
	assert.Equal(t, 12, maxMatrixColumns(&contract.Config{Precision: 4, Width: 128}))
}

func TestPrintDerivativeToFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "signal.json")
	cfg := &contract.Config{Precision: 3, Output: schema.JSONOut, OutputFile: jsonPath}
	require.NoError(t, PrintDerivative(sampleResult(true), cfg, time.Second))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded schema.DerivativeResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, []float64{0.5, 0}, decoded.Signal.Values)
	require.NotNil(t, decoded.Report)
	assert.Equal(t, 1, decoded.Report.FirstBaselineAlert)

	parquetPath := filepath.Join(dir, "signal.parquet")
	cfg = &contract.Config{Precision: 3, Output: schema.ParquetOut, OutputFile: parquetPath}
	require.NoError(t, PrintDerivative(sampleResult(true), cfg, time.Second))
	values, err := parquet.Read[parquet.SignalValue](parquetPath)
	require.NoError(t, err)
	assert.Len(t, values, 6)
	rows, err := parquet.Read[parquet.ReportRow](filepath.Join(dir, "signal.report.parquet"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	csvPath := filepath.Join(dir, "signal.csv")
	cfg = &contract.Config{Precision: 3, Output: schema.CSVOut, OutputFile: csvPath}
	require.NoError(t, PrintDerivative(sampleResult(false), cfg, time.Second))
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, readCSV(t, string(data)), 3)
}

func TestPrintDistanceToFile(t *testing.T) {
	dir := t.TempDir()

	parquetPath := filepath.Join(dir, "matrix.parquet")
	cfg := &contract.Config{Precision: 3, Output: schema.ParquetOut, OutputFile: parquetPath}
	require.NoError(t, PrintDistance(sampleMatrix(), cfg, time.Second))
	cells, err := parquet.Read[parquet.DistanceCell](parquetPath)
	require.NoError(t, err)
	assert.Len(t, cells, 3)

	textPath := filepath.Join(dir, "matrix.txt")
	cfg = &contract.Config{Precision: 3, Output: schema.TextOut, OutputFile: textPath, Width: 120}
	require.NoError(t, PrintDistance(sampleMatrix(), cfg, time.Second))
	data, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bottleneck")

	cfg = &contract.Config{Output: schema.JSONOut, OutputFile: "/nonexistent/dir/m.json"}
	assert.Error(t, PrintDistance(sampleMatrix(), cfg, time.Second))
}

func TestReportPath(t *testing.T) {
	assert.Equal(t, "out.report.parquet", reportPath("out.parquet"))
	assert.Equal(t, "out.report.parquet", reportPath("out"))
}
