package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/tdacrash/core/detect"
	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// derivativeHeader returns the column names shared by the table and CSV writers.
func derivativeHeader(result schema.DerivativeResult, dimName func(int) string) []string {
	header := []string{"step"}
	for _, dim := range result.Signal.Dimensions {
		header = append(header, dimName(dim))
	}
	if result.Signal.Reduced {
		header = append(header, "reduced")
	}
	if result.Report != nil {
		header = append(header, "signal", "baseline", "alert", "baseline_alert")
	}
	return header
}

// derivativeRow formats transition i. label renders the alert flags.
func derivativeRow(result schema.DerivativeResult, i int, fmtFloat func(float64) string, label func(bool) string) []string {
	row := []string{strconv.Itoa(i)}
	for _, v := range result.Signal.PerDimension[i] {
		row = append(row, fmtFloat(v))
	}
	if result.Signal.Reduced {
		row = append(row, fmtFloat(result.Signal.Values[i]))
	}
	if result.Report != nil && i < len(result.Report.Points) {
		p := result.Report.Points[i]
		row = append(row, fmtFloat(p.Signal), fmtFloat(p.Baseline), label(p.Alert), label(p.BaselineAlert))
	}
	return row
}

// writeDerivativeCSV writes one row per transition.
func writeDerivativeCSV(w io.Writer, result schema.DerivativeResult, fmtFloat func(float64) string) error {
	header := derivativeHeader(result, func(dim int) string { return fmt.Sprintf("h%d", dim) })
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for i := range result.Signal.Len() {
			if err := csvWriter.Write(derivativeRow(result, i, fmtFloat, contract.GetPlainLabel)); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeDerivativeTable generates and writes the human-readable table.
func writeDerivativeTable(w io.Writer, result schema.DerivativeResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	table.Header(derivativeHeader(result, func(dim int) string { return fmt.Sprintf("H%d", dim) }))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Formatting.AutoFormat = tw.Off
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 2. Populate Rows
	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}
	data := make([][]string, 0, result.Signal.Len())
	for i := range result.Signal.Len() {
		data = append(data, derivativeRow(result, i, fmtFloat, label))
	}

	// 3. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if result.Report != nil {
		if _, err := fmt.Fprintln(w, reportSummary(*result.Report)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Derivative (%s) of %d diagrams computed in %v with %d workers. Cache backend: %s\n",
		result.Signal.Kind, result.Windows, duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// reportSummary describes when each detector first fired.
func reportSummary(report schema.Report) string {
	first := func(i int) string {
		if i < 0 {
			return "never"
		}
		return "step " + strconv.Itoa(i)
	}
	summary := fmt.Sprintf("Threshold %.2f: TDA alert at %s, price alert at %s",
		report.Threshold, first(report.FirstAlert), first(report.FirstBaselineAlert))
	if lead, ok := detect.LeadTime(report); ok {
		summary += fmt.Sprintf(" (lead %d steps)", lead)
	}
	return summary
}
