package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeDistanceCSV writes the full matrix with a leading row index column.
func writeDistanceCSV(w io.Writer, matrix schema.DistanceMatrix, fmtFloat func(float64) string) error {
	header := []string{"diagram"}
	for j := range matrix.Values {
		header = append(header, strconv.Itoa(j))
	}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for i, row := range matrix.Values {
			rec := []string{strconv.Itoa(i)}
			for _, v := range row {
				rec = append(rec, fmtFloat(v))
			}
			if err := csvWriter.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeDistanceTable prints the matrix, cut to the columns that fit the terminal.
func writeDistanceTable(w io.Writer, matrix schema.DistanceMatrix, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	n := len(matrix.Values)
	shown := min(n, maxMatrixColumns(cfg))

	table := tablewriter.NewWriter(w)
	header := []string{""}
	for j := range shown {
		header = append(header, strconv.Itoa(j))
	}
	if shown < n {
		header = append(header, "...")
	}
	table.Header(header)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Formatting.AutoFormat = tw.Off
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, n)
	for i, row := range matrix.Values {
		rec := []string{strconv.Itoa(i)}
		for j := range shown {
			if i == j {
				rec = append(rec, "-")
				continue
			}
			rec = append(rec, fmtFloat(row[j]))
		}
		if shown < n {
			rec = append(rec, "")
		}
		data = append(data, rec)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if shown < n {
		if _, err := fmt.Fprintf(w, "Showing %d of %d columns; use --output csv for the full matrix\n", shown, n); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Pairwise %s distances over H%v for %d diagrams computed in %v with %d workers\n",
		matrix.Kind, matrix.Dimensions, n, duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}
