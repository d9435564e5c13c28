// Package loader reads diagram sequences and price series from local files.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/tdacrash/schema"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a diagram file.
type Format string

// Supported diagram file formats.
const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
)

// ErrNoColumn is returned when a CSV has no usable numeric column.
var ErrNoColumn = errors.New("column not found")

// FormatOf infers the diagram file format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONFormat, nil
	case ".yaml", ".yml":
		return YAMLFormat, nil
	default:
		return "", fmt.Errorf("unsupported diagram file %q (expected .json, .yaml or .yml)", path)
	}
}

// DecodeDiagramFile decodes a diagram file in the given format.
func DecodeDiagramFile(r io.Reader, format Format) (schema.DiagramFile, error) {
	var file schema.DiagramFile
	switch format {
	case JSONFormat:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return file, fmt.Errorf("failed to decode JSON diagrams: %w", err)
		}
	case YAMLFormat:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return file, fmt.Errorf("failed to decode YAML diagrams: %w", err)
		}
	default:
		return file, fmt.Errorf("unsupported diagram format %q", format)
	}
	if len(file.HomologyDimensions) == 0 {
		return file, errors.New("diagram file has no homology_dimensions")
	}
	return file, nil
}

// LoadDiagramFile reads a JSON or YAML diagram file from disk.
func LoadDiagramFile(path string) (schema.DiagramFile, error) {
	format, err := FormatOf(path)
	if err != nil {
		return schema.DiagramFile{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return schema.DiagramFile{}, fmt.Errorf("failed to open diagram file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeDiagramFile(f, format)
}

// WriteDiagramFile encodes a diagram file in the given format.
func WriteDiagramFile(w io.Writer, file schema.DiagramFile, format Format) error {
	switch format {
	case JSONFormat:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(file)
	case YAMLFormat:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported diagram format %q", format)
	}
}

// ReadColumn reads one numeric column from CSV data with a header row.
// column is matched against the header case-insensitively, or used as a
// zero-based index when it is a number. An empty column picks the last one.
// Rows with an empty or non-numeric cell are skipped.
func ReadColumn(r io.Reader, column string) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty CSV input")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx, err := columnIndex(header, column)
	if err != nil {
		return nil, err
	}

	var values []float64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if idx >= len(record) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no numeric values in column %q", ErrNoColumn, header[idx])
	}
	return values, nil
}

// LoadColumn reads one numeric column from a CSV file.
func LoadColumn(path, column string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open series file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadColumn(f, column)
}

func columnIndex(header []string, column string) (int, error) {
	if len(header) == 0 {
		return 0, fmt.Errorf("%w: CSV header is empty", ErrNoColumn)
	}
	column = strings.TrimSpace(column)
	if column == "" {
		return len(header) - 1, nil
	}
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			return i, nil
		}
	}
	if idx, err := strconv.Atoi(column); err == nil && idx >= 0 && idx < len(header) {
		return idx, nil
	}
	return 0, fmt.Errorf("%w: %q is not one of %v", ErrNoColumn, column, header)
}
