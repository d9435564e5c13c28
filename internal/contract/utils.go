package contract

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

// Alert label constants.
const (
	AlertValue    = "ALERT" // Normalized value above the threshold
	QuietValue    = "quiet" // Normalized value at or below the threshold
	NoneOrderWord = "none"  // Order value that keeps one signal per dimension
)

// Color variables for console output.
var (
	AlertColor = color.New(color.FgRed, color.Bold) // AlertColor represents a crash warning.
	QuietColor = color.New(color.FgCyan)            // QuietColor represents a calm market.
)

// GetPlainLabel returns the plain text label of an alert flag.
func GetPlainLabel(alert bool) string {
	if alert {
		return AlertValue
	}
	return QuietValue
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(alert bool) string {
	text := GetPlainLabel(alert)
	if alert {
		return AlertColor.Sprint(text)
	}
	return QuietColor.Sprint(text)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ConfigureLogging sets up the global logger on stderr.
func ConfigureLogging(verbose bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: !verbose,
	})
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	log.WithFields(log.Fields{
		"error": err,
	}).Error(msg)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	log.WithFields(log.Fields{
		"error": err,
	}).Warn(msg)
}

// LogDebug logs a debug message with structured fields.
func LogDebug(msg string, fields map[string]any) {
	log.WithFields(fields).Debug(msg)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for diagram cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tdacrash_cache.db"
	}
	return filepath.Join(homeDir, ".tdacrash_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tdacrash_analysis.db"
	}
	return filepath.Join(homeDir, ".tdacrash_analysis.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseExponent parses a p-norm exponent. Accepts a number >= 1 or "inf".
func ParseExponent(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "inf" || s == "+inf" || s == "infinity" {
		return math.Inf(1), nil
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid exponent %q (expected a number >= 1 or inf)", s)
	}
	if math.IsNaN(p) || p < 1 {
		return 0, fmt.Errorf("exponent must be >= 1 (received %v)", p)
	}
	return p, nil
}

// ParseOrder parses the cross-dimension reduction order. "none" or an empty
// string keeps one signal per dimension and returns nil.
func ParseOrder(s string) (*float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == NoneOrderWord {
		return nil, nil
	}
	order, err := ParseExponent(s)
	if err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}
	return &order, nil
}

// ParseDimensions parses a comma-separated list of homology dimensions like "0,1".
func ParseDimensions(s string) ([]int, error) {
	var dims []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dim, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid homology dimension %q: %w", part, err)
		}
		if dim < 0 {
			return nil, fmt.Errorf("homology dimension must be >= 0 (received %d)", dim)
		}
		dims = append(dims, dim)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("at least one homology dimension is required")
	}
	return dims, nil
}

// FormatExponent renders an exponent the way ParseExponent accepts it.
func FormatExponent(p float64) string {
	if math.IsInf(p, 1) {
		return "inf"
	}
	return strconv.FormatFloat(p, 'g', -1, 64)
}
