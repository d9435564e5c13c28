// Package main provides a performance benchmarking tool for the tdacrash CLI.
// It times the crash pipeline on every price CSV of a dataset directory,
// running each command multiple times, treating the first successful cached run as cold
// and averaging the rest as warm, and writes CSV output for performance analysis.
//
// Prerequisites:
// - tdacrash and ripser binaries installed and available in PATH
// - Price series saved as CSV files in the dataset directory
//
// Usage: go run benchmark/main.go [dataset-dir]
//
//	dataset-dir: Directory containing price CSV files
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	DatasetDir  string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    []string
	Variants    map[string][]string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [dataset-dir]\n", os.Args[0])
		os.Exit(1)
	}

	datasets, err := filepath.Glob(filepath.Join(os.Args[1], "*.csv"))
	if err != nil || len(datasets) == 0 {
		fmt.Printf("No CSV datasets found in %s\n", os.Args[1])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		DatasetDir:  os.Args[1],
		Timeout:     10 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets:    datasets,
		Variants: map[string][]string{
			"landscape":   {"--kind", "landscape"},
			"silhouette":  {"--kind", "silhouette", "--power", "1"},
			"wasserstein": {"--kind", "wasserstein", "--p", "1"},
		},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, config)
}

// checkPrerequisites verifies that the tdacrash and ripser binaries exist
func checkPrerequisites() error {
	for _, bin := range []string{"tdacrash", "ripser"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s binary not found in PATH", bin)
		}
	}
	return nil
}

// runBenchmarks executes every variant of the pipeline across the datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, dataset := range config.Datasets {
		name := strings.TrimSuffix(filepath.Base(dataset), filepath.Ext(dataset))
		fmt.Printf("Benchmarking %s\n", name)
		for _, variant := range sortedKeys(config.Variants) {
			results = append(results, runBenchmarkSuite(config, name, dataset, variant, config.Variants[variant]))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a variant
func runBenchmarkSuite(config BenchmarkConfig, name, dataset, variant string, extraArgs []string) BenchmarkResult {
	fmt.Printf("Running %s pipeline on %s\n", variant, name)

	// Every variant starts from an empty cache so the first cached run is cold
	clearCmd := exec.Command("tdacrash", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, dataset, extraArgs, cacheBackend, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     name,
		Command:     variant,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes the pipeline multiple times with the given cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, dataset string, extraArgs []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{"pipeline", dataset,
		"--cache-backend", cacheBackend,
		"--workers", fmt.Sprint(config.Workers),
		"--output", "json",
	}
	args = append(args, extraArgs...)

	var times []float64
	for range numRuns {
		elapsed, err := timeCommand(config.Timeout, args)
		if err != nil {
			fmt.Printf("    run failed: %v\n", err)
			continue
		}
		times = append(times, elapsed.Seconds())
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return coldTime, warmTimes
}

// timeCommand runs tdacrash with args and returns its wall time.
func timeCommand(timeout time.Duration, args []string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, "tdacrash", args...)
	output, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return 0, fmt.Errorf("timed out after %v", timeout)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	if !isSuccess(output) {
		return 0, errors.New("no report in output")
	}
	return time.Since(start), nil
}

// isSuccess checks if the JSON output carries a crash report
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), `"report"`)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/tdacrash_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "kind", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult, config BenchmarkConfig) {
	fmt.Printf("Benchmark complete\n")
	for _, variant := range sortedKeys(config.Variants) {
		fmt.Printf("Pipeline (%s):\n", variant)
		for _, result := range results {
			if result.Command == variant {
				fmt.Printf("  %-16s: No-cache: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
