package contract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/huangsam/tdacrash/schema"
)

// DefaultRipserPath is the executable looked up on PATH when none is configured.
const DefaultRipserPath = "ripser"

// RipserOracle implements the DiagramOracle interface by executing the
// local 'ripser' binary installed on the machine.
type RipserOracle struct {
	Path    string  // executable, DefaultRipserPath when empty
	MaxEdge float64 // Vietoris-Rips threshold, 0 means unbounded
}

var _ DiagramOracle = &RipserOracle{} // Compile-time check

// NewRipserOracle creates a new instance of the ripser oracle.
func NewRipserOracle(path string, maxEdge float64) *RipserOracle {
	if path == "" {
		path = DefaultRipserPath
	}
	return &RipserOracle{Path: path, MaxEdge: maxEdge}
}

// ID implements the DiagramOracle interface.
func (o *RipserOracle) ID() string {
	return fmt.Sprintf("ripser|threshold=%g", o.MaxEdge)
}

// Diagram implements the DiagramOracle interface.
func (o *RipserOracle) Diagram(ctx context.Context, cloud [][]float64, dims []int) (schema.Diagram, error) {
	dims = schema.NormalizeDimensions(dims)
	if len(dims) == 0 {
		return schema.Diagram{}, errors.New("no homology dimensions requested")
	}
	if len(cloud) == 0 {
		return schema.NewDiagram(dims, nil), nil
	}

	f, err := os.CreateTemp("", "tdacrash-cloud-*.csv")
	if err != nil {
		return schema.Diagram{}, fmt.Errorf("failed to create point cloud file: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if err := writePointCloud(f, cloud); err != nil {
		_ = f.Close()
		return schema.Diagram{}, err
	}
	if err := f.Close(); err != nil {
		return schema.Diagram{}, fmt.Errorf("failed to close point cloud file: %w", err)
	}

	args := []string{"--format", "point-cloud", "--dim", strconv.Itoa(dims[len(dims)-1])}
	if o.MaxEdge > 0 {
		args = append(args, "--threshold", strconv.FormatFloat(o.MaxEdge, 'g', -1, 64))
	}
	args = append(args, f.Name())

	cmd := exec.CommandContext(ctx, o.Path, args...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return schema.Diagram{}, fmt.Errorf("ripser failed on %d points: %s", len(cloud), stderr)
	} else if err != nil {
		return schema.Diagram{}, fmt.Errorf("ripser failed: %w. Ensure ripser is installed and available on your PATH", err)
	}
	return ParseRipserOutput(bytes.NewReader(out), dims)
}

// writePointCloud writes one comma-separated point per line.
func writePointCloud(w io.Writer, cloud [][]float64) error {
	bw := bufio.NewWriter(w)
	for _, point := range cloud {
		for i, x := range point {
			if i > 0 {
				_ = bw.WriteByte(',')
			}
			_, _ = bw.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
		_ = bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write point cloud: %w", err)
	}
	return nil
}

// ParseRipserOutput parses the intervals printed by ripser into a diagram
// tracking dims. Intervals of untracked dimensions and infinite bars are dropped.
func ParseRipserOutput(r io.Reader, dims []int) (schema.Diagram, error) {
	dims = schema.NormalizeDimensions(dims)
	tracked := schema.NewDiagram(dims, nil)

	var points []schema.Point
	current := -1
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "persistence intervals in dim "); ok {
			dim, err := strconv.Atoi(strings.TrimSuffix(rest, ":"))
			if err != nil {
				return schema.Diagram{}, fmt.Errorf("line %d: invalid dimension header %q", lineNo, line)
			}
			current = dim
			continue
		}
		if !strings.HasPrefix(line, "[") || current < 0 {
			continue
		}
		if !tracked.Tracks(current) {
			continue
		}
		birth, death, finite, err := parseInterval(line)
		if err != nil {
			return schema.Diagram{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !finite {
			continue
		}
		points = append(points, schema.Point{Birth: birth, Death: death, Dim: current})
	}
	if err := scanner.Err(); err != nil {
		return schema.Diagram{}, fmt.Errorf("failed to read ripser output: %w", err)
	}
	return schema.NewDiagram(dims, points), nil
}

// parseInterval parses "[b,d)" or "[b, )" for an infinite bar.
func parseInterval(s string) (birth, death float64, finite bool, err error) {
	body := strings.TrimSuffix(strings.TrimPrefix(s, "["), ")")
	parts := strings.Split(body, ",")
	if len(parts) != 2 {
		return 0, 0, false, fmt.Errorf("invalid interval %q", s)
	}
	birth, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid birth in %q: %w", s, err)
	}
	deathStr := strings.TrimSpace(parts[1])
	if deathStr == "" {
		return birth, 0, false, nil
	}
	death, err = strconv.ParseFloat(deathStr, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid death in %q: %w", s, err)
	}
	return birth, death, true, nil
}
