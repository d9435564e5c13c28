// Package detect compares a derivative signal with a naive price baseline and flags crash alerts.
package detect

import (
	"errors"
	"fmt"
	"math"

	"github.com/huangsam/tdacrash/schema"
	"gonum.org/v1/gonum/floats"
)

// DefaultThreshold is the normalized level above which a point raises an alert.
const DefaultThreshold = 0.75

// ErrLengthMismatch is returned when the signal and baseline do not align.
var ErrLengthMismatch = errors.New("signal and baseline lengths differ")

// Normalize rescales xs to [0, 1] with min-max scaling.
// A constant series maps to zeros. NaN values are kept as NaN.
func Normalize(xs []float64) []float64 {
	out := make([]float64, len(xs))
	finite := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			finite = append(finite, x)
		}
	}
	if len(finite) == 0 {
		copy(out, xs)
		return out
	}
	lo, hi := floats.Min(finite), floats.Max(finite)
	for i, x := range xs {
		switch {
		case math.IsNaN(x):
			out[i] = x
		case hi == lo:
			out[i] = 0
		default:
			out[i] = (x - lo) / (hi - lo)
		}
	}
	return out
}

// Baseline is the absolute first difference of the closing price of
// consecutive windows. Entry i aligns with derivative entry i.
func Baseline(prices []float64, windows [][2]int) ([]float64, error) {
	if len(windows) < 2 {
		return nil, fmt.Errorf("need at least 2 windows for a baseline, got %d", len(windows))
	}
	closes := make([]float64, len(windows))
	for i, w := range windows {
		last := w[1] - 1
		if last < 0 || last >= len(prices) {
			return nil, fmt.Errorf("window %d ends at %d, outside %d prices", i, w[1], len(prices))
		}
		closes[i] = prices[last]
	}
	out := make([]float64, len(closes)-1)
	for i := range out {
		out[i] = math.Abs(closes[i+1] - closes[i])
	}
	return out, nil
}

// Detect normalizes both series and flags every index whose normalized value
// exceeds threshold.
func Detect(signal, baseline []float64, threshold float64) (schema.Report, error) {
	if len(signal) != len(baseline) {
		return schema.Report{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(signal), len(baseline))
	}
	normSignal := Normalize(signal)
	normBaseline := Normalize(baseline)

	report := schema.Report{
		Threshold:          threshold,
		Points:             make([]schema.ReportPoint, len(signal)),
		FirstAlert:         -1,
		FirstBaselineAlert: -1,
	}
	for i := range signal {
		point := schema.ReportPoint{
			Index:         i,
			Signal:        normSignal[i],
			Baseline:      normBaseline[i],
			Alert:         normSignal[i] > threshold,
			BaselineAlert: normBaseline[i] > threshold,
		}
		if point.Alert && report.FirstAlert < 0 {
			report.FirstAlert = i
		}
		if point.BaselineAlert && report.FirstBaselineAlert < 0 {
			report.FirstBaselineAlert = i
		}
		report.Points[i] = point
	}
	return report, nil
}

// LeadTime returns how many steps the signal alert precedes the baseline alert.
// ok is false unless both alerts fired.
func LeadTime(report schema.Report) (lead int, ok bool) {
	if report.FirstAlert < 0 || report.FirstBaselineAlert < 0 {
		return 0, false
	}
	return report.FirstBaselineAlert - report.FirstAlert, true
}
