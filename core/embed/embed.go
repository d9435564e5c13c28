// Package embed turns a scalar series into the point clouds fed to the diagram oracle.
package embed

import (
	"errors"
	"fmt"
)

// ErrInvalidEmbedding is returned when an embedding or window setting cannot be applied.
var ErrInvalidEmbedding = errors.New("invalid embedding")

// Takens returns the time-delay embedding of series. Vector i is
// (x[i*stride], x[i*stride+delay], ..., x[i*stride+(dim-1)*delay]).
func Takens(series []float64, dim, delay, stride int) ([][]float64, error) {
	if dim < 1 || delay < 1 || stride < 1 {
		return nil, fmt.Errorf("%w: dimension, time delay and stride must be positive (got %d, %d, %d)", ErrInvalidEmbedding, dim, delay, stride)
	}
	span := (dim - 1) * delay
	if len(series) <= span {
		return nil, fmt.Errorf("%w: series of length %d is too short for dimension %d and delay %d", ErrInvalidEmbedding, len(series), dim, delay)
	}
	count := (len(series)-span-1)/stride + 1
	out := make([][]float64, count)
	for i := range out {
		start := i * stride
		vec := make([]float64, dim)
		for k := range vec {
			vec[k] = series[start+k*delay]
		}
		out[i] = vec
	}
	return out, nil
}

// SlidingWindows returns the [start, end) ranges of windows of size over n items.
// Windows are aligned so the last one ends at n; leading items that do not
// fill a window are skipped.
func SlidingWindows(n, size, stride int) ([][2]int, error) {
	if size < 1 || stride < 1 {
		return nil, fmt.Errorf("%w: window size and stride must be positive (got %d, %d)", ErrInvalidEmbedding, size, stride)
	}
	if n < size {
		return nil, fmt.Errorf("%w: %d items cannot fill a window of size %d", ErrInvalidEmbedding, n, size)
	}
	count := (n-size)/stride + 1
	offset := n - size - (count-1)*stride
	out := make([][2]int, count)
	for i := range out {
		start := offset + i*stride
		out[i] = [2]int{start, start + size}
	}
	return out, nil
}

// Windows cuts points into sliding-window point clouds and returns them with
// their [start, end) ranges. The clouds share backing storage with points.
func Windows(points [][]float64, size, stride int) ([][][]float64, [][2]int, error) {
	ranges, err := SlidingWindows(len(points), size, stride)
	if err != nil {
		return nil, nil, err
	}
	out := make([][][]float64, len(ranges))
	for i, r := range ranges {
		out[i] = points[r[0]:r[1]]
	}
	return out, ranges, nil
}

// SeriesRanges maps window ranges over delay vectors back to [start, end)
// ranges over the original series, so that end-1 is the last sample of the
// window's last vector.
func SeriesRanges(ranges [][2]int, dim, delay, stride int) [][2]int {
	out := make([][2]int, len(ranges))
	for i, r := range ranges {
		out[i] = [2]int{r[0] * stride, (r[1]-1)*stride + (dim-1)*delay + 1}
	}
	return out
}
