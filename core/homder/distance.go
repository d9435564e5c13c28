package homder

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/huangsam/tdacrash/schema"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Distance returns the distance between the dim sub-diagrams of a and b.
// Closed-form kinds compare features on the sampling grid; bottleneck and
// wasserstein match points directly.
func Distance(a, b schema.Diagram, dim int, params schema.FeaturizationParams) (float64, error) {
	if err := validateParams(params); err != nil {
		return 0, err
	}
	if !slices.Contains(params.HomologyDimensions, dim) {
		return 0, fmt.Errorf("%w: homology dimension %d is not tracked", ErrConfiguration, dim)
	}
	pa, err := a.Sub(dim)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedDiagram, err)
	}
	pb, err := b.Sub(dim)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedDiagram, err)
	}
	if params.Kind.IsClosedForm() {
		return featureDistance(featurize(pa, dim, params), featurize(pb, dim, params), dim, params), nil
	}
	return pairsDistance(pa, pb, params), nil
}

// pairsDistance dispatches to the matching-based distances.
func pairsDistance(a, b []schema.Pair, params schema.FeaturizationParams) float64 {
	if params.Kind == schema.BottleneckKind || math.IsInf(params.P, 1) {
		return Bottleneck(a, b)
	}
	return Wasserstein(a, b, params.P)
}

// diagonalCost is the L-infinity distance from a pair to the diagonal.
func diagonalCost(p schema.Pair) float64 {
	return p.Persistence() / 2
}

// pointCost is the L-infinity distance between two pairs.
func pointCost(a, b schema.Pair) float64 {
	return max(math.Abs(a.Birth-b.Birth), math.Abs(a.Death-b.Death))
}

// augmentedCosts builds the (n+m)x(n+m) cost matrix where every point may
// also be matched to the diagonal. Rows are the points of a followed by m
// diagonal slots. Columns are the points of b followed by n diagonal slots.
func augmentedCosts(a, b []schema.Pair) [][]float64 {
	n, m := len(a), len(b)
	size := n + m
	costs := make([][]float64, size)
	for i := range costs {
		costs[i] = make([]float64, size)
	}
	for i := range n {
		for j := range m {
			costs[i][j] = pointCost(a[i], b[j])
		}
		for j := m; j < size; j++ {
			costs[i][j] = diagonalCost(a[i])
		}
	}
	for i := n; i < size; i++ {
		for j := range m {
			costs[i][j] = diagonalCost(b[j])
		}
	}
	return costs
}

// Bottleneck returns the exact bottleneck distance between two sets of pairs.
func Bottleneck(a, b []schema.Pair) float64 {
	costs := augmentedCosts(a, b)
	if len(costs) == 0 {
		return 0
	}
	candidates := make([]float64, 0, len(costs)*len(costs))
	for _, row := range costs {
		candidates = append(candidates, row...)
	}
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	lo, hi := 0, len(candidates)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if perfectMatching(costs, candidates[mid]) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return candidates[lo]
}

// perfectMatching reports whether the bipartite graph of edges with cost <= limit
// has a perfect matching, using augmenting paths.
func perfectMatching(costs [][]float64, limit float64) bool {
	size := len(costs)
	matchCol := make([]int, size)
	for j := range matchCol {
		matchCol[j] = -1
	}
	var augment func(i int, seen []bool) bool
	augment = func(i int, seen []bool) bool {
		for j := range size {
			if costs[i][j] > limit || seen[j] {
				continue
			}
			seen[j] = true
			if matchCol[j] < 0 || augment(matchCol[j], seen) {
				matchCol[j] = i
				return true
			}
		}
		return false
	}
	for i := range size {
		if !augment(i, make([]bool, size)) {
			return false
		}
	}
	return true
}

// Wasserstein returns the exact p-Wasserstein distance between two sets of pairs.
func Wasserstein(a, b []schema.Pair, p float64) float64 {
	costs := augmentedCosts(a, b)
	if len(costs) == 0 {
		return 0
	}
	for _, row := range costs {
		for j := range row {
			row[j] = math.Pow(row[j], p)
		}
	}
	return math.Pow(hungarian(costs), 1/p)
}

// hungarian returns the minimum total cost of a perfect assignment on a square matrix.
func hungarian(costs [][]float64) float64 {
	n := len(costs)
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	assigned := make([]int, n+1) // column -> row, 1-based, 0 means free
	way := make([]int, n+1)
	minv := make([]float64, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		assigned[0] = i
		col := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[col] = true
			row := assigned[col]
			delta := math.Inf(1)
			next := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := costs[row-1][j-1] - u[row] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = col
				}
				if minv[j] < delta || next == 0 {
					delta = minv[j]
					next = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[assigned[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			col = next
			if assigned[col] == 0 {
				break
			}
		}
		for col != 0 {
			prev := way[col]
			assigned[col] = assigned[prev]
			col = prev
		}
	}

	var total float64
	for j := 1; j <= n; j++ {
		total += costs[assigned[j]-1][j-1]
	}
	return total
}

// PairwiseMatrix returns the symmetric NxN distance matrix of the sequence.
// Per-dimension distances are reduced with the Order norm, or the 2-norm when
// Order is nil.
func PairwiseMatrix(ctx context.Context, diagrams schema.DiagramSequence, params schema.FeaturizationParams) (*mat.Dense, error) {
	dims, err := checkInputs(diagrams, params, 1)
	if err != nil {
		return nil, err
	}
	n := len(diagrams)
	perDim := make([]*mat.SymDense, len(dims))
	for col := range dims {
		perDim[col] = mat.NewSymDense(n, nil)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(params.Workers))
	for col, dim := range dims {
		g.Go(func() error {
			return pairwiseDim(gctx, diagrams, dim, params, perDim[col])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	order := 2.0
	if params.Order != nil {
		order = *params.Order
	}
	out := mat.NewDense(n, n, nil)
	row := make([]float64, len(dims))
	for i := range n {
		for j := i + 1; j < n; j++ {
			for col := range dims {
				row[col] = perDim[col].At(i, j)
			}
			d := floats.Norm(row, order)
			out.Set(i, j, d)
			out.Set(j, i, d)
		}
	}
	return out, nil
}

// pairwiseDim fills the upper triangle of dst with distances in one dimension.
func pairwiseDim(ctx context.Context, diagrams schema.DiagramSequence, dim int, params schema.FeaturizationParams, dst *mat.SymDense) error {
	subs, err := subDiagrams(diagrams, 0, dim)
	if err != nil {
		return err
	}
	var feats []feature
	if params.Kind.IsClosedForm() {
		feats = make([]feature, len(subs))
		for i, pairs := range subs {
			feats[i] = featurize(pairs, dim, params)
		}
	}
	for i := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := i + 1; j < len(subs); j++ {
			if feats != nil {
				dst.SetSym(i, j, featureDistance(feats[i], feats[j], dim, params))
			} else {
				dst.SetSym(i, j, pairsDistance(subs[i], subs[j], params))
			}
		}
	}
	return nil
}

// subDiagrams extracts the dim sub-diagram of every diagram. offset is the
// index of diagrams[0] in the full sequence and only shapes error messages.
func subDiagrams(diagrams schema.DiagramSequence, offset, dim int) ([][]schema.Pair, error) {
	subs := make([][]schema.Pair, len(diagrams))
	for i, d := range diagrams {
		pairs, err := d.Sub(dim)
		if err != nil {
			return nil, fmt.Errorf("%w: diagram %d: %v", ErrMalformedDiagram, offset+i, err)
		}
		subs[i] = pairs
	}
	return subs, nil
}
