package analysis

import (
	"errors"
	"math"
	"sort"
)

// ErrDuplicateEdges is returned by qcut when the quantile edges are not
// strictly increasing, so some bin would be empty by construction.
var ErrDuplicateEdges = errors.New("bin edges must be unique")

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// qcut assigns each value to one of n equal-frequency bins, numbered from 0.
// Bins are right-closed and the first one also holds the minimum.
func qcut(values []float64, n int) ([]int, error) {
	if len(values) == 0 || n < 1 {
		return nil, nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = quantile(sorted, float64(i)/float64(n))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, ErrDuplicateEdges
		}
	}
	out := make([]int, len(values))
	for i, v := range values {
		b := n - 1
		for j := 0; j < n; j++ {
			if v <= edges[j+1] {
				b = j
				break
			}
		}
		out[i] = b
	}
	return out, nil
}

// rankFirst ranks values from 1, breaking ties by position.
func rankFirst(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
	ranks := make([]float64, len(values))
	for r, i := range idx {
		ranks[i] = float64(r + 1)
	}
	return ranks
}
