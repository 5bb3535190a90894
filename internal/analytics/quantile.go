package analytics

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile of values using linear interpolation
// between closest ranks (Hyndman-Fan type 7):
//
//	h = (n-1)*p
//	Q = x[floor(h)] + (h-floor(h)) * (x[floor(h)+1] - x[floor(h)])
//
// NaN values are ignored. The second result is false when no value remains
// or p is outside [0,1].
func Quantile(values []float64, p float64) (float64, bool) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, false
	}

	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return 0, false
	}
	sort.Float64s(xs)

	h := float64(len(xs)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(xs)-1 {
		return xs[len(xs)-1], true
	}
	frac := h - float64(lo)
	return xs[lo] + frac*(xs[lo+1]-xs[lo]), true
}
