package sample

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// normalizePercentile is the quantile used as the scaling ceiling. Scaling by
// the 95th percentile rather than the maximum keeps a single extreme
// measurement from compressing the rest of the distribution toward zero.
const normalizePercentile = 0.95

// Normalize maps raw measured volumes onto [0,1] by scaling against the 95th
// percentile of the batch and clamping. It is a pure function over the whole
// batch; single values cannot be normalized in isolation. A degenerate batch
// whose 95th percentile is zero normalizes to all zeros.
func Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	sorted := append([]float64(nil), raw...)
	sort.Float64s(sorted)
	p95 := stat.Quantile(normalizePercentile, stat.Empirical, sorted, nil)
	if p95 <= 0 {
		return out
	}
	for i, v := range raw {
		s := v / p95
		switch {
		case s < 0:
			s = 0
		case s > 1:
			s = 1
		}
		out[i] = s
	}
	return out
}
