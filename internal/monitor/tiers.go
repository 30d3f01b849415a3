package monitor

import "sort"

// HighestTier returns the largest ladder threshold that drop meets or
// exceeds. ok is false when no tier is met. The ladder is a per-token
// value, so every lookup takes it as a parameter.
func HighestTier(ladder []float64, drop float64) (tier float64, ok bool) {
	if len(ladder) == 0 {
		return 0, false
	}

	sorted := make([]float64, len(ladder))
	copy(sorted, ladder)
	sort.Float64s(sorted)

	for i := len(sorted) - 1; i >= 0; i-- {
		if drop >= sorted[i] {
			return sorted[i], true
		}
	}
	return 0, false
}
