package game

import "math"

// dist returns the euclidean distance between two points.
func dist(ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay
	return math.Sqrt(dx*dx + dy*dy)
}

// clampF clamps v to [lo, hi].
func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundDamage rounds a damage contribution to the nearest whole point.
func roundDamage(v float64) float64 {
	return math.Round(v)
}
