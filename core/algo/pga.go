package algo

import "math"

// ReductionFactor returns R = a0*ln(pga) + a1 for pga at or above the
// threshold, zero below it, clamped to [0, 1).
func ReductionFactor(pga, a0, a1, threshold float64) float64 {
	if math.IsNaN(pga) || pga < threshold || pga <= 0 {
		return 0
	}
	r := a0*math.Log(pga) + a1
	switch {
	case r < 0:
		return 0
	case r >= 1:
		return math.Nextafter(1, 0)
	}
	return r
}

// ReducePGA applies the high-PGA reduction: pga * (1 - R).
func ReducePGA(pga, a0, a1, threshold float64) float64 {
	return pga * (1 - ReductionFactor(pga, a0, a1, threshold))
}
