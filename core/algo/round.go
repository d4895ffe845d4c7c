package algo

import "math"

// RoundDecimals rounds x to d decimal places, ties to even.
func RoundDecimals(x float64, d int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(d))
	return math.RoundToEven(x*p) / p
}

// RoundSigFigs rounds x to n significant figures, ties to even.
func RoundSigFigs(x float64, n int) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) || n <= 0 {
		return x
	}
	mag := int(math.Floor(math.Log10(math.Abs(x))))
	return RoundDecimals(x, n-1-mag)
}
