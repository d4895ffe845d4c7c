// Package algo holds the numeric kernels of the derivation engine: log-log
// curve interpolation, upsampling, the code-spectrum shape and its Td fit,
// high-PGA reduction and publication rounding.
package algo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// ErrCurveTooShort is returned when a hazard curve has fewer than two points.
var ErrCurveTooShort = errors.New("hazard curve needs at least two points")

// LogLogInterpolate returns the intensity level at which the hazard curve
// reaches targetRate. Levels ascend and rates are non-increasing; the curve is
// flipped to ascending rate and interpolated linearly on ln(rate) -> ln(level).
// Targets outside the curve extrapolate with the nearest end segment. A curve
// carrying non-positive or NaN values yields NaN.
func LogLogInterpolate(levels, rates []float64, targetRate float64) (float64, error) {
	n := len(levels)
	if n < 2 || len(rates) != n {
		return math.NaN(), ErrCurveTooShort
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range n {
		lvl, rate := levels[n-1-i], rates[n-1-i]
		if !(lvl > 0) || !(rate > 0) {
			return math.NaN(), nil
		}
		xs[i] = math.Log(rate)
		ys[i] = math.Log(lvl)
	}
	if !(targetRate > 0) {
		return math.NaN(), nil
	}
	// exact hits skip the exp/log round trip
	for i := range n {
		if rates[n-1-i] == targetRate {
			return levels[n-1-i], nil
		}
	}
	return math.Exp(extrapolateLinear(xs, ys, math.Log(targetRate))), nil
}

// LogLogInterpolateAll interpolates one curve at every target rate.
func LogLogInterpolateAll(levels, rates, targetRates []float64) ([]float64, error) {
	out := make([]float64, len(targetRates))
	for i, r := range targetRates {
		v, err := LogLogInterpolate(levels, rates, r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// extrapolateLinear evaluates the piecewise-linear function through (xs, ys)
// at x. xs must be non-decreasing. Outside [xs[0], xs[n-1]] the end segment is
// extended. Zero-width segments return their left value.
func extrapolateLinear(xs, ys []float64, x float64) float64 {
	n := len(xs)
	// index of the segment [i, i+1] used for x
	i := sort.SearchFloat64s(xs, x) - 1
	switch {
	case i < 0:
		i = 0
	case i > n-2:
		i = n - 2
	}
	x0, x1 := xs[i], xs[i+1]
	y0, y1 := ys[i], ys[i+1]
	if x == x0 || x1 == x0 {
		return y0
	}
	if x == x1 {
		return y1
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// UpsampleGrid returns the points 0, step, 2*step ... up to and including max.
// Points are computed by multiplication and rounded to 10 decimals so that
// repeated addition does not drift off the grid.
func UpsampleGrid(step, max float64) []float64 {
	if step <= 0 || max < 0 {
		return nil
	}
	n := int(math.Floor(max/step+1e-9)) + 1
	grid := make([]float64, n)
	for i := range n {
		grid[i] = RoundDecimals(float64(i)*step, 10)
	}
	return grid
}

// LinearUpsample resamples (xs, ys) onto a regular grid of the given step that
// spans [0, xs[n-1]], using straight linear interpolation.
func LinearUpsample(xs, ys []float64, step float64) (grid, values []float64, err error) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return nil, nil, ErrCurveTooShort
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, nil, fmt.Errorf("periods must strictly increase, got %g after %g", xs[i], xs[i-1])
		}
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, nil, fmt.Errorf("fitting spectrum for upsampling: %w", err)
	}
	grid = UpsampleGrid(step, xs[len(xs)-1])
	values = make([]float64, len(grid))
	for i, x := range grid {
		values[i] = pl.Predict(x)
	}
	return grid, values, nil
}
