package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hazardtable/schema"
)

// wellingtonSpectrum is the site class IV, 1/500 mean spectrum for Wellington
// sampled every 0.1 s from 0 to 10 s.
var wellingtonSpectrum = []float64{
	0.86224788, 1.38337982, 1.82800424, 1.8950038, 1.82104588, 1.71904314,
	1.57814586, 1.45586884, 1.34675848, 1.24527383, 1.16286707, 1.07204857,
	0.98123007, 0.90555633, 0.84502736, 0.78449839, 0.74109324, 0.69768809,
	0.65955479, 0.62669334, 0.5938319, 0.56307794, 0.53232399, 0.50157004,
	0.47081609, 0.44006214, 0.42105881, 0.40205548, 0.38305216, 0.36404883,
	0.34504551, 0.33190709, 0.31876868, 0.30563027, 0.29249185, 0.27935344,
	0.26994467, 0.26053591, 0.25112714, 0.24171838, 0.23230961, 0.2238579,
	0.21540619, 0.20695448, 0.19850277, 0.19005106, 0.18335436, 0.17665766,
	0.16996095, 0.16326425, 0.15656754, 0.15211688, 0.14766621, 0.14321554,
	0.13876487, 0.1343142, 0.12986353, 0.12541286, 0.1209622, 0.11651153,
	0.11206086, 0.10961958, 0.10717831, 0.10473703, 0.10229576, 0.09985448,
	0.09741321, 0.09497193, 0.09253065, 0.09008938, 0.0876481, 0.08520683,
	0.08276555, 0.08032428, 0.077883, 0.07544173, 0.07421994, 0.07299815,
	0.07177636, 0.07055457, 0.06933278, 0.06811099, 0.06688921, 0.06566742,
	0.06444563, 0.06322384, 0.06200205, 0.06078026, 0.05955847, 0.05833669,
	0.0571149, 0.05589311, 0.05467132, 0.05344953, 0.05222774, 0.05100596,
	0.04978417, 0.04856238, 0.04734059, 0.0461188, 0.04489701,
}

const (
	wellingtonPGA = 0.77
	wellingtonSas = 1.71
	wellingtonTc  = 0.66
)

func defaultSearch() schema.TdSearch {
	return schema.DefaultDerivationSettings().TdSearch
}

func TestUHSValue(t *testing.T) {
	tests := []struct {
		name                     string
		period, pga, sas, tc, td float64
		expected                 float64
	}{
		{"unit", 1, 1, 1, 1, 1, 1},
		{"beyond td", 2, 2, 2, 2, 2, 2},
		{"zero period is pga", 0, 2.233, 2, 2, 2, 2.233},
		{"short period ramp", 0.001, 2, 1.5, 2, 2, 1.995},
		{"plateau", 0.5, 2, 1.5, 2, 2, 1.5},
		{"velocity branch", 0.5, 2, 1.5, 0.45, 2, 1.5 * 0.45 / 0.5},
		{"displacement branch", 5.0, 2, 1.5, 0.45, 2, 1.5 * (0.45 / 5) * math.Sqrt(2.0/5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, UHSValue(tt.period, tt.pga, tt.sas, tt.tc, tt.td), 1e-12)
		})
	}
}

func TestTdDomain(t *testing.T) {
	grid := UpsampleGrid(0.1, 10)
	require.Len(t, grid, len(wellingtonSpectrum))

	dp, ds := TdDomain(grid, wellingtonSpectrum, wellingtonTc, defaultSearch())
	require.Len(t, dp, 49)
	assert.Len(t, ds, 49)
	assert.Equal(t, 1.2, dp[0])
	assert.Equal(t, 6.0, dp[len(dp)-1])
	assert.Equal(t, wellingtonSpectrum[12], ds[0])

	search := defaultSearch()
	dp, _ = TdDomain(grid, wellingtonSpectrum, 0.74, search)
	assert.Equal(t, 1.3, dp[0])

	search.Inclusive = true
	dp, _ = TdDomain(grid, wellingtonSpectrum, 0.74, search)
	assert.Equal(t, 1.2, dp[0], "inclusive domain keeps the rounded lower edge")
}

func TestScoreTd(t *testing.T) {
	grid := UpsampleGrid(0.1, 10)
	dp, ds := TdDomain(grid, wellingtonSpectrum, wellingtonTc, defaultSearch())
	score := ScoreTd(2.6, dp, ds, wellingtonPGA, wellingtonSas, wellingtonTc)
	assert.InDelta(t, 0.0135118578, score, 1e-6)
}

func TestFitTd(t *testing.T) {
	grid := UpsampleGrid(0.1, 10)
	fit, err := FitTd(grid, wellingtonSpectrum, wellingtonPGA, wellingtonSas, wellingtonTc, defaultSearch())
	require.NoError(t, err)
	assert.InDelta(t, 2.6, fit.Td, 1e-9)
	assert.InDelta(t, 0.0135118578, fit.Score, 1e-6)
	assert.Equal(t, 49, fit.Candidates)

	// the selected Td is the minimum over every candidate
	dp, ds := TdDomain(grid, wellingtonSpectrum, wellingtonTc, defaultSearch())
	for _, td := range dp {
		assert.LessOrEqual(t, fit.Score, ScoreTd(td, dp, ds, wellingtonPGA, wellingtonSas, wellingtonTc))
	}
	assert.GreaterOrEqual(t, fit.Td, wellingtonTc+0.5)
	assert.LessOrEqual(t, fit.Td, 6.0)
}

func TestFitTdRecoversGeneratingTd(t *testing.T) {
	grid := UpsampleGrid(0.1, 10)
	spectrum := make([]float64, len(grid))
	for i, p := range grid {
		spectrum[i] = UHSValue(p, wellingtonPGA, wellingtonSas, wellingtonTc, 2.6)
	}
	fit, err := FitTd(grid, spectrum, wellingtonPGA, wellingtonSas, wellingtonTc, defaultSearch())
	require.NoError(t, err)
	assert.InDelta(t, 2.6, fit.Td, 1e-9)
	assert.InDelta(t, 0, fit.Score, 1e-20)
}

func TestFitTdUpsamplesCoarseSpectrum(t *testing.T) {
	// every other point of the 0.1 s spectrum; upsampling restores the grid
	var periods, coarse []float64
	grid := UpsampleGrid(0.1, 10)
	for i := 0; i < len(grid); i += 2 {
		periods = append(periods, grid[i])
		coarse = append(coarse, wellingtonSpectrum[i])
	}
	fit, err := FitTd(periods, coarse, wellingtonPGA, wellingtonSas, wellingtonTc, defaultSearch())
	require.NoError(t, err)
	assert.Equal(t, 49, fit.Candidates)
	assert.GreaterOrEqual(t, fit.Td, 1.2)
	assert.LessOrEqual(t, fit.Td, 6.0)
}

func TestFitTdEmptyDomain(t *testing.T) {
	grid := UpsampleGrid(0.1, 10)
	fit, err := FitTd(grid, wellingtonSpectrum, wellingtonPGA, wellingtonSas, 5.8, defaultSearch())
	assert.ErrorIs(t, err, ErrEmptyDomain)
	assert.True(t, math.IsNaN(fit.Td))

	_, err = FitTd(grid, wellingtonSpectrum, wellingtonPGA, wellingtonSas, math.NaN(), defaultSearch())
	assert.ErrorIs(t, err, ErrEmptyDomain)
}

func TestFitTdTooShort(t *testing.T) {
	_, err := FitTd([]float64{0}, []float64{1}, 1, 1, 0.5, defaultSearch())
	assert.ErrorIs(t, err, ErrCurveTooShort)
}

// FuzzFitTd checks the search never panics and stays inside its domain.
func FuzzFitTd(f *testing.F) {
	f.Add(wellingtonPGA, wellingtonSas, wellingtonTc)
	f.Add(0.1, 0.2, 0.3)
	f.Add(0.0, 0.0, 0.0)
	f.Add(1.0, 2.0, 7.0)

	grid := UpsampleGrid(0.1, 10)
	f.Fuzz(func(t *testing.T, pga, sas, tc float64) {
		fit, err := FitTdOnGrid(grid, wellingtonSpectrum, pga, sas, tc, defaultSearch())
		if err != nil {
			return
		}
		if math.IsNaN(fit.Td) {
			return
		}
		if fit.Td > 6.0+1e-9 {
			t.Fatalf("td %v above domain", fit.Td)
		}
	})
}

func BenchmarkFitTd(b *testing.B) {
	grid := UpsampleGrid(0.1, 10)
	search := defaultSearch()

	for b.Loop() {
		_, _ = FitTd(grid, wellingtonSpectrum, wellingtonPGA, wellingtonSas, wellingtonTc, search)
	}
}
