package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundDecimals(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		d        int
		expected float64
	}{
		{"tie goes to even", 0.125, 2, 0.12},
		{"integer tie", 2.5, 0, 2},
		{"plain", 1.7149, 2, 1.71},
		{"one decimal", 2.65, 1, 2.6},
		{"negative", -0.376, 2, -0.38},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RoundDecimals(tt.x, tt.d))
		})
	}
	assert.True(t, math.IsNaN(RoundDecimals(math.NaN(), 2)))
}

func TestRoundSigFigs(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		n        int
		expected float64
	}{
		{"below one", 0.6449, 2, 0.64},
		{"tie goes to even", 1.25, 2, 1.2},
		{"small", 0.0456, 2, 0.046},
		{"large", 1234, 2, 1200},
		{"zero", 0, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, RoundSigFigs(tt.x, tt.n), 1e-9)
		})
	}
	assert.True(t, math.IsNaN(RoundSigFigs(math.NaN(), 2)))
}
