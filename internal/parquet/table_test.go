package parquet

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hazardtable/schema"
)

func TestConvertFlatRows(t *testing.T) {
	rows := []schema.FlatRow{
		{Location: "Auckland", ReturnPeriod: 500, SiteClass: "I", PGA: 0.12, Sas: 0.27, Tc: 0.3, Td: 1.5, PSV: 0.13, SasFloor: true},
		{Location: "-36.9~174.8", ReturnPeriod: 500, SiteClass: "I", PGA: math.NaN(), Sas: 0.2, Tc: 0.3, Td: 1.5},
	}

	tests := []struct {
		name        string
		diagnostics bool
	}{
		{"published columns only", false},
		{"with diagnostics", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertFlatRows(rows, tt.diagnostics)
			require.Len(t, got, 2)
			assert.Equal(t, "APoE: 1/500", got[0].APoE)
			assert.Equal(t, int32(500), got[0].ReturnPeriod)
			assert.Equal(t, "Site Class I", got[0].SiteClass)
			require.NotNil(t, got[0].Sas)
			assert.InDelta(t, 0.27, *got[0].Sas, 1e-12)
			assert.Nil(t, got[1].PGA)

			if tt.diagnostics {
				require.NotNil(t, got[0].SasFloor)
				assert.True(t, *got[0].SasFloor)
				require.NotNil(t, got[0].PSV)
				assert.False(t, *got[1].SasFloor)
			} else {
				assert.Nil(t, got[0].SasFloor)
				assert.Nil(t, got[0].PSV)
			}
		})
	}
}

func TestConvertSpectra(t *testing.T) {
	s := &schema.EnvelopedSpectra{
		Location:     "Wellington",
		ReturnPeriod: 500,
		Periods:      []float64{0, 0.5, 1},
		Series: []schema.SpectrumSeries{
			{Label: "Site Class I", Values: []float64{0.3, 0.7, 0.4}},
			{Label: "Site Class IV", Values: []float64{0.4, 0.9, math.NaN()}},
		},
		Envelope: []float64{0.4, 0.9, 0.4},
	}
	points := ConvertSpectra(s)
	require.Len(t, points, 9)

	assert.Equal(t, "Site Class I", points[0].Label)
	assert.Nil(t, points[5].Value)
	last := points[8]
	assert.Equal(t, EnvelopeLabel, last.Label)
	assert.InDelta(t, 1.0, last.Period, 1e-12)
	require.NotNil(t, last.Value)
	assert.InDelta(t, 0.4, *last.Value, 1e-12)
}

func TestWriteTableParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "table.parquet")
	rows := []schema.FlatRow{
		{Location: "Christchurch", ReturnPeriod: 2500, SiteClass: "VI", PGA: 0.6, Sas: 1.3, Tc: 0.62, Td: 3.4},
	}
	require.NoError(t, WriteTableParquet(rows, false, outputPath))

	got := readAll[TableRow](t, outputPath)
	require.Len(t, got, 1)
	assert.Equal(t, "Christchurch", got[0].Location)
	assert.Equal(t, "Site Class VI", got[0].SiteClass)
	require.NotNil(t, got[0].Td)
	assert.InDelta(t, 3.4, *got[0].Td, 1e-12)
}

func TestWriteSpectraParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "spectra.parquet")
	s := &schema.EnvelopedSpectra{
		Location: "Napier", ReturnPeriod: 1000, Periods: []float64{0, 1},
		Series: []schema.SpectrumSeries{{Label: "spectrum", Values: []float64{0.5, 0.4}}},
	}
	require.NoError(t, WriteSpectraParquet(s, outputPath))

	got := readAll[SpectrumPoint](t, outputPath)
	assert.Len(t, got, 2)
}
