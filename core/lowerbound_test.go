package core

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hazardtable/core/algo"
	"github.com/huangsam/hazardtable/schema"
)

// shapedSite scales a code-spectrum shape with its own Td.
type shapedSite struct {
	name  string
	scale float64
	td    float64
}

// shapedDataset builds class I curves at the 0.9 quantile whose spectra follow
// each site's shape, using the same power law as the demo dataset.
func shapedDataset(t *testing.T, sites ...shapedSite) *schema.HazardDataset {
	t.Helper()
	vs30s := []float64{schema.DefaultSiteClasses()[0].RepresentativeVs30}
	schemaSites := make([]schema.Site, len(sites))
	for i, s := range sites {
		schemaSites[i] = schema.Site{Name: s.name, Lat: -40, Lon: 175 + float64(i)/10}
	}
	imts := make([]string, len(demoPeriods))
	levels := make([][]float64, len(demoPeriods))
	for i, p := range demoPeriods {
		imts[i] = imtLabel(p)
		levels[i] = demoLevels()
	}
	h, err := schema.NewHazardTensor(vs30s, schemaSites, imts, levels, []float64{0.9})
	require.NoError(t, err)

	for is, s := range sites {
		for im, period := range demoPeriods {
			shape := algo.UHSValue(period, 0.4, 0.9, 0.5, s.td)
			for ist := range h.NumStats() {
				scale := shape * s.scale * demoStatFactor(h, ist)
				for il, level := range levels[im] {
					h.Rates.Set(demoRate0*math.Pow(level/scale, -demoSlope), 0, is, im, il, ist)
				}
			}
		}
	}
	return &schema.HazardDataset{Curves: h, ReturnPeriods: []int{500}}
}

func lowerBoundSettings() schema.DerivationSettings {
	s := rawSettings()
	s.ApplyLowerBound = true
	s.ReturnPeriods = []int{500}
	s.SiteClasses = schema.DefaultSiteClasses()[:1]
	return s
}

func TestApplyLowerBoundTdFloor(t *testing.T) {
	ds := shapedDataset(t,
		shapedSite{name: "Auckland", scale: 1, td: 5},
		shapedSite{name: "Napier", scale: 0.5, td: 2},
	)
	s := lowerBoundSettings()

	// Td of the controlling spectrum at the 0.9 quantile
	set, _, err := BuildSpectra(ds.Curves, s.ReturnPeriods)
	require.NoError(t, err)
	arrays, err := ExtractParameters(set)
	require.NoError(t, err)
	const pct = 1
	want, err := algo.FitTd(set.Periods, set.AccSpectrum(0, 0, 0, pct),
		arrays.PGA.At(0, 0, 0, pct), arrays.Sas.At(0, 0, 0, pct), arrays.Tc.At(0, 0, 0, pct), s.TdSearch)
	require.NoError(t, err)

	unfloored := lowerBoundSettings()
	unfloored.ApplyLowerBound = false
	raw, err := DeriveTable(context.Background(), ds, unfloored, 2, NewMetrics())
	require.NoError(t, err)
	require.Less(t, raw.Table.Row("Napier", 500, "I").Td, want.Td)

	d, err := DeriveTable(context.Background(), ds, s, 2, NewMetrics())
	require.NoError(t, err)
	require.True(t, d.LowerBound.Applied)
	assert.GreaterOrEqual(t, d.LowerBound.Floored["td"], 1)

	ctrl := d.Table.Row("Auckland", 500, "I")
	assert.InDelta(t, arrays.PGA.At(0, 0, 0, pct), ctrl.PGA, 1e-12)
	assert.InDelta(t, arrays.Sas.At(0, 0, 0, pct), ctrl.Sas, 1e-12)
	assert.InDelta(t, arrays.PSV.At(0, 0, 0, pct), ctrl.PSV, 1e-12)

	napier := d.Table.Row("Napier", 500, "I")
	assert.True(t, napier.PGAFloor && napier.SasFloor && napier.PSVFloor)
	assert.True(t, napier.TdFloor)
	assert.InDelta(t, want.Td, napier.Td, 1e-12)
	assert.InDelta(t, ctrl.Sas, napier.Sas, 0)
	assert.InDelta(t, CornerPeriod(napier.Sas, napier.PSV), napier.Tc, 1e-12)
}

func TestApplyLowerBoundKeepsStrongerTd(t *testing.T) {
	ds := shapedDataset(t,
		shapedSite{name: "Auckland", scale: 1, td: 2},
		shapedSite{name: "Napier", scale: 0.5, td: 5},
	)
	d, err := DeriveTable(context.Background(), ds, lowerBoundSettings(), 2, NewMetrics())
	require.NoError(t, err)

	napier := d.Table.Row("Napier", 500, "I")
	assert.True(t, napier.PSVFloor)
	assert.False(t, napier.TdFloor)
	assert.Greater(t, napier.Td, d.Table.Row("Auckland", 500, "I").Td)
}

func TestApplyLowerBoundFloorsEveryRow(t *testing.T) {
	tests := []struct {
		name string
		ds   *schema.HazardDataset
		s    schema.DerivationSettings
	}{
		{"synthetic", SyntheticDataset(), func() schema.DerivationSettings {
			s := rawSettings()
			s.ApplyLowerBound = true
			return s
		}()},
		{"shaped", shapedDataset(t,
			shapedSite{name: "Auckland", scale: 1, td: 5},
			shapedSite{name: "Napier", scale: 0.5, td: 2},
			shapedSite{name: "Nelson", scale: 2, td: 3},
		), lowerBoundSettings()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DeriveTable(context.Background(), tt.ds, tt.s, 3, NewMetrics())
			require.NoError(t, err)
			require.True(t, d.LowerBound.Applied)

			for _, k := range d.Table.Keys() {
				row := d.Table.Row(k.Site, k.ReturnPeriod, k.SiteClass)
				ctrl := d.Table.Row(tt.s.Controlling.Site, k.ReturnPeriod, k.SiteClass)
				assert.GreaterOrEqual(t, row.PGA, ctrl.PGA, "%s PGA", k)
				assert.GreaterOrEqual(t, row.Sas, ctrl.Sas, "%s Sas", k)
				assert.GreaterOrEqual(t, row.PSV, ctrl.PSV, "%s PSV", k)
			}
		})
	}
}
