package schema

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels(t *testing.T) {
	assert.Equal(t, "APoE: 1/500", APoELabel(500))
	assert.Equal(t, "Site Class IV", SiteClassLabel("IV"))
	assert.Equal(t, "IV", SiteClassKey("Site Soil Class IV"))
	assert.Equal(t, "IV", SiteClassKey("Site Class IV"))
	assert.Equal(t, "IV", SiteClassKey("IV"))
	assert.Equal(t, "0.9", QuantileLabel(0.9))
}

func TestParseAPoELabel(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"APoE: 1/500", 500, false},
		{"1/2500", 2500, false},
		{"25", 25, false},
		{"APoE: 1/0", 0, true},
		{"yearly", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAPoELabel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsGridLocation(t *testing.T) {
	assert.True(t, IsGridLocation("-47.3~167.8"))
	assert.False(t, IsGridLocation("Wellington"))
	assert.True(t, Site{Name: "-41.3~174.8"}.IsGrid())
}

func TestSiteClassContains(t *testing.T) {
	classes := DefaultSiteClasses()
	require.Len(t, classes, 6)

	stiff := classes[0]
	assert.True(t, stiff.Contains(1500), "class I is unbounded above")
	assert.False(t, stiff.Contains(749))

	iv := classes[3]
	assert.Equal(t, "Site Class IV", iv.Label())
	assert.True(t, iv.Contains(275))
	assert.True(t, iv.Contains(250))
	assert.False(t, iv.Contains(300))
}

func TestDefaultSpectrumPeriods(t *testing.T) {
	periods := DefaultSpectrumPeriods()
	assert.Len(t, periods, 310)
	assert.Equal(t, 0.0, periods[0])
	assert.InDelta(t, 3.0, periods[300], 1e-12)
	assert.Equal(t, 10.0, periods[len(periods)-1])
}

func TestTensor(t *testing.T) {
	tensor := NewTensor(math.NaN(), 2, 3, 4)
	assert.Len(t, tensor.Data, 24)
	assert.True(t, math.IsNaN(tensor.At(1, 2, 3)))

	tensor.Set(7.5, 1, 2, 3)
	assert.Equal(t, 7.5, tensor.At(1, 2, 3))
	assert.Equal(t, 7.5, tensor.Data[23])

	clone := tensor.Clone()
	clone.Set(1, 1, 2, 3)
	assert.Equal(t, 7.5, tensor.At(1, 2, 3), "clone must not alias")

	assert.Panics(t, func() { tensor.At(2, 0, 0) })
	assert.Panics(t, func() { tensor.At(0, 0) })
}

func TestNewHazardTensor(t *testing.T) {
	sites := []Site{{Name: "Auckland"}, {Name: "Wellington"}}
	levels := [][]float64{{0.01, 0.1, 1}, {0.01, 0.1, 1}}
	h, err := NewHazardTensor([]float64{275, 375}, sites, []string{"PGA", "SA(1.0)"}, levels, []float64{0.1, 0.9})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 2, 3, 3}, h.Rates.Shape)
	assert.Equal(t, []string{"mean", "0.1", "0.9"}, h.StatLabels())
	assert.Equal(t, 3, h.NumStats())
	assert.Equal(t, 2, h.StatIndex(0.9))
	assert.Equal(t, -1, h.StatIndex(0.5))
	assert.Equal(t, 1, h.SiteIndex("Wellington"))
	assert.Equal(t, -1, h.SiteIndex("Dunedin"))
	assert.Equal(t, 1, h.Vs30Index(375))

	h.Rates.Set(0.01, 0, 1, 1, 0, 0)
	h.Rates.Set(0.001, 0, 1, 1, 1, 0)
	h.Rates.Set(0.0001, 0, 1, 1, 2, 0)
	lv, rates := h.Curve(0, 1, 1, 0)
	assert.Equal(t, []float64{0.01, 0.1, 1}, lv)
	assert.Equal(t, []float64{0.01, 0.001, 0.0001}, rates)

	_, err = NewHazardTensor(nil, sites, []string{"PGA"}, levels, nil)
	assert.Error(t, err, "levels/imts length mismatch")

	_, err = NewHazardTensor(nil, sites, []string{"PGA", "SA(1.0)"}, [][]float64{{1, 2}, {1}}, nil)
	assert.Error(t, err, "ragged levels")
}

func TestParameterTable(t *testing.T) {
	table := NewParameterTable([]string{"Auckland", "Manukau City"}, []int{25, 500}, []string{"IV", "V"})
	assert.Equal(t, 8, table.Len())
	assert.Len(t, table.Keys(), 8)
	assert.Equal(t, RowKey{Site: "Auckland", ReturnPeriod: 25, SiteClass: "IV"}, table.Keys()[0])

	row := table.Row("Auckland", 500, "V")
	require.NotNil(t, row)
	assert.True(t, math.IsNaN(row.PGA))
	row.PGA = 0.42
	row.PGAFloor = true
	assert.Equal(t, 0.42, table.Row("Auckland", 500, "V").PGA)

	assert.Nil(t, table.Row("Dunedin", 500, "V"))
	assert.Nil(t, table.Row("Auckland", 100, "V"))
	assert.Nil(t, table.Row("Auckland", 500, "I"))

	require.True(t, table.CopySite("Auckland", "Manukau City"))
	if diff := cmp.Diff(*table.Row("Auckland", 500, "V"), *table.Row("Manukau City", 500, "V"), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("copied row differs:\n%s", diff)
	}
	assert.True(t, table.Row("Manukau City", 500, "V").PGAFloor)
	assert.False(t, table.CopySite("Auckland", "Dunedin"))

	clone := table.Clone()
	clone.Row("Auckland", 500, "V").PGA = 1
	assert.Equal(t, 0.42, table.Row("Auckland", 500, "V").PGA)

	restored := FromSnapshot(table.Snapshot())
	require.NotNil(t, restored)
	assert.Equal(t, 0.42, restored.Row("Manukau City", 500, "V").PGA)

	bad := table.Snapshot()
	bad.Rows = bad.Rows[:3]
	assert.Nil(t, FromSnapshot(bad))
}

func TestRowKeyString(t *testing.T) {
	k := RowKey{Site: "Wellington", ReturnPeriod: 500, SiteClass: "IV"}
	assert.Equal(t, "Wellington / APoE: 1/500 / Site Class IV", k.String())
}

func TestDefaultDerivationSettings(t *testing.T) {
	s := DefaultDerivationSettings()
	assert.True(t, s.ApplyPGAReduction)
	assert.True(t, s.ApplyLowerBound)
	assert.True(t, s.ApplyRounding)
	assert.Equal(t, "Auckland", s.Controlling.Site)
	assert.Equal(t, 0.9, s.Controlling.Percentile)
	assert.Equal(t, DefaultReturnPeriods, s.ReturnPeriods)

	sc, ok := s.SiteClassByKey("VI")
	require.True(t, ok)
	assert.Equal(t, 175.0, sc.RepresentativeVs30)
	_, ok = s.SiteClassByKey("VII")
	assert.False(t, ok)

	for key, r := range s.PGAReductions {
		assert.Equal(t, key, r.SiteClass)
		assert.Greater(t, r.A0*math.Log(r.PGAThreshold)+r.A1, 0.0, "reduction must be positive at threshold for %s", key)
	}
}
