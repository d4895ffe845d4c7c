package core

import (
	"fmt"
	"math"

	"github.com/huangsam/hazardtable/core/algo"
	"github.com/huangsam/hazardtable/schema"
)

// Power-law hazard of the demo dataset: rate = demoRate0 * (level/scale)^-demoSlope.
const (
	demoRate0 = 1e-3
	demoSlope = 3.0
)

// demoPeriods are the spectral ordinates of the demo dataset.
var demoPeriods = []float64{0, 0.1, 0.2, 0.3, 0.5, 0.75, 1, 1.5, 2, 3, 4, 5, 6}

// demoSites scale the code-spectrum shape per location. Auckland is the
// weakest site so it controls the floor.
var demoSites = []struct {
	site  schema.Site
	scale float64
}{
	{schema.Site{Name: "Auckland", Lat: -36.85, Lon: 174.76}, 0.3},
	{schema.Site{Name: "Wellington", Lat: -41.29, Lon: 174.78}, 1.2},
	{schema.Site{Name: "Christchurch", Lat: -43.53, Lon: 172.63}, 0.8},
	{schema.Site{Name: "-41.3~174.8", Lat: -41.3, Lon: 174.8}, 1.1},
}

// SyntheticDataset builds a small deterministic dataset whose curves follow a
// power law around an idealised code spectrum, so every stage of the pipeline
// has something to work on. It covers every default site class.
func SyntheticDataset() *schema.HazardDataset {
	classes := schema.DefaultSiteClasses()
	vs30s := make([]float64, len(classes))
	for i, sc := range classes {
		vs30s[i] = sc.RepresentativeVs30
	}
	sites := make([]schema.Site, len(demoSites))
	for i, s := range demoSites {
		sites[i] = s.site
	}
	imts := make([]string, len(demoPeriods))
	for i, p := range demoPeriods {
		imts[i] = imtLabel(p)
	}
	levels := make([][]float64, len(imts))
	for i := range levels {
		levels[i] = demoLevels()
	}
	quantiles := []float64{0.1, 0.5, 0.9}

	h, err := schema.NewHazardTensor(vs30s, sites, imts, levels, quantiles)
	if err != nil {
		panic(err) // fixed shapes above
	}
	for iv := range vs30s {
		soil := 1 + 0.1*float64(iv)
		for is, s := range demoSites {
			for im, period := range demoPeriods {
				shape := algo.UHSValue(period, 0.4, 0.9, 0.5, 3)
				for ist := range h.NumStats() {
					scale := shape * s.scale * soil * demoStatFactor(h, ist)
					for il, level := range levels[im] {
						h.Rates.Set(demoRate0*math.Pow(level/scale, -demoSlope), iv, is, im, il, ist)
					}
				}
			}
		}
	}
	return &schema.HazardDataset{
		Curves:        h,
		ReturnPeriods: append([]int(nil), schema.DefaultReturnPeriods...),
		Meta:          map[string]string{"source": "synthetic"},
	}
}

// demoLevels spans 1e-3 g to 10 g, log-spaced.
func demoLevels() []float64 {
	const n = 25
	out := make([]float64, n)
	for i := range n {
		out[i] = math.Pow(10, -3+4*float64(i)/(n-1))
	}
	return out
}

// demoStatFactor spreads the quantiles around the mean.
func demoStatFactor(h *schema.HazardTensor, stat int) float64 {
	if stat == 0 {
		return 1
	}
	return 1 + 1.5*(h.Quantiles[stat-1]-0.5)
}

func imtLabel(period float64) string {
	if period == 0 {
		return "PGA"
	}
	return fmt.Sprintf("SA(%g)", period)
}
