package core

import (
	"fmt"
	"math"

	"github.com/huangsam/hazardtable/core/algo"
	"github.com/huangsam/hazardtable/schema"
)

// ParameterLookup returns the published row for a key, or nil.
type ParameterLookup interface {
	Row(site string, rp int, siteClass string) *schema.ParameterRow
}

// SpectrumFromParameters evaluates the code spectrum at each period, rounded to precision decimals.
func SpectrumFromParameters(pga, sas, tc, td float64, periods []float64, precision int) []float64 {
	out := make([]float64, len(periods))
	for i, p := range periods {
		out[i] = algo.RoundDecimals(algo.UHSValue(p, pga, sas, tc, td), precision)
	}
	return out
}

// EnvelopedSpectra builds the spectrum of each site class for one location and
// return period, plus their point-wise maximum.
func EnvelopedSpectra(lookup ParameterLookup, location string, rp int, classes []string, periods []float64, precision int) (*schema.EnvelopedSpectra, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("no site classes given")
	}
	out := &schema.EnvelopedSpectra{
		Location:     location,
		ReturnPeriod: rp,
		Periods:      periods,
		Envelope:     make([]float64, len(periods)),
	}
	for i := range out.Envelope {
		out.Envelope[i] = math.Inf(-1)
	}
	for _, sc := range classes {
		key := schema.SiteClassKey(sc)
		row := lookup.Row(location, rp, key)
		if row == nil {
			return nil, fmt.Errorf("no parameters for %s", schema.RowKey{Site: location, ReturnPeriod: rp, SiteClass: key})
		}
		values := SpectrumFromParameters(row.PGA, row.Sas, row.Tc, row.Td, periods, precision)
		out.Series = append(out.Series, schema.SpectrumSeries{Label: key, Values: values})
		for i, v := range values {
			out.Envelope[i] = math.Max(out.Envelope[i], v)
		}
	}
	return out, nil
}
