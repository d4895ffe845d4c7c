package parquet

import (
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/huangsam/hazardtable/schema"
)

// DatasetSummary describes the axes of a hazard dataset.
type DatasetSummary struct {
	Vs30s         []float64         `json:"vs30s"`
	NamedSites    int               `json:"named_sites"`
	GridSites     int               `json:"grid_sites"`
	IMTs          []string          `json:"imts"`
	LevelsPerIMT  int               `json:"levels_per_imt"`
	Quantiles     []float64         `json:"quantiles"`
	ReturnPeriods []int             `json:"return_periods"`
	StoredSpectra []int             `json:"stored_spectra_return_periods,omitempty"`
	MissingRates  int               `json:"missing_rates"`
	TotalRates    int               `json:"total_rates"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// Summarize counts the sites and missing values of a dataset.
func Summarize(ds *schema.HazardDataset) DatasetSummary {
	h := ds.Curves
	s := DatasetSummary{
		Vs30s:         h.Vs30s,
		IMTs:          h.IMTs,
		Quantiles:     h.Quantiles,
		ReturnPeriods: ds.ReturnPeriods,
		TotalRates:    len(h.Rates.Data),
		Meta:          ds.Meta,
	}
	if len(h.Levels) > 0 {
		s.LevelsPerIMT = len(h.Levels[0])
	}
	for _, site := range h.Sites {
		if site.IsGrid() {
			s.GridSites++
		} else {
			s.NamedSites++
		}
	}
	for _, v := range h.Rates.Data {
		if math.IsNaN(v) {
			s.MissingRates++
		}
	}
	if ds.Spectra != nil {
		s.StoredSpectra = ds.Spectra.ReturnPeriods
	}
	return s
}

// PrintSummary writes a human-readable dataset summary.
func PrintSummary(w io.Writer, path string, s DatasetSummary) {
	_, _ = fmt.Fprintf(w, "Dataset: %s\n", path)
	_, _ = fmt.Fprintf(w, "Vs30s: %v\n", s.Vs30s)
	_, _ = fmt.Fprintf(w, "Sites: %d named, %d grid\n", s.NamedSites, s.GridSites)
	_, _ = fmt.Fprintf(w, "Intensity Measures: %s\n", strings.Join(s.IMTs, ", "))
	_, _ = fmt.Fprintf(w, "Levels per IMT: %d\n", s.LevelsPerIMT)
	_, _ = fmt.Fprintf(w, "Quantiles: %v\n", s.Quantiles)
	_, _ = fmt.Fprintf(w, "Return Periods: %v\n", s.ReturnPeriods)
	if len(s.StoredSpectra) > 0 {
		_, _ = fmt.Fprintf(w, "Stored Spectra: %v\n", s.StoredSpectra)
	} else {
		_, _ = fmt.Fprintln(w, "Stored Spectra: none")
	}
	_, _ = fmt.Fprintf(w, "Missing Rates: %d of %d\n", s.MissingRates, s.TotalRates)
	if len(s.Meta) > 0 {
		_, _ = fmt.Fprintln(w, "Metadata:")
	}
	for _, k := range slices.Sorted(maps.Keys(s.Meta)) {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", k, s.Meta[k])
	}
}
