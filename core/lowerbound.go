package core

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/huangsam/hazardtable/schema"
)

// LowerBoundReport summarises the floor stage of a run.
type LowerBoundReport struct {
	Applied    bool
	SkipReason string
	Floored    map[string]int // parameter -> rows floored
}

type controlKey struct {
	rp int
	sc string
}

// ApplyLowerBound raises every row to the controlling site's percentile
// parameters:
//
//  1. the controlling site's PGA, Sas, PSV and Tc are replaced by the values at the percentile statistic
//  2. every row takes the max of its own PGA, Sas and PSV and the controlling values
//  3. floor flags mark values that do not strictly exceed the controlling value
//  4. Tc is recomputed from the floored Sas and PSV
//  5. Td is fitted for the controlling site at the percentile statistic
//  6. PSV-floored rows whose Td is below the controlling Td take it and set the Td flag
//
// A controlling site or percentile absent from the dataset skips the stage.
func ApplyLowerBound(ctx context.Context, table *schema.ParameterTable, arrays *ParameterArrays, l *Layout, h *schema.HazardTensor, ctrl schema.ControllingSite, search schema.TdSearch, workers int, m *Metrics) (LowerBoundReport, error) {
	report := LowerBoundReport{Floored: map[string]int{}}

	stat := h.StatIndex(ctrl.Percentile)
	switch {
	case !table.HasSite(ctrl.Site):
		report.SkipReason = fmt.Sprintf("controlling site %q is not in the site list", ctrl.Site)
		return report, nil
	case stat < 0:
		report.SkipReason = fmt.Sprintf("percentile %s is not in the dataset statistics", schema.QuantileLabel(ctrl.Percentile))
		return report, nil
	}

	// 1. controlling values at the percentile statistic
	control := make(map[controlKey]schema.ParameterRow)
	for _, rp := range table.ReturnPeriods {
		for _, sc := range table.SiteClasses {
			key := schema.RowKey{Site: ctrl.Site, ReturnPeriod: rp, SiteClass: sc}
			iv, is, ir, err := l.index(key)
			if err != nil {
				return report, err
			}
			row := table.Row(ctrl.Site, rp, sc)
			setFromArrays(row, arrays, iv, is, ir, stat)
			control[controlKey{rp, sc}] = *row
		}
	}

	// 2-4. floor every row and recompute Tc
	for _, k := range table.Keys() {
		row := table.Row(k.Site, k.ReturnPeriod, k.SiteClass)
		c := control[controlKey{k.ReturnPeriod, k.SiteClass}]
		row.PGA, row.PGAFloor = floorValue(row.PGA, c.PGA)
		row.Sas, row.SasFloor = floorValue(row.Sas, c.Sas)
		row.PSV, row.PSVFloor = floorValue(row.PSV, c.PSV)
		row.Tc = CornerPeriod(row.Sas, row.PSV)
		countFloors(report.Floored, row)
	}

	// 5. controlling Td at the percentile statistic
	jobs := make([]tdJob, 0, len(control))
	for _, rp := range table.ReturnPeriods {
		for _, sc := range table.SiteClasses {
			jobs = append(jobs, tdJob{key: schema.RowKey{Site: ctrl.Site, ReturnPeriod: rp, SiteClass: sc}, stat: stat})
		}
	}
	controlTd := make(map[controlKey]float64, len(jobs))
	var errs []error
	for _, r := range fitTdJobs(ctx, table, l, jobs, search, workers, m) {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		controlTd[controlKey{r.key.ReturnPeriod, r.key.SiteClass}] = r.fit.Td
	}
	if err := errors.Join(errs...); err != nil {
		return report, fmt.Errorf("controlling site Td: %w", err)
	}

	// 6. Td floor for PSV-floored rows
	for _, k := range table.Keys() {
		row := table.Row(k.Site, k.ReturnPeriod, k.SiteClass)
		td := controlTd[controlKey{k.ReturnPeriod, k.SiteClass}]
		if row.PSVFloor && row.Td < td {
			row.Td = td
			row.TdFloor = true
			report.Floored["td"]++
		}
	}

	for param, n := range report.Floored {
		m.FlooredRows.WithLabelValues(param).Add(float64(n))
	}
	report.Applied = true
	return report, nil
}

// floorValue returns max(v, floor) and whether the result does not strictly
// exceed the floor. Missing values on either side are left untouched.
func floorValue(v, floor float64) (float64, bool) {
	if math.IsNaN(v) || math.IsNaN(floor) {
		return v, false
	}
	out := math.Max(v, floor)
	return out, !(out > floor)
}

func countFloors(counts map[string]int, row *schema.ParameterRow) {
	if row.PGAFloor {
		counts["pga"]++
	}
	if row.SasFloor {
		counts["sas"]++
	}
	if row.PSVFloor {
		counts["psv"]++
	}
}
