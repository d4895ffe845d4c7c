package core

import (
	"slices"

	"github.com/huangsam/hazardtable/schema"
)

// Flatten turns the table into published rows ordered by return period, then
// site class, then site order.
func Flatten(table *schema.ParameterTable) []schema.FlatRow {
	classOrder := make(map[string]int, len(table.SiteClasses))
	for i, sc := range table.SiteClasses {
		classOrder[sc] = i
	}
	rows := make([]schema.FlatRow, 0, table.Len())
	for _, k := range table.Keys() {
		r := table.Row(k.Site, k.ReturnPeriod, k.SiteClass)
		rows = append(rows, schema.FlatRow{
			Location:     k.Site,
			ReturnPeriod: k.ReturnPeriod,
			SiteClass:    k.SiteClass,
			PGA:          r.PGA,
			Sas:          r.Sas,
			Tc:           r.Tc,
			Td:           r.Td,
			PSV:          r.PSV,
			PGAFloor:     r.PGAFloor,
			SasFloor:     r.SasFloor,
			PSVFloor:     r.PSVFloor,
			TdFloor:      r.TdFloor,
		})
	}
	slices.SortStableFunc(rows, func(a, b schema.FlatRow) int {
		if a.ReturnPeriod != b.ReturnPeriod {
			return a.ReturnPeriod - b.ReturnPeriod
		}
		return classOrder[a.SiteClass] - classOrder[b.SiteClass]
	})
	return rows
}

// SplitNamedGrid separates named locations from lat~lon grid points, keeping order.
func SplitNamedGrid(rows []schema.FlatRow) (named, grid []schema.FlatRow) {
	for _, r := range rows {
		if schema.IsGridLocation(r.Location) {
			grid = append(grid, r)
		} else {
			named = append(named, r)
		}
	}
	return named, grid
}

// FilterLocations keeps the rows of the given locations. An empty list keeps everything.
func FilterLocations(rows []schema.FlatRow, locations []string) []schema.FlatRow {
	if len(locations) == 0 {
		return rows
	}
	var out []schema.FlatRow
	for _, r := range rows {
		if slices.Contains(locations, r.Location) {
			out = append(out, r)
		}
	}
	return out
}
