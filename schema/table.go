package schema

import (
	"math"
	"slices"
)

var nan = math.NaN()

// ParameterTable is the dense collection of ParameterRows keyed by
// (site, return period, site class). Axis order is preserved for output.
type ParameterTable struct {
	Sites         []string
	ReturnPeriods []int
	SiteClasses   []string // class keys, e.g. "IV"

	rows      []ParameterRow
	siteIndex map[string]int
	rpIndex   map[int]int
	scIndex   map[string]int
}

// NewParameterTable allocates a table with NaN parameters for every key.
func NewParameterTable(sites []string, returnPeriods []int, siteClasses []string) *ParameterTable {
	t := &ParameterTable{
		Sites:         slices.Clone(sites),
		ReturnPeriods: slices.Clone(returnPeriods),
		SiteClasses:   slices.Clone(siteClasses),
		siteIndex:     make(map[string]int, len(sites)),
		rpIndex:       make(map[int]int, len(returnPeriods)),
		scIndex:       make(map[string]int, len(siteClasses)),
	}
	for i, s := range sites {
		t.siteIndex[s] = i
	}
	for i, rp := range returnPeriods {
		t.rpIndex[rp] = i
	}
	for i, sc := range siteClasses {
		t.scIndex[sc] = i
	}
	t.rows = make([]ParameterRow, len(sites)*len(returnPeriods)*len(siteClasses))
	for i := range t.rows {
		t.rows[i] = ParameterRow{PGA: nan, Sas: nan, PSV: nan, Tc: nan, Td: nan}
	}
	return t
}

func (t *ParameterTable) index(site string, rp int, sc string) (int, bool) {
	is, ok := t.siteIndex[site]
	if !ok {
		return 0, false
	}
	ir, ok := t.rpIndex[rp]
	if !ok {
		return 0, false
	}
	ic, ok := t.scIndex[sc]
	if !ok {
		return 0, false
	}
	return (is*len(t.ReturnPeriods)+ir)*len(t.SiteClasses) + ic, true
}

// Row returns a pointer to the stored row, or nil when the key is absent.
// Callers mutate the row in place.
func (t *ParameterTable) Row(site string, rp int, sc string) *ParameterRow {
	i, ok := t.index(site, rp, sc)
	if !ok {
		return nil
	}
	return &t.rows[i]
}

// HasSite reports whether the site is part of the table.
func (t *ParameterTable) HasSite(site string) bool {
	_, ok := t.siteIndex[site]
	return ok
}

// Keys returns every row key in site, return period, site class order.
func (t *ParameterTable) Keys() []RowKey {
	keys := make([]RowKey, 0, len(t.rows))
	for _, s := range t.Sites {
		for _, rp := range t.ReturnPeriods {
			for _, sc := range t.SiteClasses {
				keys = append(keys, RowKey{Site: s, ReturnPeriod: rp, SiteClass: sc})
			}
		}
	}
	return keys
}

// Len returns the number of rows.
func (t *ParameterTable) Len() int {
	return len(t.rows)
}

// CopySite overwrites every row of dst with the rows of src.
func (t *ParameterTable) CopySite(src, dst string) bool {
	is, ok := t.siteIndex[src]
	if !ok {
		return false
	}
	id, ok := t.siteIndex[dst]
	if !ok {
		return false
	}
	n := len(t.ReturnPeriods) * len(t.SiteClasses)
	copy(t.rows[id*n:(id+1)*n], t.rows[is*n:(is+1)*n])
	return true
}

// Clone returns a deep copy of the table.
func (t *ParameterTable) Clone() *ParameterTable {
	c := NewParameterTable(t.Sites, t.ReturnPeriods, t.SiteClasses)
	copy(c.rows, t.rows)
	return c
}

// TableSnapshot is the serializable form of a ParameterTable.
type TableSnapshot struct {
	Sites         []string       `msgpack:"sites"`
	ReturnPeriods []int          `msgpack:"return_periods"`
	SiteClasses   []string       `msgpack:"site_classes"`
	Rows          []ParameterRow `msgpack:"rows"`
}

// Snapshot exports the table for caching.
func (t *ParameterTable) Snapshot() TableSnapshot {
	return TableSnapshot{
		Sites:         slices.Clone(t.Sites),
		ReturnPeriods: slices.Clone(t.ReturnPeriods),
		SiteClasses:   slices.Clone(t.SiteClasses),
		Rows:          slices.Clone(t.rows),
	}
}

// FromSnapshot rebuilds a table. It returns nil when the row count does not match the axes.
func FromSnapshot(s TableSnapshot) *ParameterTable {
	t := NewParameterTable(s.Sites, s.ReturnPeriods, s.SiteClasses)
	if len(s.Rows) != len(t.rows) {
		return nil
	}
	copy(t.rows, s.Rows)
	return t
}
