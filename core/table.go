package core

import (
	"errors"
	"fmt"

	"github.com/huangsam/hazardtable/schema"
)

// meanStat is the storage index of the mean statistic.
const meanStat = 0

// Layout maps parameter-table keys onto spectra tensor indices.
type Layout struct {
	Spectra *schema.SpectraSet
	Sites   []string
	Classes []schema.SiteClass // classes whose representative vs30 is in the dataset

	siteIndex map[string]int
	vs30Index map[string]int // class key -> vs30 index
	rpIndex   map[int]int
}

// NewLayout resolves the site classes against the dataset stiffness axis.
// Classes without a matching representative vs30 are returned as missing.
func NewLayout(h *schema.HazardTensor, set *schema.SpectraSet, classes []schema.SiteClass) (*Layout, []string, error) {
	l := &Layout{
		Spectra:   set,
		Sites:     h.SiteNames(),
		siteIndex: make(map[string]int, len(h.Sites)),
		vs30Index: make(map[string]int, len(classes)),
		rpIndex:   make(map[int]int, len(set.ReturnPeriods)),
	}
	for i, s := range l.Sites {
		l.siteIndex[s] = i
	}
	for i, rp := range set.ReturnPeriods {
		l.rpIndex[rp] = i
	}
	var missing []string
	for _, sc := range classes {
		iv := h.Vs30Index(sc.RepresentativeVs30)
		if iv < 0 {
			missing = append(missing, sc.Key)
			continue
		}
		l.vs30Index[sc.Key] = iv
		l.Classes = append(l.Classes, sc)
	}
	if len(l.Classes) == 0 {
		return nil, missing, errors.New("no site class matches a vs30 in the dataset")
	}
	return l, missing, nil
}

// ClassKeys returns the resolved class keys in catalogue order.
func (l *Layout) ClassKeys() []string {
	keys := make([]string, len(l.Classes))
	for i, sc := range l.Classes {
		keys[i] = sc.Key
	}
	return keys
}

// index returns the tensor indices of a table key.
func (l *Layout) index(k schema.RowKey) (iVs30, iSite, iRP int, err error) {
	var ok bool
	if iVs30, ok = l.vs30Index[k.SiteClass]; !ok {
		return 0, 0, 0, fmt.Errorf("site class %s not in dataset", k.SiteClass)
	}
	if iSite, ok = l.siteIndex[k.Site]; !ok {
		return 0, 0, 0, fmt.Errorf("site %s not in dataset", k.Site)
	}
	if iRP, ok = l.rpIndex[k.ReturnPeriod]; !ok {
		return 0, 0, 0, fmt.Errorf("return period %d not in dataset", k.ReturnPeriod)
	}
	return iVs30, iSite, iRP, nil
}

// setFromArrays copies one statistic of the extracted parameters into row.
func setFromArrays(row *schema.ParameterRow, a *ParameterArrays, iVs30, iSite, iRP, iStat int) {
	row.PGA = a.PGA.At(iVs30, iSite, iRP, iStat)
	row.Sas = a.Sas.At(iVs30, iSite, iRP, iStat)
	row.PSV = a.PSV.At(iVs30, iSite, iRP, iStat)
	row.Tc = a.Tc.At(iVs30, iSite, iRP, iStat)
}

// NewMeanTable assembles the mean-statistic table for every site, return
// period and resolved site class. Td is left NaN for FitTdTable.
func NewMeanTable(arrays *ParameterArrays, l *Layout) (*schema.ParameterTable, error) {
	table := schema.NewParameterTable(l.Sites, l.Spectra.ReturnPeriods, l.ClassKeys())
	for _, k := range table.Keys() {
		iv, is, ir, err := l.index(k)
		if err != nil {
			return nil, err
		}
		setFromArrays(table.Row(k.Site, k.ReturnPeriod, k.SiteClass), arrays, iv, is, ir, meanStat)
	}
	return table, nil
}
