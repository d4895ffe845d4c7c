package core

import (
	"github.com/huangsam/hazardtable/core/algo"
	"github.com/huangsam/hazardtable/schema"
)

// RoundTable applies the publication rounding in place. PSV is recomputed
// from the rounded Sas and Tc so the published triple satisfies
// PSV = round(Sas*g*Tc/(2*pi)).
func RoundTable(table *schema.ParameterTable, rules schema.RoundingRules) {
	for _, k := range table.Keys() {
		RoundRow(table.Row(k.Site, k.ReturnPeriod, k.SiteClass), rules)
	}
}

// RoundRow rounds a single row in place.
func RoundRow(row *schema.ParameterRow, rules schema.RoundingRules) {
	row.PGA = algo.RoundDecimals(row.PGA, rules.PGADecimals)
	row.Sas = algo.RoundDecimals(row.Sas, rules.SasDecimals)
	if rules.Legacy {
		row.Tc = algo.RoundDecimals(algo.RoundDecimals(row.Tc, 2), 1)
	} else {
		row.Tc = algo.RoundSigFigs(row.Tc, rules.TcSigFigs)
	}
	row.PSV = algo.RoundDecimals(PSVFromSasTc(row.Sas, row.Tc), rules.PSVDecimals)
	row.Td = algo.RoundDecimals(row.Td, rules.TdDecimals)
}
