package core

import (
	"github.com/huangsam/hazardtable/schema"
)

// RelevantReplacements drops rules whose preferred location is absent and
// satellites that are absent. The input rules are not modified.
func RelevantReplacements(rules []schema.LocationRule, table *schema.ParameterTable) []schema.LocationRule {
	var out []schema.LocationRule
	for _, r := range rules {
		if !table.HasSite(r.Preferred) {
			continue
		}
		var satellites []string
		for _, s := range r.Satellites {
			if table.HasSite(s) {
				satellites = append(satellites, s)
			}
		}
		if len(satellites) > 0 {
			out = append(out, schema.LocationRule{Preferred: r.Preferred, Satellites: satellites})
		}
	}
	return out
}

// ReplicateLocations copies each preferred location's rows, flags included,
// onto its satellites and returns the rules that were applied.
func ReplicateLocations(table *schema.ParameterTable, rules []schema.LocationRule) []schema.LocationRule {
	applied := RelevantReplacements(rules, table)
	for _, r := range applied {
		for _, s := range r.Satellites {
			table.CopySite(r.Preferred, s)
		}
	}
	return applied
}
