// Package schema holds the data model shared by the derivation engine, the
// stores and the writers.
package schema

import (
	"fmt"
	"math"
)

// SiteClass maps a class label to a representative reference stiffness (vs30)
// and the stiffness range it covers. An UpperBound of 0 means unbounded.
type SiteClass struct {
	Key                string  `json:"key" mapstructure:"key"`
	RepresentativeVs30 float64 `json:"representative_vs30" mapstructure:"representative_vs30"`
	LowerBound         float64 `json:"lower_bound" mapstructure:"lower_bound"`
	UpperBound         float64 `json:"upper_bound" mapstructure:"upper_bound"`
}

// Label returns the published label, e.g. "Site Class IV".
func (sc SiteClass) Label() string {
	return SiteClassLabel(sc.Key)
}

// Contains reports whether vs30 falls inside the class stiffness range.
func (sc SiteClass) Contains(vs30 float64) bool {
	if vs30 < sc.LowerBound {
		return false
	}
	return sc.UpperBound == 0 || vs30 < sc.UpperBound
}

// PGAReduction holds the calibrated high-PGA reduction coefficients of one site class.
type PGAReduction struct {
	SiteClass    string  `json:"site_class" mapstructure:"site_class"`
	A0           float64 `json:"a0" mapstructure:"a0"`
	A1           float64 `json:"a1" mapstructure:"a1"`
	PGAThreshold float64 `json:"pga_threshold" mapstructure:"pga_threshold"`
}

// ControllingSite names the site and percentile statistic that set the nationwide floor.
type ControllingSite struct {
	Site       string  `json:"site"`
	Percentile float64 `json:"percentile"`
}

// LocationRule ties satellite locations to a preferred location's final row.
type LocationRule struct {
	Preferred  string   `json:"preferred" mapstructure:"preferred"`
	Satellites []string `json:"satellites" mapstructure:"satellites"`
}

// RoundingRules control the publication rounding pass.
type RoundingRules struct {
	PGADecimals int  `json:"pga_decimals"`
	SasDecimals int  `json:"sas_decimals"`
	TcSigFigs   int  `json:"tc_sig_figs"`
	PSVDecimals int  `json:"psv_decimals"`
	TdDecimals  int  `json:"td_decimals"`
	Legacy      bool `json:"legacy"` // Tc rounded to 2 dp, then to 1 dp
}

// TdSearch configures the Td grid search.
type TdSearch struct {
	Step         float64 `json:"step"`
	MaxPeriod    float64 `json:"max_period"`
	DomainOffset float64 `json:"domain_offset"`
	Inclusive    bool    `json:"inclusive"`
}

// DerivationSettings is the immutable configuration handed to every pipeline
// stage. Stages never read process-wide state.
type DerivationSettings struct {
	SiteClasses   []SiteClass             `json:"site_classes"`
	PGAReductions map[string]PGAReduction `json:"pga_reductions"`
	Controlling   ControllingSite         `json:"controlling"`
	Replacements  []LocationRule          `json:"replacements"`
	Rounding      RoundingRules           `json:"rounding"`
	TdSearch      TdSearch                `json:"td_search"`
	ReturnPeriods []int                   `json:"return_periods"`

	ApplyPGAReduction bool `json:"apply_pga_reduction"`
	ApplyLowerBound   bool `json:"apply_lower_bound"`
	ApplyRounding     bool `json:"apply_rounding"`
}

// DefaultDerivationSettings returns the settings used to build the published table.
func DefaultDerivationSettings() DerivationSettings {
	return DerivationSettings{
		SiteClasses:   DefaultSiteClasses(),
		PGAReductions: DefaultPGAReductions(),
		Controlling:   ControllingSite{Site: DefaultControllingSite, Percentile: DefaultControllingPctile},
		Replacements:  DefaultLocationReplacements(),
		Rounding: RoundingRules{
			PGADecimals: DefaultPGADecimals,
			SasDecimals: DefaultSasDecimals,
			TcSigFigs:   DefaultTcSigFigs,
			PSVDecimals: DefaultPSVDecimals,
			TdDecimals:  DefaultTdDecimals,
		},
		TdSearch: TdSearch{
			Step:         DefaultTdStep,
			MaxPeriod:    DefaultTdMaxPeriod,
			DomainOffset: DefaultTdDomainOffset,
		},
		ReturnPeriods:     append([]int(nil), DefaultReturnPeriods...),
		ApplyPGAReduction: true,
		ApplyLowerBound:   true,
		ApplyRounding:     true,
	}
}

// SiteClassByKey looks up a catalogue entry.
func (s DerivationSettings) SiteClassByKey(key string) (SiteClass, bool) {
	for _, sc := range s.SiteClasses {
		if sc.Key == key {
			return sc, true
		}
	}
	return SiteClass{}, false
}

// Site is a named location or a lat~lon grid point.
type Site struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// IsGrid reports whether the site is a lat~lon grid point rather than a named location.
func (s Site) IsGrid() bool {
	return IsGridLocation(s.Name)
}

// HazardTensor holds hazard curves indexed [vs30][site][imt][level][stat].
// Statistic 0 is the mean, followed by Quantiles in order. All intensity
// measures share the same number of intensity levels.
type HazardTensor struct {
	Vs30s     []float64
	Sites     []Site
	IMTs      []string
	Levels    [][]float64 // [imt][level]
	Quantiles []float64
	Rates     *Tensor
}

// NewHazardTensor allocates a NaN-filled tensor for the given axes.
func NewHazardTensor(vs30s []float64, sites []Site, imts []string, levels [][]float64, quantiles []float64) (*HazardTensor, error) {
	if len(imts) != len(levels) {
		return nil, fmt.Errorf("intensity levels given for %d measures, want %d", len(levels), len(imts))
	}
	nLevels := 0
	for i, l := range levels {
		if i == 0 {
			nLevels = len(l)
		} else if len(l) != nLevels {
			return nil, fmt.Errorf("intensity measure %s has %d levels, want %d", imts[i], len(l), nLevels)
		}
	}
	return &HazardTensor{
		Vs30s:     vs30s,
		Sites:     sites,
		IMTs:      imts,
		Levels:    levels,
		Quantiles: quantiles,
		Rates:     NewTensor(math.NaN(), len(vs30s), len(sites), len(imts), nLevels, 1+len(quantiles)),
	}, nil
}

// StatLabels returns the statistic labels in storage order.
func (h *HazardTensor) StatLabels() []string {
	labels := make([]string, 0, 1+len(h.Quantiles))
	labels = append(labels, MeanStat)
	for _, q := range h.Quantiles {
		labels = append(labels, QuantileLabel(q))
	}
	return labels
}

// NumStats returns the number of statistics (mean plus quantiles).
func (h *HazardTensor) NumStats() int {
	return 1 + len(h.Quantiles)
}

// Curve returns the intensity levels and annual rates of one curve.
func (h *HazardTensor) Curve(iVs30, iSite, iIMT, iStat int) (levels, rates []float64) {
	levels = h.Levels[iIMT]
	rates = make([]float64, len(levels))
	for il := range levels {
		rates[il] = h.Rates.At(iVs30, iSite, iIMT, il, iStat)
	}
	return levels, rates
}

// Vs30Index returns the index of vs30, or -1.
func (h *HazardTensor) Vs30Index(vs30 float64) int {
	for i, v := range h.Vs30s {
		if v == vs30 {
			return i
		}
	}
	return -1
}

// SiteIndex returns the index of the named site, or -1.
func (h *HazardTensor) SiteIndex(name string) int {
	for i, s := range h.Sites {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// StatIndex returns the storage index of a percentile statistic, or -1.
func (h *HazardTensor) StatIndex(percentile float64) int {
	for i, q := range h.Quantiles {
		if math.Abs(q-percentile) < 1e-9 {
			return 1 + i
		}
	}
	return -1
}

// SiteNames returns the site names in storage order.
func (h *HazardTensor) SiteNames() []string {
	names := make([]string, len(h.Sites))
	for i, s := range h.Sites {
		names[i] = s.Name
	}
	return names
}

// ParameterRow holds the design parameters of one (site, return period, site class).
type ParameterRow struct {
	PGA float64 `json:"PGA"`
	Sas float64 `json:"Sas"`
	PSV float64 `json:"PSV"`
	Tc  float64 `json:"Tc"`
	Td  float64 `json:"Td"`

	PGAFloor bool `json:"PGA Floor"`
	SasFloor bool `json:"Sas Floor"`
	PSVFloor bool `json:"PSV Floor"`
	TdFloor  bool `json:"Td Floor"`
}

// RowKey addresses a ParameterRow.
type RowKey struct {
	Site         string
	ReturnPeriod int
	SiteClass    string
}

// String implements fmt.Stringer.
func (k RowKey) String() string {
	return fmt.Sprintf("%s / %s / %s", k.Site, APoELabel(k.ReturnPeriod), SiteClassLabel(k.SiteClass))
}

// FlatRow is one published row of the flattened parameter table.
type FlatRow struct {
	Location     string  `json:"Location"`
	ReturnPeriod int     `json:"APoE (1/n)"`
	SiteClass    string  `json:"Site Class"`
	PGA          float64 `json:"PGA"`
	Sas          float64 `json:"Sas"`
	Tc           float64 `json:"Tc"`
	Td           float64 `json:"Td"`
	PSV          float64 `json:"-"`
	PGAFloor     bool    `json:"-"`
	SasFloor     bool    `json:"-"`
	PSVFloor     bool    `json:"-"`
	TdFloor      bool    `json:"-"`
}

// MalformedCurve describes a hazard curve that could not be interpolated.
type MalformedCurve struct {
	Vs30   float64 `json:"vs30"`
	Site   string  `json:"site"`
	IMT    string  `json:"imt"`
	Stat   string  `json:"stat"`
	Reason string  `json:"reason"`
}

// SpectrumSeries is one named spectrum sampled at a shared period grid.
type SpectrumSeries struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// EnvelopedSpectra holds per-site-class spectra for one location and return
// period plus their point-wise maximum.
type EnvelopedSpectra struct {
	Location     string           `json:"location"`
	ReturnPeriod int              `json:"return_period"`
	Periods      []float64        `json:"periods"`
	Series       []SpectrumSeries `json:"series"`
	Envelope     []float64        `json:"envelope"`
}

// SpectraSet holds uniform hazard spectra indexed [vs30][site][period][rp][stat].
// Periods ascend; IMTs carries the source label of each period.
type SpectraSet struct {
	Periods       []float64
	IMTs          []string
	ReturnPeriods []int
	Acc           *Tensor
	Vel           *Tensor
	Disp          *Tensor
}

// PGAIndex returns the index of the zero-period PGA ordinate, or -1.
func (s *SpectraSet) PGAIndex() int {
	for i, imt := range s.IMTs {
		if imt == PGAIMT {
			return i
		}
	}
	return -1
}

// ReturnPeriodIndex returns the index of rp, or -1.
func (s *SpectraSet) ReturnPeriodIndex(rp int) int {
	for i, v := range s.ReturnPeriods {
		if v == rp {
			return i
		}
	}
	return -1
}

// AccSpectrum returns the acceleration spectrum of one (vs30, site, rp, stat).
func (s *SpectraSet) AccSpectrum(iVs30, iSite, iRP, iStat int) []float64 {
	out := make([]float64, len(s.Periods))
	for ip := range s.Periods {
		out[ip] = s.Acc.At(iVs30, iSite, ip, iRP, iStat)
	}
	return out
}

// HazardDataset is the persisted input of a derivation run.
type HazardDataset struct {
	Curves        *HazardTensor
	ReturnPeriods []int
	Spectra       *SpectraSet // nil unless the uniform hazard spectra were stored
	Meta          map[string]string
}
