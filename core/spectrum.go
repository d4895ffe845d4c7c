package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/huangsam/hazardtable/core/algo"
	"github.com/huangsam/hazardtable/schema"
)

var saPattern = regexp.MustCompile(`^SA\(([0-9]*\.?[0-9]+)\)$`)

// PeriodFromIMT returns the spectral period in seconds of an intensity measure label.
func PeriodFromIMT(imt string) (float64, error) {
	switch imt {
	case schema.PGAIMT, "PGD":
		return 0, nil
	}
	m := saPattern.FindStringSubmatch(imt)
	if m == nil {
		return 0, fmt.Errorf("unrecognised intensity measure %q", imt)
	}
	return strconv.ParseFloat(m[1], 64)
}

// AccToVel converts a spectral acceleration in g to pseudo-velocity in m/s.
func AccToVel(acc, period float64) float64 {
	return acc * schema.G * period / (2 * math.Pi)
}

// AccToDisp converts a spectral acceleration in g to displacement in m.
func AccToDisp(acc, period float64) float64 {
	w := period / (2 * math.Pi)
	return acc * schema.G * w * w
}

// BatchDiagnostics collects malformed-input findings for one run.
// They are reported once at the end of the batch.
type BatchDiagnostics struct {
	Malformed []schema.MalformedCurve
	seen      map[schema.MalformedCurve]struct{}
}

func (d *BatchDiagnostics) add(m schema.MalformedCurve) {
	if d.seen == nil {
		d.seen = make(map[schema.MalformedCurve]struct{})
	}
	if _, ok := d.seen[m]; ok {
		return
	}
	d.seen[m] = struct{}{}
	d.Malformed = append(d.Malformed, m)
}

// Empty reports whether nothing was recorded.
func (d *BatchDiagnostics) Empty() bool {
	return d == nil || len(d.Malformed) == 0
}

// Summary renders a one-line description of the affected curves.
func (d *BatchDiagnostics) Summary() string {
	if d.Empty() {
		return ""
	}
	const maxListed = 5
	s := fmt.Sprintf("%d malformed hazard curves", len(d.Malformed))
	for i, m := range d.Malformed {
		if i == maxListed {
			s += fmt.Sprintf("; and %d more", len(d.Malformed)-maxListed)
			break
		}
		s += fmt.Sprintf("; vs30=%g site=%s imt=%s stat=%s (%s)", m.Vs30, m.Site, m.IMT, m.Stat, m.Reason)
	}
	return s
}

// reasonMissing labels curves with NaN or non-positive levels or rates.
const reasonMissing = "missing or non-positive values"

// ScanCurves checks every curve of the tensor without interpolating it and
// reports the ones BuildSpectra would turn into NaN. It serves datasets whose
// spectra were stored ahead of time.
func ScanCurves(h *schema.HazardTensor) *BatchDiagnostics {
	diag := &BatchDiagnostics{}
	if h == nil || h.Rates == nil {
		return diag
	}
	stats := h.StatLabels()
	for iv := range h.Vs30s {
		for is := range h.Sites {
			for im := range h.IMTs {
				for ist := range h.NumStats() {
					levels, rates := h.Curve(iv, is, im, ist)
					if reason := curveDefect(levels, rates); reason != "" {
						diag.add(malformed(h, iv, is, im, stats[ist], reason))
					}
				}
			}
		}
	}
	return diag
}

// curveDefect returns why a curve cannot be interpolated, or "".
func curveDefect(levels, rates []float64) string {
	if len(levels) < 2 || len(rates) != len(levels) {
		return algo.ErrCurveTooShort.Error()
	}
	for i := range levels {
		if !(levels[i] > 0) || !(rates[i] > 0) {
			return reasonMissing
		}
	}
	return ""
}

// BuildSpectra interpolates every curve of the tensor at each return period and
// returns acceleration, velocity and displacement spectra. Bad curves yield NaN
// and are listed in the diagnostics rather than aborting the batch.
func BuildSpectra(h *schema.HazardTensor, returnPeriods []int) (*schema.SpectraSet, *BatchDiagnostics, error) {
	if h == nil || h.Rates == nil {
		return nil, nil, errors.New("hazard tensor is empty")
	}
	if len(returnPeriods) == 0 {
		return nil, nil, errors.New("no return periods requested")
	}

	// order intensity measures by period
	type imtPeriod struct {
		idx    int
		period float64
	}
	order := make([]imtPeriod, len(h.IMTs))
	for i, imt := range h.IMTs {
		p, err := PeriodFromIMT(imt)
		if err != nil {
			return nil, nil, err
		}
		order[i] = imtPeriod{idx: i, period: p}
	}
	sort.SliceStable(order, func(a, b int) bool { return order[a].period < order[b].period })

	targets := make([]float64, len(returnPeriods))
	for i, rp := range returnPeriods {
		if rp <= 0 {
			return nil, nil, fmt.Errorf("invalid return period %d", rp)
		}
		targets[i] = 1 / float64(rp)
	}

	nVs30, nSites, nPeriods, nStats := len(h.Vs30s), len(h.Sites), len(order), h.NumStats()
	set := &schema.SpectraSet{
		Periods:       make([]float64, nPeriods),
		IMTs:          make([]string, nPeriods),
		ReturnPeriods: append([]int(nil), returnPeriods...),
		Acc:           schema.NewTensor(math.NaN(), nVs30, nSites, nPeriods, len(returnPeriods), nStats),
		Vel:           schema.NewTensor(math.NaN(), nVs30, nSites, nPeriods, len(returnPeriods), nStats),
		Disp:          schema.NewTensor(math.NaN(), nVs30, nSites, nPeriods, len(returnPeriods), nStats),
	}
	for ip, o := range order {
		set.Periods[ip] = o.period
		set.IMTs[ip] = h.IMTs[o.idx]
	}

	diag := &BatchDiagnostics{}
	stats := h.StatLabels()
	for iv := range nVs30 {
		for is := range nSites {
			for ip, o := range order {
				for ist := range nStats {
					levels, rates := h.Curve(iv, is, o.idx, ist)
					values, err := algo.LogLogInterpolateAll(levels, rates, targets)
					if err != nil {
						diag.add(malformed(h, iv, is, o.idx, stats[ist], err.Error()))
						continue
					}
					for ir, acc := range values {
						if math.IsNaN(acc) {
							diag.add(malformed(h, iv, is, o.idx, stats[ist], reasonMissing))
						}
						set.Acc.Set(acc, iv, is, ip, ir, ist)
						set.Disp.Set(AccToDisp(acc, o.period), iv, is, ip, ir, ist)
						// zero period has no velocity equivalent
						set.Vel.Set(AccToVel(acc, o.period), iv, is, ip, ir, ist)
					}
				}
			}
		}
	}
	return set, diag, nil
}

// CompleteSpectra derives the velocity and displacement spectra of a set that
// only carries accelerations, as stored datasets do.
func CompleteSpectra(set *schema.SpectraSet) {
	if set == nil || set.Acc == nil || (set.Vel != nil && set.Disp != nil) {
		return
	}
	shape := set.Acc.Shape
	set.Vel = schema.NewTensor(math.NaN(), shape...)
	set.Disp = schema.NewTensor(math.NaN(), shape...)
	for iv := range shape[0] {
		for is := range shape[1] {
			for ip, period := range set.Periods {
				for ir := range shape[3] {
					for ist := range shape[4] {
						acc := set.Acc.At(iv, is, ip, ir, ist)
						set.Vel.Set(AccToVel(acc, period), iv, is, ip, ir, ist)
						set.Disp.Set(AccToDisp(acc, period), iv, is, ip, ir, ist)
					}
				}
			}
		}
	}
}

func malformed(h *schema.HazardTensor, iv, is, imt int, stat, reason string) schema.MalformedCurve {
	return schema.MalformedCurve{
		Vs30:   h.Vs30s[iv],
		Site:   h.Sites[is].Name,
		IMT:    h.IMTs[imt],
		Stat:   stat,
		Reason: reason,
	}
}
