package core

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/huangsam/hazardtable/core/algo"
	"github.com/huangsam/hazardtable/schema"
)

// Spectral peak scaling of the design parameters.
const (
	sasFraction = 0.9
	psvFraction = 0.95
)

// ParameterArrays holds PGA, Sas, PSV and Tc indexed [vs30][site][rp][stat].
type ParameterArrays struct {
	PGA *schema.Tensor
	Sas *schema.Tensor
	PSV *schema.Tensor
	Tc  *schema.Tensor
}

// ExtractParameters derives the closed-form parameters from every spectrum. A
// missing ordinate anywhere in a spectrum makes its Sas, PSV and Tc NaN.
func ExtractParameters(set *schema.SpectraSet) (*ParameterArrays, error) {
	iPGA := set.PGAIndex()
	if iPGA < 0 {
		return nil, errors.New("spectra have no PGA ordinate")
	}
	shape := set.Acc.Shape // vs30, site, period, rp, stat
	nVs30, nSites, nPeriods, nRPs, nStats := shape[0], shape[1], shape[2], shape[3], shape[4]

	out := &ParameterArrays{
		PGA: schema.NewTensor(math.NaN(), nVs30, nSites, nRPs, nStats),
		Sas: schema.NewTensor(math.NaN(), nVs30, nSites, nRPs, nStats),
		PSV: schema.NewTensor(math.NaN(), nVs30, nSites, nRPs, nStats),
		Tc:  schema.NewTensor(math.NaN(), nVs30, nSites, nRPs, nStats),
	}

	acc := make([]float64, 0, nPeriods)
	vel := make([]float64, 0, nPeriods)
	for iv := range nVs30 {
		for is := range nSites {
			for ir := range nRPs {
				for ist := range nStats {
					acc, vel = acc[:0], vel[:0]
					for ip := range nPeriods {
						acc = append(acc, set.Acc.At(iv, is, ip, ir, ist))
						vel = append(vel, set.Vel.At(iv, is, ip, ir, ist))
					}
					pga := set.Acc.At(iv, is, iPGA, ir, ist)
					sas, psv := math.NaN(), math.NaN()
					if len(acc) > 0 && !floats.HasNaN(acc) {
						sas = sasFraction * floats.Max(acc)
					}
					if len(vel) > 0 && !floats.HasNaN(vel) {
						psv = psvFraction * floats.Max(vel)
					}
					out.PGA.Set(pga, iv, is, ir, ist)
					out.Sas.Set(sas, iv, is, ir, ist)
					out.PSV.Set(psv, iv, is, ir, ist)
					out.Tc.Set(CornerPeriod(sas, psv), iv, is, ir, ist)
				}
			}
		}
	}
	return out, nil
}

// CornerPeriod returns Tc = 2*pi*PSV / (Sas*g).
func CornerPeriod(sas, psv float64) float64 {
	return 2 * math.Pi * psv / (sas * schema.G)
}

// PSVFromSasTc inverts CornerPeriod.
func PSVFromSasTc(sas, tc float64) float64 {
	return sas * schema.G * tc / (2 * math.Pi)
}

// ReducePGAs applies the high-PGA reduction in place to every statistic of the
// site classes that carry coefficients. Classes whose representative vs30 is
// not in the dataset are skipped.
func ReducePGAs(arrays *ParameterArrays, vs30s []float64, classes []schema.SiteClass, reductions map[string]schema.PGAReduction) {
	shape := arrays.PGA.Shape
	for _, sc := range classes {
		coeff, ok := reductions[sc.Key]
		if !ok {
			continue
		}
		iv := indexOfFloat(vs30s, sc.RepresentativeVs30)
		if iv < 0 {
			continue
		}
		for is := range shape[1] {
			for ir := range shape[2] {
				for ist := range shape[3] {
					pga := arrays.PGA.At(iv, is, ir, ist)
					arrays.PGA.Set(algo.ReducePGA(pga, coeff.A0, coeff.A1, coeff.PGAThreshold), iv, is, ir, ist)
				}
			}
		}
	}
}

func indexOfFloat(values []float64, v float64) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
