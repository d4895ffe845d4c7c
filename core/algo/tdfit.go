package algo

import (
	"errors"
	"math"

	"github.com/huangsam/hazardtable/schema"
)

// ErrEmptyDomain is returned when no upsampled period falls inside the Td search domain.
var ErrEmptyDomain = errors.New("td search domain is empty")

// shortPeriod is where the code-spectrum ramp from PGA reaches Sas.
const shortPeriod = 0.1

// UHSValue evaluates the idealised code spectrum at period.
func UHSValue(period, pga, sas, tc, td float64) float64 {
	switch {
	case period == 0:
		return pga
	case period < shortPeriod:
		return pga + (sas-pga)*period/shortPeriod
	case period < tc:
		return sas
	case period < td:
		return sas * tc / period
	default:
		return sas * (tc / period) * math.Sqrt(td/period)
	}
}

// TdDomain restricts a spectrum to the periods eligible as Td:
// tc+offset <= p <= maxPeriod. The inclusive variant also accepts the period
// equal to tc+offset rounded to two significant figures.
func TdDomain(periods, spectrum []float64, tc float64, search schema.TdSearch) (dp, ds []float64) {
	lower := tc + search.DomainOffset
	edge := RoundSigFigs(lower, 2)
	for i, p := range periods {
		if p > search.MaxPeriod+1e-9 {
			continue
		}
		inside := p >= lower
		if search.Inclusive && math.Abs(p-edge) < 1e-9 {
			inside = true
		}
		if inside {
			dp = append(dp, p)
			ds = append(ds, spectrum[i])
		}
	}
	return dp, ds
}

// ScoreTd is the sum of squared differences between the code spectrum for td
// and the actual spectrum over the domain.
func ScoreTd(td float64, periods, spectrum []float64, pga, sas, tc float64) float64 {
	var sse float64
	for i, p := range periods {
		d := UHSValue(p, pga, sas, tc, td) - spectrum[i]
		sse += d * d
	}
	return sse
}

// TdFit is the outcome of a Td grid search.
type TdFit struct {
	Td         float64
	Score      float64
	Candidates int
}

// FitTd upsamples the spectrum to search.Step, restricts it to the Td domain
// and returns the candidate period with the lowest score. The first minimum
// wins ties.
func FitTd(periods, spectrum []float64, pga, sas, tc float64, search schema.TdSearch) (TdFit, error) {
	grid, values, err := LinearUpsample(periods, spectrum, search.Step)
	if err != nil {
		return TdFit{Td: math.NaN(), Score: math.NaN()}, err
	}
	return FitTdOnGrid(grid, values, pga, sas, tc, search)
}

// FitTdOnGrid runs the search on an already upsampled spectrum.
func FitTdOnGrid(grid, values []float64, pga, sas, tc float64, search schema.TdSearch) (TdFit, error) {
	dp, ds := TdDomain(grid, values, tc, search)
	if len(dp) == 0 {
		return TdFit{Td: math.NaN(), Score: math.NaN()}, ErrEmptyDomain
	}
	best := TdFit{Td: dp[0], Score: math.Inf(1), Candidates: len(dp)}
	for _, td := range dp {
		score := ScoreTd(td, dp, ds, pga, sas, tc)
		if score < best.Score {
			best.Td = td
			best.Score = score
		}
	}
	if math.IsInf(best.Score, 1) {
		best.Td, best.Score = math.NaN(), math.NaN()
	}
	return best, nil
}
