package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run history.
	DatabaseBackend string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// G is standard gravity in m/s^2.
const G = 9.80665

// MeanStat is the statistic label for the mean hazard curve. It is always
// stored at statistic index 0, ahead of the quantiles.
const MeanStat = "mean"

// PGAIMT is the zero-period intensity measure label.
const PGAIMT = "PGA"

// Td search defaults.
const (
	DefaultTdStep         = 0.1 // upsampled period increment in seconds
	DefaultTdMaxPeriod    = 6.0 // upper bound of the Td search domain
	DefaultTdDomainOffset = 0.5 // lower bound is Tc plus this offset
)

// Rounding defaults for the published table.
const (
	DefaultPGADecimals = 2
	DefaultSasDecimals = 2
	DefaultTcSigFigs   = 2
	DefaultPSVDecimals = 2
	DefaultTdDecimals  = 1
)

// Defaults for spectra created from tabulated parameters.
const (
	DefaultSpectrumPrecision = 3
	DefaultControllingSite   = "Auckland"
	DefaultControllingPctile = 0.9
)

// DefaultReturnPeriods are the design return periods (1 / APoE) in years.
var DefaultReturnPeriods = []int{25, 50, 100, 250, 500, 1000, 2500}

// DefaultSiteClasses returns the site-class catalogue ordered from stiffest to softest.
func DefaultSiteClasses() []SiteClass {
	return []SiteClass{
		{Key: "I", RepresentativeVs30: 750, LowerBound: 750, UpperBound: 0},
		{Key: "II", RepresentativeVs30: 525, LowerBound: 450, UpperBound: 750},
		{Key: "III", RepresentativeVs30: 375, LowerBound: 300, UpperBound: 450},
		{Key: "IV", RepresentativeVs30: 275, LowerBound: 250, UpperBound: 300},
		{Key: "V", RepresentativeVs30: 225, LowerBound: 200, UpperBound: 250},
		{Key: "VI", RepresentativeVs30: 175, LowerBound: 150, UpperBound: 200},
	}
}

// DefaultPGAReductions returns the high-PGA reduction coefficients for the soft-soil classes.
// Each threshold sits just above exp(-A1/A0), where the reduction formula crosses zero.
func DefaultPGAReductions() map[string]PGAReduction {
	return map[string]PGAReduction{
		"IV": {SiteClass: "IV", A0: 0.10, A1: 0.06, PGAThreshold: 0.55},
		"V":  {SiteClass: "V", A0: 0.12, A1: 0.12, PGAThreshold: 0.37},
		"VI": {SiteClass: "VI", A0: 0.14, A1: 0.17, PGAThreshold: 0.30},
	}
}

// DefaultLocationReplacements returns the preferred-to-satellite location rules.
func DefaultLocationReplacements() []LocationRule {
	return []LocationRule{
		{Preferred: "Auckland", Satellites: []string{"Manukau City"}},
		{Preferred: "Tauranga", Satellites: []string{"Mount Maunganui"}},
		{Preferred: "Wellington", Satellites: []string{"Wellington CBD"}},
		{Preferred: "Lower Hutt", Satellites: []string{"Wainuiomata", "Eastbourne"}},
	}
}

// DefaultSpectrumPeriods returns 0 to 3 s in 0.01 s steps followed by the long-period tail.
func DefaultSpectrumPeriods() []float64 {
	periods := make([]float64, 0, 310)
	for i := 0; i <= 300; i++ {
		periods = append(periods, float64(i)/100)
	}
	return append(periods, 3.5, 4, 4.5, 5, 6, 7, 8, 9, 10)
}
