package contract

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/hazardtable/schema"
)

// Default values for configuration.
const (
	DefaultPrecision    = schema.DefaultSpectrumPrecision
	MaxPrecision        = 6
	DefaultDatasetPath  = "hazard_dataset.parquet"
	DefaultLocationKind = "all"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// RoundingRaw holds optional rounding overrides from the YAML config file.
type RoundingRaw struct {
	PGADecimals *int `mapstructure:"pga_decimals"`
	SasDecimals *int `mapstructure:"sas_decimals"`
	TcSigFigs   *int `mapstructure:"tc_sig_figs"`
	PSVDecimals *int `mapstructure:"psv_decimals"`
	TdDecimals  *int `mapstructure:"td_decimals"`
}

// TdSearchRaw holds optional Td search overrides from the YAML config file.
type TdSearchRaw struct {
	Step         *float64 `mapstructure:"step"`
	MaxPeriod    *float64 `mapstructure:"max_period"`
	DomainOffset *float64 `mapstructure:"domain_offset"`
}

// SpectrumConfig holds the settings of the spectrum commands.
type SpectrumConfig struct {
	Location     string
	ReturnPeriod int
	Periods      []float64
	PGA          float64
	Sas          float64
	Tc           float64
	Td           float64
}

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	DatasetPath string
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool
	Diagnostics bool // keep PSV and floor flags in the published rows

	Locations    []string
	LocationKind string // all, named or grid
	SiteClasses  []string
	Spectrum     SpectrumConfig

	// Settings is handed to every pipeline stage unchanged.
	Settings schema.DerivationSettings

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	MetricsFile string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Dataset        string `mapstructure:"dataset"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	Color          string `mapstructure:"color"`
	Width          int    `mapstructure:"width"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsDBConnect  string `mapstructure:"runs-db-connect"`
	MetricsFile    string `mapstructure:"metrics-file"`

	// --- Fields from deriveCmd.Flags() ---
	Locations             string  `mapstructure:"locations"`
	LocationKind          string  `mapstructure:"location-kind"`
	ReturnPeriods         string  `mapstructure:"return-periods"`
	SiteClasses           string  `mapstructure:"site-classes"`
	ControllingSite       string  `mapstructure:"controlling-site"`
	ControllingPercentile float64 `mapstructure:"controlling-percentile"`
	ApplyPGAReduction     bool    `mapstructure:"apply-pga-reduction"`
	ApplyLowerBound       bool    `mapstructure:"apply-lower-bound"`
	ApplyRounding         bool    `mapstructure:"apply-rounding"`
	LegacyRounding        bool    `mapstructure:"legacy-rounding"`
	InclusiveTdDomain     bool    `mapstructure:"inclusive-td-domain"`
	Diagnostics           bool    `mapstructure:"diagnostics"`

	// --- Fields from spectrumCmd.PersistentFlags() ---
	Location string  `mapstructure:"location"`
	APoE     string  `mapstructure:"apoe"`
	Periods  string  `mapstructure:"periods"`
	PGA      float64 `mapstructure:"pga"`
	Sas      float64 `mapstructure:"sas"`
	Tc       float64 `mapstructure:"tc"`
	Td       float64 `mapstructure:"td"`

	// --- Tables from the config file ---
	SiteClassCatalogue []schema.SiteClass    `mapstructure:"site_class_catalogue"`
	PGAReductions      []schema.PGAReduction `mapstructure:"pga_reductions"`
	Replacements       []schema.LocationRule `mapstructure:"replacements"`
	Rounding           RoundingRaw           `mapstructure:"rounding"`
	TdSearch           TdSearchRaw           `mapstructure:"td_search"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Locations = slices.Clone(c.Locations)
	clone.SiteClasses = slices.Clone(c.SiteClasses)
	clone.Spectrum.Periods = slices.Clone(c.Spectrum.Periods)
	clone.Settings = CloneSettings(c.Settings)
	return &clone
}

// CloneSettings returns a deep copy of derivation settings.
func CloneSettings(s schema.DerivationSettings) schema.DerivationSettings {
	out := s
	out.SiteClasses = slices.Clone(s.SiteClasses)
	out.ReturnPeriods = slices.Clone(s.ReturnPeriods)
	out.PGAReductions = make(map[string]schema.PGAReduction, len(s.PGAReductions))
	for k, v := range s.PGAReductions {
		out.PGAReductions[k] = v
	}
	out.Replacements = make([]schema.LocationRule, len(s.Replacements))
	for i, r := range s.Replacements {
		out.Replacements[i] = schema.LocationRule{Preferred: r.Preferred, Satellites: slices.Clone(r.Satellites)}
	}
	return out
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processDerivationSettings(cfg, input); err != nil {
		return err
	}
	if err := processSpectrumInputs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run-history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run History Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// Cache and run history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		runsPath := cfg.RunsDBConnect
		if runsPath == "" {
			runsPath = GetRunsDBFilePath()
		}
		if cachePath == runsPath {
			return fmt.Errorf("cache and run history must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.DatasetPath = input.Dataset
	if cfg.DatasetPath == "" {
		cfg.DatasetPath = DefaultDatasetPath
	}
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsFile = input.MetricsFile
	cfg.Diagnostics = input.Diagnostics

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return errors.New("parquet output requires --output-file")
	}

	cfg.Locations = ParseStringList(input.Locations)
	cfg.LocationKind = strings.ToLower(input.LocationKind)
	if cfg.LocationKind == "" {
		cfg.LocationKind = DefaultLocationKind
	}
	switch cfg.LocationKind {
	case "all", "named", "grid":
	default:
		return fmt.Errorf("invalid location kind '%s'. must be all, named, grid", input.LocationKind)
	}
	return nil
}

// processDerivationSettings builds the immutable settings from defaults,
// config-file tables and flags.
func processDerivationSettings(cfg *Config, input *ConfigRawInput) error {
	s := schema.DefaultDerivationSettings()

	if len(input.SiteClassCatalogue) > 0 {
		s.SiteClasses = slices.Clone(input.SiteClassCatalogue)
	}
	if len(input.PGAReductions) > 0 {
		s.PGAReductions = make(map[string]schema.PGAReduction, len(input.PGAReductions))
		for _, r := range input.PGAReductions {
			if r.SiteClass == "" {
				return errors.New("pga_reductions entries need a site_class")
			}
			s.PGAReductions[r.SiteClass] = r
		}
	}
	if len(input.Replacements) > 0 {
		s.Replacements = slices.Clone(input.Replacements)
	}

	// site-class selection narrows the catalogue, keeping catalogue order
	if input.SiteClasses != "" {
		var selected []schema.SiteClass
		for _, label := range ParseStringList(input.SiteClasses) {
			sc, ok := s.SiteClassByKey(schema.SiteClassKey(label))
			if !ok {
				return fmt.Errorf("unknown site class '%s'", label)
			}
			selected = append(selected, sc)
		}
		slices.SortStableFunc(selected, func(a, b schema.SiteClass) int {
			return catalogueIndex(s.SiteClasses, a.Key) - catalogueIndex(s.SiteClasses, b.Key)
		})
		cfg.SiteClasses = make([]string, len(selected))
		for i, sc := range selected {
			cfg.SiteClasses[i] = sc.Key
		}
		s.SiteClasses = selected
	}

	if input.ReturnPeriods != "" {
		rps, err := ParseReturnPeriods(input.ReturnPeriods)
		if err != nil {
			return fmt.Errorf("invalid --return-periods: %w", err)
		}
		s.ReturnPeriods = rps
	}

	if input.ControllingSite != "" {
		s.Controlling.Site = input.ControllingSite
	}
	if input.ControllingPercentile != 0 {
		if input.ControllingPercentile <= 0 || input.ControllingPercentile >= 1 {
			return fmt.Errorf("controlling percentile must be between 0 and 1 (received %g)", input.ControllingPercentile)
		}
		s.Controlling.Percentile = input.ControllingPercentile
	}

	applyRoundingOverrides(&s.Rounding, input.Rounding)
	s.Rounding.Legacy = input.LegacyRounding
	if err := applyTdSearchOverrides(&s.TdSearch, input.TdSearch); err != nil {
		return err
	}
	s.TdSearch.Inclusive = input.InclusiveTdDomain

	s.ApplyPGAReduction = input.ApplyPGAReduction
	s.ApplyLowerBound = input.ApplyLowerBound
	s.ApplyRounding = input.ApplyRounding

	cfg.Settings = s
	return nil
}

func catalogueIndex(classes []schema.SiteClass, key string) int {
	return slices.IndexFunc(classes, func(sc schema.SiteClass) bool { return sc.Key == key })
}

func applyRoundingOverrides(r *schema.RoundingRules, raw RoundingRaw) {
	if raw.PGADecimals != nil {
		r.PGADecimals = *raw.PGADecimals
	}
	if raw.SasDecimals != nil {
		r.SasDecimals = *raw.SasDecimals
	}
	if raw.TcSigFigs != nil {
		r.TcSigFigs = *raw.TcSigFigs
	}
	if raw.PSVDecimals != nil {
		r.PSVDecimals = *raw.PSVDecimals
	}
	if raw.TdDecimals != nil {
		r.TdDecimals = *raw.TdDecimals
	}
}

func applyTdSearchOverrides(t *schema.TdSearch, raw TdSearchRaw) error {
	if raw.Step != nil {
		if *raw.Step <= 0 {
			return fmt.Errorf("td_search.step must be positive (received %g)", *raw.Step)
		}
		t.Step = *raw.Step
	}
	if raw.MaxPeriod != nil {
		t.MaxPeriod = *raw.MaxPeriod
	}
	if raw.DomainOffset != nil {
		t.DomainOffset = *raw.DomainOffset
	}
	return nil
}

// processSpectrumInputs handles the spectrum command parameters.
func processSpectrumInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Spectrum = SpectrumConfig{
		Location: strings.TrimSpace(input.Location),
		PGA:      input.PGA,
		Sas:      input.Sas,
		Tc:       input.Tc,
		Td:       input.Td,
	}
	if input.APoE != "" {
		rp, err := schema.ParseAPoELabel(input.APoE)
		if err != nil {
			return fmt.Errorf("invalid --apoe: %w", err)
		}
		cfg.Spectrum.ReturnPeriod = rp
	}
	if input.Periods == "" {
		cfg.Spectrum.Periods = schema.DefaultSpectrumPeriods()
		return nil
	}
	periods, err := ParsePeriods(input.Periods)
	if err != nil {
		return err
	}
	cfg.Spectrum.Periods = periods
	return nil
}

// ParsePeriods parses a comma-separated list of non-negative periods in seconds.
func ParsePeriods(s string) ([]float64, error) {
	var out []float64
	for _, p := range ParseStringList(s) {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid period '%s'", p)
		}
		out = append(out, v)
	}
	return out, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
