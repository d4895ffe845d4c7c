// Package core has the derivation pipeline that turns hazard curves into
// tabulated design parameters and spectra.
package core

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/schema"
)

// Derivation is a derived parameter table with what each stage reported.
type Derivation struct {
	Table       *schema.ParameterTable
	Diagnostics *BatchDiagnostics
	LowerBound  LowerBoundReport
	Replicated  []schema.LocationRule
	Missing     []string // site classes without a matching vs30 in the dataset
	CacheHit    bool
}

// Rows flattens the derived table into published rows.
func (d *Derivation) Rows() []schema.FlatRow {
	return Flatten(d.Table)
}

// DeriveTable runs the pipeline over one dataset:
// spectra, parameters, PGA reduction, mean table, Td fits, lower bound,
// rounding and location replication. Disabled stages are skipped.
func DeriveTable(ctx context.Context, ds *schema.HazardDataset, s schema.DerivationSettings, workers int, m *Metrics) (*Derivation, error) {
	if ds == nil || ds.Curves == nil {
		return nil, errors.New("dataset has no hazard curves")
	}
	start := clock.Now()

	set, diag, err := spectraFor(ds, s.ReturnPeriods)
	if err != nil {
		return nil, fmt.Errorf("building spectra: %w", err)
	}
	m.MalformedCurves.Add(float64(len(diag.Malformed)))

	arrays, err := ExtractParameters(set)
	if err != nil {
		return nil, fmt.Errorf("extracting parameters: %w", err)
	}
	if s.ApplyPGAReduction {
		ReducePGAs(arrays, ds.Curves.Vs30s, s.SiteClasses, s.PGAReductions)
	}

	layout, missing, err := NewLayout(ds.Curves, set, s.SiteClasses)
	if err != nil {
		return nil, err
	}
	table, err := NewMeanTable(arrays, layout)
	if err != nil {
		return nil, err
	}
	if err := FitTdTable(ctx, table, layout, s.TdSearch, workers, m); err != nil {
		return nil, err
	}

	d := &Derivation{Table: table, Diagnostics: diag, Missing: missing}
	if s.ApplyLowerBound {
		report, err := ApplyLowerBound(ctx, table, arrays, layout, ds.Curves, s.Controlling, s.TdSearch, workers, m)
		if err != nil {
			return nil, err
		}
		d.LowerBound = report
	} else {
		d.LowerBound.SkipReason = "disabled"
	}

	if s.ApplyRounding {
		RoundTable(table, s.Rounding)
	}
	d.Replicated = ReplicateLocations(table, s.Replacements)

	m.RowsDerived.Add(float64(table.Len()))
	m.DeriveDuration.Observe(clock.Since(start).Seconds())
	return d, nil
}

// spectraFor reuses the stored spectra when they cover exactly the requested
// return periods, and builds them from the curves otherwise. Stored spectra
// still get their curves scanned for the batch diagnostics.
func spectraFor(ds *schema.HazardDataset, returnPeriods []int) (*schema.SpectraSet, *BatchDiagnostics, error) {
	if len(returnPeriods) == 0 {
		returnPeriods = ds.ReturnPeriods
	}
	if ds.Spectra != nil && slices.Equal(ds.Spectra.ReturnPeriods, returnPeriods) {
		CompleteSpectra(ds.Spectra)
		return ds.Spectra, ScanCurves(ds.Curves), nil
	}
	return BuildSpectra(ds.Curves, returnPeriods)
}

// ExecuteDerive derives the parameter table, records the run and writes the
// published rows in the configured format.
func ExecuteDerive(ctx context.Context, cfg *contract.Config, reader contract.DatasetReader, mgr contract.CacheManager, out contract.OutputWriter) error {
	start := clock.Now()
	m := NewMetrics()
	LogDeriveHeader(ctx, cfg)

	runs := runStore(mgr)
	runID, runErr := int64(0), error(nil)
	if runs != nil {
		runID, runErr = runs.BeginRun(start, cfg.DatasetPath, settingsParams(cfg.Settings))
		if runErr != nil {
			contract.LogWarn("Cannot record run", runErr)
		}
	}

	d, err := cachedDeriveTable(ctx, cfg, reader, mgr, m)
	if err != nil {
		return err
	}
	reportDerivation(ctx, cfg, d)

	rows := SelectRows(d.Rows(), cfg.Locations, cfg.LocationKind)
	if runs != nil && runErr == nil {
		if err := runs.RecordRows(runID, rows); err != nil {
			contract.LogWarn("Cannot record run rows", err)
		}
		if err := runs.EndRun(runID, clock.Now(), len(rows)); err != nil {
			contract.LogWarn("Cannot finish run", err)
		}
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			contract.LogWarn("Cannot write metrics", err)
		}
	}
	return out.WriteTable(rows, cfg, clock.Since(start))
}

// ExecuteSpectrum derives the table and writes the enveloped spectra of one
// location and return period.
func ExecuteSpectrum(ctx context.Context, cfg *contract.Config, reader contract.DatasetReader, mgr contract.CacheManager, out contract.OutputWriter) error {
	spectra, err := GetEnvelopedSpectra(withSuppressHeader(ctx), cfg, reader, mgr)
	if err != nil {
		return err
	}
	return out.WriteSpectra(spectra, cfg)
}

// GetEnvelopedSpectra derives the table and builds the per-class spectra of
// cfg.Spectrum.Location with their envelope. Classes default to every derived class.
func GetEnvelopedSpectra(ctx context.Context, cfg *contract.Config, reader contract.DatasetReader, mgr contract.CacheManager) (*schema.EnvelopedSpectra, error) {
	sp := cfg.Spectrum
	if sp.Location == "" {
		return nil, errors.New("--location is required")
	}
	if sp.ReturnPeriod == 0 {
		return nil, errors.New("--apoe is required")
	}

	d, err := cachedDeriveTable(ctx, cfg, reader, mgr, NewMetrics())
	if err != nil {
		return nil, err
	}
	classes := cfg.SiteClasses
	if len(classes) == 0 {
		classes = d.Table.SiteClasses
	}
	return EnvelopedSpectra(d.Table, sp.Location, sp.ReturnPeriod, classes, sp.Periods, cfg.Precision)
}

// GetSiteParameters derives the table and returns the published rows selected by
// location, location kind and, when given, site class.
func GetSiteParameters(ctx context.Context, cfg *contract.Config, reader contract.DatasetReader, mgr contract.CacheManager) ([]schema.FlatRow, error) {
	d, err := cachedDeriveTable(ctx, cfg, reader, mgr, NewMetrics())
	if err != nil {
		return nil, err
	}
	rows := SelectRows(d.Rows(), cfg.Locations, cfg.LocationKind)
	if len(cfg.SiteClasses) > 0 {
		rows = slices.DeleteFunc(rows, func(r schema.FlatRow) bool {
			return !slices.Contains(cfg.SiteClasses, r.SiteClass)
		})
	}
	return rows, nil
}

// ExecuteSpectrumFromParameters writes the code spectrum of directly given parameters.
func ExecuteSpectrumFromParameters(_ context.Context, cfg *contract.Config, out contract.OutputWriter) error {
	spectra, err := CodeSpectrum(cfg)
	if err != nil {
		return err
	}
	return out.WriteSpectra(spectra, cfg)
}

// CodeSpectrum builds the single spectrum of the parameters in cfg.Spectrum.
func CodeSpectrum(cfg *contract.Config) (*schema.EnvelopedSpectra, error) {
	sp := cfg.Spectrum
	if sp.PGA <= 0 || sp.Sas <= 0 || sp.Tc <= 0 || sp.Td <= 0 {
		return nil, fmt.Errorf("--pga, --sas, --tc and --td must be positive")
	}
	periods := sp.Periods
	if len(periods) == 0 {
		periods = schema.DefaultSpectrumPeriods()
	}
	location := sp.Location
	if location == "" {
		location = "custom"
	}
	return &schema.EnvelopedSpectra{
		Location:     location,
		ReturnPeriod: sp.ReturnPeriod,
		Periods:      periods,
		Series: []schema.SpectrumSeries{{
			Label:  "spectrum",
			Values: SpectrumFromParameters(sp.PGA, sp.Sas, sp.Tc, sp.Td, periods, cfg.Precision),
		}},
	}, nil
}

// ExecuteDiagnostics lists the hazard curves of the dataset that cannot be interpolated.
func ExecuteDiagnostics(ctx context.Context, cfg *contract.Config, reader contract.DatasetReader, out contract.OutputWriter) error {
	ds, err := reader.ReadDataset(ctx, cfg.DatasetPath)
	if err != nil {
		return fmt.Errorf("reading dataset: %w", err)
	}
	rps := cfg.Settings.ReturnPeriods
	if len(rps) == 0 {
		rps = ds.ReturnPeriods
	}
	_, diag, err := BuildSpectra(ds.Curves, rps)
	if err != nil {
		return err
	}
	return out.WriteDiagnostics(diag.Malformed, cfg)
}

// SelectRows filters rows by location name and kind (all, named or grid).
func SelectRows(rows []schema.FlatRow, locations []string, kind string) []schema.FlatRow {
	named, grid := SplitNamedGrid(rows)
	switch kind {
	case "named":
		rows = named
	case "grid":
		rows = grid
	}
	if len(locations) > 0 {
		rows = FilterLocations(rows, locations)
	}
	return rows
}

func reportDerivation(ctx context.Context, cfg *contract.Config, d *Derivation) {
	if shouldSuppressHeader(ctx) {
		return
	}
	if !d.Diagnostics.Empty() {
		contract.LogWarn("Malformed hazard curves", errors.New(d.Diagnostics.Summary()))
	}
	if len(d.Missing) > 0 {
		contract.LogWarn("Site classes skipped", fmt.Errorf("no vs30 in dataset for %v", d.Missing))
	}
	if cfg.Settings.ApplyLowerBound && !d.LowerBound.Applied {
		contract.LogWarn("Lower bound skipped", errors.New(d.LowerBound.SkipReason))
	}
}

func runStore(mgr contract.CacheManager) contract.RunStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetRunStore()
}

// settingsParams flattens the settings for the run history record.
func settingsParams(s schema.DerivationSettings) map[string]any {
	classes := make([]string, len(s.SiteClasses))
	for i, sc := range s.SiteClasses {
		classes[i] = sc.Key
	}
	return map[string]any{
		"site_classes":        classes,
		"return_periods":      s.ReturnPeriods,
		"controlling_site":    s.Controlling.Site,
		"controlling_pctile":  s.Controlling.Percentile,
		"apply_pga_reduction": s.ApplyPGAReduction,
		"apply_lower_bound":   s.ApplyLowerBound,
		"apply_rounding":      s.ApplyRounding,
		"legacy_rounding":     s.Rounding.Legacy,
		"inclusive_td_domain": s.TdSearch.Inclusive,
		"td_step":             s.TdSearch.Step,
		"td_max_period":       s.TdSearch.MaxPeriod,
	}
}
