package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/hazardtable/core"
	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/internal/parquet"
	"github.com/huangsam/hazardtable/schema"
)

// datasetCmd focused on hazard dataset management.
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build and inspect hazard datasets",
	Long: `Manage the parquet hazard dataset that every derivation reads.

A dataset holds hazard curves indexed by vs30, site, intensity measure, level and
statistic, the design return periods and, optionally, the uniform hazard spectra
already interpolated at those return periods.

Subcommands:
  build   - Import hazard curves from CSV
  inspect - Summarize the axes of a dataset
  demo    - Write a small synthetic dataset`,
}

// datasetBuildCmd imports a hazard curve CSV.
var datasetBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Import long-form hazard curves from CSV into a parquet dataset",
	Long: `Read hazard curves from a CSV with the columns
vs30,site,lat,lon,imt,stat,level,rate and write them to --dataset together with
the acceleration spectra at --return-periods.

Examples:
  hazardtable dataset build --curves nshm_curves.csv --dataset nz_hazard.parquet
  hazardtable dataset build --curves nshm_curves.csv --return-periods 500,2500`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		curvesPath := viper.GetString("curves")
		if curvesPath == "" {
			contract.LogFatal("Cannot build dataset", errors.New("--curves is required"))
		}
		f, err := os.Open(curvesPath)
		if err != nil {
			contract.LogFatal("Cannot open hazard curves", err)
		}
		defer func() { _ = f.Close() }()

		ds, err := parquet.ImportCurvesCSV(f, cfg.Settings.ReturnPeriods)
		if err != nil {
			contract.LogFatal("Cannot import hazard curves", err)
		}
		ds.Meta["source"] = curvesPath
		writeDataset(ds)
	},
}

// datasetDemoCmd writes the synthetic dataset.
var datasetDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Write a small synthetic dataset for trying out the commands",
	Long: `Write a deterministic dataset of four locations, every default site class and
three quantiles to --dataset. The curves follow a power law around an idealised
code spectrum.

Examples:
  hazardtable dataset demo --dataset demo.parquet
  hazardtable derive --dataset demo.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		writeDataset(core.SyntheticDataset())
	},
}

// datasetInspectCmd summarizes a dataset.
var datasetInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the axes and missing values of a dataset",
	Long: `Show the vs30 values, locations, intensity measures, statistics and return
periods of --dataset, how many hazard rates are missing and which return
periods have stored spectra.

Examples:
  hazardtable dataset inspect --dataset nz_hazard.parquet
  hazardtable dataset inspect --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ds, err := parquet.NewReader().ReadDataset(rootCtx, cfg.DatasetPath)
		if err != nil {
			contract.LogFatal("Cannot read dataset", err)
		}
		summary := parquet.Summarize(ds)
		if cfg.Output == schema.JSONOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				contract.LogFatal("Cannot write summary", err)
			}
			return
		}
		parquet.PrintSummary(os.Stdout, cfg.DatasetPath, summary)
	},
}

// writeDataset stores the dataset with its spectra at cfg.DatasetPath.
func writeDataset(ds *schema.HazardDataset) {
	diag, err := core.AttachSpectra(ds, cfg.Settings.ReturnPeriods)
	if err != nil {
		contract.LogFatal("Cannot build spectra", err)
	}
	if !diag.Empty() {
		contract.LogWarn("Malformed hazard curves", errors.New(diag.Summary()))
	}
	if err := parquet.WriteDataset(ds, cfg.DatasetPath); err != nil {
		contract.LogFatal("Cannot write dataset", err)
	}
	fmt.Printf("Wrote %d sites and %d return periods to %s\n", len(ds.Curves.Sites), len(ds.ReturnPeriods), cfg.DatasetPath)
}
