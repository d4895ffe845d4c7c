package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/hazardtable/core"
	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/internal/outwriter"
	"github.com/huangsam/hazardtable/internal/parquet"
)

// spectrumCmd writes the enveloped design spectra of one location.
var spectrumCmd = &cobra.Command{
	Use:   "spectrum",
	Short: "Show the design spectra of a location and their envelope.",
	Long: `Build the code-shaped design spectrum of each site class from the derived
parameters of one location and return period, plus their point-wise envelope.

Requires: --location and --apoe

Examples:
  # Spectra of every site class for Wellington at 1/500
  hazardtable spectrum --location Wellington --apoe 1/500

  # Only two site classes on custom periods
  hazardtable spectrum --location Wellington --apoe 500 --site-classes II,IV --periods 0,0.5,1,2`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSpectrum(rootCtx, cfg, parquet.NewReader(), cacheManager, outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Cannot build spectra", err)
		}
	},
}

// spectrumParamsCmd writes the design spectrum of explicit parameters.
var spectrumParamsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the design spectrum of explicit PGA, Sas, Tc and Td values.",
	Long: `Build a single code-shaped design spectrum from parameters given on the
command line. No dataset is read.

Examples:
  hazardtable spectrum params --pga 0.4 --sas 0.9 --tc 0.45 --td 3`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSpectrumFromParameters(rootCtx, cfg, outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Cannot build spectrum", err)
		}
	},
}
