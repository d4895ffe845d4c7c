package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/hazardtable/core"
	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/internal/outwriter"
	"github.com/huangsam/hazardtable/internal/parquet"
)

// deriveCmd derives the design parameter table.
var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive the design parameter table for every location.",
	Long: `Interpolate the hazard curves at each return period and derive PGA, Sas, Tc and Td
for every location, return period and site class.

The published table goes through these stages, each of which can be switched off:
- PGA reduction by site class (--apply-pga-reduction)
- Lower bound at the controlling site's hazard (--apply-lower-bound)
- Rounding to the published precision (--apply-rounding)

Results are cached by dataset content and settings, so repeated runs with the
same inputs skip the derivation.

Examples:
  # Publish the full table
  hazardtable derive --dataset nz_hazard.parquet

  # Only named locations at two return periods
  hazardtable derive --location-kind named --return-periods 500,2500

  # Raw values with floor flags, as CSV
  hazardtable derive --apply-rounding=false --diagnostics --output csv --output-file table.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDerive(rootCtx, cfg, parquet.NewReader(), cacheManager, outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Cannot derive parameter table", err)
		}
	},
}
