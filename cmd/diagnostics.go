package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/hazardtable/core"
	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/internal/outwriter"
	"github.com/huangsam/hazardtable/internal/parquet"
)

// diagnosticsCmd lists malformed hazard curves.
var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "List hazard curves that cannot be interpolated.",
	Long: `Check every hazard curve of the dataset at the requested return periods and
list the ones with missing, non-positive or too few values.

Examples:
  hazardtable diagnostics --dataset nz_hazard.parquet
  hazardtable diagnostics --return-periods 2500 --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDiagnostics(rootCtx, cfg, parquet.NewReader(), outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Cannot check hazard curves", err)
		}
	},
}
