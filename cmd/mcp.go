package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/hazardtable/internal/mcp"
	"github.com/huangsam/hazardtable/internal/parquet"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the hazardtable MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents look up site parameters and
build design spectra through standard tools:

- get_site_parameters      - derived PGA, Sas, Tc and Td rows
- create_spectrum          - spectrum of explicit parameters
- create_enveloped_spectra - per-class spectra of a location and their envelope`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, parquet.NewReader(), cacheManager)
	},
}
