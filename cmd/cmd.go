// Package cmd defines the command-line interface for hazardtable.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(spectrumCmd)
	rootCmd.AddCommand(diagnosticsCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the spectrum subcommands to the parent spectrum command
	spectrumCmd.AddCommand(spectrumParamsCmd)

	// Add the dataset subcommands to the parent dataset command
	datasetCmd.AddCommand(datasetBuildCmd)
	datasetCmd.AddCommand(datasetInspectCmd)
	datasetCmd.AddCommand(datasetDemoCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("dataset", "d", contract.DefaultDatasetPath, "Path to the hazard dataset parquet file")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for unrounded numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent Td fitting workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write derivation metrics in Prometheus text format to this file")
	rootCmd.PersistentFlags().String("return-periods", "", "Comma-separated return periods in years (e.g., 500,2500)")
	rootCmd.PersistentFlags().String("site-classes", "", "Comma-separated site classes (e.g., I,IV,VI)")
	rootCmd.PersistentFlags().String("controlling-site", "", "Location whose hazard sets the lower bound (default Auckland)")
	rootCmd.PersistentFlags().Float64("controlling-percentile", 0, "Quantile of the controlling site used for the lower bound (default 0.9)")
	rootCmd.PersistentFlags().Bool("apply-pga-reduction", true, "Reduce PGA by the site-class reduction factors")
	rootCmd.PersistentFlags().Bool("apply-lower-bound", true, "Floor parameters at the controlling site's values")
	rootCmd.PersistentFlags().Bool("apply-rounding", true, "Round published parameters")
	rootCmd.PersistentFlags().Bool("legacy-rounding", false, "Round Tc to fixed decimals instead of significant figures")
	rootCmd.PersistentFlags().Bool("inclusive-td-domain", false, "Include the Td search domain end point")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of deriveCmd to Viper
	deriveCmd.Flags().String("locations", "", "Comma-separated locations to publish (default all)")
	deriveCmd.Flags().String("location-kind", contract.DefaultLocationKind, "Location kind: all or named or grid")
	deriveCmd.Flags().Bool("diagnostics", false, "Include PSV and lower-bound floor flags")
	if err := viper.BindPFlags(deriveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding derive flags", err)
	}

	// Bind all flags of spectrumCmd to Viper
	spectrumCmd.PersistentFlags().String("periods", "", "Comma-separated spectral periods in seconds (default 0 to 10 s)")
	spectrumCmd.Flags().String("location", "", "Location of the enveloped spectra")
	spectrumCmd.Flags().String("apoe", "", "Return period as '1/n', 'APoE: 1/n' or n")
	spectrumParamsCmd.Flags().Float64("pga", 0, "Peak ground acceleration (g)")
	spectrumParamsCmd.Flags().Float64("sas", 0, "Short-period spectral acceleration (g)")
	spectrumParamsCmd.Flags().Float64("tc", 0, "Spectral-shape corner period (s)")
	spectrumParamsCmd.Flags().Float64("td", 0, "Displacement-plateau corner period (s)")
	if err := viper.BindPFlags(spectrumCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding spectrum flags", err)
	}
	if err := viper.BindPFlags(spectrumCmd.Flags()); err != nil {
		contract.LogFatal("Error binding spectrum flags", err)
	}
	if err := viper.BindPFlags(spectrumParamsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding spectrum params flags", err)
	}

	// Bind all flags of datasetBuildCmd to Viper
	datasetBuildCmd.Flags().String("curves", "", "Long-form hazard curve CSV (vs30,site,lat,lon,imt,stat,level,rate)")
	if err := viper.BindPFlags(datasetBuildCmd.Flags()); err != nil {
		contract.LogFatal("Error binding dataset build flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
