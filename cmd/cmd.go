// Package cmd defines the command-line interface for tdacrash.
package cmd

import (
	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(derivativeCmd)
	rootCmd.AddCommand(distanceCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Diagram cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for analysis tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")

	// Featurization flags shared by every command that runs the engine
	rootCmd.PersistentFlags().String("kind", string(contract.DefaultKind), "Derivative kind: landscape or betti or silhouette or bottleneck or wasserstein")
	rootCmd.PersistentFlags().String("dims", contract.DefaultDimensions, "Comma-separated homology dimensions")
	rootCmd.PersistentFlags().Int("n-layers", contract.DefaultNLayers, "Number of landscape layers")
	rootCmd.PersistentFlags().Int("n-bins", contract.DefaultNBins, "Grid samples per dimension when the input has no samplings")
	rootCmd.PersistentFlags().String("p", contract.DefaultP, "p-norm exponent (a number >= 1 or inf)")
	rootCmd.PersistentFlags().String("order", contract.DefaultOrder, "Norm order across dimensions (a number >= 1, inf, or none)")
	rootCmd.PersistentFlags().Float64("power", contract.DefaultPower, "Silhouette weight exponent")
	rootCmd.PersistentFlags().String("layer-policy", string(schema.PadLayers), "Landscape layer policy: pad or shared-min")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of pipelineCmd to Viper
	pipelineCmd.Flags().String("column", "", "CSV column holding the prices (name or index, defaults to the last column)")
	pipelineCmd.Flags().Int("embed-dim", contract.DefaultEmbedDim, "Takens embedding dimension")
	pipelineCmd.Flags().Int("time-delay", contract.DefaultTimeDelay, "Samples between embedding coordinates")
	pipelineCmd.Flags().Int("stride", contract.DefaultStride, "Samples between consecutive delay vectors")
	pipelineCmd.Flags().Int("window-size", contract.DefaultWindowSize, "Delay vectors per point cloud")
	pipelineCmd.Flags().Int("window-stride", contract.DefaultWindowStride, "Delay vectors between consecutive windows")
	pipelineCmd.Flags().Float64("threshold", contract.DefaultThreshold, "Alert threshold on the normalized signal (0.0 to 1.0)")
	pipelineCmd.Flags().String("ripser", "ripser", "Path to the ripser binary")
	pipelineCmd.Flags().Float64("max-edge", 0, "Largest edge length of the Rips filtration (0 = unbounded)")
	if err := viper.BindPFlags(pipelineCmd.Flags()); err != nil {
		contract.LogFatal("Error binding pipeline flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultServeAddr, "Address the HTTP API listens on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of cachePruneCmd to Viper
	cachePruneCmd.Flags().Duration("older-than", contract.DiagramCacheTTL, "Remove diagrams computed longer ago than this")
	if err := viper.BindPFlags(cachePruneCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache prune flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
