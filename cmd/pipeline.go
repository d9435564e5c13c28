package cmd

import (
	"github.com/huangsam/tdacrash/core"
	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/spf13/cobra"
)

// pipelineCmd runs the crash-detection pipeline on a price series.
var pipelineCmd = &cobra.Command{
	Use:   "pipeline <prices.csv>",
	Short: "Run crash detection on a price series.",
	Long: `Run the full crash-detection pipeline on a CSV price series:

1. Takens embedding of the prices into delay vectors
2. Sliding windows of delay vectors as point clouds
3. Persistence diagram of each window through ripser (cached)
4. Homological derivative of the diagram sequence
5. Comparison against the price-range baseline at --threshold

The derivative must be a single signal: set --order or track one dimension.

Examples:
  # Detect crashes in the close column
  tdacrash pipeline prices.csv --column close

  # Finer windows and an earlier alert threshold
  tdacrash pipeline prices.csv --window-size 20 --window-stride 1 --threshold 0.6

  # Cache diagrams in PostgreSQL
  TDACRASH_CACHE_DB_CONNECT="host=localhost dbname=tda" tdacrash pipeline prices.csv --cache-backend postgresql`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePipeline(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run pipeline", err)
		}
	},
}
