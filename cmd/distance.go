package cmd

import (
	"github.com/huangsam/tdacrash/core"
	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/spf13/cobra"
)

// distanceCmd computes the pairwise distance matrix of a diagram file.
var distanceCmd = &cobra.Command{
	Use:   "distance <diagram-file>",
	Short: "Compute the pairwise distance matrix of a diagram sequence.",
	Long: `Compute the distance between every pair of diagrams in a sequence.

Uses the same --kind, --p and --order settings as the derivative, so entry
(i, i+1) of the matrix equals transition i of the derivative.

Examples:
  # Bottleneck distances between all diagrams
  tdacrash distance diagrams.json --kind bottleneck

  # Landscape distances exported to Parquet
  tdacrash distance diagrams.json --output parquet --output-file matrix.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDistance(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compute distances", err)
		}
	},
}
