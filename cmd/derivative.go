package cmd

import (
	"github.com/huangsam/tdacrash/core"
	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/spf13/cobra"
)

// derivativeCmd computes the homological derivative of a diagram file.
var derivativeCmd = &cobra.Command{
	Use:   "derivative <diagram-file>",
	Short: "Compute the homological derivative of a diagram sequence.",
	Long: `Compute how fast the topology of a sequence of persistence diagrams changes.

Each diagram is featurized (landscape, betti or silhouette) or compared directly
(bottleneck or wasserstein) with its successor. The result has one value per
transition and homology dimension, reduced across dimensions when --order is set.

The input is a JSON or YAML diagram file. Sampling grids stored in the file are
used as-is; otherwise they are derived from the data with --n-bins samples.

Examples:
  # Landscape derivative of H0 and H1, reduced with the L2 norm
  tdacrash derivative diagrams.json

  # Keep one signal per dimension
  tdacrash derivative diagrams.yaml --order none

  # Wasserstein-1 derivative of H1 only, written to CSV
  tdacrash derivative diagrams.json --kind wasserstein --p 1 --dims 1 --output csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDerivative(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compute derivative", err)
		}
	},
}
