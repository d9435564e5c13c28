package cmd

import (
	"github.com/huangsam/tdacrash/internal/httpapi"
	"github.com/spf13/cobra"
)

// serveCmd starts the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the derivative engine over HTTP",
	Long: `Start an HTTP API for the derivative engine.

Endpoints:
  POST /v1/derivative - derivative of the diagram file in the body
  POST /v1/distance   - pairwise distance matrix of the diagram file in the body
  GET  /healthz       - liveness probe
  GET  /metrics       - Prometheus metrics

The featurization flags set the defaults for requests that omit params.

Examples:
  # Listen on port 9000
  tdacrash serve --addr :9000

  # Track every request in the analysis store
  tdacrash serve --analysis-backend sqlite`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return httpapi.Serve(rootCtx, cfg, cacheManager)
	},
}
