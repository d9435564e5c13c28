package schema

// AnalysisRequest is the body of a derivative or distance request served over HTTP or MCP.
// Params left out of the request fall back to the server defaults.
type AnalysisRequest struct {
	DiagramFile
	Params *FeaturizationParams `json:"params,omitempty"`
	NBins  int                  `json:"n_bins,omitempty"`
}
