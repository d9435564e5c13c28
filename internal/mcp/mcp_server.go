// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the tdacrash MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"TDA Crash Detection Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	kinds := mcp.Enum("landscape", "betti", "silhouette", "bottleneck", "wasserstein")

	// --- 1. Tool: compute_derivative ---
	s.AddTool(mcp.NewTool("compute_derivative",
		mcp.WithDescription("Compute the homological derivative of a sequence of persistence diagrams."),
		mcp.WithString("diagrams", mcp.Description("Diagram file as JSON: {homology_dimensions, diagrams: [{points: [[birth, death, dim], ...]}]}.")),
		mcp.WithString("input_path", mcp.Description("Path to a JSON or YAML diagram file, used when 'diagrams' is empty.")),
		mcp.WithString("kind", mcp.Description("Featurization or distance used for the derivative. Defaults to 'landscape'."), kinds),
		mcp.WithString("dims", mcp.Description("Comma-separated homology dimensions (defaults to those of the diagram file).")),
		mcp.WithString("p", mcp.Description("p-norm exponent, a number >= 1 or 'inf'.")),
		mcp.WithString("order", mcp.Description("Reduce across dimensions with this norm order, or 'none' to keep one value per dimension.")),
		mcp.WithNumber("n_bins", mcp.Description("Number of grid samples for closed-form kinds.")),
		mcp.WithNumber("n_layers", mcp.Description("Number of landscape layers.")),
	), h.handleComputeDerivative)

	// --- 2. Tool: pairwise_distance ---
	s.AddTool(mcp.NewTool("pairwise_distance",
		mcp.WithDescription("Compute the pairwise distance matrix between all diagrams of a sequence."),
		mcp.WithString("diagrams", mcp.Description("Diagram file as JSON.")),
		mcp.WithString("input_path", mcp.Description("Path to a JSON or YAML diagram file, used when 'diagrams' is empty.")),
		mcp.WithString("kind", mcp.Description("Featurization or distance. Defaults to 'landscape'."), kinds),
		mcp.WithString("dims", mcp.Description("Comma-separated homology dimensions.")),
		mcp.WithString("p", mcp.Description("p-norm exponent, a number >= 1 or 'inf'.")),
		mcp.WithNumber("n_bins", mcp.Description("Number of grid samples for closed-form kinds.")),
	), h.handlePairwiseDistance)

	return s
}

// StartMCPServer starts the tdacrash MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
