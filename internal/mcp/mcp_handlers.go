package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/huangsam/tdacrash/core"
	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/internal/loader"
	"github.com/huangsam/tdacrash/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

func (h *toolHandler) handleComputeDerivative(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := h.buildRequest(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid derivative parameters: %v", err)), nil
	}
	seq, params, err := core.PrepareRequest(req, h.baseCfg.FeaturizationParams(), h.baseCfg.NBins)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("derivative failed: %v", err)), nil
	}

	ctx = core.WithSuppressHeader(core.WithRunID(ctx, uuid.NewString()))
	result, err := core.RunDerivative(ctx, seq, params, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("derivative failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handlePairwiseDistance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := h.buildRequest(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid distance parameters: %v", err)), nil
	}
	seq, params, err := core.PrepareRequest(req, h.baseCfg.FeaturizationParams(), h.baseCfg.NBins)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("distance failed: %v", err)), nil
	}

	matrix, err := core.ComputeDistance(core.WithSuppressHeader(ctx), seq, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("distance failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(matrix, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// buildRequest reads the diagram file and the param overrides of a tool call.
func (h *toolHandler) buildRequest(request mcp.CallToolRequest) (schema.AnalysisRequest, error) {
	var req schema.AnalysisRequest

	file, err := diagramFile(request.GetString("diagrams", ""), request.GetString("input_path", ""))
	if err != nil {
		return req, err
	}
	req.DiagramFile = file

	params := h.baseCfg.FeaturizationParams()
	params.HomologyDimensions = nil
	if k := request.GetString("kind", ""); k != "" {
		params.Kind = schema.Kind(strings.ToLower(k))
		if _, ok := schema.ValidKinds[params.Kind]; !ok {
			return req, fmt.Errorf("unknown kind %q", k)
		}
	}
	if d := request.GetString("dims", ""); d != "" {
		if params.HomologyDimensions, err = contract.ParseDimensions(d); err != nil {
			return req, err
		}
	}
	if p := request.GetString("p", ""); p != "" {
		if params.P, err = contract.ParseExponent(p); err != nil {
			return req, err
		}
	}
	if params.Kind == schema.BottleneckKind {
		params.P = math.Inf(1)
	}
	if o := request.GetString("order", ""); o != "" {
		if params.Order, err = contract.ParseOrder(o); err != nil {
			return req, err
		}
	}
	if l := request.GetInt("n_layers", 0); l > 0 {
		params.NLayers = l
	}
	req.Params = &params
	req.NBins = request.GetInt("n_bins", 0)
	return req, nil
}

func diagramFile(inline, path string) (schema.DiagramFile, error) {
	switch {
	case inline != "":
		return loader.DecodeDiagramFile(strings.NewReader(inline), loader.JSONFormat)
	case path != "":
		return loader.LoadDiagramFile(path)
	default:
		return schema.DiagramFile{}, errors.New("either 'diagrams' or 'input_path' is required")
	}
}
