package core

import (
	"fmt"

	"github.com/huangsam/tdacrash/core/homder"
	"github.com/huangsam/tdacrash/schema"
)

// PrepareRequest converts a request into a sequence and the resolved params for it.
// Zero-valued params in the request are taken from defaults, except the homology
// dimensions, which come from the diagram file when the request names none.
func PrepareRequest(req schema.AnalysisRequest, defaults schema.FeaturizationParams, nBins int) (schema.DiagramSequence, schema.FeaturizationParams, error) {
	params := mergeParams(req.Params, defaults)
	if req.NBins > 0 {
		nBins = req.NBins
	}
	return prepareSequence(req.DiagramFile, params, nBins)
}

func mergeParams(req *schema.FeaturizationParams, defaults schema.FeaturizationParams) schema.FeaturizationParams {
	if req == nil {
		params := defaults.Clone()
		params.HomologyDimensions = nil
		return params
	}
	params := req.Clone()
	if params.Kind == "" {
		params.Kind = defaults.Kind
	}
	if params.P == 0 {
		params.P = defaults.P
	}
	if params.NLayers == 0 {
		params.NLayers = defaults.NLayers
	}
	if params.LayerPolicy == "" {
		params.LayerPolicy = defaults.LayerPolicy
	}
	params.Workers = defaults.Workers
	return params
}

// prepareSequence validates the file, then applies its grids and bins the rest.
func prepareSequence(file schema.DiagramFile, params schema.FeaturizationParams, nBins int) (schema.DiagramSequence, schema.FeaturizationParams, error) {
	seq, err := file.ToSequence()
	if err != nil {
		return nil, schema.FeaturizationParams{}, fmt.Errorf("%w: %v", homder.ErrMalformedDiagram, err)
	}
	params, err = ResolveParams(seq, FileParams(file, params), nBins)
	if err != nil {
		return nil, schema.FeaturizationParams{}, err
	}
	return seq, params, nil
}
