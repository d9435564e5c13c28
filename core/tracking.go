package core

import (
	"fmt"
	"time"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/schema"
)

// runTracker records one run in the analysis store. A nil tracker does nothing,
// and tracking failures are logged without failing the run.
type runTracker struct {
	store contract.AnalysisStore
	id    int64
}

// beginRun opens a run in the analysis store of mgr, if one is configured.
func beginRun(mgr contract.CacheManager, runID string, kind schema.Kind, configParams map[string]any) *runTracker {
	if mgr == nil {
		return nil
	}
	store := mgr.GetAnalysisStore()
	if store == nil {
		return nil
	}
	id, err := store.BeginAnalysis(runID, kind, time.Now(), configParams)
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return nil
	}
	if id <= 0 {
		return nil
	}
	return &runTracker{store: store, id: id}
}

func (t *runTracker) recordSignal(signal schema.DerivativeSignal) {
	if t == nil {
		return
	}
	if err := t.store.RecordSignal(t.id, signal); err != nil {
		logTrackingError("RecordSignal", t.id, err)
	}
}

func (t *runTracker) end(windows int) {
	if t == nil {
		return
	}
	if err := t.store.EndAnalysis(t.id, time.Now(), windows); err != nil {
		logTrackingError("EndAnalysis", t.id, err)
	}
}

// logTrackingError logs database tracking errors to stderr without disrupting analysis.
func logTrackingError(operation string, analysisID int64, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on run %d", operation, analysisID), err)
}

// paramsConfig flattens the featurization params for the config_params column.
func paramsConfig(params schema.FeaturizationParams) map[string]any {
	config := map[string]any{
		"kind":                string(params.Kind),
		"homology_dimensions": params.HomologyDimensions,
		"p":                   contract.FormatExponent(params.P),
		"workers":             params.Workers,
	}
	if params.Order != nil {
		config["order"] = contract.FormatExponent(*params.Order)
	}
	switch params.Kind {
	case schema.LandscapeKind:
		config["n_layers"] = params.NLayers
		config["layer_policy"] = string(params.LayerPolicy)
	case schema.SilhouetteKind:
		config["power"] = params.Power
	}
	return config
}
