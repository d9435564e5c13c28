package schema

// DerivativeSignal is the homological derivative of a DiagramSequence.
// Row i of PerDimension holds the change from diagram i to diagram i+1,
// one column per entry of Dimensions. Values is only set when the
// computation was reduced across dimensions.
type DerivativeSignal struct {
	Kind         Kind        `json:"kind"`
	Dimensions   []int       `json:"homology_dimensions"`
	PerDimension [][]float64 `json:"per_dimension"`
	Values       []float64   `json:"values,omitempty"`
	Reduced      bool        `json:"reduced"`
}

// Len returns the number of transitions in the signal.
func (s DerivativeSignal) Len() int {
	return len(s.PerDimension)
}

// Scalars returns one value per transition: the reduced values when present,
// otherwise the only column of a single-dimension signal. It returns nil for
// an unreduced multi-dimension signal.
func (s DerivativeSignal) Scalars() []float64 {
	if s.Reduced {
		return s.Values
	}
	if len(s.Dimensions) != 1 {
		return nil
	}
	out := make([]float64, len(s.PerDimension))
	for i, row := range s.PerDimension {
		out[i] = row[0]
	}
	return out
}

// DistanceMatrix is the symmetric pairwise distance matrix of a DiagramSequence.
type DistanceMatrix struct {
	Kind       Kind        `json:"kind"`
	Dimensions []int       `json:"homology_dimensions"`
	Values     [][]float64 `json:"values"`
}

// ReportPoint aligns one transition of the derivative with the price baseline.
type ReportPoint struct {
	Index         int     `json:"index"`
	Signal        float64 `json:"signal"`
	Baseline      float64 `json:"baseline"`
	Alert         bool    `json:"alert"`
	BaselineAlert bool    `json:"baseline_alert"`
}

// Report is the crash-detection comparison between the TDA signal and the baseline.
type Report struct {
	Threshold          float64       `json:"threshold"`
	Points             []ReportPoint `json:"points"`
	FirstAlert         int           `json:"first_alert"`          // -1 when no alert fired
	FirstBaselineAlert int           `json:"first_baseline_alert"` // -1 when no alert fired
}

// DerivativeResult is the full outcome of a derivative run.
type DerivativeResult struct {
	RunID   string              `json:"run_id,omitempty"`
	Windows int                 `json:"windows"`
	Params  FeaturizationParams `json:"params"`
	Signal  DerivativeSignal    `json:"signal"`
	Report  *Report             `json:"report,omitempty"`
}
