package homder

import "errors"

// Error categories returned by the engine. Callers match them with errors.Is.
var (
	ErrConfiguration     = errors.New("invalid featurization params")
	ErrDimensionMismatch = errors.New("homology dimension mismatch")
	ErrInsufficientData  = errors.New("insufficient diagrams")
	ErrMalformedDiagram  = errors.New("malformed diagram")
)
