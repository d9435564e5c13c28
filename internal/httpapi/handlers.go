package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/huangsam/tdacrash/core"
	"github.com/huangsam/tdacrash/core/homder"
	"github.com/huangsam/tdacrash/schema"
	log "github.com/sirupsen/logrus"
)

// RunIDHeader carries the UUID assigned to a derivative run.
const RunIDHeader = "X-Run-ID"

// clientErrors are the engine errors caused by the request itself.
var clientErrors = []error{
	homder.ErrConfiguration,
	homder.ErrDimensionMismatch,
	homder.ErrInsufficientData,
	homder.ErrMalformedDiagram,
}

func (s *Server) handleDerivative(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	seq, params, err := core.PrepareRequest(req, s.defaults, s.nBins)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	runID := uuid.NewString()
	w.Header().Set(RunIDHeader, runID)
	ctx := core.WithSuppressHeader(core.WithRunID(r.Context(), runID))

	result, err := core.RunDerivative(ctx, seq, params, s.mgr)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	seq, params, err := core.PrepareRequest(req, s.defaults, s.nBins)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	matrix, err := core.ComputeDistance(core.WithSuppressHeader(r.Context()), seq, params)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (schema.AnalysisRequest, error) {
	var req schema.AnalysisRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if len(req.HomologyDimensions) == 0 {
		return req, errors.New("invalid request body: homology_dimensions is required")
	}
	return req, nil
}

// statusFor maps an engine error to its HTTP status.
func statusFor(err error) int {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
