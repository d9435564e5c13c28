package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/internal/iocache"
	"github.com/huangsam/tdacrash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const threeDiagrams = `{
  "homology_dimensions": [0],
  "diagrams": [
    {"points": [[0, 1, 0]]},
    {"points": [[0, 2, 0]]},
    {"points": [[0, 2, 0], [0.5, 0.5, 0]]}
  ]
}`

func testConfig() *contract.Config {
	return &contract.Config{
		Kind:        schema.LandscapeKind,
		Dimensions:  []int{0, 1},
		NLayers:     1,
		NBins:       20,
		P:           2,
		LayerPolicy: schema.PadLayers,
		Workers:     2,
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, NewServer(testConfig(), nil).Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewServer(testConfig(), nil).Handler()
	doRequest(t, h, http.MethodGet, "/healthz", "")

	rec := doRequest(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tdacrash_http_requests_total")
}

func TestDerivativeEndpoint(t *testing.T) {
	analysisStore := &iocache.MockAnalysisStore{}
	analysisStore.On("BeginAnalysis", mock.AnythingOfType("string"), schema.LandscapeKind, mock.Anything, mock.Anything).Return(int64(7), nil)
	analysisStore.On("RecordSignal", int64(7), mock.Anything).Return(nil)
	analysisStore.On("EndAnalysis", int64(7), mock.Anything, 3).Return(nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetAnalysisStore").Return(analysisStore)

	rec := doRequest(t, NewServer(testConfig(), mgr).Handler(), http.MethodPost, "/v1/derivative", threeDiagrams)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result schema.DerivativeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, rec.Header().Get(RunIDHeader), result.RunID)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.Windows)
	assert.Equal(t, []int{0}, result.Signal.Dimensions)
	require.Len(t, result.Signal.PerDimension, 2)
	assert.Greater(t, result.Signal.PerDimension[0][0], 0.0)
	assert.Equal(t, 0.0, result.Signal.PerDimension[1][0], "a placeholder point adds nothing")

	analysisStore.AssertExpectations(t)
}

func TestDistanceEndpoint(t *testing.T) {
	body := strings.Replace(threeDiagrams, `"diagrams"`, `"params": {"kind": "bottleneck"}, "diagrams"`, 1)
	rec := doRequest(t, NewServer(testConfig(), nil).Handler(), http.MethodPost, "/v1/distance", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var matrix schema.DistanceMatrix
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matrix))
	assert.Equal(t, schema.BottleneckKind, matrix.Kind)
	require.Len(t, matrix.Values, 3)
	assert.InDelta(t, 1.0, matrix.Values[0][1], 1e-9)
	assert.InDelta(t, 0.0, matrix.Values[1][2], 1e-9)
}

func TestEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		msg    string
	}{
		{
			name:   "not json",
			path:   "/v1/derivative",
			body:   "{",
			status: http.StatusBadRequest,
			msg:    "invalid request body",
		},
		{
			name:   "unknown field",
			path:   "/v1/derivative",
			body:   `{"homology_dimensions": [0], "diagrams": [], "extra": 1}`,
			status: http.StatusBadRequest,
			msg:    "unknown field",
		},
		{
			name:   "no dimensions",
			path:   "/v1/distance",
			body:   `{"diagrams": []}`,
			status: http.StatusBadRequest,
			msg:    "homology_dimensions is required",
		},
		{
			name:   "malformed point",
			path:   "/v1/derivative",
			body:   `{"homology_dimensions": [0], "diagrams": [{"points": [[0, 1]]}, {"points": []}]}`,
			status: http.StatusBadRequest,
			msg:    "malformed diagram",
		},
		{
			name:   "single diagram",
			path:   "/v1/derivative",
			body:   `{"homology_dimensions": [0], "diagrams": [{"points": [[0, 1, 0]]}]}`,
			status: http.StatusBadRequest,
			msg:    "insufficient diagrams",
		},
		{
			name:   "bad params",
			path:   "/v1/distance",
			body:   `{"homology_dimensions": [0], "params": {"kind": "wasserstein", "p": 0.5}, "diagrams": [{"points": []}, {"points": []}]}`,
			status: http.StatusBadRequest,
			msg:    "invalid featurization params",
		},
	}

	h := NewServer(testConfig(), nil).Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, errorBody(t, rec), tt.msg)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
