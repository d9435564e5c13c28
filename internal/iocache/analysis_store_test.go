package iocache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/tdacrash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryAnalysisStore(t *testing.T) *AnalysisStoreImpl {
	t.Helper()
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*AnalysisStoreImpl)
}

func sampleSignal() schema.DerivativeSignal {
	return schema.DerivativeSignal{
		Kind:         schema.LandscapeKind,
		Dimensions:   []int{0, 1},
		PerDimension: [][]float64{{0.5, 0.25}, {1, 0}},
		Values:       []float64{0.559, 1},
		Reduced:      true,
	}
}

func TestAnalysisStore_NoneBackend(t *testing.T) {
	store, err := NewAnalysisStore(schema.NoneBackend, "")
	require.NoError(t, err)

	analysisID, err := store.BeginAnalysis(uuid.NewString(), schema.LandscapeKind, time.Now(), map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), analysisID)

	assert.NoError(t, store.EndAnalysis(1, time.Now(), 10))
	assert.NoError(t, store.RecordSignal(1, sampleSignal()))

	runs, err := store.GetAllAnalysisRuns()
	assert.NoError(t, err)
	assert.Nil(t, runs)

	values, err := store.GetAllSignalValues()
	assert.NoError(t, err)
	assert.Nil(t, values)

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestAnalysisStore_SQLiteRoundTrip(t *testing.T) {
	store := newMemoryAnalysisStore(t)

	runUUID := uuid.NewString()
	startTime := time.Now()
	configParams := map[string]any{"kind": "landscape", "dims": []int{0, 1}}
	analysisID, err := store.BeginAnalysis(runUUID, schema.LandscapeKind, startTime, configParams)
	require.NoError(t, err)
	assert.Greater(t, analysisID, int64(0))

	require.NoError(t, store.RecordSignal(analysisID, sampleSignal()))
	require.NoError(t, store.EndAnalysis(analysisID, startTime.Add(1500*time.Millisecond), 3))

	runs, err := store.GetAllAnalysisRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, analysisID, run.AnalysisID)
	assert.Equal(t, runUUID, run.RunUUID)
	assert.Equal(t, "landscape", run.Kind)
	assert.WithinDuration(t, startTime, run.StartTime, time.Microsecond)
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, 1500, *run.RunDurationMs)
	require.NotNil(t, run.TotalWindows)
	assert.Equal(t, 3, *run.TotalWindows)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"kind":"landscape","dims":[0,1]}`, *run.ConfigParams)

	values, err := store.GetAllSignalValues()
	require.NoError(t, err)
	assert.Equal(t, []schema.SignalValueRecord{
		{AnalysisID: analysisID, Step: 0, Dim: schema.ReducedDim, Value: 0.559},
		{AnalysisID: analysisID, Step: 0, Dim: 0, Value: 0.5},
		{AnalysisID: analysisID, Step: 0, Dim: 1, Value: 0.25},
		{AnalysisID: analysisID, Step: 1, Dim: schema.ReducedDim, Value: 1},
		{AnalysisID: analysisID, Step: 1, Dim: 0, Value: 1},
		{AnalysisID: analysisID, Step: 1, Dim: 1, Value: 0},
	}, values)
}

func TestAnalysisStore_UnreducedSignal(t *testing.T) {
	store := newMemoryAnalysisStore(t)

	analysisID, err := store.BeginAnalysis(uuid.NewString(), schema.BottleneckKind, time.Now(), nil)
	require.NoError(t, err)

	signal := sampleSignal()
	signal.Reduced = false
	signal.Values = nil
	require.NoError(t, store.RecordSignal(analysisID, signal))

	values, err := store.GetAllSignalValues()
	require.NoError(t, err)
	assert.Len(t, values, 4)
	for _, v := range values {
		assert.NotEqual(t, schema.ReducedDim, v.Dim)
	}
}

func TestAnalysisStore_DuplicateSignalRollsBack(t *testing.T) {
	store := newMemoryAnalysisStore(t)

	analysisID, err := store.BeginAnalysis(uuid.NewString(), schema.LandscapeKind, time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordSignal(analysisID, sampleSignal()))

	// Same primary keys again must fail without partial writes
	assert.Error(t, store.RecordSignal(analysisID, sampleSignal()))
	values, err := store.GetAllSignalValues()
	require.NoError(t, err)
	assert.Len(t, values, 6)
}

func TestAnalysisStore_EndAnalysisUnknownRun(t *testing.T) {
	store := newMemoryAnalysisStore(t)
	assert.Error(t, store.EndAnalysis(999, time.Now(), 1))
}

func TestAnalysisStore_GetStatus(t *testing.T) {
	store := newMemoryAnalysisStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[analysisRunsTable])

	first := time.Now().Add(-time.Hour)
	id1, err := store.BeginAnalysis(uuid.NewString(), schema.LandscapeKind, first, nil)
	require.NoError(t, err)
	require.NoError(t, store.EndAnalysis(id1, first.Add(time.Second), 10))

	second := time.Now()
	id2, err := store.BeginAnalysis(uuid.NewString(), schema.BettiKind, second, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordSignal(id2, sampleSignal()))
	require.NoError(t, store.EndAnalysis(id2, second.Add(time.Second), 5))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, id2, status.LastRunID)
	assert.WithinDuration(t, second, status.LastRunTime, time.Microsecond)
	assert.WithinDuration(t, first, status.OldestRunTime, time.Microsecond)
	assert.Equal(t, 15, status.TotalWindows)
	assert.Equal(t, int64(2), status.TableSizes[analysisRunsTable])
	assert.Equal(t, int64(6), status.TableSizes[signalValuesTable])
}

func TestCreateAnalysisQueries(t *testing.T) {
	assert.Contains(t, getCreateAnalysisRunsQuery(schema.SQLiteBackend), "AUTOINCREMENT")
	assert.Contains(t, getCreateAnalysisRunsQuery(schema.MySQLBackend), "AUTO_INCREMENT")
	assert.Contains(t, getCreateAnalysisRunsQuery(schema.PostgreSQLBackend), "BIGSERIAL")
	assert.Contains(t, getCreateSignalValuesQuery(schema.PostgreSQLBackend), "DOUBLE PRECISION")
	assert.Contains(t, getCreateSignalValuesQuery(schema.SQLiteBackend), "PRIMARY KEY (analysis_id, step, dim)")
}
