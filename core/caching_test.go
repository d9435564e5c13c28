package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/internal/iocache"
	"github.com/huangsam/tdacrash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testCloud = [][]float64{{0, 1}, {1, 2}, {2, 0.5}}

func testDiagram() schema.Diagram {
	return schema.NewDiagram([]int{0}, []schema.Point{{Birth: 0, Death: 1.5, Dim: 0}})
}

func TestGenerateCacheKey(t *testing.T) {
	key := generateCacheKey("ripser", testCloud, []int{0, 1})
	assert.Len(t, key, 64)
	assert.Equal(t, key, generateCacheKey("ripser", testCloud, []int{1, 0}), "dimension order does not matter")

	changed := [][]float64{{0, 1}, {1, 2}, {2, 0.50000001}}
	assert.NotEqual(t, key, generateCacheKey("ripser", changed, []int{0, 1}))
	assert.NotEqual(t, key, generateCacheKey("ripser:2", testCloud, []int{0, 1}))
	assert.NotEqual(t, key, generateCacheKey("ripser", testCloud, []int{0}))

	// Same coordinates, different vector split
	flat := [][]float64{{0, 1, 1}, {2, 2, 0.5}}
	assert.NotEqual(t, key, generateCacheKey("ripser", flat, []int{0, 1}))
}

func TestCheckCacheHit(t *testing.T) {
	data, err := json.Marshal(testDiagram())
	require.NoError(t, err)
	now := time.Now().Unix()

	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
		hit     bool
	}{
		{name: "hit", data: data, version: currentCacheVersion, ts: now, hit: true},
		{name: "store error", err: errors.New("sql: no rows")},
		{name: "old version", data: data, version: currentCacheVersion + 1, ts: now},
		{name: "stale", data: data, version: currentCacheVersion, ts: time.Now().Add(-contract.DiagramCacheTTL - time.Hour).Unix()},
		{name: "corrupt", data: []byte("{"), version: currentCacheVersion, ts: now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", "key").Return(tt.data, tt.version, tt.ts, tt.err)

			got := checkCacheHit(store, "key")
			if tt.hit {
				require.NotNil(t, got)
				assert.Equal(t, testDiagram(), *got)
			} else {
				assert.Nil(t, got)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestCachedDiagram_NoStore(t *testing.T) {
	ctx := context.Background()
	oracle := &contract.MockDiagramOracle{}
	oracle.On("Diagram", ctx, testCloud, []int{0}).Return(testDiagram(), nil)

	got, err := cachedDiagram(ctx, oracle, nil, testCloud, []int{0})
	require.NoError(t, err)
	assert.Equal(t, testDiagram(), got)
	oracle.AssertExpectations(t)
}

func TestCachedDiagram_MissThenStore(t *testing.T) {
	ctx := context.Background()
	oracle := &contract.MockDiagramOracle{}
	oracle.On("ID").Return("ripser")
	oracle.On("Diagram", ctx, testCloud, []int{0}).Return(testDiagram(), nil)

	key := generateCacheKey("ripser", testCloud, []int{0})
	store := &iocache.MockCacheStore{}
	store.On("Get", key).Return(nil, 0, int64(0), errors.New("miss"))
	store.On("Set", key, mock.AnythingOfType("[]uint8"), currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)

	got, err := cachedDiagram(ctx, oracle, store, testCloud, []int{0})
	require.NoError(t, err)
	assert.Equal(t, testDiagram(), got)

	// The stored payload decodes back to the same diagram
	stored := store.Calls[1].Arguments.Get(1).([]byte)
	var decoded schema.Diagram
	require.NoError(t, json.Unmarshal(stored, &decoded))
	assert.Equal(t, testDiagram(), decoded)

	oracle.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestCachedDiagram_HitSkipsOracle(t *testing.T) {
	ctx := context.Background()
	oracle := &contract.MockDiagramOracle{}
	oracle.On("ID").Return("ripser")

	data, err := json.Marshal(testDiagram())
	require.NoError(t, err)
	key := generateCacheKey("ripser", testCloud, []int{0})
	store := &iocache.MockCacheStore{}
	store.On("Get", key).Return(data, currentCacheVersion, time.Now().Unix(), nil)

	got, err := cachedDiagram(ctx, oracle, store, testCloud, []int{0})
	require.NoError(t, err)
	assert.Equal(t, testDiagram(), got)
	oracle.AssertNotCalled(t, "Diagram", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestCachedDiagram_SetFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	oracle := &contract.MockDiagramOracle{}
	oracle.On("ID").Return("ripser")
	oracle.On("Diagram", ctx, testCloud, []int{0}).Return(testDiagram(), nil)

	store := &iocache.MockCacheStore{}
	store.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("miss"))
	store.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	got, err := cachedDiagram(ctx, oracle, store, testCloud, []int{0})
	require.NoError(t, err)
	assert.Equal(t, testDiagram(), got)
}

func TestCachedDiagram_OracleError(t *testing.T) {
	ctx := context.Background()
	oracle := &contract.MockDiagramOracle{}
	oracle.On("ID").Return("ripser")
	oracle.On("Diagram", ctx, testCloud, []int{0}).Return(schema.Diagram{}, assert.AnError)

	store := &iocache.MockCacheStore{}
	store.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("miss"))

	_, err := cachedDiagram(ctx, oracle, store, testCloud, []int{0})
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
