package core

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cachedDiagram returns the diagram of cloud, from the cache when possible.
func cachedDiagram(ctx context.Context, oracle contract.DiagramOracle, store contract.CacheStore, cloud [][]float64, dims []int) (schema.Diagram, error) {
	if store == nil {
		// Fallback to direct computation
		return timedDiagram(ctx, oracle, cloud, dims)
	}

	key := generateCacheKey(oracle.ID(), cloud, dims)

	// Check for cache hit
	if result := checkCacheHit(store, key); result != nil {
		diagramCacheLookups.WithLabelValues("hit").Inc()
		return *result, nil
	}
	diagramCacheLookups.WithLabelValues("miss").Inc()

	// Cache miss: compute and store
	return computeAndStore(ctx, oracle, store, key, cloud, dims)
}

// checkCacheHit attempts to retrieve and validate a cached diagram
func checkCacheHit(store contract.CacheStore, key string) *schema.Diagram {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > contract.DiagramCacheTTL {
		return nil
	}
	var result schema.Diagram
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

// computeAndStore computes the diagram and stores it in cache
func computeAndStore(ctx context.Context, oracle contract.DiagramOracle, store contract.CacheStore, key string, cloud [][]float64, dims []int) (schema.Diagram, error) {
	result, err := timedDiagram(ctx, oracle, cloud, dims)
	if err != nil {
		return schema.Diagram{}, err
	}

	data, err := json.Marshal(result)
	if err == nil {
		err = store.Set(key, data, currentCacheVersion, time.Now().Unix())
	}
	if err != nil {
		contract.LogWarn("Failed to cache diagram", err)
	}
	return result, nil
}

func timedDiagram(ctx context.Context, oracle contract.DiagramOracle, cloud [][]float64, dims []int) (schema.Diagram, error) {
	start := time.Now()
	d, err := oracle.Diagram(ctx, cloud, dims)
	oracleDuration.Observe(time.Since(start).Seconds())
	return d, err
}

// generateCacheKey hashes the oracle identity, the tracked dimensions and the
// exact bits of every coordinate of the cloud.
func generateCacheKey(oracleID string, cloud [][]float64, dims []int) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s:%v:%d:", oracleID, schema.NormalizeDimensions(dims), len(cloud))
	buf := make([]byte, 0, 8*4)
	for _, vec := range cloud {
		buf = binary.LittleEndian.AppendUint32(buf[:0], uint32(len(vec)))
		for _, x := range vec {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
		}
		_, _ = h.Write(buf)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
