package engine

import (
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/hailam/checkers/internal/board"
)

// cacheEntry keeps the full search key next to the result so a hash
// collision is detected on probe.
type cacheEntry struct {
	grid   board.Grid
	side   board.Color
	depth  int
	mode   ScoringMode
	result Result
}

// ResultCache memoizes BestMove results for identical inputs.
// A cached answer repeats the move picked by the first search, so with a
// cache in place ties are no longer re-broken on every call.
type ResultCache struct {
	cache *ristretto.Cache[uint64, cacheEntry]

	// Statistics
	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewResultCache creates a cache holding up to maxEntries results.
func NewResultCache(maxEntries int64) (*ResultCache, error) {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, cacheEntry]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &ResultCache{cache: c}, nil
}

// cacheKey mixes the grid hash with the rest of the search inputs.
func cacheKey(g board.Grid, side board.Color, depth int, mode ScoringMode) uint64 {
	h := g.Hash(side)
	h ^= uint64(depth) * 0x9E3779B97F4A7C15
	h ^= uint64(mode+1) * 0xC2B2AE3D27D4EB4F
	return h
}

// Probe looks up a stored result.
func (rc *ResultCache) Probe(g board.Grid, side board.Color, depth int, mode ScoringMode) (Result, bool) {
	rc.probes.Add(1)

	entry, ok := rc.cache.Get(cacheKey(g, side, depth, mode))
	if !ok {
		return Result{}, false
	}
	if entry.grid != g || entry.side != side || entry.depth != depth || entry.mode != mode {
		return Result{}, false
	}

	rc.hits.Add(1)
	return entry.result, true
}

// Store saves a result. The write is visible to the next Probe.
func (rc *ResultCache) Store(g board.Grid, side board.Color, depth int, mode ScoringMode, r Result) {
	rc.cache.Set(cacheKey(g, side, depth, mode), cacheEntry{
		grid:   g,
		side:   side,
		depth:  depth,
		mode:   mode,
		result: r,
	}, 1)
	rc.cache.Wait()
}

// Clear drops every entry and resets the statistics.
func (rc *ResultCache) Clear() {
	rc.cache.Clear()
	rc.hits.Store(0)
	rc.probes.Store(0)
}

// Close releases the cache goroutines.
func (rc *ResultCache) Close() {
	rc.cache.Close()
}

// HitRate returns the cache hit rate as a percentage.
func (rc *ResultCache) HitRate() float64 {
	probes := rc.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(rc.hits.Load()) / float64(probes) * 100
}

// Hits returns the number of successful probes.
func (rc *ResultCache) Hits() uint64 {
	return rc.hits.Load()
}
