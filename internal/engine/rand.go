package engine

import (
	"math/rand"
	"sync"
	"time"
)

// RandSource shuffles move lists for tie-breaking. It is safe for concurrent
// use, so one source can serve parallel searches.
type RandSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSource creates a source with a fixed seed.
func NewRandSource(seed int64) *RandSource {
	return &RandSource{rng: rand.New(rand.NewSource(seed))}
}

// NewRandSourceFor seeds with 0 when noRandom is set, otherwise with the clock.
func NewRandSourceFor(noRandom bool) *RandSource {
	if noRandom {
		return NewRandSource(0)
	}
	return NewRandSource(time.Now().UnixNano())
}

// Shuffle implements board.Shuffler.
func (r *RandSource) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	r.rng.Shuffle(n, swap)
	r.mu.Unlock()
}
