// services/rng.go
package services

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the single uniform random source every outcome engine draws from.
// Swapping the source (deterministic tests) must not change any mapping
// logic, so engines never touch math/rand directly.
type Rand interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Intn returns a uniform value in [0, n). Panics if n <= 0.
	Intn(n int) int
	// Shuffle pseudo-randomizes the order of n elements (Fisher–Yates).
	Shuffle(n int, swap func(i, j int))
}

// lockedRand wraps math/rand for safe use from concurrent requests.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

// NewRand returns the production random source.
func NewRand() Rand {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// weightedIndex picks an index proportionally to weights using one uniform
// draw. Total must be the sum of weights and > 0.
func weightedIndex(rng Rand, weights []int64, total int64) int {
	roll := int64(rng.Float64() * float64(total))
	for i, w := range weights {
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}
