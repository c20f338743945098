// Package rng provides the seeded random source used by every per-turn
// decision. Nothing in the rules core draws from a free-running generator.
package rng

import (
	"hash/crc32"
	"math/rand"
)

// RNG wraps math/rand.Rand. The engine reseeds it at the start of every
// action, so a stream never outlives one turn.
type RNG struct {
	src *rand.Rand
}

// New creates a new deterministic RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{src: rand.New(rand.NewSource(seed))}
}

// Reseed resets the generator to a fresh stream for seed.
func (r *RNG) Reseed(seed int64) {
	r.src = rand.New(rand.NewSource(seed))
}

// Float returns a value in [0, 1).
func (r *RNG) Float() float64 {
	return r.src.Float64()
}

// Intn returns a value in [0, n).
func (r *RNG) Intn(n int) int {
	return r.src.Intn(n)
}

// WeightedSelect returns an index chosen by weighted random selection.
// Non-positive weights are never chosen unless every weight is non-positive,
// in which case the first index wins.
func (r *RNG) WeightedSelect(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}
	roll := r.Float() * total
	cumulative := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return 0
}

// SampleWithoutReplacement picks n distinct indices by repeated weighted
// selection, removing each winner from the pool. Order is pick order.
func (r *RNG) SampleWithoutReplacement(weights []float64, n int) []int {
	pool := make([]int, len(weights))
	for i := range pool {
		pool[i] = i
	}
	if n > len(pool) {
		n = len(pool)
	}
	picked := make([]int, 0, n)
	for len(picked) < n {
		ws := make([]float64, len(pool))
		for i, idx := range pool {
			ws[i] = weights[idx]
		}
		k := r.WeightedSelect(ws)
		picked = append(picked, pool[k])
		pool = append(pool[:k], pool[k+1:]...)
	}
	return picked
}

// Choice returns one of items chosen uniformly, or "" if items is empty.
func (r *RNG) Choice(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[r.Intn(len(items))]
}

// StableHash maps a string to a seed offset that is identical across runs
// and platforms.
func StableHash(s string) int64 {
	return int64(crc32.ChecksumIEEE([]byte(s)))
}

// DaySeed is the base seed for everything derived from one simulated day.
func DaySeed(worldSeed int64, day int) int64 {
	return worldSeed + int64(day)*97
}
