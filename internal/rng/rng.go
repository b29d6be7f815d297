// Package rng provides injectable random sources for damage rolls.
//
// Production code uses PCG (math/rand/v2) seeded once per arena.
// Tests use Sequence to replay fixed draws.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Source supplies uniform draws to the damage calculator.
type Source interface {
	// Uniform01 returns a value in [0, 1).
	Uniform01() float64
	// UniformRange returns a value in [lo, hi).
	UniformRange(lo, hi float64) float64
}

// PCG is a Source backed by a seeded PCG generator.
// Not safe for concurrent use.
type PCG struct {
	r *rand.Rand
}

// NewPCG creates a PCG source from a seed.
// Equal seeds produce equal sequences.
func NewPCG(seed uint64) *PCG {
	return &PCG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *PCG) Uniform01() float64 {
	return p.r.Float64()
}

func (p *PCG) UniformRange(lo, hi float64) float64 {
	return lo + p.r.Float64()*(hi-lo)
}

// NewSeed reads a high-entropy seed from crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
