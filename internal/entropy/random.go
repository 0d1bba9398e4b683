// Package entropy provides the uniform random numbers behind earnings jitter.
// A seeded source gives reproducible runs; without a seed crypto/rand is used.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Source yields floats in [0, 1).
type Source interface {
	Float() float64
}

// New returns a deterministic source for a non-zero seed and a crypto-backed
// source otherwise.
func New(seed int64) Source {
	if seed == 0 {
		return Crypto{}
	}
	return NewSeeded(seed)
}

// Seeded is a deterministic, goroutine-safe source.
type Seeded struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeeded creates a source from seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mathrand.New(mathrand.NewSource(seed))}
}

// Float returns the next value from the seeded stream.
func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Crypto draws from crypto/rand.
type Crypto struct{}

// Float returns a random float64 in [0, 1).
func (Crypto) Float() float64 {
	return cryptoRandFloat()
}

// Constant always returns the same value. Useful for pinning jitter.
type Constant float64

// Float returns c.
func (c Constant) Float() float64 {
	return float64(c)
}

// Uniform maps the next value of src onto [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float()*(hi-lo)
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
