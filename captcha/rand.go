package captcha

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"golang.org/x/crypto/salsa20/salsa"
)

// Source is a cryptographically strong integer generator. It expands a
// 256-bit key read once from an entropy reader into a salsa20 keystream.
// A Source is safe for concurrent use; every draw takes the lock.
type Source struct {
	mu      sync.Mutex
	key     [32]byte
	counter uint64
	block   [64]byte
	buf     []byte
}

// NewSource keys a Source from r. Any read failure is reported as ErrEntropy.
func NewSource(r io.Reader) (*Source, error) {
	s := &Source{}
	if _, err := io.ReadFull(r, s.key[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return s, nil
}

var defaultSource struct {
	once sync.Once
	src  *Source
	err  error
}

// DefaultSource returns the process-wide Source keyed from crypto/rand.
func DefaultSource() (*Source, error) {
	defaultSource.once.Do(func() {
		defaultSource.src, defaultSource.err = NewSource(rand.Reader)
	})
	return defaultSource.src, defaultSource.err
}

// Uint64 returns 64 uniformly distributed bits.
func (s *Source) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) < 8 {
		var ctr [16]byte
		binary.LittleEndian.PutUint64(ctr[8:], s.counter)
		s.counter++
		clear(s.block[:])
		salsa.XORKeyStream(s.block[:], s.block[:], &ctr, &s.key)
		s.buf = s.block[:]
	}
	v := binary.LittleEndian.Uint64(s.buf[:8])
	s.buf = s.buf[8:]
	return v
}

// Intn returns a uniform int in [0, n). It panics if n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("captcha: Intn called with non-positive n")
	}
	un := uint64(n)
	// reject the low 2^64 mod n values so every residue is equally likely
	floor := (math.MaxUint64%un + 1) % un
	for {
		v := s.Uint64()
		if v >= floor {
			return int(v % un)
		}
	}
}

// Next returns a uniform int in [0, max].
func (s *Source) Next(max int) int {
	return s.Intn(max + 1)
}

// Between returns a uniform int in [min, max]. min may be negative.
func (s *Source) Between(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + s.Intn(max-min+1)
}

// Float64 returns a uniform float in [0, 1).
func (s *Source) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// Range returns a uniform float in [lo, hi), or lo when the range is empty.
func (s *Source) Range(lo, hi float64) float64 {
	return scaleBelow(lo, hi, s.Float64())
}

// scaleBelow maps f in [0, 1) onto [lo, hi). Rounding can land exactly on
// hi for f near 1, so the result is stepped back below it.
func scaleBelow(lo, hi, f float64) float64 {
	v := lo + (hi-lo)*f
	if v >= hi && hi > lo {
		v = math.Nextafter(hi, lo)
	}
	return v
}

// Pick returns a random element of items. items must not be empty.
func Pick[T any](s *Source, items []T) T {
	return items[s.Intn(len(items))]
}
