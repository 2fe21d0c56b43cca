// Package minhash computes fixed-size MinHash signatures over tag sets and
// estimates Jaccard similarity from them. A signature of N values estimates
// Jaccard similarity with a standard error of roughly 1/sqrt(N); the default
// of 128 permutations keeps that under 9% while staying cheap to compare.
package minhash

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand"
)

// NumPermutations is the default number of hash permutations per signature.
// Tunable accuracy/speed knob: higher is more accurate but larger and slower.
const NumPermutations = 128

// permutationSeed fixes the permutation parameters so signatures stay
// comparable across runs and processes. Cached signatures in a store were
// computed with this seed; changing it invalidates every cache.
const permutationSeed = 1

// mersennePrime bounds the universal-hash family, matching the classic
// (a*h + b) mod p construction.
const mersennePrime = (1 << 61) - 1

// Signature is a MinHash signature: NumPermutations unsigned 32-bit minima,
// position i corresponding to permutation i. A nil/empty Signature is the
// designated signature of an empty tag set and compares as 0.0 similarity
// against everything.
type Signature []uint32

// Empty reports whether this is the empty-tag-set sentinel.
func (s Signature) Empty() bool {
	return len(s) == 0
}

// Bytes packs the signature as little-endian uint32s for BLOB storage.
// The empty signature packs to nil.
func (s Signature) Bytes() []byte {
	if s.Empty() {
		return nil
	}
	buf := make([]byte, 4*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

// FromBytes unpacks a signature produced by Bytes. Empty input yields the
// empty signature; a length that is not a multiple of 4 is a data error.
func FromBytes(b []byte) (Signature, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid signature length %d bytes", len(b))
	}
	sig := make(Signature, len(b)/4)
	for i := range sig {
		sig[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return sig, nil
}

// Generator derives signatures using a fixed family of hash permutations.
// Safe for concurrent use after construction.
type Generator struct {
	numPerm int
	a       []uint64
	b       []uint64
}

// NewGenerator creates a generator with the given permutation count.
// Counts below 1 fall back to NumPermutations.
func NewGenerator(numPerm int) *Generator {
	if numPerm < 1 {
		numPerm = NumPermutations
	}
	rnd := rand.New(rand.NewSource(permutationSeed))
	g := &Generator{
		numPerm: numPerm,
		a:       make([]uint64, numPerm),
		b:       make([]uint64, numPerm),
	}
	for i := 0; i < numPerm; i++ {
		g.a[i] = 1 + uint64(rnd.Int63n(mersennePrime-1))
		g.b[i] = uint64(rnd.Int63n(mersennePrime))
	}
	return g
}

// NumPermutations returns the configured permutation count.
func (g *Generator) NumPermutations() int {
	return g.numPerm
}

// Signature computes the MinHash signature of a tag set: for each permutation,
// the minimum permuted hash across all tags. The empty set maps to the empty
// signature sentinel. Iteration order of the input does not affect the result.
func (g *Generator) Signature(tags map[string]struct{}) Signature {
	if len(tags) == 0 {
		return nil
	}
	sig := make(Signature, g.numPerm)
	for i := range sig {
		sig[i] = ^uint32(0)
	}
	for tag := range tags {
		h := baseHash(tag)
		for i := 0; i < g.numPerm; i++ {
			v := uint32((g.a[i]*h + g.b[i]) % mersennePrime)
			if v < sig[i] {
				sig[i] = v
			}
		}
	}
	return sig
}

// baseHash hashes a tag to the value the permutations are applied to.
func baseHash(tag string) uint64 {
	h := fnv.New32a()
	h.Write([]byte(tag))
	return uint64(h.Sum32())
}

// Estimate returns the estimated Jaccard similarity of two signatures: the
// fraction of positions holding equal minima. Empty signatures and length
// mismatches score 0.0 rather than guessing; callers that care about
// mismatches should check lengths themselves before comparing.
func Estimate(a, b Signature) float64 {
	if a.Empty() || b.Empty() || len(a) != len(b) {
		return 0.0
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}
