// Package lsh buckets MinHash signatures with banded locality-sensitive
// hashing so duplicate search only scores pairs that are likely similar,
// instead of all n*(n-1)/2 of them.
package lsh

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"github.com/kozaktomas/tag-search/internal/minhash"
)

// Params describes a banding configuration: Bands*Rows equals the signature
// length, and the collision-probability curve crosses 0.5 near Threshold.
type Params struct {
	Bands int
	Rows  int

	// Threshold is the similarity the banding actually approximates. Equals
	// the requested catch threshold unless it was clamped.
	Threshold float64

	// Clamped is set when the requested threshold was too high for the
	// permutation count to support at least two bands. Non-fatal: the run
	// proceeds at Threshold and Note says so.
	Clamped bool
	Note    string
}

// DeriveParams picks the band/row split of a numPerm-element signature whose
// banding curve (1/b)^(1/r) best approximates the requested catch threshold.
// Requests above what two bands can express are clamped to that ceiling and
// flagged, never rejected.
func DeriveParams(numPerm int, catch float64) Params {
	best := Params{Bands: numPerm, Rows: 1}
	bestDiff := math.Inf(1)
	for bands := 2; bands <= numPerm; bands++ {
		if numPerm%bands != 0 {
			continue
		}
		rows := numPerm / bands
		t := math.Pow(1.0/float64(bands), 1.0/float64(rows))
		if diff := math.Abs(t - catch); diff < bestDiff {
			bestDiff = diff
			best = Params{Bands: bands, Rows: rows, Threshold: t}
		}
	}

	ceiling := math.Pow(0.5, 1.0/float64(numPerm/2))
	if catch > ceiling {
		best.Clamped = true
		best.Note = fmt.Sprintf(
			"catch threshold %.2f is above what %d permutations support; bucketing at %.2f instead",
			catch, numPerm, best.Threshold)
	}
	return best
}

// Index is a transient banded-signature index. Build once per duplicate run,
// query many times, then throw it away; it is not safe to mutate while
// querying from multiple goroutines and is never persisted.
type Index struct {
	params  Params
	numPerm int
	buckets []map[uint64][]string
	sigs    map[string]minhash.Signature
}

// Build indexes the given signatures for a catch threshold. Empty signatures
// and signatures whose length does not match numPerm are left out entirely:
// an untagged image can never be a duplicate candidate, and a stale cached
// signature must not be guessed at.
func Build(signatures map[string]minhash.Signature, numPerm int, catch float64) *Index {
	params := DeriveParams(numPerm, catch)
	idx := &Index{
		params:  params,
		numPerm: numPerm,
		buckets: make([]map[uint64][]string, params.Bands),
		sigs:    make(map[string]minhash.Signature, len(signatures)),
	}
	for i := range idx.buckets {
		idx.buckets[i] = make(map[uint64][]string)
	}
	for id, sig := range signatures {
		idx.add(id, sig)
	}
	return idx
}

// Params returns the banding configuration in use, including any clamp note.
func (x *Index) Params() Params {
	return x.params
}

// Size returns the number of indexed signatures.
func (x *Index) Size() int {
	return len(x.sigs)
}

// IDs returns the indexed identifiers in ascending order.
func (x *Index) IDs() []string {
	ids := make([]string, 0, len(x.sigs))
	for id := range x.sigs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Signature returns the indexed signature for an identifier, or nil.
func (x *Index) Signature(id string) minhash.Signature {
	return x.sigs[id]
}

func (x *Index) add(id string, sig minhash.Signature) {
	if sig.Empty() || len(sig) != x.numPerm {
		return
	}
	x.sigs[id] = sig
	for band := 0; band < x.params.Bands; band++ {
		key := x.bandHash(sig, band)
		x.buckets[band][key] = append(x.buckets[band][key], id)
	}
}

// Query returns the identifiers sharing at least one band with the given
// signature. These are candidates only; callers must verify them with an
// exact signature comparison. The querying image itself is excluded when its
// id is passed.
func (x *Index) Query(sig minhash.Signature, selfID string) map[string]struct{} {
	if sig.Empty() || len(sig) != x.numPerm {
		return nil
	}
	candidates := make(map[string]struct{})
	for band := 0; band < x.params.Bands; band++ {
		key := x.bandHash(sig, band)
		for _, id := range x.buckets[band][key] {
			if id != selfID {
				candidates[id] = struct{}{}
			}
		}
	}
	return candidates
}

// bandHash hashes one band's rows into a bucket key.
func (x *Index) bandHash(sig minhash.Signature, band int) uint64 {
	start := band * x.params.Rows
	h := fnv.New64a()
	var buf [4]byte
	for i := start; i < start+x.params.Rows; i++ {
		buf[0] = byte(sig[i])
		buf[1] = byte(sig[i] >> 8)
		buf[2] = byte(sig[i] >> 16)
		buf[3] = byte(sig[i] >> 24)
		h.Write(buf[:])
	}
	return h.Sum64()
}
