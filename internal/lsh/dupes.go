package lsh

import (
	"context"
	"sort"

	"github.com/kozaktomas/tag-search/internal/minhash"
)

// Pair is one near-duplicate candidate pair. Pairs are unordered; A is always
// the lexically smaller identifier so a pair appears exactly once.
type Pair struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Similarity float64 `json:"similarity"`
}

// Result is the outcome of a duplicate search.
type Result struct {
	// Pairs holds every candidate pair whose estimated similarity reached the
	// display threshold, sorted by descending similarity, ties broken by
	// ascending (A, B).
	Pairs []Pair

	// CandidatesScored counts the pairs that were actually compared, for
	// diagnostics: with healthy banding it is far below n*(n-1)/2.
	CandidatesScored int

	// Indexed is the number of signatures that made it into the index.
	Indexed int

	// Params is the banding configuration used, including any clamp note.
	Params Params
}

// ProgressFunc is called once per image processed in the query loop.
type ProgressFunc func(processed, total int)

// FindDuplicates runs the full candidate pipeline over the given signatures:
// band-bucket at the catch threshold, collect candidate pairs, score each pair
// exactly once with the MinHash estimate, and keep pairs at or above the
// display threshold. The two thresholds are independent; a display threshold
// below catch simply keeps every candidate pair.
//
// The context is checked between outer-loop iterations so a host application
// can abort a long scan; progress may be nil.
func FindDuplicates(ctx context.Context, signatures map[string]minhash.Signature, numPerm int, catch, display float64, progress ProgressFunc) (*Result, error) {
	index := Build(signatures, numPerm, catch)
	res := &Result{
		Indexed: index.Size(),
		Params:  index.Params(),
	}

	ids := index.IDs()
	seen := make(map[[2]string]struct{})
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sig := index.Signature(id)
		for other := range index.Query(sig, id) {
			key := pairKey(id, other)
			if _, done := seen[key]; done {
				continue
			}
			seen[key] = struct{}{}

			estimate := minhash.Estimate(sig, index.Signature(other))
			res.CandidatesScored++
			if estimate >= display {
				res.Pairs = append(res.Pairs, Pair{A: key[0], B: key[1], Similarity: estimate})
			}
		}

		if progress != nil {
			progress(i+1, len(ids))
		}
	}

	sort.Slice(res.Pairs, func(i, j int) bool {
		a, b := res.Pairs[i], res.Pairs[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.A != b.A {
			return a.A < b.A
		}
		return a.B < b.B
	})
	return res, nil
}

func pairKey(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}
