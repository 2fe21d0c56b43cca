// Package dupefinder drives a duplicate-detection run end to end: resolve or
// compute MinHash signatures for the images in scope, persist new ones when a
// signature cache is available, and hand the batch to the LSH pipeline.
package dupefinder

import (
	"context"
	"fmt"

	"github.com/kozaktomas/tag-search/internal/lsh"
	"github.com/kozaktomas/tag-search/internal/minhash"
	"github.com/kozaktomas/tag-search/internal/store"
)

// Options tunes one duplicate-detection run.
type Options struct {
	// CatchThreshold drives LSH bucketing; lower catches more candidates.
	CatchThreshold float64

	// DisplayThreshold filters scored pairs; only pairs at or above it are
	// reported.
	DisplayThreshold float64

	// NumPermutations is the signature length; zero means
	// minhash.NumPermutations.
	NumPermutations int

	// OnProgress, when set, receives phase updates. Called synchronously.
	OnProgress func(Progress)
}

// Run phases reported through Options.OnProgress.
const (
	PhaseSignatures = "signatures"
	PhaseScan       = "scan"
)

// Progress reports where a run currently is.
type Progress struct {
	Phase   string // PhaseSignatures or PhaseScan
	Current int
	Total   int
}

// Report is the outcome of a run.
type Report struct {
	// Pairs, sorted by descending similarity.
	Pairs []lsh.Pair `json:"pairs"`

	// CandidatesScored counts pairs actually compared (see lsh.Result).
	CandidatesScored int `json:"candidates_scored"`

	// Indexed is how many images entered the LSH index.
	Indexed int `json:"indexed"`

	// SkippedNoTags counts images left out because they carry no tags.
	SkippedNoTags int `json:"skipped_no_tags"`

	// SkippedErrors counts images left out because the store failed for them
	// or returned an unusable signature. They do not abort the run.
	SkippedErrors int `json:"skipped_errors"`

	// ClampNote is a non-empty informational message when the catch threshold
	// had to be clamped for the configured permutation count.
	ClampNote string `json:"clamp_note,omitempty"`
}

// Finder resolves signatures against a tag index and an optional cache.
type Finder struct {
	index store.TagIndex
	cache store.SignatureStore // may be nil
	gen   *minhash.Generator
}

// New creates a Finder. sigCache may be nil, in which case every run
// recomputes all signatures from tags.
func New(index store.TagIndex, sigCache store.SignatureStore, numPerm int) *Finder {
	return &Finder{
		index: index,
		cache: sigCache,
		gen:   minhash.NewGenerator(numPerm),
	}
}

// FindDuplicates runs duplicate detection over the given image identifiers.
// Fewer than two usable images is not an error; the report just carries no
// pairs. Per-image store failures are counted and skipped rather than
// aborting the batch.
func (f *Finder) FindDuplicates(ctx context.Context, ids []string, opts Options) (*Report, error) {
	numPerm := opts.NumPermutations
	if numPerm <= 0 {
		numPerm = f.gen.NumPermutations()
	}
	if numPerm != f.gen.NumPermutations() {
		return nil, fmt.Errorf("finder configured for %d permutations, run requested %d", f.gen.NumPermutations(), numPerm)
	}

	report := &Report{}
	signatures := make(map[string]minhash.Signature, len(ids))

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sig, err := f.resolveSignature(ctx, id)
		switch {
		case err != nil:
			report.SkippedErrors++
		case sig.Empty():
			report.SkippedNoTags++
		default:
			signatures[id] = sig
		}
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Phase: PhaseSignatures, Current: i + 1, Total: len(ids)})
		}
	}

	result, err := lsh.FindDuplicates(ctx, signatures, numPerm, opts.CatchThreshold, opts.DisplayThreshold, func(processed, total int) {
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Phase: PhaseScan, Current: processed, Total: total})
		}
	})
	if err != nil {
		return nil, err
	}

	report.Pairs = result.Pairs
	report.CandidatesScored = result.CandidatesScored
	report.Indexed = result.Indexed
	if result.Params.Clamped {
		report.ClampNote = result.Params.Note
	}
	return report, nil
}

// resolveSignature returns the cached signature for an image if it is usable,
// otherwise recomputes it from tags and caches the result. A cached signature
// of the wrong length is treated as stale, not trusted.
func (f *Finder) resolveSignature(ctx context.Context, id string) (minhash.Signature, error) {
	if f.cache != nil {
		sig, err := f.cache.GetSignature(ctx, id)
		if err == nil && !sig.Empty() && len(sig) == f.gen.NumPermutations() {
			return sig, nil
		}
		// Fall through on cache errors; tags are the source of truth.
	}

	tags, err := f.index.TagsForImage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tags for %q: %w", id, err)
	}
	sig := f.gen.Signature(tags)
	if sig.Empty() {
		return nil, nil
	}
	if f.cache != nil {
		// Best effort; a failed cache write must not fail the run.
		_ = f.cache.PutSignature(ctx, id, sig)
	}
	return sig, nil
}
