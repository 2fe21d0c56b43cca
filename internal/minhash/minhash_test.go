package minhash

import (
	"fmt"
	"math"
	"reflect"
	"testing"
)

func tagSet(tags ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

func TestSignature_EmptySetSentinel(t *testing.T) {
	gen := NewGenerator(NumPermutations)

	sig := gen.Signature(nil)
	if !sig.Empty() {
		t.Errorf("expected empty sentinel for nil tag set, got %d values", len(sig))
	}

	sig = gen.Signature(tagSet())
	if !sig.Empty() {
		t.Errorf("expected empty sentinel for empty tag set, got %d values", len(sig))
	}
}

func TestSignature_Deterministic(t *testing.T) {
	tags := tagSet("cat", "black", "indoor")

	a := NewGenerator(NumPermutations).Signature(tags)
	b := NewGenerator(NumPermutations).Signature(tags)

	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical signatures from independent generators")
	}
	if len(a) != NumPermutations {
		t.Errorf("expected %d values, got %d", NumPermutations, len(a))
	}
}

func TestSignature_OrderIndependent(t *testing.T) {
	// Map iteration order varies between runs; the signature must not.
	gen := NewGenerator(NumPermutations)
	tags := tagSet("a", "b", "c", "d", "e", "f", "g", "h")

	first := gen.Signature(tags)
	for i := 0; i < 20; i++ {
		if !reflect.DeepEqual(gen.Signature(tags), first) {
			t.Fatal("signature changed between computations of the same set")
		}
	}
}

func TestEstimate_IdenticalSets(t *testing.T) {
	gen := NewGenerator(NumPermutations)
	sig := gen.Signature(tagSet("cat", "black"))

	if got := Estimate(sig, sig); got != 1.0 {
		t.Errorf("expected 1.0 for identical signatures, got %f", got)
	}
}

func TestEstimate_EmptySignatureScoresZero(t *testing.T) {
	gen := NewGenerator(NumPermutations)
	sig := gen.Signature(tagSet("cat"))

	if got := Estimate(sig, nil); got != 0.0 {
		t.Errorf("expected 0.0 against empty signature, got %f", got)
	}
	if got := Estimate(nil, nil); got != 0.0 {
		t.Errorf("expected 0.0 for two empty signatures, got %f", got)
	}
}

func TestEstimate_LengthMismatchScoresZero(t *testing.T) {
	a := NewGenerator(64).Signature(tagSet("cat"))
	b := NewGenerator(128).Signature(tagSet("cat"))

	if got := Estimate(a, b); got != 0.0 {
		t.Errorf("expected 0.0 for mismatched lengths, got %f", got)
	}
}

func TestEstimate_ApproximatesJaccard(t *testing.T) {
	// Two sets sharing 8 of 12 distinct tags have Jaccard 8/12. The estimate
	// should land within a few standard errors of that.
	gen := NewGenerator(NumPermutations)

	shared := make([]string, 8)
	for i := range shared {
		shared[i] = fmt.Sprintf("shared-%d", i)
	}
	a := tagSet(shared...)
	b := tagSet(shared...)
	a["only-a-1"] = struct{}{}
	a["only-a-2"] = struct{}{}
	b["only-b-1"] = struct{}{}
	b["only-b-2"] = struct{}{}

	exact := 8.0 / 12.0
	got := Estimate(gen.Signature(a), gen.Signature(b))

	stderr := 1.0 / math.Sqrt(float64(NumPermutations))
	if math.Abs(got-exact) > 3*stderr {
		t.Errorf("estimate %f too far from exact Jaccard %f", got, exact)
	}
}

func TestEstimate_DisjointSetsScoreLow(t *testing.T) {
	gen := NewGenerator(NumPermutations)
	a := gen.Signature(tagSet("cat", "black", "indoor"))
	b := gen.Signature(tagSet("dog", "white", "outdoor"))

	if got := Estimate(a, b); got > 0.15 {
		t.Errorf("expected near-zero similarity for disjoint sets, got %f", got)
	}
}

func TestBytes_RoundTrip(t *testing.T) {
	gen := NewGenerator(NumPermutations)
	sig := gen.Signature(tagSet("cat", "black"))

	decoded, err := FromBytes(sig.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(decoded, sig) {
		t.Error("signature did not survive the byte round trip")
	}
}

func TestBytes_EmptySignature(t *testing.T) {
	if b := Signature(nil).Bytes(); b != nil {
		t.Errorf("expected nil bytes for empty signature, got %d bytes", len(b))
	}

	sig, err := FromBytes(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sig.Empty() {
		t.Error("expected empty signature from nil bytes")
	}
}

func TestFromBytes_InvalidLength(t *testing.T) {
	if _, err := FromBytes([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated signature bytes")
	}
}

func TestNewGenerator_InvalidCountFallsBack(t *testing.T) {
	for _, n := range []int{0, -5} {
		gen := NewGenerator(n)
		if gen.NumPermutations() != NumPermutations {
			t.Errorf("NewGenerator(%d): expected fallback to %d, got %d", n, NumPermutations, gen.NumPermutations())
		}
	}
}
