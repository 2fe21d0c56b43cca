package similarity

import (
	"math"
	"testing"
)

func tagSet(tags ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name     string
		a, b     map[string]struct{}
		expected float64
	}{
		{"identical", tagSet("cat", "black"), tagSet("cat", "black"), 1.0},
		{"disjoint", tagSet("cat"), tagSet("dog"), 0.0},
		{"partial overlap", tagSet("cat", "black", "indoor"), tagSet("cat", "black", "outdoor"), 0.5},
		{"subset", tagSet("cat"), tagSet("cat", "black"), 0.5},
		{"empty reference", tagSet(), tagSet("cat"), 0.0},
		{"empty candidate", tagSet("cat"), tagSet(), 0.0},
		{"both empty", tagSet(), tagSet(), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestJaccard_Symmetric(t *testing.T) {
	a := tagSet("cat", "black", "indoor", "cute")
	b := tagSet("cat", "outdoor")

	if Jaccard(a, b) != Jaccard(b, a) {
		t.Error("Jaccard must be symmetric")
	}
}

func TestRank_DescendingScores(t *testing.T) {
	reference := tagSet("cat", "black", "indoor")
	candidates := []Candidate{
		{ID: "far", Tags: tagSet("dog")},
		{ID: "exact", Tags: tagSet("cat", "black", "indoor")},
		{ID: "close", Tags: tagSet("cat", "black", "outdoor")},
	}

	matches := Rank(reference, candidates)

	expected := []string{"exact", "close", "far"}
	for i, id := range expected {
		if matches[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s (matches: %v)", i, id, matches[i].ID, matches)
		}
	}
	if matches[0].Score != 1.0 {
		t.Errorf("expected exact match to score 1.0, got %f", matches[0].Score)
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	reference := tagSet("cat")
	candidates := []Candidate{
		{ID: "b", Tags: tagSet("cat", "x")},
		{ID: "a", Tags: tagSet("cat", "y")},
		{ID: "c", Tags: tagSet("cat", "z")},
	}

	matches := Rank(reference, candidates)

	expected := []string{"b", "a", "c"}
	for i, id := range expected {
		if matches[i].ID != id {
			t.Errorf("position %d: expected %s (input order on tie), got %s", i, id, matches[i].ID)
		}
	}
}

func TestRank_EmptyReferenceScoresAllZero(t *testing.T) {
	matches := Rank(tagSet(), []Candidate{
		{ID: "a", Tags: tagSet("cat")},
		{ID: "b", Tags: tagSet("dog")},
	})

	for _, m := range matches {
		if m.Score != 0.0 {
			t.Errorf("expected 0.0 for %s with empty reference, got %f", m.ID, m.Score)
		}
	}
}

func TestRank_NoCandidates(t *testing.T) {
	if matches := Rank(tagSet("cat"), nil); len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}
