// Package similarity ranks candidate images against a reference tag set by
// exact Jaccard similarity. Unlike the MinHash pipeline this path is precise:
// it is meant for one reference image against a pre-filtered pool, where
// accuracy matters more than speed.
package similarity

import "sort"

// Candidate is one image and its tags entering a ranking.
type Candidate struct {
	ID   string
	Tags map[string]struct{}
}

// Match is one ranked result.
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Jaccard returns |a∩b| / |a∪b|. Either set being empty scores 0.0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Rank scores every candidate against the reference tags and returns them in
// descending score order. The sort is stable, so exact ties keep their input
// order. An empty reference scores every candidate 0.0.
func Rank(reference map[string]struct{}, candidates []Candidate) []Match {
	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = Match{ID: c.ID, Score: Jaccard(reference, c.Tags)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
