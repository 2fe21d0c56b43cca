// Package searcher ties the query engine and similarity ranking to a tag
// index: parse-and-evaluate in one call, and reference-image similarity
// search over a boolean-query-filtered pool.
package searcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/kozaktomas/tag-search/internal/query"
	"github.com/kozaktomas/tag-search/internal/similarity"
	"github.com/kozaktomas/tag-search/internal/store"
)

// Searcher executes searches against one tag index.
type Searcher struct {
	index store.TagIndex
}

// New creates a Searcher over the given index.
func New(index store.TagIndex) *Searcher {
	return &Searcher{index: index}
}

// Search parses a boolean tag query and evaluates it over the scope. An empty
// query matches everything in scope. Malformed queries return a
// *query.SyntaxError.
func (s *Searcher) Search(ctx context.Context, q string, scope store.Scope) (store.ImageSet, error) {
	ast, err := query.Parse(q)
	if err != nil {
		return nil, err
	}
	return query.Evaluate(ctx, ast, s.index, scope)
}

// SearchSorted is Search with the result as a sorted slice, for callers that
// need a stable presentation order.
func (s *Searcher) SearchSorted(ctx context.Context, q string, scope store.Scope) ([]string, error) {
	set, err := s.Search(ctx, q, scope)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// SimilarToImage ranks the pool produced by the boolean query q (everything
// in scope when q is empty) by exact Jaccard similarity against the tags of
// the reference image. The reference itself is excluded from the results.
// limit <= 0 means no limit.
func (s *Searcher) SimilarToImage(ctx context.Context, refID, q string, scope store.Scope, limit int) ([]similarity.Match, error) {
	refTags, err := s.index.TagsForImage(ctx, refID)
	if err != nil {
		return nil, fmt.Errorf("tags for reference %q: %w", refID, err)
	}
	return s.rankAgainst(ctx, refTags, refID, q, scope, limit)
}

// SimilarToTags is SimilarToImage for a transient tag set that is not in the
// store, e.g. a freshly auto-tagged upload.
func (s *Searcher) SimilarToTags(ctx context.Context, refTags store.TagSet, q string, scope store.Scope, limit int) ([]similarity.Match, error) {
	return s.rankAgainst(ctx, refTags, "", q, scope, limit)
}

func (s *Searcher) rankAgainst(ctx context.Context, refTags store.TagSet, excludeID, q string, scope store.Scope, limit int) ([]similarity.Match, error) {
	pool, err := s.Search(ctx, q, scope)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(pool))
	for id := range pool {
		if id != excludeID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids) // deterministic input order for stable tie ranking

	candidates := make([]similarity.Candidate, 0, len(ids))
	for _, id := range ids {
		tags, err := s.index.TagsForImage(ctx, id)
		if err != nil {
			// One unreadable candidate must not sink the search.
			continue
		}
		candidates = append(candidates, similarity.Candidate{ID: id, Tags: tags})
	}

	matches := similarity.Rank(refTags, candidates)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
