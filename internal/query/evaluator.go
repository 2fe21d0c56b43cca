package query

import (
	"context"
	"fmt"

	"github.com/kozaktomas/tag-search/internal/store"
)

// Evaluate resolves an AST to the set of matching image identifiers, scoped to
// the given directories. The index must stay consistent for the duration of
// the call; results for a fixed snapshot are deterministic (the returned set
// carries no ordering, sorting is the caller's concern). An empty scope is
// not an error: everything just evaluates to the empty set.
func Evaluate(ctx context.Context, node Node, idx store.TagIndex, scope store.Scope) (store.ImageSet, error) {
	switch n := node.(type) {
	case Tag:
		return idx.ImagesWithTag(ctx, n.Name, scope)

	case And:
		left, err := Evaluate(ctx, n.Left, idx, scope)
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(ctx, n.Right, idx, scope)
		if err != nil {
			return nil, err
		}
		return intersect(left, right), nil

	case Or:
		left, err := Evaluate(ctx, n.Left, idx, scope)
		if err != nil {
			return nil, err
		}
		right, err := Evaluate(ctx, n.Right, idx, scope)
		if err != nil {
			return nil, err
		}
		return union(left, right), nil

	case Not:
		all, err := idx.AllImages(ctx, scope)
		if err != nil {
			return nil, err
		}
		inner, err := Evaluate(ctx, n.Inner, idx, scope)
		if err != nil {
			return nil, err
		}
		return difference(all, inner), nil

	case Bracket:
		return Evaluate(ctx, n.Inner, idx, scope)

	case AllImages:
		return idx.AllImages(ctx, scope)

	default:
		return nil, fmt.Errorf("unknown AST node %T", node)
	}
}

func intersect(a, b store.ImageSet) store.ImageSet {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(store.ImageSet)
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func union(a, b store.ImageSet) store.ImageSet {
	out := make(store.ImageSet, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}

func difference(a, b store.ImageSet) store.ImageSet {
	out := make(store.ImageSet, len(a))
	for id := range a {
		if _, ok := b[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}
