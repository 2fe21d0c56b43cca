// Package store defines the storage contracts the search and duplicate
// detection engines consume: a tag index scoped by directory membership and an
// optional cache for MinHash signatures. Concrete backends live in the sqlite,
// postgres, and mock subpackages.
package store

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/tag-search/internal/minhash"
)

// Scope is the set of directory prefixes a query or scan is restricted to.
// An empty scope matches nothing: every lookup returns an empty set.
type Scope []string

// Everywhere matches the whole collection regardless of directory layout.
var Everywhere = Scope{""}

// ImageSet is a set of image identifiers. Identifiers are opaque strings;
// the bundled backends use filesystem paths.
type ImageSet map[string]struct{}

// TagSet is the set of tags attached to one image.
type TagSet map[string]struct{}

// TagIndex provides read access to the tag metadata of an image collection.
// Implementations must return consistent results for the duration of a single
// engine call; the engines never mutate what they are given.
type TagIndex interface {
	// TagsForImage returns the tags attached to an image, or an empty set if
	// the image is unknown or untagged.
	TagsForImage(ctx context.Context, id string) (TagSet, error)

	// ImagesWithTag returns every image in scope carrying the given tag.
	ImagesWithTag(ctx context.Context, tag string, scope Scope) (ImageSet, error)

	// AllImages returns every image in scope.
	AllImages(ctx context.Context, scope Scope) (ImageSet, error)
}

// SignatureStore caches MinHash signatures between duplicate-detection runs.
// Backends may decline to cache: a nil signature from GetSignature simply
// means the engine recomputes it from tags.
type SignatureStore interface {
	// GetSignature returns the cached signature for an image, or nil if none
	// is cached.
	GetSignature(ctx context.Context, id string) (minhash.Signature, error)

	// PutSignature caches a signature for an image, replacing any previous one.
	PutSignature(ctx context.Context, id string, sig minhash.Signature) error
}

// TagWriter mutates the tag metadata of a collection. Used by the import CLI,
// not by the engines.
type TagWriter interface {
	// AddImage registers an image with its tags, replacing existing tags if
	// the image is already known. Tags are normalized via NormalizeTag.
	AddImage(ctx context.Context, id string, tags []string) error

	// RemoveImage removes an image, its tag links, and any cached signature.
	RemoveImage(ctx context.Context, id string) error
}

// Store combines the full backend surface.
type Store interface {
	TagIndex
	SignatureStore
	TagWriter

	Close() error
}

// NormalizeTag canonicalizes a tag for storage and lookup: trimmed,
// NFC-normalized, case-folded. Both write and read paths must go through this
// so that queries match regardless of the casing the tagger produced.
func NormalizeTag(tag string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(tag)))
}

// InScope reports whether an image identifier falls under any of the scope's
// directory prefixes. Prefixes are treated as directories: "a/b" matches
// "a/b/cat.png" but not "a/bc.png". An empty prefix matches everything.
func (s Scope) InScope(id string) bool {
	for _, dir := range s {
		if dir == "" {
			return true
		}
		prefix := dir
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}
