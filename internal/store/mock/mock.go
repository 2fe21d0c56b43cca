// Package mock provides an in-memory store implementation for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/tag-search/internal/minhash"
	"github.com/kozaktomas/tag-search/internal/store"
)

// Store is an in-memory implementation of store.Store with error injection.
type Store struct {
	mu         sync.RWMutex
	tags       map[string]store.TagSet
	signatures map[string]minhash.Signature

	// Error injection
	TagsForImageError  error
	ImagesWithTagError error
	AllImagesError     error
	GetSignatureError  error
	PutSignatureError  error
	AddImageError      error
	RemoveImageError   error

	// FailTagsFor makes TagsForImage fail only for specific image IDs,
	// so batch-skip behavior can be tested without failing the whole run.
	FailTagsFor map[string]error
}

// New creates an empty mock store.
func New() *Store {
	return &Store{
		tags:       make(map[string]store.TagSet),
		signatures: make(map[string]minhash.Signature),
	}
}

// Add registers an image with its tags, normalizing them like the real
// backends do. Convenience for test setup; not counted as error-injectable.
func (m *Store) Add(id string, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(store.TagSet, len(tags))
	for _, t := range tags {
		if n := store.NormalizeTag(t); n != "" {
			set[n] = struct{}{}
		}
	}
	m.tags[id] = set
}

// AddImage implements store.TagWriter.
func (m *Store) AddImage(ctx context.Context, id string, tags []string) error {
	if m.AddImageError != nil {
		return m.AddImageError
	}
	m.Add(id, tags...)
	return nil
}

// RemoveImage implements store.TagWriter.
func (m *Store) RemoveImage(ctx context.Context, id string) error {
	if m.RemoveImageError != nil {
		return m.RemoveImageError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tags, id)
	delete(m.signatures, id)
	return nil
}

// TagsForImage returns the tags for an image; unknown images get an empty set.
func (m *Store) TagsForImage(ctx context.Context, id string) (store.TagSet, error) {
	if err, ok := m.FailTagsFor[id]; ok {
		return nil, err
	}
	if m.TagsForImageError != nil {
		return nil, m.TagsForImageError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(store.TagSet, len(m.tags[id]))
	for t := range m.tags[id] {
		out[t] = struct{}{}
	}
	return out, nil
}

// ImagesWithTag returns every in-scope image carrying the tag.
func (m *Store) ImagesWithTag(ctx context.Context, tag string, scope store.Scope) (store.ImageSet, error) {
	if m.ImagesWithTagError != nil {
		return nil, m.ImagesWithTagError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	tag = store.NormalizeTag(tag)
	out := make(store.ImageSet)
	for id, tags := range m.tags {
		if !scope.InScope(id) {
			continue
		}
		if _, ok := tags[tag]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// AllImages returns every in-scope image.
func (m *Store) AllImages(ctx context.Context, scope store.Scope) (store.ImageSet, error) {
	if m.AllImagesError != nil {
		return nil, m.AllImagesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(store.ImageSet)
	for id := range m.tags {
		if scope.InScope(id) {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// GetSignature returns the cached signature for an image, or nil.
func (m *Store) GetSignature(ctx context.Context, id string) (minhash.Signature, error) {
	if m.GetSignatureError != nil {
		return nil, m.GetSignatureError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signatures[id], nil
}

// PutSignature caches a signature for an image.
func (m *Store) PutSignature(ctx context.Context, id string, sig minhash.Signature) error {
	if m.PutSignatureError != nil {
		return m.PutSignatureError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signatures[id] = sig
	return nil
}

// SignatureCount returns how many signatures are cached, for test assertions.
func (m *Store) SignatureCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.signatures)
}

// Close implements store.Store.
func (m *Store) Close() error {
	return nil
}
