package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/tag-search/internal/query"
	"github.com/kozaktomas/tag-search/internal/searcher"
	"github.com/kozaktomas/tag-search/internal/similarity"
	"github.com/kozaktomas/tag-search/internal/store"
)

// SearchHandler serves boolean tag queries and similarity ranking.
type SearchHandler struct {
	searcher *searcher.Searcher
}

// NewSearchHandler creates a search handler backed by the given tag index.
func NewSearchHandler(index store.TagIndex) *SearchHandler {
	return &SearchHandler{searcher: searcher.New(index)}
}

// scopeFromValues converts repeated scope parameters into a store.Scope.
// No scope parameter means the whole collection.
func scopeFromValues(dirs []string) store.Scope {
	if len(dirs) == 0 {
		return store.Everywhere
	}
	return store.Scope(dirs)
}

// SearchResponse is the payload for GET /search.
type SearchResponse struct {
	Query  string   `json:"query"`
	Count  int      `json:"count"`
	Images []string `json:"images"`
}

// Search handles GET /api/v1/search?q=<query>&scope=<dir>.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	scope := scopeFromValues(r.URL.Query()["scope"])

	images, err := h.searcher.SearchSorted(r.Context(), q, scope)
	if err != nil {
		var syntaxErr *query.SyntaxError
		if errors.As(err, &syntaxErr) {
			respondError(w, http.StatusBadRequest, syntaxErr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, SearchResponse{
		Query:  q,
		Count:  len(images),
		Images: images,
	})
}

// SimilarRequest is the payload for POST /similar.
type SimilarRequest struct {
	Reference string   `json:"reference"`
	Query     string   `json:"query,omitempty"`
	Scope     []string `json:"scope,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// SimilarResponse is the payload returned by POST /similar.
type SimilarResponse struct {
	Reference string             `json:"reference"`
	Matches   []similarity.Match `json:"matches"`
}

// Similar handles POST /api/v1/similar.
func (h *SearchHandler) Similar(w http.ResponseWriter, r *http.Request) {
	var req SimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Reference == "" {
		respondError(w, http.StatusBadRequest, "reference image is required")
		return
	}

	matches, err := h.searcher.SimilarToImage(
		r.Context(), req.Reference, req.Query, scopeFromValues(req.Scope), req.Limit)
	if err != nil {
		var syntaxErr *query.SyntaxError
		if errors.As(err, &syntaxErr) {
			respondError(w, http.StatusBadRequest, syntaxErr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, SimilarResponse{
		Reference: req.Reference,
		Matches:   matches,
	})
}
