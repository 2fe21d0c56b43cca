package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/kozaktomas/tag-search/internal/store"
)

// ImagesHandler serves tag metadata reads and writes.
type ImagesHandler struct {
	store store.Store
}

// NewImagesHandler creates an images handler backed by the given store.
func NewImagesHandler(st store.Store) *ImagesHandler {
	return &ImagesHandler{store: st}
}

// TagsResponse is the payload for GET /images/tags.
type TagsResponse struct {
	Path string   `json:"path"`
	Tags []string `json:"tags"`
}

// Tags handles GET /api/v1/images/tags?path=<image-path>.
func (h *ImagesHandler) Tags(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}

	tags, err := h.store.TagsForImage(r.Context(), path)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	names := make([]string, 0, len(tags))
	for tag := range tags {
		names = append(names, tag)
	}
	sort.Strings(names)

	respondJSON(w, http.StatusOK, TagsResponse{Path: path, Tags: names})
}

// ImportRequest maps image paths to their tag lists.
type ImportRequest struct {
	Images map[string][]string `json:"images"`
}

// Import handles POST /api/v1/images. Re-importing an image replaces its tags.
func (h *ImagesHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Images) == 0 {
		respondError(w, http.StatusBadRequest, "no images provided")
		return
	}

	imported := 0
	failures := make(map[string]string)
	for path, tags := range req.Images {
		if err := h.store.AddImage(r.Context(), path, tags); err != nil {
			failures[path] = err.Error()
			continue
		}
		imported++
	}

	status := http.StatusOK
	if imported == 0 {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, map[string]any{
		"imported": imported,
		"failed":   failures,
	})
}

// RemoveRequest is the payload for DELETE /images.
type RemoveRequest struct {
	Path string `json:"path"`
}

// Remove handles DELETE /api/v1/images.
func (h *ImagesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}

	if err := h.store.RemoveImage(r.Context(), req.Path); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"removed": req.Path})
}
