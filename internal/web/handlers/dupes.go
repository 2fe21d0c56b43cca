package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/tag-search/internal/config"
	"github.com/kozaktomas/tag-search/internal/dupefinder"
	"github.com/kozaktomas/tag-search/internal/store"
)

// DupesHandler runs duplicate-detection scans as async jobs. A scan over a
// large collection can take a while, so POST returns a job ID immediately and
// clients poll GET until the job completes.
type DupesHandler struct {
	store      store.Store
	defaults   *config.SearchConfig
	jobManager *JobManager
}

// NewDupesHandler creates a dupes handler backed by the given store.
func NewDupesHandler(st store.Store, defaults *config.SearchConfig, jm *JobManager) *DupesHandler {
	return &DupesHandler{
		store:      st,
		defaults:   defaults,
		jobManager: jm,
	}
}

// DupesRequest is the payload for POST /dupes. Zero thresholds fall back to
// the configured defaults.
type DupesRequest struct {
	Scope            []string `json:"scope,omitempty"`
	CatchThreshold   float64  `json:"catch_threshold,omitempty"`
	DisplayThreshold float64  `json:"display_threshold,omitempty"`
}

// Start handles POST /api/v1/dupes.
func (h *DupesHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req DupesRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
	}

	opts := DupeJobOptions{
		Scope:            req.Scope,
		CatchThreshold:   req.CatchThreshold,
		DisplayThreshold: req.DisplayThreshold,
	}
	if opts.CatchThreshold == 0 {
		opts.CatchThreshold = h.defaults.CatchThreshold
	}
	if opts.DisplayThreshold == 0 {
		opts.DisplayThreshold = h.defaults.DisplayThreshold
	}
	if opts.CatchThreshold <= 0 || opts.CatchThreshold > 1 || opts.DisplayThreshold <= 0 || opts.DisplayThreshold > 1 {
		respondError(w, http.StatusBadRequest, "thresholds must be in (0, 1]")
		return
	}

	job := h.jobManager.CreateJob(uuid.New().String(), opts)
	go h.run(job)

	respondJSON(w, http.StatusAccepted, job.Snapshot())
}

// run executes a duplicate scan in the background.
func (h *DupesHandler) run(job *DupeJob) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	job.setRunning(cancel)

	scope := scopeFromValues(job.Options.Scope)
	images, err := h.store.AllImages(ctx, scope)
	if err != nil {
		job.Fail(fmt.Errorf("listing images: %w", err))
		return
	}

	ids := make([]string, 0, len(images))
	for id := range images {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	finder := dupefinder.New(h.store, h.store, h.defaults.NumPermutations)
	report, err := finder.FindDuplicates(ctx, ids, dupefinder.Options{
		CatchThreshold:   job.Options.CatchThreshold,
		DisplayThreshold: job.Options.DisplayThreshold,
		NumPermutations:  h.defaults.NumPermutations,
		OnProgress:       job.UpdateProgress,
	})
	if err != nil {
		job.Fail(err)
		return
	}
	job.Complete(report)
}

// Status handles GET /api/v1/dupes/{jobId}.
func (h *DupesHandler) Status(w http.ResponseWriter, r *http.Request) {
	job := h.jobManager.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job.Snapshot())
}

// Cancel handles DELETE /api/v1/dupes/{jobId}.
func (h *DupesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job := h.jobManager.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	job.Cancel()
	respondJSON(w, http.StatusOK, job.Snapshot())
}
