package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/encoding"
)

// DatasetsHandler serves dataset CRUD plus async dataset builds.
type DatasetsHandler struct {
	store   encoding.Store
	builder *encoding.Builder
	jobs    *JobManager
}

// NewDatasetsHandler creates a datasets handler.
func NewDatasetsHandler(store encoding.Store, builder *encoding.Builder, jobs *JobManager) *DatasetsHandler {
	return &DatasetsHandler{store: store, builder: builder, jobs: jobs}
}

// List handles GET /datasets.
func (h *DatasetsHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.List(r.Context())
	if err != nil {
		log.Printf("listing datasets: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list datasets")
		return
	}
	if infos == nil {
		infos = []encoding.Info{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"datasets": infos})
}

// Get handles GET /datasets/{name}. Returns metadata plus the roster,
// not the raw embedding vectors.
func (h *DatasetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	ds, err := h.store.Load(r.Context(), name)
	if errors.Is(err, encoding.ErrDatasetNotFound) {
		respondError(w, http.StatusNotFound, "dataset not found")
		return
	}
	if err != nil {
		log.Printf("loading dataset %s: %v", sanitizeForLog(name), err)
		respondError(w, http.StatusInternalServerError, "failed to load dataset")
		return
	}

	students := make([]string, 0, len(ds.Gallery))
	for _, e := range ds.Gallery {
		students = append(students, e.Label)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"info":     ds.Info,
		"students": students,
	})
}

// Delete handles DELETE /datasets/{name}.
func (h *DatasetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	existed, err := h.store.Delete(r.Context(), name)
	if err != nil {
		log.Printf("deleting dataset %s: %v", sanitizeForLog(name), err)
		respondError(w, http.StatusInternalServerError, "failed to delete dataset")
		return
	}
	if !existed {
		respondError(w, http.StatusNotFound, "dataset not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

// buildRequest is the body of POST /datasets.
type buildRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SourceDir   string `json:"source_dir"`
}

// Build handles POST /datasets. The build runs in the background; the
// response carries a job ID to poll via BuildStatus.
func (h *DatasetsHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" || req.SourceDir == "" {
		respondError(w, http.StatusBadRequest, "name and source_dir are required")
		return
	}

	job := h.jobs.CreateJob(uuid.New().String(), req.Name)

	go func() {
		job.SetRunning()

		// Detached from the request context: the build outlives the request.
		ds, report, err := h.builder.Build(context.Background(), req.SourceDir, encoding.BuildOptions{
			Name:        req.Name,
			Description: req.Description,
			Progress:    job.SetProgress,
		})
		if err != nil {
			log.Printf("dataset build %s failed: %v", job.ID, err)
			job.Fail(err)
			return
		}

		if err := h.store.Save(context.Background(), ds); err != nil {
			log.Printf("dataset build %s: save failed: %v", job.ID, err)
			job.Fail(err)
			return
		}

		job.Complete(report)
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// BuildStatus handles GET /datasets/jobs/{jobId}.
func (h *DatasetsHandler) BuildStatus(w http.ResponseWriter, r *http.Request) {
	job := h.jobs.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job.Snapshot())
}
