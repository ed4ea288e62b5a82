package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/encoding"
	"github.com/kozaktomas/face-attendance/internal/extractor"
)

// fakeDetector reports one face per image regardless of content.
type fakeDetector struct{}

func (fakeDetector) DetectFaces(_ context.Context, _ []byte) ([]extractor.Face, error) {
	return []extractor.Face{{Embedding: []float64{0.5, 0.5}, BBox: []float64{0, 0, 10, 10}, Score: 0.9}}, nil
}

func datasetsRouter(h *DatasetsHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/datasets", h.List)
	r.Post("/datasets", h.Build)
	r.Get("/datasets/jobs/{jobId}", h.BuildStatus)
	r.Get("/datasets/{name}", h.Get)
	r.Delete("/datasets/{name}", h.Delete)
	return r
}

func TestDatasetsHandler_ListEmpty(t *testing.T) {
	h := NewDatasetsHandler(newTestDatasetStore(t), nil, NewJobManager())

	rec := httptest.NewRecorder()
	datasetsRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/datasets", nil))

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Datasets []encoding.Info `json:"datasets"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Datasets) != 0 {
		t.Errorf("expected no datasets, got %d", len(resp.Datasets))
	}
}

func TestDatasetsHandler_GetAndDelete(t *testing.T) {
	store := newTestDatasetStore(t)
	if err := store.Save(context.Background(), testDataset("fall2026")); err != nil {
		t.Fatalf("failed to seed dataset: %v", err)
	}

	h := NewDatasetsHandler(store, nil, NewJobManager())
	router := datasetsRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/datasets/fall2026", nil))
	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Info     encoding.Info `json:"info"`
		Students []string      `json:"students"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.Info.Name != "fall2026" {
		t.Errorf("expected dataset name fall2026, got %q", resp.Info.Name)
	}
	if len(resp.Students) != 2 {
		t.Errorf("expected 2 students, got %v", resp.Students)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/datasets/fall2026", nil))
	assertStatusCode(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/datasets/fall2026", nil))
	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestDatasetsHandler_DeleteMissing(t *testing.T) {
	h := NewDatasetsHandler(newTestDatasetStore(t), nil, NewJobManager())

	rec := httptest.NewRecorder()
	datasetsRouter(h).ServeHTTP(rec, httptest.NewRequest("DELETE", "/datasets/nope", nil))
	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestDatasetsHandler_BuildValidation(t *testing.T) {
	h := NewDatasetsHandler(newTestDatasetStore(t), encoding.NewBuilder(fakeDetector{}), NewJobManager())
	router := datasetsRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/datasets", strings.NewReader("not json")))
	assertStatusCode(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/datasets", strings.NewReader(`{"name":"x"}`)))
	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestDatasetsHandler_BuildFlow(t *testing.T) {
	srcDir := t.TempDir()
	for _, name := range []string{"Alice_1.jpg", "Alice_2.jpg", "Bob_1.jpg"} {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte("img"), 0o644); err != nil {
			t.Fatalf("failed to write image: %v", err)
		}
	}

	store := newTestDatasetStore(t)
	h := NewDatasetsHandler(store, encoding.NewBuilder(fakeDetector{}), NewJobManager())
	router := datasetsRouter(h)

	body := `{"name":"class","description":"test","source_dir":"` + srcDir + `"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/datasets", strings.NewReader(body)))
	assertStatusCode(t, rec, http.StatusAccepted)

	var accepted struct {
		JobID string `json:"job_id"`
	}
	parseJSONResponse(t, rec, &accepted)
	if accepted.JobID == "" {
		t.Fatal("expected a job ID")
	}

	var job BuildJob
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/datasets/jobs/"+accepted.JobID, nil))
		assertStatusCode(t, rec, http.StatusOK)
		parseJSONResponse(t, rec, &job)

		if job.Status == JobStatusCompleted || job.Status == JobStatusFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("build job did not finish, status %s", job.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if job.Status != JobStatusCompleted {
		t.Fatalf("expected completed job, got %s (%s)", job.Status, job.Error)
	}
	if job.Report == nil || job.Report.Processed != 3 {
		t.Errorf("expected 3 processed images, got %+v", job.Report)
	}

	ds, err := store.Load(context.Background(), "class")
	if err != nil {
		t.Fatalf("built dataset not stored: %v", err)
	}
	if len(ds.Gallery) != 2 {
		t.Errorf("expected 2 gallery entries (Alice, Bob), got %d", len(ds.Gallery))
	}
}

func TestDatasetsHandler_BuildStatusUnknownJob(t *testing.T) {
	h := NewDatasetsHandler(newTestDatasetStore(t), nil, NewJobManager())

	rec := httptest.NewRecorder()
	datasetsRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/datasets/jobs/nope", nil))
	assertStatusCode(t, rec, http.StatusNotFound)
}
