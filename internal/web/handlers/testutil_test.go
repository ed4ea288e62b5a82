package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/encoding"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

func assertStatusCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d (body: %s)", want, rec.Code, rec.Body.String())
	}
}

func parseJSONResponse(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v (body: %s)", err, rec.Body.String())
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Recognition: config.RecognitionConfig{
			Threshold:     0.45,
			DedupWindow:   30 * time.Second,
			FrameInterval: time.Millisecond,
			Downscale:     0.5,
		},
		Periods: config.PeriodsConfig{
			Periods: map[string]int{"week": 7, "month": 30, "semester": 180},
		},
	}
}

func newTestLedger(t *testing.T, roster []string) *attendance.Ledger {
	t.Helper()
	store, err := attendance.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create record store: %v", err)
	}
	ledger, err := attendance.NewLedger(context.Background(), store, roster, 30*time.Second)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	return ledger
}

func newTestDatasetStore(t *testing.T) *encoding.FileStore {
	t.Helper()
	store, err := encoding.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create dataset store: %v", err)
	}
	return store
}

func testDataset(name string) encoding.Dataset {
	return encoding.Dataset{
		Info: encoding.Info{
			Name:         name,
			CreatedAt:    "2026-08-30 08:00:00",
			StudentCount: 2,
		},
		Gallery: matcher.Gallery{
			{Label: "Alice", Vector: []float64{1, 0}},
			{Label: "Bob", Vector: []float64{0, 1}},
		},
	}
}
