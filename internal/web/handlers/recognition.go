package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

// RecognitionHandler controls the recognition session and feeds its
// sightings into the attendance ledger.
type RecognitionHandler struct {
	deps Deps
}

// NewRecognitionHandler creates a recognition handler.
func NewRecognitionHandler(deps Deps) *RecognitionHandler {
	return &RecognitionHandler{deps: deps}
}

// startRequest is the optional body of POST /recognition/start.
type startRequest struct {
	Threshold  float64 `json:"threshold"`
	IntervalMs int     `json:"interval_ms"`
}

// Start handles POST /recognition/start.
func (h *RecognitionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	threshold := h.deps.Config.Recognition.Threshold
	if req.Threshold > 0 {
		threshold = req.Threshold
	}
	interval := h.deps.Config.Recognition.FrameInterval
	if req.IntervalMs > 0 {
		interval = time.Duration(req.IntervalMs) * time.Millisecond
	}

	session := recognition.Session{
		Gallery:   h.deps.Gallery,
		Threshold: threshold,
		Source:    h.deps.NewSource(),
		Detector:  h.deps.Detector,
		Interval:  interval,
		Downscale: h.deps.Config.Recognition.Downscale,
	}

	events, err := h.deps.Loop.Start(context.Background(), session)
	if errors.Is(err, recognition.ErrAlreadyRunning) {
		respondError(w, http.StatusConflict, "recognition already running")
		return
	}
	if errors.Is(err, camera.ErrDeviceUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "camera unavailable")
		return
	}
	if err != nil {
		log.Printf("starting recognition: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to start recognition")
		return
	}

	go h.consume(events)

	respondJSON(w, http.StatusOK, map[string]any{
		"state":     h.deps.Loop.State().String(),
		"threshold": threshold,
		"gallery":   len(session.Gallery),
	})
}

// consume pumps session events into the ledger and notifier until the
// session ends. Runs once per session.
func (h *RecognitionHandler) consume(events *recognition.Events) {
	// Frames are only produced for live preview consumers; drain them so
	// the loop never blocks.
	go func() {
		for range events.Frames {
		}
	}()

	for s := range events.Sightings {
		recorded, err := h.deps.Ledger.RecordSighting(context.Background(), s.Label, s.At)
		if err != nil {
			log.Printf("recording sighting of %s: %v", sanitizeForLog(s.Label), err)
			continue
		}
		if !recorded {
			continue
		}

		log.Printf("marked %s present (distance %.3f)", sanitizeForLog(s.Label), s.Distance)

		if h.deps.Notifier != nil {
			if err := h.deps.Notifier.PublishSighting(context.Background(), s); err != nil {
				log.Printf("publishing sighting: %v", err)
			}
		}
	}
}

// Stop handles POST /recognition/stop.
func (h *RecognitionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Loop.Stop()
	if errors.Is(err, recognition.ErrNotRunning) {
		respondError(w, http.StatusConflict, "recognition not running")
		return
	}
	if err != nil {
		log.Printf("stopping recognition: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to stop recognition")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"state": h.deps.Loop.State().String()})
}

// Status handles GET /recognition/status.
func (h *RecognitionHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"state":   h.deps.Loop.State().String(),
		"present": h.deps.Ledger.Present(),
	})
}
