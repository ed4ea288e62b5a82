package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
)

// AttendanceHandler serves attendance records and statistics.
type AttendanceHandler struct {
	ledger *attendance.Ledger
	cfg    *config.Config
}

// NewAttendanceHandler creates an attendance handler.
func NewAttendanceHandler(ledger *attendance.Ledger, cfg *config.Config) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger, cfg: cfg}
}

// Today handles GET /attendance/today.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	h.respondRecord(w, r, time.Now())
}

// ByDate handles GET /attendance/{date}.
func (h *AttendanceHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(attendance.DateLayout, chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	h.respondRecord(w, r, date)
}

func (h *AttendanceHandler) respondRecord(w http.ResponseWriter, r *http.Request, date time.Time) {
	rec, found, err := h.ledger.GetRecord(r.Context(), date)
	if err != nil {
		log.Printf("loading attendance record: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load attendance record")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no attendance record for that date")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// Clear handles DELETE /attendance/{date}.
func (h *AttendanceHandler) Clear(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(attendance.DateLayout, chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	if err := h.ledger.Clear(r.Context(), date); err != nil {
		log.Printf("clearing attendance record: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to clear attendance record")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"cleared": attendance.DateKey(date)})
}

// Student handles GET /attendance/students/{label}. The range is either
// a named period (?period=week|month|semester) or explicit ?from= and
// ?to= dates.
func (h *AttendanceHandler) Student(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")

	var from, to *time.Time
	if period := r.URL.Query().Get("period"); period != "" {
		days, ok := h.cfg.Periods.Periods[period]
		if !ok {
			respondError(w, http.StatusBadRequest, "unknown period")
			return
		}
		t := time.Now().AddDate(0, 0, -days)
		from = &t
	} else {
		var err error
		if from, err = parseDateParam(r, "from"); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if to, err = parseDateParam(r, "to"); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	stats, found, err := h.ledger.QueryPerson(r.Context(), label, from, to)
	if err != nil {
		log.Printf("querying attendance for %s: %v", sanitizeForLog(label), err)
		respondError(w, http.StatusInternalServerError, "failed to query attendance")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no attendance records for that student")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Trend handles GET /attendance/trend?days=N.
func (h *AttendanceHandler) Trend(w http.ResponseWriter, r *http.Request) {
	points, err := h.ledger.Trend(r.Context(), h.queryDays(r, 7))
	if err != nil {
		log.Printf("computing attendance trend: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to compute trend")
		return
	}
	if points == nil {
		points = []attendance.TrendPoint{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"trend": points})
}

// Distribution handles GET /attendance/distribution?days=N.
func (h *AttendanceHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	percentages, err := h.ledger.Distribution(r.Context(), h.queryDays(r, 30))
	if err != nil {
		log.Printf("computing attendance distribution: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to compute distribution")
		return
	}
	if percentages == nil {
		percentages = []float64{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"percentages": percentages})
}

// queryDays resolves the day span from either ?period=<name> or ?days=N.
func (h *AttendanceHandler) queryDays(r *http.Request, fallback int) int {
	if period := r.URL.Query().Get("period"); period != "" {
		if days, ok := h.cfg.Periods.Periods[period]; ok {
			return days
		}
	}
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(attendance.DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date, expected YYYY-MM-DD", name)
	}
	return &t, nil
}
