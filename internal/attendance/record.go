// Package attendance maintains the daily attendance ledger: deduplicated
// check-ins, persisted per-day records, and historical queries.
package attendance

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrCorruptRecord is returned when a persisted daily record cannot be
// decoded. That single date is unusable; other dates are unaffected.
var ErrCorruptRecord = errors.New("attendance record is corrupt")

// DateLayout is the ISO date key used for daily records.
const DateLayout = "2006-01-02"

// DateKey returns the record key for a point in time.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Record is the attendance state of one calendar date.
type Record struct {
	Date            string   `json:"date"`
	PresentStudents []string `json:"present_students"`
	AllStudents     []string `json:"all_students"`
	AbsentStudents  []string `json:"absent_students"`
	TotalStudents   int      `json:"total_students"`
	PresentCount    int      `json:"present_count"`
	Percentage      float64  `json:"attendance_percentage"`
}

// NewRecord derives a full record from the present set and the roster.
// Absent students, counts and the percentage are computed, the percentage
// rounded to one decimal. An empty roster yields 0, not a division fault.
func NewRecord(date string, present, all []string) Record {
	presentSet := make(map[string]bool, len(present))
	for _, s := range present {
		presentSet[s] = true
	}

	var absent []string
	for _, s := range all {
		if !presentSet[s] {
			absent = append(absent, s)
		}
	}

	presentSorted := append([]string(nil), present...)
	sort.Strings(presentSorted)
	allSorted := append([]string(nil), all...)
	sort.Strings(allSorted)
	sort.Strings(absent)

	pct := 0.0
	if len(all) > 0 {
		pct = round1(float64(len(present)) / float64(len(all)) * 100)
	}

	return Record{
		Date:            date,
		PresentStudents: presentSorted,
		AllStudents:     allSorted,
		AbsentStudents:  absent,
		TotalStudents:   len(all),
		PresentCount:    len(present),
		Percentage:      pct,
	}
}

// round1 rounds to one decimal place, the precision persisted records use.
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// TrendPoint is one day in an attendance trend series.
type TrendPoint struct {
	Date         string `json:"date"`
	PresentCount int    `json:"present_count"`
}

// DayPresence is one day in a student's attendance history.
type DayPresence struct {
	Date    string `json:"date"`
	Present bool   `json:"present"`
}

// PersonStats summarizes one student's attendance over a date range.
type PersonStats struct {
	TotalDays   int           `json:"total_days"`
	DaysPresent int           `json:"days_present"`
	DaysAbsent  int           `json:"days_absent"`
	Percentage  float64       `json:"attendance_percentage"`
	History     []DayPresence `json:"attendance_history"`
}
