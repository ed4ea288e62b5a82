package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/names"
)

// Ledger consumes identity sightings and maintains daily attendance.
// All methods are safe for concurrent use; sightings are processed one
// at a time so the dedup check and the persistence write stay atomic
// with respect to each other.
type Ledger struct {
	mu          sync.Mutex
	store       RecordStore
	allStudents []string
	window      time.Duration

	// presence maps label -> last recorded check-in for the current day.
	// Rebuilt from the persisted record at start, reset on day rollover.
	presence map[string]time.Time
	day      string
}

// NewLedger creates a ledger over the given record store. allStudents is
// the roster of the loaded dataset; window is the dedup window. Today's
// presence set is rebuilt from the persisted record if one exists.
func NewLedger(ctx context.Context, store RecordStore, allStudents []string, window time.Duration) (*Ledger, error) {
	l := &Ledger{
		store:       store,
		allStudents: append([]string(nil), allStudents...),
		window:      window,
		presence:    make(map[string]time.Time),
		day:         DateKey(time.Now()),
	}

	rec, ok, err := store.Get(ctx, l.day)
	if err != nil {
		return nil, fmt.Errorf("failed to restore today's attendance: %w", err)
	}
	if ok {
		for _, label := range rec.PresentStudents {
			// Last-seen times are not persisted; the zero time keeps the
			// dedup window from suppressing the first sighting after restart.
			l.presence[label] = time.Time{}
		}
	}

	return l, nil
}

// RecordSighting applies one identity sighting. A repeat sighting of a
// person already present today within the dedup window is ignored with
// no state change and no write. Returns true when the sighting was
// recorded (and the daily record persisted).
func (l *Ledger) RecordSighting(ctx context.Context, label string, ts time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollover(ts)

	last, present := l.presence[label]
	if present && ts.Sub(last) < l.window {
		return false, nil
	}

	l.presence[label] = ts
	rec := NewRecord(l.day, l.presentLocked(), l.allStudents)
	if err := l.store.Save(ctx, rec); err != nil {
		return false, fmt.Errorf("failed to persist attendance for %s: %w", l.day, err)
	}
	return true, nil
}

// rollover resets in-memory presence when the calendar date changes.
func (l *Ledger) rollover(ts time.Time) {
	key := DateKey(ts)
	if key != l.day {
		l.day = key
		l.presence = make(map[string]time.Time)
	}
}

func (l *Ledger) presentLocked() []string {
	present := make([]string, 0, len(l.presence))
	for label := range l.presence {
		present = append(present, label)
	}
	sort.Strings(present)
	return present
}

// Present returns the labels currently marked present today.
func (l *Ledger) Present() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.presentLocked()
}

// GetRecord returns the persisted record for a date, ok=false when absent.
func (l *Ledger) GetRecord(ctx context.Context, date time.Time) (Record, bool, error) {
	return l.store.Get(ctx, DateKey(date))
}

// Clear deletes the persisted record for a date. When the date is today,
// the in-memory presence state is cleared as well. Idempotent.
func (l *Ledger) Clear(ctx context.Context, date time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := DateKey(date)
	if err := l.store.Delete(ctx, key); err != nil {
		return err
	}

	if key == l.day {
		l.presence = make(map[string]time.Time)
	}
	return nil
}

// QueryPerson computes a student's presence statistics over an optional
// date range. Label comparison is normalization-insensitive. ok is false
// when no records fall in range.
func (l *Ledger) QueryPerson(ctx context.Context, label string, from, to *time.Time) (PersonStats, bool, error) {
	records, err := l.store.List(ctx)
	if err != nil {
		return PersonStats{}, false, err
	}

	want := names.Normalize(label)
	var stats PersonStats

	for _, rec := range records {
		date, err := time.Parse(DateLayout, rec.Date)
		if err != nil {
			continue
		}
		if from != nil && date.Before(*from) {
			continue
		}
		if to != nil && date.After(*to) {
			continue
		}

		present := false
		for _, s := range rec.PresentStudents {
			if names.Normalize(s) == want {
				present = true
				break
			}
		}

		stats.TotalDays++
		if present {
			stats.DaysPresent++
		} else {
			stats.DaysAbsent++
		}
		stats.History = append(stats.History, DayPresence{Date: rec.Date, Present: present})
	}

	if stats.TotalDays == 0 {
		return PersonStats{}, false, nil
	}

	stats.Percentage = round1(float64(stats.DaysPresent) / float64(stats.TotalDays) * 100)
	return stats, true, nil
}

// Trend returns (date, present count) points for records within the last
// lastNDays days, ordered by date ascending.
func (l *Ledger) Trend(ctx context.Context, lastNDays int) ([]TrendPoint, error) {
	records, err := l.recentRecords(ctx, lastNDays)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, TrendPoint{Date: rec.Date, PresentCount: rec.PresentCount})
	}
	return points, nil
}

// Distribution returns the daily attendance percentages within the last
// lastNDays days, ordered by date ascending. Chart collaborators bin
// these; the ledger only supplies the data.
func (l *Ledger) Distribution(ctx context.Context, lastNDays int) ([]float64, error) {
	records, err := l.recentRecords(ctx, lastNDays)
	if err != nil {
		return nil, err
	}

	percentages := make([]float64, 0, len(records))
	for _, rec := range records {
		percentages = append(percentages, rec.Percentage)
	}
	return percentages, nil
}

func (l *Ledger) recentRecords(ctx context.Context, lastNDays int) ([]Record, error) {
	records, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	filtered := records[:0]
	for _, rec := range records {
		date, err := time.Parse(DateLayout, rec.Date)
		if err != nil {
			continue
		}
		if lastNDays > 0 && now.Sub(date) > time.Duration(lastNDays)*24*time.Hour {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered, nil
}
