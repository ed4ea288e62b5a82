package attendance

import (
	"context"
	"testing"
	"time"
)

func newTestLedger(t *testing.T, roster []string) *Ledger {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ledger, err := NewLedger(context.Background(), store, roster, 30*time.Second)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	return ledger
}

func TestRecordSighting_DedupWindow(t *testing.T) {
	ledger := newTestLedger(t, []string{"Bob", "Alice"})
	ctx := context.Background()
	t0 := time.Now()

	recorded, err := ledger.RecordSighting(ctx, "Bob", t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !recorded {
		t.Error("expected first sighting to be recorded")
	}

	// Within the window: ignored, no state change.
	recorded, err = ledger.RecordSighting(ctx, "Bob", t0.Add(5*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorded {
		t.Error("expected sighting within dedup window to be ignored")
	}

	// Past the window: accepted, presence unchanged (already present).
	recorded, err = ledger.RecordSighting(ctx, "Bob", t0.Add(31*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !recorded {
		t.Error("expected sighting past the window to refresh the timestamp")
	}

	rec, ok, err := ledger.GetRecord(ctx, t0)
	if err != nil || !ok {
		t.Fatalf("expected a persisted record, ok=%v err=%v", ok, err)
	}
	if rec.PresentCount != 1 {
		t.Errorf("expected Bob present exactly once, got count %d", rec.PresentCount)
	}
}

func TestRecordSighting_PersistsFullState(t *testing.T) {
	ledger := newTestLedger(t, []string{"A", "B", "C"})
	ctx := context.Background()
	now := time.Now()

	if _, err := ledger.RecordSighting(ctx, "A", now); err != nil {
		t.Fatal(err)
	}

	rec, ok, err := ledger.GetRecord(ctx, now)
	if err != nil || !ok {
		t.Fatalf("expected record, ok=%v err=%v", ok, err)
	}

	if len(rec.AbsentStudents) != 2 || rec.AbsentStudents[0] != "B" || rec.AbsentStudents[1] != "C" {
		t.Errorf("expected absent [B C], got %v", rec.AbsentStudents)
	}
	if rec.Percentage != 33.3 {
		t.Errorf("expected percentage 33.3, got %f", rec.Percentage)
	}
}

func TestNewRecord_EmptyRoster(t *testing.T) {
	rec := NewRecord("2026-08-30", nil, nil)

	if rec.Percentage != 0 {
		t.Errorf("expected percentage 0 for empty roster, got %f", rec.Percentage)
	}
	if rec.TotalStudents != 0 || rec.PresentCount != 0 {
		t.Errorf("expected zero counts, got %+v", rec)
	}
}

func TestClear_RemovesRecordAndTodayState(t *testing.T) {
	ledger := newTestLedger(t, []string{"A"})
	ctx := context.Background()
	now := time.Now()

	if _, err := ledger.RecordSighting(ctx, "A", now); err != nil {
		t.Fatal(err)
	}

	if err := ledger.Clear(ctx, now); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if _, ok, _ := ledger.GetRecord(ctx, now); ok {
		t.Error("expected record to be absent after clear")
	}

	if len(ledger.Present()) != 0 {
		t.Error("expected in-memory presence to be cleared for today")
	}

	// Idempotent.
	if err := ledger.Clear(ctx, now); err != nil {
		t.Errorf("expected second clear to succeed, got %v", err)
	}
}

func TestDayRollover_ResetsPresence(t *testing.T) {
	ledger := newTestLedger(t, []string{"A"})
	ctx := context.Background()

	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	if _, err := ledger.RecordSighting(ctx, "A", day1); err != nil {
		t.Fatal(err)
	}

	recorded, err := ledger.RecordSighting(ctx, "A", day2)
	if err != nil {
		t.Fatal(err)
	}
	if !recorded {
		t.Error("expected sighting on a new day to be recorded fresh")
	}

	rec, ok, _ := ledger.GetRecord(ctx, day2)
	if !ok {
		t.Fatal("expected a record for the second day")
	}
	if rec.PresentCount != 1 {
		t.Errorf("expected present count 1 on day two, got %d", rec.PresentCount)
	}
}

func TestNewLedger_RestoresTodaysPresence(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)
	ctx := context.Background()
	now := time.Now()

	first, err := NewLedger(ctx, store, []string{"A", "B"}, 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.RecordSighting(ctx, "A", now); err != nil {
		t.Fatal(err)
	}

	// Process restart.
	second, err := NewLedger(ctx, store, []string{"A", "B"}, 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	present := second.Present()
	if len(present) != 1 || present[0] != "A" {
		t.Errorf("expected restored presence [A], got %v", present)
	}
}

func TestQueryPerson_RangeAndNormalization(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	_ = store.Save(ctx, NewRecord("2026-03-01", []string{"Jan Novák"}, []string{"Jan Novák", "Eva"}))
	_ = store.Save(ctx, NewRecord("2026-03-02", []string{"Eva"}, []string{"Jan Novák", "Eva"}))
	_ = store.Save(ctx, NewRecord("2026-03-03", []string{"Jan Novák"}, []string{"Jan Novák", "Eva"}))

	ledger, _ := NewLedger(ctx, store, []string{"Jan Novák", "Eva"}, 30*time.Second)

	stats, ok, err := ledger.QueryPerson(ctx, "jan novak", nil, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !ok {
		t.Fatal("expected stats for jan novak")
	}

	if stats.TotalDays != 3 || stats.DaysPresent != 2 || stats.DaysAbsent != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Percentage != 66.7 {
		t.Errorf("expected 66.7 percent, got %f", stats.Percentage)
	}

	// Restrict the range to one day.
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	stats, ok, err = ledger.QueryPerson(ctx, "Jan Novák", &from, &to)
	if err != nil || !ok {
		t.Fatalf("ranged query failed, ok=%v err=%v", ok, err)
	}
	if stats.TotalDays != 1 || stats.DaysPresent != 0 {
		t.Errorf("unexpected ranged stats: %+v", stats)
	}
}

func TestQueryPerson_NoRecordsInRange(t *testing.T) {
	ledger := newTestLedger(t, []string{"A"})

	_, ok, err := ledger.QueryPerson(context.Background(), "A", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false with no records")
	}
}

func TestTrend_FiltersByPeriod(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	recent := DateKey(time.Now().AddDate(0, 0, -1))
	old := DateKey(time.Now().AddDate(0, 0, -8))
	_ = store.Save(ctx, NewRecord(recent, []string{"A"}, []string{"A", "B"}))
	_ = store.Save(ctx, NewRecord(old, []string{"A", "B"}, []string{"A", "B"}))

	ledger, _ := NewLedger(ctx, store, []string{"A", "B"}, 30*time.Second)

	points, err := ledger.Trend(ctx, 7)
	if err != nil {
		t.Fatalf("trend failed: %v", err)
	}

	if len(points) != 1 {
		t.Fatalf("expected only the recent record in a week trend, got %d", len(points))
	}
	if points[0].Date != recent || points[0].PresentCount != 1 {
		t.Errorf("unexpected trend point: %+v", points[0])
	}
}

func TestTrend_OrderedAscending(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	d1 := DateKey(time.Now().AddDate(0, 0, -3))
	d2 := DateKey(time.Now().AddDate(0, 0, -1))
	_ = store.Save(ctx, NewRecord(d2, []string{"A"}, []string{"A"}))
	_ = store.Save(ctx, NewRecord(d1, []string{"A"}, []string{"A"}))

	ledger, _ := NewLedger(ctx, store, []string{"A"}, 30*time.Second)

	points, err := ledger.Trend(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}

	if len(points) != 2 || points[0].Date != d1 || points[1].Date != d2 {
		t.Errorf("expected ascending dates, got %+v", points)
	}
}

func TestDistribution(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	d := DateKey(time.Now().AddDate(0, 0, -2))
	_ = store.Save(ctx, NewRecord(d, []string{"A"}, []string{"A", "B"}))

	ledger, _ := NewLedger(ctx, store, []string{"A", "B"}, 30*time.Second)

	percentages, err := ledger.Distribution(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}

	if len(percentages) != 1 || percentages[0] != 50.0 {
		t.Errorf("expected [50.0], got %v", percentages)
	}
}
