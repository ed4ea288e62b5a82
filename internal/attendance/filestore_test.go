package attendance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_SaveGetRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()

	rec := NewRecord("2026-08-29", []string{"Alice"}, []string{"Alice", "Bob"})
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, ok, err := store.Get(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected record to exist")
	}

	if got.Date != "2026-08-29" || got.PresentCount != 1 || got.TotalStudents != 2 {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Percentage != 50.0 {
		t.Errorf("expected percentage 50.0, got %f", got.Percentage)
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())

	_, ok, err := store.Get(context.Background(), "1999-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for a missing record")
	}
}

func TestFileStore_GetCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)

	path := filepath.Join(dir, "attendance_2026-08-29.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := store.Get(context.Background(), "2026-08-29")
	if !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestFileStore_DeleteIdempotent(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	_ = store.Save(ctx, NewRecord("2026-08-29", nil, nil))

	if err := store.Delete(ctx, "2026-08-29"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(ctx, "2026-08-29"); err != nil {
		t.Errorf("expected deleting a missing record to succeed, got %v", err)
	}
}

func TestFileStore_ListSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)
	ctx := context.Background()

	_ = store.Save(ctx, NewRecord("2026-08-28", []string{"A"}, []string{"A"}))
	if err := os.WriteFile(filepath.Join(dir, "attendance_2026-08-29.json"), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(records) != 1 || records[0].Date != "2026-08-28" {
		t.Errorf("expected only the intact record, got %+v", records)
	}
}
