package encoding

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/matcher"
)

func testDataset(name string) Dataset {
	return Dataset{
		Info: Info{
			Name:            name,
			Description:     "test dataset",
			CreatedAt:       "2026-01-15 10:00:00",
			StudentCount:    2,
			ImagesProcessed: 4,
			SourceDirectory: "/photos",
		},
		Gallery: matcher.Gallery{
			{Label: "Alice", Vector: []float64{0.1, 0.2, 0.3}},
			{Label: "Bob", Vector: []float64{0.4, 0.5, 0.6}},
		},
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, testDataset("class-a")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "class-a")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(loaded.Gallery) != 2 {
		t.Fatalf("expected 2 gallery entries, got %d", len(loaded.Gallery))
	}

	for i, e := range testDataset("class-a").Gallery {
		got := loaded.Gallery[i]
		if got.Label != e.Label {
			t.Errorf("entry %d: expected label %s, got %s", i, e.Label, got.Label)
		}
		for j := range e.Vector {
			if math.Abs(got.Vector[j]-e.Vector[j]) > 1e-12 {
				t.Errorf("entry %s: vector mismatch at %d", e.Label, j)
			}
		}
	}

	if loaded.Info.Description != "test dataset" {
		t.Errorf("expected metadata to round-trip, got description '%s'", loaded.Info.Description)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())

	_, err := store.Load(context.Background(), "nope")
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)

	if err := os.MkdirAll(filepath.Join(dir, "bad"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad", galleryFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(context.Background(), "bad")
	if !errors.Is(err, ErrCorruptDataset) {
		t.Errorf("expected ErrCorruptDataset, got %v", err)
	}
}

func TestFileStore_LoadEmptyGalleryIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)

	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "empty", galleryFile), []byte(`{"entries":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(context.Background(), "empty")
	if !errors.Is(err, ErrCorruptDataset) {
		t.Errorf("expected ErrCorruptDataset for empty gallery, got %v", err)
	}
}

func TestFileStore_LoadDimensionMismatchIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)

	if err := os.MkdirAll(filepath.Join(dir, "dims"), 0o755); err != nil {
		t.Fatal(err)
	}
	gallery := `{"entries":[{"label":"a","vector":[1,2]},{"label":"b","vector":[1,2,3]}]}`
	if err := os.WriteFile(filepath.Join(dir, "dims", galleryFile), []byte(gallery), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(context.Background(), "dims")
	if !errors.Is(err, ErrCorruptDataset) {
		t.Errorf("expected ErrCorruptDataset for dimension mismatch, got %v", err)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := store.Save(ctx, testDataset("class-a")); err != nil {
		t.Fatal(err)
	}

	updated := testDataset("class-a")
	updated.Gallery = matcher.Gallery{{Label: "Carol", Vector: []float64{1, 1, 1}}}
	updated.Info.StudentCount = 1
	if err := store.Save(ctx, updated); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx, "class-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Gallery) != 1 || loaded.Gallery[0].Label != "Carol" {
		t.Errorf("expected overwritten gallery, got %v", loaded.Gallery)
	}
}

func TestFileStore_List(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	_ = store.Save(ctx, testDataset("zeta"))
	_ = store.Save(ctx, testDataset("alpha"))

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(infos) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(infos))
	}
	if infos[0].Name != "alpha" || infos[1].Name != "zeta" {
		t.Errorf("expected sorted dataset names, got %v", infos)
	}
}

func TestFileStore_ListSkipsCorruptSidecar(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)
	ctx := context.Background()

	_ = store.Save(ctx, testDataset("good"))

	if err := os.MkdirAll(filepath.Join(dir, "bad"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad", infoFile), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(infos) != 1 || infos[0].Name != "good" {
		t.Errorf("expected only the intact dataset, got %v", infos)
	}
}

func TestFileStore_DeleteIdempotent(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	_ = store.Save(ctx, testDataset("class-a"))

	deleted, err := store.Delete(ctx, "class-a")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !deleted {
		t.Error("expected first delete to report true")
	}

	deleted, err = store.Delete(ctx, "class-a")
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if deleted {
		t.Error("expected second delete to report false")
	}

	if _, err := store.Load(ctx, "class-a"); !errors.Is(err, ErrDatasetNotFound) {
		t.Errorf("expected dataset to be gone, got %v", err)
	}
}
