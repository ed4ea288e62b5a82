package encoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

const (
	galleryFile = "gallery.json"
	infoFile    = "info.json"
)

// FileStore keeps each dataset as a directory under the datasets root:
// <root>/<name>/gallery.json plus an info.json sidecar.
type FileStore struct {
	root string
}

// NewFileStore creates a file-based dataset store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create datasets directory: %w", err)
	}
	return &FileStore{root: dir}, nil
}

type storedGallery struct {
	Entries []storedEntry `json:"entries"`
}

type storedEntry struct {
	Label  string    `json:"label"`
	Vector []float64 `json:"vector"`
}

// Save persists the dataset, overwriting any previous dataset of the same
// name. Both files are written to temp files and renamed into place so a
// crash never leaves a partial gallery observable by Load.
func (s *FileStore) Save(_ context.Context, ds Dataset) error {
	dir := filepath.Join(s.root, ds.Info.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	gallery := storedGallery{Entries: make([]storedEntry, 0, len(ds.Gallery))}
	for _, e := range ds.Gallery {
		gallery.Entries = append(gallery.Entries, storedEntry{Label: e.Label, Vector: e.Vector})
	}

	if err := writeJSONAtomic(filepath.Join(dir, galleryFile), gallery); err != nil {
		return fmt.Errorf("failed to save gallery for dataset %q: %w", ds.Info.Name, err)
	}
	if err := writeJSONAtomic(filepath.Join(dir, infoFile), ds.Info); err != nil {
		return fmt.Errorf("failed to save metadata for dataset %q: %w", ds.Info.Name, err)
	}
	return nil
}

// Load reads a previously saved dataset.
func (s *FileStore) Load(_ context.Context, name string) (Dataset, error) {
	dir := filepath.Join(s.root, name)

	galleryData, err := os.ReadFile(filepath.Join(dir, galleryFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Dataset{}, fmt.Errorf("dataset %q: %w", name, ErrDatasetNotFound)
		}
		return Dataset{}, fmt.Errorf("failed to read gallery for dataset %q: %w", name, err)
	}

	var gallery storedGallery
	if err := json.Unmarshal(galleryData, &gallery); err != nil {
		return Dataset{}, fmt.Errorf("dataset %q: %w: %v", name, ErrCorruptDataset, err)
	}
	if err := validateGallery(gallery); err != nil {
		return Dataset{}, fmt.Errorf("dataset %q: %w: %v", name, ErrCorruptDataset, err)
	}

	ds := Dataset{Info: Info{Name: name}}
	for _, e := range gallery.Entries {
		ds.Gallery = append(ds.Gallery, toMatcherEntry(e))
	}

	infoData, err := os.ReadFile(filepath.Join(dir, infoFile))
	if err == nil {
		if err := json.Unmarshal(infoData, &ds.Info); err != nil {
			return Dataset{}, fmt.Errorf("dataset %q: %w: bad info sidecar: %v", name, ErrCorruptDataset, err)
		}
	}

	return ds, nil
}

// List enumerates dataset metadata from the info sidecars without loading
// galleries. A dataset with a corrupt sidecar is skipped and logged;
// the others are still listed.
func (s *FileStore) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read datasets directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.root, entry.Name(), infoFile))
		if err != nil {
			continue // no sidecar, not a dataset
		}

		var info Info
		if err := json.Unmarshal(data, &info); err != nil {
			log.Printf("skipping dataset %q: corrupt info sidecar: %v", entry.Name(), err)
			continue
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a dataset irrecoverably. Returns false when the dataset
// does not exist; deletion is idempotent from the caller's perspective.
func (s *FileStore) Delete(_ context.Context, name string) (bool, error) {
	dir := filepath.Join(s.root, name)

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("failed to delete dataset %q: %w", name, err)
	}
	return true, nil
}

func validateGallery(g storedGallery) error {
	if len(g.Entries) == 0 {
		return errors.New("gallery has no entries")
	}

	dim := len(g.Entries[0].Vector)
	seen := make(map[string]bool, len(g.Entries))
	for _, e := range g.Entries {
		if e.Label == "" {
			return errors.New("entry with empty label")
		}
		if seen[e.Label] {
			return fmt.Errorf("duplicate label %q", e.Label)
		}
		seen[e.Label] = true
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %q has no vector", e.Label)
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("entry %q has dimension %d, expected %d", e.Label, len(e.Vector), dim)
		}
	}
	return nil
}

// writeJSONAtomic marshals v and writes it via a temp file and rename.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
