package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	recordPrefix = "attendance_"
	recordSuffix = ".json"
)

// RecordStore persists daily attendance records keyed by ISO date.
type RecordStore interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, dateKey string) (Record, bool, error)
	Delete(ctx context.Context, dateKey string) error
	List(ctx context.Context) ([]Record, error)
}

// FileStore keeps one attendance_YYYY-MM-DD.json file per calendar date.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based record store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(dateKey string) string {
	return filepath.Join(s.dir, recordPrefix+dateKey+recordSuffix)
}

// Save writes the full current-day state for the record's date, replacing
// any previous file. Write-then-rename keeps partial files unobservable.
func (s *FileStore) Save(_ context.Context, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal record for %s: %w", rec.Date, err)
	}

	tmp, err := os.CreateTemp(s.dir, recordPrefix+rec.Date+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write record for %s: %w", rec.Date, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(rec.Date)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to persist record for %s: %w", rec.Date, err)
	}
	return nil
}

// Get reads the record for one date. ok is false when no record exists.
func (s *FileStore) Get(_ context.Context, dateKey string) (Record, bool, error) {
	data, err := os.ReadFile(s.path(dateKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("failed to read record for %s: %w", dateKey, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("record for %s: %w: %v", dateKey, ErrCorruptRecord, err)
	}
	return rec, true, nil
}

// Delete removes the record for one date. Deleting a missing record is
// not an error.
func (s *FileStore) Delete(_ context.Context, dateKey string) error {
	err := os.Remove(s.path(dateKey))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete record for %s: %w", dateKey, err)
	}
	return nil
}

// List returns all persisted records ordered by date ascending. Corrupt
// record files are skipped and logged; intact dates still load.
func (s *FileStore) List(_ context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read records directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, recordSuffix) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			log.Printf("skipping attendance record %s: %v", name, err)
			continue
		}

		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			log.Printf("skipping corrupt attendance record %s: %v", name, err)
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records, nil
}
