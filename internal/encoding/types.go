// Package encoding owns per-dataset galleries of face embeddings: building
// them from directories of labeled images, persisting them, and loading
// them back for matching.
package encoding

import (
	"context"
	"errors"
	"time"

	"github.com/kozaktomas/face-attendance/internal/matcher"
)

var (
	// ErrDatasetNotFound is returned when loading a dataset that does not exist
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrCorruptDataset is returned when a stored dataset cannot be decoded
	ErrCorruptDataset = errors.New("dataset is corrupt")
)

// CreatedAtFormat is the timestamp layout used in dataset metadata.
const CreatedAtFormat = "2006-01-02 15:04:05"

// Dataset is a named gallery plus its metadata. One dataset at a time is
// loaded as the active gallery for recognition.
type Dataset struct {
	Info    Info
	Gallery matcher.Gallery
}

// Info is the lightweight dataset metadata kept in a sidecar record so
// datasets can be listed without loading full galleries.
type Info struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	CreatedAt       string `json:"created_date"`
	StudentCount    int    `json:"student_count"`
	ImagesProcessed int    `json:"images_processed"`
	SourceDirectory string `json:"source_directory"`
}

// BuildReport aggregates per-image outcomes of a dataset build. Individual
// image failures never abort a build; they end up here.
type BuildReport struct {
	Processed int      // images that contributed an embedding
	Skipped   int      // images with no detectable face
	Failures  []string // per-image failure descriptions
}

// Store persists and loads datasets.
type Store interface {
	Save(ctx context.Context, ds Dataset) error
	Load(ctx context.Context, name string) (Dataset, error)
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, name string) (bool, error)
}

func now() string {
	return time.Now().Format(CreatedAtFormat)
}

func toMatcherEntry(e storedEntry) matcher.Entry {
	return matcher.Entry{Label: e.Label, Vector: e.Vector}
}
