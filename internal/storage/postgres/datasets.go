package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-attendance/internal/encoding"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// DatasetStore persists datasets in PostgreSQL. Galleries live in a
// pgvector column, one row per label.
type DatasetStore struct {
	pool *Pool
}

// NewDatasetStore creates a dataset store backed by the given pool.
func NewDatasetStore(pool *Pool) *DatasetStore {
	return &DatasetStore{pool: pool}
}

var _ encoding.Store = (*DatasetStore)(nil)

// Save stores a dataset, replacing any existing dataset of the same name.
func (s *DatasetStore) Save(ctx context.Context, ds encoding.Dataset) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (name, description, created_at, images_processed, source_directory)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			created_at = EXCLUDED.created_at,
			images_processed = EXCLUDED.images_processed,
			source_directory = EXCLUDED.source_directory
	`, ds.Info.Name, ds.Info.Description, ds.Info.CreatedAt, ds.Info.ImagesProcessed, ds.Info.SourceDirectory)
	if err != nil {
		return fmt.Errorf("upsert dataset %q: %w", ds.Info.Name, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM dataset_entries WHERE dataset_name = $1", ds.Info.Name); err != nil {
		return fmt.Errorf("clear dataset entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dataset_entries (dataset_name, label, embedding)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range ds.Gallery {
		if _, err := stmt.ExecContext(ctx, ds.Info.Name, e.Label, pgvector.NewVector(toFloat32(e.Vector))); err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dataset %q: %w", ds.Info.Name, err)
	}
	return nil
}

// Load retrieves a dataset by name, including its full gallery.
func (s *DatasetStore) Load(ctx context.Context, name string) (encoding.Dataset, error) {
	var ds encoding.Dataset

	err := s.pool.QueryRow(ctx, `
		SELECT name, description, created_at, images_processed, source_directory
		FROM datasets WHERE name = $1
	`, name).Scan(&ds.Info.Name, &ds.Info.Description, &ds.Info.CreatedAt, &ds.Info.ImagesProcessed, &ds.Info.SourceDirectory)
	if errors.Is(err, sql.ErrNoRows) {
		return encoding.Dataset{}, fmt.Errorf("%w: %s", encoding.ErrDatasetNotFound, name)
	}
	if err != nil {
		return encoding.Dataset{}, fmt.Errorf("query dataset %q: %w", name, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT label, embedding FROM dataset_entries
		WHERE dataset_name = $1 ORDER BY label
	`, name)
	if err != nil {
		return encoding.Dataset{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var vec pgvector.Vector
		if err := rows.Scan(&label, &vec); err != nil {
			return encoding.Dataset{}, fmt.Errorf("scan dataset entry: %w", err)
		}
		ds.Gallery = append(ds.Gallery, matcher.Entry{Label: label, Vector: toFloat64(vec.Slice())})
	}
	if err := rows.Err(); err != nil {
		return encoding.Dataset{}, fmt.Errorf("iterate dataset entries: %w", err)
	}

	ds.Info.StudentCount = len(ds.Gallery)
	return ds, nil
}

// List returns metadata for all stored datasets, ordered by name.
func (s *DatasetStore) List(ctx context.Context) ([]encoding.Info, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.name, d.description, d.created_at, d.images_processed, d.source_directory,
		       COUNT(e.label)
		FROM datasets d
		LEFT JOIN dataset_entries e ON e.dataset_name = d.name
		GROUP BY d.name
		ORDER BY d.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []encoding.Info
	for rows.Next() {
		var info encoding.Info
		if err := rows.Scan(&info.Name, &info.Description, &info.CreatedAt,
			&info.ImagesProcessed, &info.SourceDirectory, &info.StudentCount); err != nil {
			return nil, fmt.Errorf("scan dataset info: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return infos, nil
}

// Delete removes a dataset and its gallery. Returns false when no
// dataset of that name existed.
func (s *DatasetStore) Delete(ctx context.Context, name string) (bool, error) {
	result, err := s.pool.Exec(ctx, "DELETE FROM datasets WHERE name = $1", name)
	if err != nil {
		return false, fmt.Errorf("delete dataset %q: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete dataset %q: %w", name, err)
	}
	return n > 0, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
