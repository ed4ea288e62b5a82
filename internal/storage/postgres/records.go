package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

// RecordStore persists daily attendance records in PostgreSQL. Only the
// present and full rosters are stored; derived fields are recomputed on
// load so they can never drift from the rosters.
type RecordStore struct {
	pool *Pool
}

// NewRecordStore creates a record store backed by the given pool.
func NewRecordStore(pool *Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

var _ attendance.RecordStore = (*RecordStore)(nil)

// Save stores a record, replacing any existing record for the same date.
func (s *RecordStore) Save(ctx context.Context, rec attendance.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attendance_records (date, present_students, all_students, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (date) DO UPDATE SET
			present_students = EXCLUDED.present_students,
			all_students = EXCLUDED.all_students,
			updated_at = NOW()
	`, rec.Date, pq.Array(rec.PresentStudents), pq.Array(rec.AllStudents))
	if err != nil {
		return fmt.Errorf("save attendance record %s: %w", rec.Date, err)
	}
	return nil
}

// Get retrieves the record for a date. The second return value is false
// when no record exists for that date.
func (s *RecordStore) Get(ctx context.Context, dateKey string) (attendance.Record, bool, error) {
	var date string
	var present, all []string

	err := s.pool.QueryRow(ctx, `
		SELECT date, present_students, all_students
		FROM attendance_records WHERE date = $1
	`, dateKey).Scan(&date, pq.Array(&present), pq.Array(&all))
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Record{}, false, nil
	}
	if err != nil {
		return attendance.Record{}, false, fmt.Errorf("query attendance record %s: %w", dateKey, err)
	}

	return attendance.NewRecord(date, present, all), true, nil
}

// Delete removes the record for a date. Deleting a missing record is not
// an error.
func (s *RecordStore) Delete(ctx context.Context, dateKey string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM attendance_records WHERE date = $1", dateKey); err != nil {
		return fmt.Errorf("delete attendance record %s: %w", dateKey, err)
	}
	return nil
}

// List returns all records ordered by date ascending.
func (s *RecordStore) List(ctx context.Context) ([]attendance.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, present_students, all_students
		FROM attendance_records ORDER BY date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var date string
		var present, all []string
		if err := rows.Scan(&date, pq.Array(&present), pq.Array(&all)); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, attendance.NewRecord(date, present, all))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}
