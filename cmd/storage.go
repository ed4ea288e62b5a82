package cmd

import (
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/encoding"
	"github.com/kozaktomas/face-attendance/internal/storage/postgres"
)

// openStores selects the storage backend from configuration: PostgreSQL
// when DATABASE_URL is set, JSON files under the data directory
// otherwise. The returned closer releases the backend.
func openStores(cfg *config.Config) (encoding.Store, attendance.RecordStore, func(), error) {
	if cfg.Database.URL != "" {
		pool, err := postgres.Initialize(&cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		return postgres.NewDatasetStore(pool), postgres.NewRecordStore(pool), func() { pool.Close() }, nil
	}

	datasets, err := encoding.NewFileStore(cfg.Data.DatasetsDir())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open dataset storage: %w", err)
	}
	records, err := attendance.NewFileStore(cfg.Data.RecordsDir())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open attendance storage: %w", err)
	}
	return datasets, records, func() {}, nil
}
