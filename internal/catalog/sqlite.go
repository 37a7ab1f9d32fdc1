package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/coverage-cli/internal/coverage"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	service_url   TEXT NOT NULL,
	layer_id      TEXT NOT NULL DEFAULT '',
	geometry_type TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_datasets_target ON datasets(service_url, layer_id);

CREATE TABLE IF NOT EXISTS precomputed_coverage (
	dataset_id       TEXT PRIMARY KEY REFERENCES datasets(id),
	generated_at     DATETIME NOT NULL,
	per_region_count TEXT NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertDataset(ctx context.Context, d Dataset) (*Dataset, error) {
	d = d.normalizeTarget()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, service_url, layer_id, geometry_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (service_url, layer_id) DO UPDATE SET
		   name = excluded.name, geometry_type = excluded.geometry_type, updated_at = excluded.updated_at`,
		d.ID, d.Name, d.ServiceURL, d.LayerID, d.GeometryType, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert dataset")
	}

	// The conflict path keeps the existing row's id.
	return s.GetDatasetByTarget(ctx, d.ServiceURL, d.LayerID)
}

func (s *SQLiteStore) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, service_url, layer_id, geometry_type, created_at, updated_at
		 FROM datasets WHERE id = ?`, id)
	return scanDataset(row)
}

func (s *SQLiteStore) GetDatasetByTarget(ctx context.Context, serviceURL, layerID string) (*Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, service_url, layer_id, geometry_type, created_at, updated_at
		 FROM datasets WHERE service_url = ? AND layer_id = ?`, serviceURL, layerID)
	return scanDataset(row)
}

func (s *SQLiteStore) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, service_url, layer_id, geometry_type, created_at, updated_at
		 FROM datasets ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list datasets")
	}
	defer rows.Close()

	var datasets []Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *d)
	}
	return datasets, eris.Wrap(rows.Err(), "sqlite: list datasets iterate")
}

func (s *SQLiteStore) LoadPrecomputed(ctx context.Context, datasetID string) (*coverage.PrecomputedCoverage, error) {
	var generatedAt time.Time
	var countsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT generated_at, per_region_count FROM precomputed_coverage WHERE dataset_id = ?`,
		datasetID,
	).Scan(&generatedAt, &countsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load precomputed %s", datasetID)
	}

	pc := &coverage.PrecomputedCoverage{GeneratedAt: generatedAt}
	if err := json.Unmarshal([]byte(countsJSON), &pc.PerRegionCount); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal per-region counts")
	}
	return pc, nil
}

func (s *SQLiteStore) SavePrecomputed(ctx context.Context, datasetID string, pc *coverage.PrecomputedCoverage) error {
	countsJSON, err := json.Marshal(pc.PerRegionCount)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal per-region counts")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO precomputed_coverage (dataset_id, generated_at, per_region_count)
		 VALUES (?, ?, ?)
		 ON CONFLICT (dataset_id) DO UPDATE SET
		   generated_at = excluded.generated_at, per_region_count = excluded.per_region_count`,
		datasetID, pc.GeneratedAt.UTC(), string(countsJSON),
	)
	return eris.Wrapf(err, "sqlite: save precomputed %s", datasetID)
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanDataset(row scannable) (*Dataset, error) {
	var d Dataset
	err := row.Scan(&d.ID, &d.Name, &d.ServiceURL, &d.LayerID, &d.GeometryType, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan dataset")
	}
	return &d, nil
}
