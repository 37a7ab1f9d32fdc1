package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/coverage-cli/internal/coverage"
)

// Pool is the subset of pgxpool.Pool the store uses; tests substitute a
// pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name          TEXT NOT NULL,
	service_url   TEXT NOT NULL,
	layer_id      TEXT NOT NULL DEFAULT '',
	geometry_type TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_datasets_target ON datasets(service_url, layer_id);

CREATE TABLE IF NOT EXISTS precomputed_coverage (
	dataset_id       TEXT PRIMARY KEY REFERENCES datasets(id),
	generated_at     TIMESTAMPTZ NOT NULL,
	per_region_count JSONB NOT NULL
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertDataset(ctx context.Context, d Dataset) (*Dataset, error) {
	d = d.normalizeTarget()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO datasets (id, name, service_url, layer_id, geometry_type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (service_url, layer_id) DO UPDATE SET
		   name = excluded.name, geometry_type = excluded.geometry_type, updated_at = excluded.updated_at`,
		d.ID, d.Name, d.ServiceURL, d.LayerID, d.GeometryType, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert dataset")
	}
	return s.GetDatasetByTarget(ctx, d.ServiceURL, d.LayerID)
}

func (s *PostgresStore) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, service_url, layer_id, geometry_type, created_at, updated_at
		 FROM datasets WHERE id = $1`, id)
	return scanPgDataset(row)
}

func (s *PostgresStore) GetDatasetByTarget(ctx context.Context, serviceURL, layerID string) (*Dataset, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, service_url, layer_id, geometry_type, created_at, updated_at
		 FROM datasets WHERE service_url = $1 AND layer_id = $2`, serviceURL, layerID)
	return scanPgDataset(row)
}

func (s *PostgresStore) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, service_url, layer_id, geometry_type, created_at, updated_at
		 FROM datasets ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list datasets")
	}
	defer rows.Close()

	var datasets []Dataset
	for rows.Next() {
		var d Dataset
		if err := rows.Scan(&d.ID, &d.Name, &d.ServiceURL, &d.LayerID, &d.GeometryType, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dataset")
		}
		datasets = append(datasets, d)
	}
	return datasets, eris.Wrap(rows.Err(), "postgres: list datasets iterate")
}

func (s *PostgresStore) LoadPrecomputed(ctx context.Context, datasetID string) (*coverage.PrecomputedCoverage, error) {
	var generatedAt time.Time
	var countsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT generated_at, per_region_count FROM precomputed_coverage WHERE dataset_id = $1`,
		datasetID,
	).Scan(&generatedAt, &countsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: load precomputed %s", datasetID)
	}

	pc := &coverage.PrecomputedCoverage{GeneratedAt: generatedAt}
	if err := json.Unmarshal(countsJSON, &pc.PerRegionCount); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal per-region counts")
	}
	return pc, nil
}

func (s *PostgresStore) SavePrecomputed(ctx context.Context, datasetID string, pc *coverage.PrecomputedCoverage) error {
	countsJSON, err := json.Marshal(pc.PerRegionCount)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal per-region counts")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO precomputed_coverage (dataset_id, generated_at, per_region_count)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (dataset_id) DO UPDATE SET
		   generated_at = excluded.generated_at, per_region_count = excluded.per_region_count`,
		datasetID, pc.GeneratedAt.UTC(), countsJSON,
	)
	return eris.Wrapf(err, "postgres: save precomputed %s", datasetID)
}

func scanPgDataset(row pgx.Row) (*Dataset, error) {
	var d Dataset
	err := row.Scan(&d.ID, &d.Name, &d.ServiceURL, &d.LayerID, &d.GeometryType, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: scan dataset")
	}
	return &d, nil
}
