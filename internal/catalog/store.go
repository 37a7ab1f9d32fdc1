package catalog

import (
	"context"

	"github.com/sells-group/coverage-cli/internal/coverage"
)

// Store is the persistence interface for the dataset catalog and its
// precomputed coverage records. Lookups that find nothing return
// (nil, nil).
type Store interface {
	// Datasets
	UpsertDataset(ctx context.Context, d Dataset) (*Dataset, error)
	GetDataset(ctx context.Context, id string) (*Dataset, error)
	GetDatasetByTarget(ctx context.Context, serviceURL, layerID string) (*Dataset, error)
	ListDatasets(ctx context.Context) ([]Dataset, error)

	// Precomputed coverage
	LoadPrecomputed(ctx context.Context, datasetID string) (*coverage.PrecomputedCoverage, error)
	SavePrecomputed(ctx context.Context, datasetID string, pc *coverage.PrecomputedCoverage) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
