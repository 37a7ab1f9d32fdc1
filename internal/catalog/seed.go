package catalog

import (
	"context"

	"github.com/sells-group/coverage-cli/internal/arcgis"
	"github.com/sells-group/coverage-cli/internal/coverage"
)

// Seeds adapts a Store to the analyzer's seed lookup: resolve the
// query target to a catalog dataset, then load its precomputed record.
// An unknown target or a dataset without a record yields (nil, nil),
// sending the analyzer down the live path.
type Seeds struct {
	store Store
}

// NewSeeds wraps a catalog store as a coverage seed source.
func NewSeeds(store Store) *Seeds {
	return &Seeds{store: store}
}

func (s *Seeds) LoadPrecomputed(ctx context.Context, target arcgis.QueryTarget) (*coverage.PrecomputedCoverage, error) {
	d, err := s.store.GetDatasetByTarget(ctx, target.ServiceURL(), target.LayerID())
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}
	return s.store.LoadPrecomputed(ctx, d.ID)
}
