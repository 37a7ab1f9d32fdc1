package main

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/coverage-cli/internal/arcgis"
	"github.com/sells-group/coverage-cli/internal/catalog"
	"github.com/sells-group/coverage-cli/internal/config"
	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/region"
	"github.com/sells-group/coverage-cli/internal/resilience"
)

// appEnv bundles the shared pieces behind every command: one HTTP
// client, one boundary source, one catalog store, and the live
// analyzer built on top of them.
type appEnv struct {
	client   *arcgis.Client
	regions  coverage.RegionSource
	store    catalog.Store
	analyzer *coverage.Analyzer
}

// shapefileRegions adapts a local shapefile load to the RegionSource
// interface, caching like the network provider does.
type shapefileRegions struct {
	path    string
	regions []region.Region
}

func (s *shapefileRegions) Regions(context.Context) ([]region.Region, error) {
	if s.regions != nil {
		return s.regions, nil
	}
	regions, err := region.LoadShapefile(s.path)
	if err != nil {
		return nil, err
	}
	s.regions = regions
	return regions, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (catalog.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return catalog.NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite", "":
		return catalog.NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// initApp wires the application from config. The returned environment
// owns the store connection; callers defer Close.
func initApp(ctx context.Context) (*appEnv, error) {
	client := arcgis.NewClient(arcgis.ClientOptions{
		UserAgent:   cfg.Query.UserAgent,
		RatePerHost: rate.Limit(cfg.Query.RatePerHost),
	})

	var regions coverage.RegionSource
	if cfg.Boundary.ShapefilePath != "" {
		regions = &shapefileRegions{path: cfg.Boundary.ShapefilePath}
	} else {
		regions = region.NewProvider(client, region.ProviderOptions{
			LayerURL:             cfg.Boundary.URL,
			Timeout:              cfg.Boundary.BoundaryTimeout(),
			SimplifyToleranceDeg: cfg.Boundary.SimplifyToleranceDeg,
		})
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close() //nolint:errcheck
		return nil, err
	}

	retry := resilience.DefaultPolicy()
	retry.OnRetry = resilience.RetryLogger("arcgis", "count_intersecting")

	analyzer := &coverage.Analyzer{
		Regions:     regions,
		Executor:    coverage.NewExecutor(client, cfg.Query.BufferKm, cfg.Query.QueryTimeout(), retry),
		Cache:       coverage.NewResultCache(),
		Guard:       &coverage.Guard{},
		Seeds:       catalog.NewSeeds(store),
		Concurrency: cfg.Query.Concurrency,
	}

	return &appEnv{
		client:   client,
		regions:  regions,
		store:    store,
		analyzer: analyzer,
	}, nil
}

func (e *appEnv) Close() {
	e.store.Close() //nolint:errcheck
}
