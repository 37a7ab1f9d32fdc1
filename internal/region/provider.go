package region

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/arcgis"
)

// BoundaryFetchError means no usable state geometry could be obtained.
// It is fatal to an analysis: without the reference polygons nothing
// can be counted.
type BoundaryFetchError struct {
	Err error
}

func (e *BoundaryFetchError) Error() string {
	return fmt.Sprintf("boundary fetch failed: %v", e.Err)
}

func (e *BoundaryFetchError) Unwrap() error {
	return e.Err
}

// ProviderOptions configures a boundary Provider.
type ProviderOptions struct {
	// LayerURL is the feature-service layer serving state polygons.
	LayerURL string
	// Timeout bounds the boundary fetch; the payload is large, so this
	// runs longer than a single count query.
	Timeout time.Duration
	// SimplifyToleranceDeg is passed as maxAllowableOffset; generalized
	// outlines are sufficient for intersection counting and shrink the
	// payload considerably.
	SimplifyToleranceDeg float64
}

// Provider fetches the 51 state polygons once and caches them for the
// process lifetime. A failed fetch is not cached; the next call retries.
type Provider struct {
	client *arcgis.Client
	opts   ProviderOptions

	mu      sync.Mutex
	regions []Region
}

// NewProvider creates a boundary provider over the given client.
func NewProvider(client *arcgis.Client, opts ProviderOptions) *Provider {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Provider{client: client, opts: opts}
}

// Regions returns the cached reference regions, fetching them on first
// use. Concurrent callers share one fetch.
func (p *Provider) Regions(ctx context.Context) ([]Region, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.regions != nil {
		return p.regions, nil
	}

	regions, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	p.regions = regions
	return regions, nil
}

func (p *Provider) fetch(ctx context.Context) ([]Region, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	log := zap.L().With(zap.String("component", "region.provider"))
	log.Info("fetching state boundaries", zap.String("url", p.opts.LayerURL))

	params := url.Values{}
	params.Set("where", "1=1")
	params.Set("outFields", "STATE,NAME,STUSAB")
	params.Set("returnGeometry", "true")
	params.Set("outSR", "4326")
	if p.opts.SimplifyToleranceDeg > 0 {
		params.Set("maxAllowableOffset", strconv.FormatFloat(p.opts.SimplifyToleranceDeg, 'f', -1, 64))
	}

	fs, err := p.client.Query(ctx, p.opts.LayerURL+"/query", params)
	if err != nil {
		return nil, &BoundaryFetchError{Err: err}
	}

	regions := make([]Region, 0, Count)
	for _, f := range fs.Features {
		fips, _ := f.Attributes["STATE"].(string)
		if !IsCoverageState(fips) {
			continue
		}
		if f.Geometry == nil || len(f.Geometry.Rings) == 0 {
			log.Warn("state feature has no geometry, dropping", zap.String("fips", fips))
			continue
		}
		poly := arcgis.PolygonFromRings(f.Geometry.Rings)
		if poly == nil {
			log.Warn("state feature has only degenerate rings, dropping", zap.String("fips", fips))
			continue
		}

		name, abbr, _ := Lookup(fips)
		// Prefer the service's name when present.
		if n, ok := f.Attributes["NAME"].(string); ok && n != "" {
			name = n
		}
		regions = append(regions, Region{FIPS: fips, Name: name, Abbr: abbr, Polygon: poly})
	}

	if len(regions) == 0 {
		return nil, &BoundaryFetchError{Err: eris.Errorf("no usable state boundaries in response from %s", p.opts.LayerURL)}
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].FIPS < regions[j].FIPS })

	if len(regions) != Count {
		log.Warn("boundary set incomplete",
			zap.Int("expected", Count),
			zap.Int("got", len(regions)),
		)
	} else {
		log.Info("state boundaries cached", zap.Int("regions", len(regions)))
	}

	return regions, nil
}
