package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/coverage-cli/internal/resilience"
)

// ClientOptions configures the feature-service client.
type ClientOptions struct {
	UserAgent string
	// RatePerHost limits requests per second against any single host.
	// Geometry-heavy count queries are expensive server-side; going
	// faster than this tends to trade throughput for timeouts.
	RatePerHost rate.Limit
	Burst       int
}

// Client is a minimal Esri feature-service REST client. It speaks only
// read-only query operations: feature fetches and intersection counts.
type Client struct {
	http *http.Client
	opts ClientOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a feature-service client. Request deadlines are the
// caller's responsibility via context; the boundary fetch and count
// queries run under different timeouts.
func NewClient(opts ClientOptions) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = "coverage-cli/1.0"
	}
	if opts.RatePerHost <= 0 {
		opts.RatePerHost = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = int(opts.RatePerHost)
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		http:     &http.Client{Transport: transport},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// ServiceError is an error payload reported inside a 200 response, the
// way feature services signal query failures.
type ServiceError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error %d: %s", e.Code, e.Message)
}

// FeatureSet is a feature-service query response.
type FeatureSet struct {
	Features []Feature `json:"features"`
	// Count is set for returnCountOnly queries.
	Count *int          `json:"count"`
	Error *ServiceError `json:"error"`
}

// Feature is one record of a FeatureSet.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   *Geometry      `json:"geometry"`
}

func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(c.opts.RatePerHost, c.opts.Burst)
		c.limiters[host] = lim
	}
	return lim
}

// Query posts params to a layer's query endpoint and decodes the
// response. Geometry parameters routinely exceed URL length limits, so
// the request always goes as a form POST. Transient HTTP statuses and
// server-reported errors are wrapped so retry policies can tell them
// apart from permanent failures.
func (c *Client) Query(ctx context.Context, queryURL string, params url.Values) (*FeatureSet, error) {
	params.Set("f", "json")

	if err := c.limiterFor(queryURL).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "arcgis: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, queryURL,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: query")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		err := eris.Errorf("arcgis: http %d from %s", resp.StatusCode, queryURL)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var fs FeatureSet
	if err := json.NewDecoder(resp.Body).Decode(&fs); err != nil {
		return nil, eris.Wrap(err, "arcgis: decode response")
	}

	if fs.Error != nil {
		if resilience.IsTransientHTTPStatus(fs.Error.Code) {
			return nil, resilience.NewTransientError(fs.Error, fs.Error.Code)
		}
		return nil, fs.Error
	}

	return &fs, nil
}

// CountIntersecting returns the number of target features intersecting
// the given polygon. A positive bufferKm shrinks the polygon inward
// first, excluding sliver intersections along shared borders; if the
// shrink collapses the polygon (islands smaller than the buffer), the
// unbuffered polygon is used instead.
func (c *Client) CountIntersecting(ctx context.Context, target QueryTarget, poly *geom.Polygon, bufferKm float64) (int, error) {
	queryPoly := poly
	if bufferKm > 0 {
		if shrunk := InwardBuffer(poly, bufferKm); shrunk != nil {
			queryPoly = shrunk
		} else {
			zap.L().Debug("arcgis: buffer collapsed polygon, querying unbuffered",
				zap.String("target", target.String()),
				zap.Float64("buffer_km", bufferKm),
			)
		}
	}

	geometry, err := EncodeGeometry(queryPoly)
	if err != nil {
		return 0, err
	}

	params := url.Values{}
	params.Set("where", "1=1")
	params.Set("geometry", geometry)
	params.Set("geometryType", "esriGeometryPolygon")
	params.Set("inSR", "4326")
	params.Set("spatialRel", "esriSpatialRelIntersects")
	params.Set("returnCountOnly", "true")

	fs, err := c.Query(ctx, target.QueryURL(), params)
	if err != nil {
		return 0, err
	}
	if fs.Count == nil {
		return 0, eris.Errorf("arcgis: count query against %s returned no count", target.String())
	}
	if *fs.Count < 0 {
		return 0, eris.Errorf("arcgis: negative count %d from %s", *fs.Count, target.String())
	}
	return *fs.Count, nil
}
