package coverage

import (
	"context"
	"time"

	"github.com/sells-group/coverage-cli/internal/arcgis"
	"github.com/sells-group/coverage-cli/internal/region"
	"github.com/sells-group/coverage-cli/internal/resilience"
)

// Executor runs per-region intersection counts. The live path and the
// offline precompute tool share this one implementation, instantiated
// with different buffer distances and retry policies so the two stay
// result-equivalent as the algorithm evolves.
type Executor struct {
	client *arcgis.Client

	// BufferKm shrinks each region polygon inward before querying, to
	// exclude sliver intersections on shared borders. Zero disables
	// buffering (the precompute tool's mode).
	BufferKm float64

	// Timeout bounds each individual count query.
	Timeout time.Duration

	// Retry wraps each region's query. The live path retries transient
	// errors with exponential backoff; the precompute tool retries every
	// error a fixed number of times with linear backoff.
	Retry resilience.RetryPolicy
}

// NewExecutor creates an executor over the given client.
func NewExecutor(client *arcgis.Client, bufferKm float64, timeout time.Duration, retry resilience.RetryPolicy) *Executor {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Executor{client: client, BufferKm: bufferKm, Timeout: timeout, Retry: retry}
}

// Count returns the number of target features intersecting one region's
// polygon. Errors are returned to the caller, which records them as the
// failure sentinel; they never abort sibling region queries.
func (e *Executor) Count(ctx context.Context, target arcgis.QueryTarget, reg region.Region) (int, error) {
	return resilience.DoVal(ctx, e.Retry, func(ctx context.Context) (int, error) {
		ctx, cancel := context.WithTimeout(ctx, e.Timeout)
		defer cancel()
		return e.client.CountIntersecting(ctx, target, reg.Polygon, e.BufferKm)
	})
}
