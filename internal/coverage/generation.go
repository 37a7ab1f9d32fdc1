package coverage

import "sync/atomic"

// Guard detects superseded analyses. Each new analysis context takes a
// fresh token; asynchronous continuations compare their captured token
// before any observable effect and silently stop when it has been
// passed. In-flight requests are never cancelled, only their results
// discarded; the wasted bandwidth under rapid navigation is a known
// trade against cancellation plumbing.
type Guard struct {
	current atomic.Int64
}

// NewGeneration advances the guard and returns the new token.
func (g *Guard) NewGeneration() int64 {
	return g.current.Add(1)
}

// IsCurrent reports whether token is still the active generation.
func (g *Guard) IsCurrent(token int64) bool {
	return g.current.Load() == token
}
