// Package workerpool provides a bounded-concurrency fan-out helper used by
// the verifier's per-transaction proof checks.
//
// Pool wraps errgroup.Group with SetLimit so CPU-bound fan-out work never
// exceeds a caller-chosen concurrency ceiling. It is constructed explicitly
// and passed to callers as a capability rather than reached for as an
// implicit global pool, which keeps limits configurable per caller and
// callers independently testable.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool bounds concurrent execution of independent units of work to at most
// Limit goroutines at a time.
type Pool struct {
	Limit int
}

func New(limit int) *Pool {
	if limit <= 0 {
		limit = 1
	}
	return &Pool{Limit: limit}
}

// RunAll runs every fn concurrently (bounded by Limit) and conjunctively
// combines the results: the first error cancels ctx for the remaining
// in-flight work and is returned.
func (p *Pool) RunAll(ctx context.Context, fns []func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Limit)

	for _, fn := range fns {
		fn := fn
		g.Go(func() error {
			return fn(gctx)
		})
	}

	return g.Wait()
}
