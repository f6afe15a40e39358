package gazetteer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ResolveOptions controls ResolveAll.
type ResolveOptions struct {
	Limit   int
	Lang    string
	Workers int           // Concurrent lookups; <= 0 means 4
	Timeout time.Duration // Per-name timeout; 0 means none
}

// ResolveAll resolves every name concurrently. The result is index-aligned
// with names. A failed or timed-out lookup yields no candidates for that
// name; only ErrLimitUnsupported and cancellation of ctx abort the call.
func ResolveAll(ctx context.Context, r Resolver, names []string, opts ResolveOptions) ([][]Candidate, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make([][]Candidate, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			lctx := gctx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				lctx, cancel = context.WithTimeout(gctx, opts.Timeout)
				defer cancel()
			}

			found, err := r.Resolve(lctx, Query{Name: name, Limit: opts.Limit, Lang: opts.Lang})
			switch {
			case err == nil:
				results[i] = found
				slog.Debug("resolved name", "name", name, "candidates", len(found))
			case errors.Is(err, ErrLimitUnsupported):
				return err
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				slog.Warn("name lookup failed", "name", name, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
