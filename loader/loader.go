// Package loader fetches source-image payloads for selected views.
//
// The selection core treats image fetching as a black-box parallel map:
// requests fan out concurrently, but results always come back in request
// order, regardless of completion order.
package loader

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Request addresses one source observation by (view, latent) index pair.
type Request struct {
	View   int
	Latent int
}

// Payload carries the byte payloads fetched for one request. Whether the
// bytes are raw encoded streams or pre-decoded tensors is a caller-side
// configuration choice; this layer only moves bytes. Optional kinds are nil
// when not configured.
type Payload struct {
	Image      []byte
	Mask       []byte
	Matte      []byte
	Background []byte
}

// Fetcher fetches the payload for a single request.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Payload, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (Payload, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (Payload, error) {
	return f(ctx, req)
}

// Options configures Parallel.
type Options struct {
	// MaxConcurrency bounds the number of in-flight fetches.
	// Zero or negative means one fetch per request.
	MaxConcurrency int

	// Limiter, when set, rate-limits fetch starts. Useful against remote
	// stores with request quotas.
	Limiter *rate.Limiter
}

// DefaultOptions contains the default configuration for Parallel.
var DefaultOptions = Options{
	MaxConcurrency: 8,
}

// Parallel fetches all requests concurrently and returns the payloads in
// request order. The first fetch error cancels the remaining fetches and is
// returned.
func Parallel(ctx context.Context, f Fetcher, reqs []Request, optFns ...func(o *Options)) ([]Payload, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	results := make([]Payload, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}

	limit := int64(opts.MaxConcurrency)
	if limit <= 0 {
		limit = int64(len(reqs))
	}
	sem := semaphore.NewWeighted(limit)

	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			if opts.Limiter != nil {
				if err := opts.Limiter.Wait(ctx); err != nil {
					return err
				}
			}

			payload, err := f.Fetch(ctx, req)
			if err != nil {
				return err
			}
			// Writing by request index preserves call-order correspondence
			// even when fetches complete out of order.
			results[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
