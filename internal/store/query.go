package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Queries orchestrates reads against the cache: fresh entries are
// returned without network access, everything else goes through a
// single de-duplicated fetch per key.
type Queries struct {
	cache *Cache
	group singleflight.Group
}

// NewQueries creates a query controller over the given cache.
func NewQueries(cache *Cache) *Queries {
	return &Queries{cache: cache}
}

// Read returns the cached payload for key when it is ready and not
// stale; otherwise it runs fetch, records the outcome in the cache,
// and returns it. Concurrent reads for the same key share one
// underlying fetch: later callers block on the in-flight result
// instead of issuing a duplicate request.
//
// A failed fetch leaves the key in an error state the cache reports
// distinctly from "absent", so views can tell not-found and
// failed-to-load apart from an empty result.
func (q *Queries) Read(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	if entry, ok := q.cache.Get(key); ok && entry.Fresh() {
		return entry.Data, nil
	}

	data, err, _ := q.group.Do(key.String(), func() (any, error) {
		// A waiter that queued behind the first caller may arrive
		// here after the fetch completed; serve the fresh entry
		// rather than fetching again.
		if entry, ok := q.cache.Get(key); ok && entry.Fresh() {
			return entry.Data, nil
		}

		q.cache.BeginFetch(key)
		data, err := fetch(ctx)
		q.cache.CompleteFetch(key, data, err)
		return data, err
	})
	return data, err
}

// Refresh forces the next Read of key to refetch, without touching
// the retained payload.
func (q *Queries) Refresh(key Key) {
	q.cache.InvalidateKey(key)
}

// Read is the typed convenience wrapper over [Queries.Read].
func Read[T any](ctx context.Context, q *Queries, key Key, fetch func(context.Context) (T, error)) (T, error) {
	data, err := q.Read(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	result, ok := data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry for %s holds %T", key, data)
	}
	return result, nil
}
