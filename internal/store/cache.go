package store

import (
	"sync"
	"time"
)

// State is the fetch status of a cache entry.
type State int

const (
	// StateIdle means the entry exists but no fetch has started.
	StateIdle State = iota
	// StateLoading means a fetch for the key is in flight.
	StateLoading
	// StateReady means the entry holds the last successful payload.
	StateReady
	// StateError means the last fetch failed; Err holds the cause.
	StateError
)

// Entry is one cached unit of data. Data holds the last fetched
// payload; it survives invalidation (Stale=true) so views can decide
// what to show while a refetch runs.
type Entry struct {
	State     State
	Data      any
	Err       error
	Stale     bool
	FetchedAt time.Time
}

// Fresh reports whether the entry can satisfy a read without network
// access.
func (e Entry) Fresh() bool {
	return e.State == StateReady && !e.Stale
}

// Cache is the process-wide store of fetched entities, keyed by
// entity kind plus query signature or id. Entries are never evicted
// by size or time; staleness is only ever set explicitly, by a
// successful mutation or a manual refresh.
//
// Change notifications go to subscriber channels so views bound to a
// key re-render; delivery is best-effort (full buffers drop, the view
// catches up on its next read).
type Cache struct {
	mu          sync.RWMutex
	entries     map[Key]Entry
	subscribers []chan Key
	clock       func() time.Time
}

// NewCache creates an empty cache. One cache exists per application;
// tests construct their own so state never leaks between cases.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[Key]Entry),
		clock:   time.Now,
	}
}

// Get returns the entry for key, if any.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Set stores a ready payload for key, clearing staleness and any
// previous error.
func (c *Cache) Set(key Key, data any) {
	c.mu.Lock()
	c.entries[key] = Entry{
		State:     StateReady,
		Data:      data,
		FetchedAt: c.clock(),
	}
	subscribers := c.subscribers
	c.mu.Unlock()

	notify(subscribers, key)
}

// BeginFetch marks key as loading. The previous payload, if any, is
// retained so a refetch does not blank out an already-rendered view.
func (c *Cache) BeginFetch(key Key) {
	c.mu.Lock()
	entry := c.entries[key]
	entry.State = StateLoading
	entry.Err = nil
	c.entries[key] = entry
	subscribers := c.subscribers
	c.mu.Unlock()

	notify(subscribers, key)
}

// CompleteFetch records the outcome of a fetch started with
// BeginFetch: a ready payload on success, or an error entry that is
// distinguishable from "absent" on failure. Staleness clears on both
// branches; a failed fetch settles into StateError and waits for the
// user's retry instead of re-arming itself.
func (c *Cache) CompleteFetch(key Key, data any, err error) {
	c.mu.Lock()
	if err != nil {
		entry := c.entries[key]
		entry.State = StateError
		entry.Err = err
		entry.Stale = false
		c.entries[key] = entry
	} else {
		c.entries[key] = Entry{
			State:     StateReady,
			Data:      data,
			FetchedAt: c.clock(),
		}
	}
	subscribers := c.subscribers
	c.mu.Unlock()

	notify(subscribers, key)
}

// IsInFlight reports whether a fetch for key is currently running.
func (c *Cache) IsInFlight(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key].State == StateLoading
}

// Invalidate marks every entry matching the predicate as stale and
// returns how many matched. Keys with no cached entry are untouched;
// invalidating nothing is a no-op, not an error.
func (c *Cache) Invalidate(match func(Key) bool) int {
	c.mu.Lock()
	var invalidated []Key
	for key, entry := range c.entries {
		if !match(key) {
			continue
		}
		entry.Stale = true
		c.entries[key] = entry
		invalidated = append(invalidated, key)
	}
	subscribers := c.subscribers
	c.mu.Unlock()

	for _, key := range invalidated {
		notify(subscribers, key)
	}
	return len(invalidated)
}

// InvalidateKey marks a single key stale, if present.
func (c *Cache) InvalidateKey(target Key) {
	c.Invalidate(func(key Key) bool { return key == target })
}

// Subscribe returns a channel receiving the key of every entry that
// changes via Set, BeginFetch, CompleteFetch or Invalidate.
func (c *Cache) Subscribe() <-chan Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	channel := make(chan Key, 64)
	c.subscribers = append(c.subscribers, channel)
	return channel
}

func notify(subscribers []chan Key, key Key) {
	for _, subscriber := range subscribers {
		select {
		case subscriber <- key:
		default:
			// Buffer full: drop. Subscribers re-read current state on
			// their next render pass.
		}
	}
}
