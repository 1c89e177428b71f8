// Package chartsync is the client-side companion to the charting API. It
// keeps a local cache of charts, applies mutations to the cache before the
// server confirms them, and reconciles the cache when requests fail or
// settle.
package chartsync

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/chartnote/chartnote/internal/domain/chart"
)

// QueryKey identifies one cached query.
type QueryKey string

// ChartKey is the cache key for a single chart fetch.
func ChartKey(chartID uuid.UUID) QueryKey {
	return QueryKey("charts/" + chartID.String())
}

// Listener is called after a cache entry changes. The key tells the
// subscriber which query to re-render.
type Listener func(key QueryKey)

// Cache holds decoded chart snapshots keyed by query. All values handed out
// or taken in are deep-copied, so callers can never mutate cache state
// behind the cache's back.
type Cache struct {
	mu       sync.RWMutex
	charts   map[QueryKey]*chart.Chart
	stale    map[QueryKey]bool
	inflight map[QueryKey]context.CancelFunc

	subMu   sync.Mutex
	subs    map[int]Listener
	nextSub int
}

func NewCache() *Cache {
	return &Cache{
		charts:   make(map[QueryKey]*chart.Chart),
		stale:    make(map[QueryKey]bool),
		inflight: make(map[QueryKey]context.CancelFunc),
		subs:     make(map[int]Listener),
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
func (c *Cache) Subscribe(fn Listener) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) notify(key QueryKey) {
	c.subMu.Lock()
	listeners := make([]Listener, 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.subMu.Unlock()
	for _, fn := range listeners {
		fn(key)
	}
}

// Get returns a deep copy of the cached chart, or nil when the key has never
// been populated.
func (c *Cache) Get(key QueryKey) *chart.Chart {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.charts[key].Clone()
}

// Set stores a fresh server result and clears the stale flag.
func (c *Cache) Set(key QueryKey, ch *chart.Chart) {
	c.mu.Lock()
	c.charts[key] = ch.Clone()
	c.stale[key] = false
	c.mu.Unlock()
	c.notify(key)
}

// Snapshot captures the current entry for later rollback. The snapshot is a
// deep copy taken before any speculative write.
func (c *Cache) Snapshot(key QueryKey) *chart.Chart {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.charts[key].Clone()
}

// Restore puts a snapshot back, byte for byte, discarding whatever
// speculative state accumulated since it was taken.
func (c *Cache) Restore(key QueryKey, snap *chart.Chart) {
	c.mu.Lock()
	if snap == nil {
		delete(c.charts, key)
	} else {
		c.charts[key] = snap.Clone()
	}
	c.mu.Unlock()
	c.notify(key)
}

// Update applies fn to a copy of the cached chart and swaps the result in.
// A nil entry passes nil to fn, which may return a chart to seed the key.
func (c *Cache) Update(key QueryKey, fn func(ch *chart.Chart) *chart.Chart) {
	c.mu.Lock()
	next := fn(c.charts[key].Clone())
	if next == nil {
		delete(c.charts, key)
	} else {
		c.charts[key] = next
	}
	c.mu.Unlock()
	c.notify(key)
}

// Invalidate marks the key stale so the next read triggers a refetch. The
// cached value stays available in the meantime.
func (c *Cache) Invalidate(key QueryKey) {
	c.mu.Lock()
	c.stale[key] = true
	c.mu.Unlock()
	c.notify(key)
}

// Stale reports whether the entry needs a refetch.
func (c *Cache) Stale(key QueryKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.charts[key]
	return !ok || c.stale[key]
}

// trackRefetch registers an in-flight fetch so a later mutation can cancel
// it. It returns a context derived from ctx and a done function the fetch
// must call when it finishes.
func (c *Cache) trackRefetch(ctx context.Context, key QueryKey) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if prev, ok := c.inflight[key]; ok {
		prev()
	}
	c.inflight[key] = cancel
	c.mu.Unlock()
	return ctx, func() {
		c.mu.Lock()
		if cur, ok := c.inflight[key]; ok {
			cur()
			delete(c.inflight, key)
		}
		c.mu.Unlock()
	}
}

// CancelRefetch aborts any in-flight fetch for the key. Mutations call this
// first so a slow response from before the mutation cannot overwrite the
// speculative state.
func (c *Cache) CancelRefetch(key QueryKey) {
	c.mu.Lock()
	if cancel, ok := c.inflight[key]; ok {
		cancel()
		delete(c.inflight, key)
	}
	c.mu.Unlock()
}
