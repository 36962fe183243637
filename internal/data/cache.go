package data

import (
	"context"
	"sync"
	"time"

	"appchain-calc/internal/metrics"
	"appchain-calc/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultSnapshotTTL is how long a server-side snapshot is reused.
const DefaultSnapshotTTL = 120 * time.Second

// SnapshotStore keeps the most recent market snapshot.
type SnapshotStore interface {
	Get(ctx context.Context) (model.MarketData, bool)
	Set(ctx context.Context, md model.MarketData)
}

// Snapshotter produces fresh market snapshots.
type Snapshotter interface {
	Snapshot(ctx context.Context) model.MarketData
}

// MemoryCache is an in-process SnapshotStore with a TTL.
type MemoryCache struct {
	mu        sync.RWMutex
	entry     *model.MarketData
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a cache and starts its janitor. Call Close to stop it.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	c := &MemoryCache{
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go c.cleanup(ttl)
	return c
}

// Get returns the cached snapshot if present and not expired.
func (c *MemoryCache) Get(_ context.Context) (model.MarketData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || c.now().After(c.expiresAt) {
		return model.MarketData{}, false
	}
	return *c.entry, true
}

// Set stores a snapshot for one TTL.
func (c *MemoryCache) Set(_ context.Context, md model.MarketData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = &md
	c.expiresAt = c.now().Add(c.ttl)
}

// Clear drops the cached snapshot.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = nil
}

// Close stops the janitor goroutine.
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanup periodically drops an expired snapshot so stale data is not held.
func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.entry != nil && c.now().After(c.expiresAt) {
				c.entry = nil
			}
			c.mu.Unlock()
		}
	}
}

// CachedMarket serves snapshots from a store, refreshing on miss. Concurrent
// misses share one refresh.
type CachedMarket struct {
	source Snapshotter
	store  SnapshotStore
	group  singleflight.Group
	log    *zap.Logger
}

// NewCachedMarket wraps source with store.
func NewCachedMarket(source Snapshotter, store SnapshotStore, logger *zap.Logger) *CachedMarket {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedMarket{
		source: source,
		store:  store,
		log:    logger,
	}
}

// Snapshot returns the cached snapshot or fetches a new one.
func (m *CachedMarket) Snapshot(ctx context.Context) model.MarketData {
	if md, ok := m.store.Get(ctx); ok {
		metrics.SnapshotCache.WithLabelValues("hit").Inc()
		m.log.Debug("[Market] cache hit", zap.Time("lastUpdated", md.LastUpdated))
		return md
	}
	metrics.SnapshotCache.WithLabelValues("miss").Inc()

	v, _, _ := m.group.Do("snapshot", func() (any, error) {
		// The refresh is shared by every waiter, so it outlives any one caller.
		// Providers still enforce their own deadlines.
		detached := context.WithoutCancel(ctx)
		md := m.source.Snapshot(detached)
		m.store.Set(detached, md)
		return md, nil
	})
	return v.(model.MarketData)
}
