package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trendscope/internal/domain/trend"
	"trendscope/internal/logging"
)

// Aggregator produces a fresh merged snapshot across all sources.
type Aggregator interface {
	Aggregate(ctx context.Context) (trend.Snapshot, error)
}

// SnapshotStore persists the single global snapshot wholesale. Load
// returns (nil, nil) when no snapshot has been persisted yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*trend.Snapshot, error)
	Save(ctx context.Context, snapshot trend.Snapshot) error
}

// Status describes the state of the trend cache slot.
type Status struct {
	Exists      bool      `json:"exists"`
	Fresh       bool      `json:"fresh"`
	Count       int       `json:"count"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	AgeSeconds  int64     `json:"age_seconds"`
}

// TrendCache is the short-horizon cache over one global snapshot slot.
// Reads against a fresh snapshot never block on upstream calls; stale
// or empty slots trigger a demand-driven refresh. The durable store is
// written through on every refresh so the snapshot survives restarts,
// but a failed write never loses the computed result.
type TrendCache struct {
	agg    Aggregator
	store  SnapshotStore
	ttl    time.Duration
	now    func() time.Time
	log    logging.Logger
	flight singleflight.Group

	mu       sync.Mutex
	snapshot *trend.Snapshot
	loaded   bool
}

// NewTrendCache creates a trend cache with the given freshness horizon.
func NewTrendCache(agg Aggregator, store SnapshotStore, ttl time.Duration, now func() time.Time, log logging.Logger) *TrendCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TrendCache{
		agg:   agg,
		store: store,
		ttl:   ttl,
		now:   now,
		log:   log,
	}
}

// GetOrRefresh returns the cached snapshot if it is fresh, otherwise
// refreshes through the aggregator. force bypasses the freshness check
// unconditionally. Concurrent refreshes are coalesced; every caller of
// a coalesced refresh receives the same snapshot.
func (c *TrendCache) GetOrRefresh(ctx context.Context, force bool) (trend.Snapshot, error) {
	if !force {
		if snap, ok := c.freshSnapshot(ctx); ok {
			return snap, nil
		}
	}

	v, err, _ := c.flight.Do("snapshot", func() (interface{}, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return trend.Snapshot{}, err
	}
	return v.(trend.Snapshot), nil
}

// Status reports whether a snapshot exists and how old it is.
func (c *TrendCache) Status(ctx context.Context) Status {
	c.mu.Lock()
	c.loadLocked(ctx)
	snap := c.snapshot
	c.mu.Unlock()

	if snap == nil {
		return Status{}
	}

	age := c.now().Sub(snap.GeneratedAt)
	return Status{
		Exists:      true,
		Fresh:       age < c.ttl,
		Count:       len(snap.Trends),
		GeneratedAt: snap.GeneratedAt,
		AgeSeconds:  int64(age.Seconds()),
	}
}

// freshSnapshot returns the current snapshot when it is strictly
// younger than the TTL. A snapshot aged exactly at the boundary is
// stale.
func (c *TrendCache) freshSnapshot(ctx context.Context) (trend.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked(ctx)

	if c.snapshot == nil {
		return trend.Snapshot{}, false
	}
	if c.now().Sub(c.snapshot.GeneratedAt) >= c.ttl {
		return trend.Snapshot{}, false
	}
	return *c.snapshot, true
}

// loadLocked pulls the durably-stored snapshot into memory once, on
// first use after a restart. Callers must hold mu.
func (c *TrendCache) loadLocked(ctx context.Context) {
	if c.loaded {
		return
	}
	c.loaded = true

	if c.store == nil {
		return
	}
	snap, err := c.store.Load(ctx)
	if err != nil {
		c.log.WithFields(logging.Fields{"error": err.Error()}).Warn("failed to load persisted snapshot")
		return
	}
	if snap != nil {
		c.snapshot = snap
		c.log.WithFields(logging.Fields{
			"trend_count":  len(snap.Trends),
			"generated_at": snap.GeneratedAt,
		}).Info("restored persisted snapshot")
	}
}

// refresh computes a new snapshot, replaces the in-memory slot, and
// writes through to durable storage. A storage write failure is logged
// and the computed snapshot still returned; the previous durable copy
// remains for future restarts. If the aggregator itself fails, the
// stale snapshot persists and is returned.
func (c *TrendCache) refresh(ctx context.Context) (trend.Snapshot, error) {
	snap, err := c.agg.Aggregate(ctx)
	if err != nil {
		c.mu.Lock()
		prev := c.snapshot
		c.mu.Unlock()
		if prev != nil {
			c.log.WithFields(logging.Fields{"error": err.Error()}).Error("refresh failed, serving stale snapshot")
			return *prev, nil
		}
		return trend.Snapshot{}, err
	}

	c.mu.Lock()
	c.loaded = true
	c.snapshot = &snap
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(ctx, snap); err != nil {
			c.log.WithFields(logging.Fields{
				"trend_count": len(snap.Trends),
				"error":       err.Error(),
			}).Error("failed to persist snapshot")
		}
	}

	return snap, nil
}
