package cache

import (
	"context"
	"fmt"
	"time"

	"trendscope/internal/domain/trend"
	"trendscope/internal/logging"
)

// AnalysisStore persists AI-generated analyses. Latest returns the
// most recently generated row for the key, or (nil, nil) when none
// exists. Save appends a new row; prior rows are retained as history.
type AnalysisStore interface {
	Latest(ctx context.Context, name string, src trend.Source) (*trend.Analysis, error)
	Save(ctx context.Context, analysis trend.Analysis) error
}

// Engine computes an analysis from a trend record's context.
type Engine interface {
	Analyze(ctx context.Context, record trend.Record) (trend.Analysis, error)
}

// AnalysisCache is the long-horizon cache of AI-derived insight, keyed
// by (trend name, source). Analyses are expensive to produce, so a row
// younger than the TTL short-circuits the engine entirely. Engine
// failures are never cached: the next request retries.
type AnalysisCache struct {
	store  AnalysisStore
	engine Engine
	ttl    time.Duration
	now    func() time.Time
	log    logging.Logger
}

// NewAnalysisCache creates an analysis cache with the given freshness
// horizon.
func NewAnalysisCache(store AnalysisStore, engine Engine, ttl time.Duration, now func() time.Time, log logging.Logger) *AnalysisCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AnalysisCache{
		store:  store,
		engine: engine,
		ttl:    ttl,
		now:    now,
		log:    log,
	}
}

// GetOrCompute returns the cached analysis for the record's key when it
// is strictly younger than the TTL; a row aged exactly at the boundary
// is recomputed. On a miss the engine is called and the result written
// through as a new row. Engine failures surface as
// trend.ErrAnalysisUnavailable with nothing persisted; a write-through
// failure is logged and the computed analysis still returned.
func (c *AnalysisCache) GetOrCompute(ctx context.Context, record trend.Record) (trend.Analysis, error) {
	cached, err := c.store.Latest(ctx, record.Name, record.Source)
	if err != nil {
		// A broken lookup degrades to a recompute rather than an error page.
		c.log.WithFields(logging.Fields{
			"trend":  record.Name,
			"source": record.Source,
			"error":  err.Error(),
		}).Warn("analysis lookup failed, recomputing")
	}
	if cached != nil && c.now().Sub(cached.GeneratedAt) < c.ttl {
		return *cached, nil
	}

	analysis, err := c.engine.Analyze(ctx, record)
	if err != nil {
		c.log.WithFields(logging.Fields{
			"trend":  record.Name,
			"source": record.Source,
			"error":  err.Error(),
		}).Error("analysis engine failed")
		return trend.Analysis{}, fmt.Errorf("%w: %s", trend.ErrAnalysisUnavailable, err)
	}

	analysis.TrendName = record.Name
	analysis.Source = record.Source
	analysis.GeneratedAt = c.now()

	if err := c.store.Save(ctx, analysis); err != nil {
		c.log.WithFields(logging.Fields{
			"trend":  record.Name,
			"source": record.Source,
			"error":  err.Error(),
		}).Error("failed to persist analysis")
	}

	return analysis, nil
}
