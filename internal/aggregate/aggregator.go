package aggregate

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"trendscope/internal/domain/trend"
	"trendscope/internal/logging"
	"trendscope/internal/source"
)

// Recorder appends snapshot contents to the trend history log.
type Recorder interface {
	Record(ctx context.Context, snapshot trend.Snapshot) error
}

// EventPublisher publishes snapshot events for live dashboard
// subscribers. *nats.Conn satisfies this.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// Config configures the aggregator.
type Config struct {
	// AdapterTimeout bounds each adapter call so one unresponsive
	// upstream cannot stall the whole run.
	AdapterTimeout time.Duration

	// SnapshotTopic is the event subject published after each run.
	SnapshotTopic string
}

// Aggregator fans out to all source adapters and merges their results
// into one ordered snapshot. It has no failure mode of its own: total
// failure of every adapter still yields a snapshot built from fallback
// records, so the dashboard always has something to render.
type Aggregator struct {
	adapters []source.Adapter
	recorder Recorder
	events   EventPublisher
	cfg      Config
	now      func() time.Time
	log      logging.Logger
}

// New creates an aggregator. Adapter order is the tie-break order used
// when merged records have equal popularity. recorder and events may be
// nil.
func New(adapters []source.Adapter, recorder Recorder, events EventPublisher, cfg Config, now func() time.Time, log logging.Logger) *Aggregator {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 10 * time.Second
	}
	if cfg.SnapshotTopic == "" {
		cfg.SnapshotTopic = "trends.snapshot"
	}
	return &Aggregator{
		adapters: adapters,
		recorder: recorder,
		events:   events,
		cfg:      cfg,
		now:      now,
		log:      log,
	}
}

// snapshotEvent is the payload published after each run.
type snapshotEvent struct {
	GeneratedAt time.Time      `json:"generated_at"`
	TrendCount  int            `json:"trend_count"`
	Degraded    []trend.Source `json:"degraded_sources,omitempty"`
}

// Aggregate invokes every adapter concurrently, each under its own
// timeout, and merges the results sorted by popularity score descending
// with ties broken by adapter registration order, then name.
func (a *Aggregator) Aggregate(ctx context.Context) (trend.Snapshot, error) {
	results := make([]source.FetchResult, len(a.adapters))

	var wg sync.WaitGroup
	for i, adapter := range a.adapters {
		wg.Add(1)
		go func(i int, adapter source.Adapter) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.AdapterTimeout)
			defer cancel()
			results[i] = adapter.Fetch(fetchCtx)
		}(i, adapter)
	}
	wg.Wait()

	type indexed struct {
		record  trend.Record
		adapter int
	}

	var merged []indexed
	var degraded []trend.Source
	for i, res := range results {
		if res.Fallback {
			degraded = append(degraded, res.Source)
			a.log.WithFields(logging.Fields{
				"source": res.Source,
				"reason": reasonString(res.Reason),
			}).Warn("source degraded to fallback data")
		}
		for _, rec := range res.Records {
			merged = append(merged, indexed{record: rec, adapter: i})
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.record.PopularityScore != b.record.PopularityScore {
			return a.record.PopularityScore > b.record.PopularityScore
		}
		if a.adapter != b.adapter {
			return a.adapter < b.adapter
		}
		return a.record.Name < b.record.Name
	})

	records := make([]trend.Record, len(merged))
	for i, m := range merged {
		records[i] = m.record
	}

	snapshot := trend.Snapshot{
		GeneratedAt: a.now(),
		Trends:      records,
	}

	a.recordHistory(ctx, snapshot)
	a.publishEvent(snapshot, degraded)

	return snapshot, nil
}

// recordHistory appends the snapshot to the history log. Failures are
// logged and never block the caller that produced the snapshot.
func (a *Aggregator) recordHistory(ctx context.Context, snapshot trend.Snapshot) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.Record(ctx, snapshot); err != nil {
		a.log.WithFields(logging.Fields{
			"trend_count": len(snapshot.Trends),
			"error":       err.Error(),
		}).Error("failed to record trend history")
	}
}

func (a *Aggregator) publishEvent(snapshot trend.Snapshot, degraded []trend.Source) {
	if a.events == nil {
		return
	}
	payload, err := json.Marshal(snapshotEvent{
		GeneratedAt: snapshot.GeneratedAt,
		TrendCount:  len(snapshot.Trends),
		Degraded:    degraded,
	})
	if err != nil {
		return
	}
	if err := a.events.Publish(a.cfg.SnapshotTopic, payload); err != nil {
		a.log.WithFields(logging.Fields{
			"topic": a.cfg.SnapshotTopic,
			"error": err.Error(),
		}).Warn("failed to publish snapshot event")
	}
}

func reasonString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
