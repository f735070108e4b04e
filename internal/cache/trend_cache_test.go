package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trendscope/internal/domain/trend"
	"trendscope/internal/logging"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type fakeAggregator struct {
	calls int
	err   error
	clock *fakeClock
}

func (f *fakeAggregator) Aggregate(ctx context.Context) (trend.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return trend.Snapshot{}, f.err
	}
	return trend.Snapshot{
		GeneratedAt: f.clock.Now(),
		Trends: []trend.Record{
			{Name: "Viral Dance", Source: trend.SourceSocial, PopularityScore: 100},
		},
	}, nil
}

type fakeSnapshotStore struct {
	persisted *trend.Snapshot
	loadErr   error
	saveErr   error
	saves     int
}

func (f *fakeSnapshotStore) Load(ctx context.Context) (*trend.Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.persisted, nil
}

func (f *fakeSnapshotStore) Save(ctx context.Context, snapshot trend.Snapshot) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.persisted = &snapshot
	return nil
}

func newTrendCacheForTest(t *testing.T, store SnapshotStore) (*TrendCache, *fakeAggregator, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	agg := &fakeAggregator{clock: clock}
	c := NewTrendCache(agg, store, 15*time.Minute, clock.Now, logging.New())
	return c, agg, clock
}

func TestGetOrRefreshFreshnessBoundary(t *testing.T) {
	c, agg, clock := newTrendCacheForTest(t, &fakeSnapshotStore{})

	// Empty slot: first read triggers a refresh.
	first, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, agg.calls)

	// One second before the boundary the snapshot is returned unchanged.
	clock.Advance(15*time.Minute - time.Second)
	snap, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, agg.calls)
	require.Equal(t, first.GeneratedAt, snap.GeneratedAt)

	// At exactly the boundary the snapshot is stale.
	clock.Advance(time.Second)
	snap, err = c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 2, agg.calls)
	require.Equal(t, clock.Now(), snap.GeneratedAt)
}

func TestForceAlwaysRefreshes(t *testing.T) {
	c, agg, clock := newTrendCacheForTest(t, &fakeSnapshotStore{})

	_, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = c.GetOrRefresh(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 2, agg.calls)
}

func TestPersistFailureStillReturnsSnapshot(t *testing.T) {
	store := &fakeSnapshotStore{saveErr: errors.New("disk full")}
	c, agg, _ := newTrendCacheForTest(t, store)

	snap, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, snap.Trends, 1)
	require.Equal(t, 1, agg.calls)
	require.Equal(t, 1, store.saves)
	require.Nil(t, store.persisted)
}

func TestRestoresPersistedSnapshotAcrossRestart(t *testing.T) {
	clock := newFakeClock()
	persisted := trend.Snapshot{
		GeneratedAt: clock.Now().Add(-5 * time.Minute),
		Trends: []trend.Record{
			{Name: "Y2K Revival", Source: trend.SourceSearch, PopularityScore: 80},
		},
	}
	store := &fakeSnapshotStore{persisted: &persisted}
	agg := &fakeAggregator{clock: clock}
	c := NewTrendCache(agg, store, 15*time.Minute, clock.Now, logging.New())

	snap, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 0, agg.calls)
	require.Equal(t, persisted.GeneratedAt, snap.GeneratedAt)
	require.Equal(t, "Y2K Revival", snap.Trends[0].Name)
}

func TestStalePersistedSnapshotTriggersRefresh(t *testing.T) {
	clock := newFakeClock()
	persisted := trend.Snapshot{GeneratedAt: clock.Now().Add(-16 * time.Minute)}
	store := &fakeSnapshotStore{persisted: &persisted}
	agg := &fakeAggregator{clock: clock}
	c := NewTrendCache(agg, store, 15*time.Minute, clock.Now, logging.New())

	snap, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, agg.calls)
	require.Equal(t, clock.Now(), snap.GeneratedAt)
}

func TestRefreshFailureServesStaleSnapshot(t *testing.T) {
	c, agg, clock := newTrendCacheForTest(t, &fakeSnapshotStore{})

	first, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	agg.err = errors.New("aggregator down")

	snap, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, first.GeneratedAt, snap.GeneratedAt)
}

func TestStatus(t *testing.T) {
	c, _, clock := newTrendCacheForTest(t, &fakeSnapshotStore{})

	status := c.Status(context.Background())
	require.False(t, status.Exists)

	_, err := c.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	status = c.Status(context.Background())
	require.True(t, status.Exists)
	require.True(t, status.Fresh)
	require.Equal(t, 1, status.Count)
	require.Equal(t, int64(120), status.AgeSeconds)

	clock.Advance(14 * time.Minute)
	status = c.Status(context.Background())
	require.True(t, status.Exists)
	require.False(t, status.Fresh)
}
