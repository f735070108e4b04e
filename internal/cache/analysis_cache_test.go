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

type memAnalysisStore struct {
	rows    map[string][]trend.Analysis
	saveErr error
	lookErr error
}

func newMemAnalysisStore() *memAnalysisStore {
	return &memAnalysisStore{rows: make(map[string][]trend.Analysis)}
}

func analysisKey(name string, src trend.Source) string {
	return name + "|" + string(src)
}

func (m *memAnalysisStore) Latest(ctx context.Context, name string, src trend.Source) (*trend.Analysis, error) {
	if m.lookErr != nil {
		return nil, m.lookErr
	}
	rows := m.rows[analysisKey(name, src)]
	if len(rows) == 0 {
		return nil, nil
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

func (m *memAnalysisStore) Save(ctx context.Context, analysis trend.Analysis) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	key := analysisKey(analysis.TrendName, analysis.Source)
	m.rows[key] = append(m.rows[key], analysis)
	return nil
}

func (m *memAnalysisStore) count(name string, src trend.Source) int {
	return len(m.rows[analysisKey(name, src)])
}

type fakeEngine struct {
	calls int
	err   error
}

func (f *fakeEngine) Analyze(ctx context.Context, record trend.Record) (trend.Analysis, error) {
	f.calls++
	if f.err != nil {
		return trend.Analysis{}, f.err
	}
	return trend.Analysis{
		Context: "origin story",
		Insights: trend.Insights{
			SocialListening: "people love it",
			ContentIdeas:    []string{"idea one"},
		},
	}, nil
}

func testRecord() trend.Record {
	return trend.Record{
		Name:            "Coastal Grandmother",
		Source:          trend.SourceSocial,
		Category:        "Fashion",
		PopularityScore: 1243,
	}
}

func TestGetOrComputeIsIdempotentWithinTTL(t *testing.T) {
	clock := newFakeClock()
	store := newMemAnalysisStore()
	engine := &fakeEngine{}
	c := NewAnalysisCache(store, engine, 12*time.Hour, clock.Now, logging.New())

	first, err := c.GetOrCompute(context.Background(), testRecord())
	require.NoError(t, err)
	require.Equal(t, 1, engine.calls)
	require.Equal(t, 1, store.count("Coastal Grandmother", trend.SourceSocial))

	clock.Advance(11 * time.Hour)
	second, err := c.GetOrCompute(context.Background(), testRecord())
	require.NoError(t, err)
	require.Equal(t, 1, engine.calls)
	require.Equal(t, first, second)
}

func TestExpiryBoundaryRecomputes(t *testing.T) {
	clock := newFakeClock()
	store := newMemAnalysisStore()
	engine := &fakeEngine{}
	c := NewAnalysisCache(store, engine, 12*time.Hour, clock.Now, logging.New())

	_, err := c.GetOrCompute(context.Background(), testRecord())
	require.NoError(t, err)

	// A row aged exactly 12 hours is expired, not reused.
	clock.Advance(12 * time.Hour)
	_, err = c.GetOrCompute(context.Background(), testRecord())
	require.NoError(t, err)
	require.Equal(t, 2, engine.calls)

	// History is retained: the recompute appended a row.
	require.Equal(t, 2, store.count("Coastal Grandmother", trend.SourceSocial))
}

func TestEngineFailureIsNotCached(t *testing.T) {
	clock := newFakeClock()
	store := newMemAnalysisStore()
	engine := &fakeEngine{err: errors.New("backend overloaded")}
	c := NewAnalysisCache(store, engine, 12*time.Hour, clock.Now, logging.New())

	_, err := c.GetOrCompute(context.Background(), testRecord())
	require.ErrorIs(t, err, trend.ErrAnalysisUnavailable)
	require.Equal(t, 0, store.count("Coastal Grandmother", trend.SourceSocial))

	// The next request retries the engine.
	engine.err = nil
	analysis, err := c.GetOrCompute(context.Background(), testRecord())
	require.NoError(t, err)
	require.Equal(t, 2, engine.calls)
	require.Equal(t, "origin story", analysis.Context)
}

func TestSaveFailureStillReturnsAnalysis(t *testing.T) {
	clock := newFakeClock()
	store := newMemAnalysisStore()
	store.saveErr = errors.New("connection reset")
	engine := &fakeEngine{}
	c := NewAnalysisCache(store, engine, 12*time.Hour, clock.Now, logging.New())

	analysis, err := c.GetOrCompute(context.Background(), testRecord())
	require.NoError(t, err)
	require.Equal(t, "origin story", analysis.Context)
	require.Equal(t, "Coastal Grandmother", analysis.TrendName)
	require.Equal(t, trend.SourceSocial, analysis.Source)
}

func TestLookupFailureDegradesToRecompute(t *testing.T) {
	clock := newFakeClock()
	store := newMemAnalysisStore()
	store.lookErr = errors.New("relation does not exist")
	engine := &fakeEngine{}
	c := NewAnalysisCache(store, engine, 12*time.Hour, clock.Now, logging.New())

	analysis, err := c.GetOrCompute(context.Background(), testRecord())
	require.NoError(t, err)
	require.Equal(t, 1, engine.calls)
	require.Equal(t, clock.Now(), analysis.GeneratedAt)
}
