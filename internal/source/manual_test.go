package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trendscope/internal/domain/trend"
	"trendscope/internal/logging"
)

func manualNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newManualStoreForTest(t *testing.T) *ManualStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manual_trends.json")
	return NewManualStore(path, manualNow, logging.New())
}

func TestManualAddAndList(t *testing.T) {
	store := newManualStoreForTest(t)
	ctx := context.Background()

	rec, err := store.Add(ctx, ManualEntry{
		Name:           "Quiet Luxury",
		Category:       "Fashion",
		LifecycleStage: "emerging",
		PopPotential:   true,
		Notes:          "spotted on several runways",
	})
	require.NoError(t, err)
	require.Equal(t, "Quiet Luxury", rec.Name)
	require.Equal(t, trend.SourceManual, rec.Source)
	require.Equal(t, float64(75), rec.PopularityScore)
	require.NotNil(t, rec.Details.Manual)
	require.Equal(t, "emerging", rec.Details.Manual.LifecycleStage)
	require.Equal(t, manualNow(), rec.ObservedAt)

	_, err = store.Add(ctx, ManualEntry{
		Name:           "Mob Wife Aesthetic",
		Category:       "Fashion",
		LifecycleStage: "peaking",
	})
	require.NoError(t, err)

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, float64(50), records[1].PopularityScore)
}

func TestManualAddValidation(t *testing.T) {
	store := newManualStoreForTest(t)
	ctx := context.Background()

	cases := []ManualEntry{
		{Category: "Fashion", LifecycleStage: "emerging"},
		{Name: "Quiet Luxury", LifecycleStage: "emerging"},
		{Name: "Quiet Luxury", Category: "Fashion"},
	}
	for _, entry := range cases {
		_, err := store.Add(ctx, entry)
		require.ErrorIs(t, err, ErrInvalidEntry)
	}

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestManualFetchMissingFileIsEmptyLive(t *testing.T) {
	store := newManualStoreForTest(t)

	result := store.Fetch(context.Background())
	require.False(t, result.Fallback)
	require.NoError(t, result.Reason)
	require.Empty(t, result.Records)
}

func TestManualCorruptFileSurfacesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual_trends.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	store := NewManualStore(path, manualNow, logging.New())

	result := store.Fetch(context.Background())
	require.True(t, result.Fallback)
	require.Empty(t, result.Records)

	var srcErr *trend.SourceError
	require.True(t, errors.As(result.Reason, &srcErr))
	require.Equal(t, trend.SourceManual, srcErr.Source)

	_, err := store.List(context.Background())
	require.Error(t, err)
}

func TestManualEntriesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual_trends.json")
	ctx := context.Background()

	first := NewManualStore(path, manualNow, logging.New())
	_, err := first.Add(ctx, ManualEntry{
		Name:           "Cottagecore",
		Category:       "Lifestyle",
		LifecycleStage: "declining",
	})
	require.NoError(t, err)

	second := NewManualStore(path, manualNow, logging.New())
	records, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Cottagecore", records[0].Name)
}
