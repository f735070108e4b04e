package trend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceValid(t *testing.T) {
	require.True(t, SourceSearch.Valid())
	require.True(t, SourceSocial.Valid())
	require.True(t, SourceManual.Valid())
	require.False(t, Source("twitter").Valid())
	require.False(t, Source("").Valid())
}

func TestSnapshotFind(t *testing.T) {
	snapshot := Snapshot{
		Trends: []Record{
			{Name: "Viral Dance", Source: SourceSocial, PopularityScore: 1243},
			{Name: "Viral Dance", Source: SourceSearch, PopularityScore: 50000},
		},
	}

	rec := snapshot.Find("Viral Dance", SourceSearch)
	require.NotNil(t, rec)
	require.Equal(t, float64(50000), rec.PopularityScore)

	require.Nil(t, snapshot.Find("Viral Dance", SourceManual))
	require.Nil(t, snapshot.Find("Unknown", SourceSocial))
}
