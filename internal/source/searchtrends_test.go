package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"trendscope/internal/domain/trend"
	"trendscope/internal/logging"
)

const dailyTrendsBody = ")]}',\n" + `{
  "default": {
    "trendingSearchesDays": [
      {
        "date": "20260301",
        "trendingSearches": [
          {"title": {"query": "award show looks"}, "formattedTraffic": "200K+"},
          {"title": {"query": "viral recipe"}, "formattedTraffic": "50K+"},
          {"title": {"query": ""}, "formattedTraffic": "20K+"}
        ]
      }
    ]
  }
}`

func TestSearchFetchParsesDailyTrends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trends/api/dailytrends", r.URL.Path)
		require.Equal(t, "US", r.URL.Query().Get("geo"))
		require.Equal(t, "e", r.URL.Query().Get("cat"))
		w.Write([]byte(dailyTrendsBody))
	}))
	defer srv.Close()

	adapter := NewSearchAdapter(SearchConfig{
		BaseURL:    srv.URL,
		Categories: []string{"Entertainment"},
		Retry:      testRetryConfig(),
	}, manualNow, logging.New())

	result := adapter.Fetch(context.Background())
	require.False(t, result.Fallback)
	require.Equal(t, trend.SourceSearch, result.Source)

	// The empty query entry is skipped.
	require.Len(t, result.Records, 2)

	first := result.Records[0]
	require.Equal(t, "award show looks", first.Name)
	require.Equal(t, "Entertainment", first.Category)
	require.Equal(t, float64(200000), first.PopularityScore)
	require.NotNil(t, first.Details.Search)
	require.Equal(t, "US", first.Details.Search.Region)
	require.Equal(t, 200000, first.Details.Search.TrafficScore)
	require.Equal(t, manualNow(), first.ObservedAt)
}

func TestSearchFailureDegradesToSamples(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := NewSearchAdapter(SearchConfig{
		BaseURL:    srv.URL,
		Categories: []string{"Entertainment"},
		Retry:      testRetryConfig(),
	}, manualNow, logging.New())

	result := adapter.Fetch(context.Background())
	require.True(t, result.Fallback)
	require.Error(t, result.Reason)
	require.NotEmpty(t, result.Records)
	for _, rec := range result.Records {
		require.Equal(t, trend.SourceSearch, rec.Source)
		require.NotNil(t, rec.Details.Search)
	}
}

func TestSearchMalformedResponseDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(")]}',\nnot json at all"))
	}))
	defer srv.Close()

	adapter := NewSearchAdapter(SearchConfig{
		BaseURL:    srv.URL,
		Categories: []string{"Entertainment"},
		Retry:      testRetryConfig(),
	}, manualNow, logging.New())

	result := adapter.Fetch(context.Background())
	require.True(t, result.Fallback)
	require.Error(t, result.Reason)
}

func TestParseFormattedTraffic(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"200K+", 200000},
		{"2M+", 2000000},
		{"500+", 500},
		{"1,500K+", 1500000},
		{" 50K+ ", 50000},
		{"", 0},
		{"garbage", 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, parseFormattedTraffic(tc.in), "input %q", tc.in)
	}
}
