package source

import (
	"time"

	"trendscope/internal/domain/trend"
)

// SampleSearchTrends returns the pre-defined search-trend dataset
// substituted when the search-trends API is unreachable.
func SampleSearchTrends(observed time.Time) []trend.Record {
	samples := []struct {
		name     string
		category string
		traffic  int
		change   int
	}{
		{"Spring Fashion 2026", "Shopping", 200_000, 20},
		{"Viral Social Media Dance", "Pop Culture", 150_000, 15},
		{"Streaming Platform Originals", "Entertainment", 100_000, 12},
		{"Sustainable Clothing Brands", "Shopping", 80_000, 18},
		{"Music Festival Season", "Entertainment", 60_000, 9},
	}

	records := make([]trend.Record, 0, len(samples))
	for _, s := range samples {
		records = append(records, trend.Record{
			Name:            s.name,
			Source:          trend.SourceSearch,
			Category:        s.category,
			PopularityScore: float64(s.traffic),
			Details: trend.Details{
				Search: &trend.SearchDetails{
					Region:       "US",
					TrafficScore: s.traffic,
					Change:       s.change,
				},
			},
			ObservedAt: observed,
		})
	}
	return records
}

// SampleSocialTrends returns the pre-defined social dataset substituted
// when Reddit is unreachable. Shapes mirror real listing responses.
func SampleSocialTrends(observed time.Time) []trend.Record {
	samples := []struct {
		name      string
		category  string
		subreddit string
		upvotes   int
		permalink string
	}{
		{
			"Discussion: What fashion trends are you seeing emerge this spring?",
			"Fashion", "femalefashionadvice", 1842,
			"https://www.reddit.com/r/femalefashionadvice/comments/sample1",
		},
		{
			"The latest viral dance explained: What makes it so popular?",
			"Social Media", "AskTikTok", 1569,
			"https://www.reddit.com/r/AskTikTok/comments/sample2",
		},
		{
			"Celebrity fashion at last night's award show - who wore it best?",
			"Pop Culture", "popculturechat", 1438,
			"https://www.reddit.com/r/popculturechat/comments/sample3",
		},
		{
			"Interactive map showing cultural trends across different countries",
			"Internet Culture", "internetisbeautiful", 1367,
			"https://www.reddit.com/r/internetisbeautiful/comments/sample4",
		},
		{
			"What's driving the resurgence of Y2K fashion among Gen Z?",
			"Pop Culture", "popculturechat", 1156,
			"https://www.reddit.com/r/popculturechat/comments/sample5",
		},
	}

	records := make([]trend.Record, 0, len(samples))
	for _, s := range samples {
		records = append(records, trend.Record{
			Name:            s.name,
			Source:          trend.SourceSocial,
			Category:        s.category,
			PopularityScore: float64(s.upvotes),
			Details: trend.Details{
				Social: &trend.SocialDetails{
					Subreddit: s.subreddit,
					Upvotes:   s.upvotes,
					Permalink: s.permalink,
					URL:       s.permalink,
				},
			},
			ObservedAt: observed,
		})
	}
	return records
}
