package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"trendscope/internal/domain/trend"
	"trendscope/internal/logging"
)

// subredditCategories maps monitored subreddits onto dashboard
// categories. Unknown subreddits fall back to "Social".
var subredditCategories = map[string]string{
	"popculturechat":      "Pop Culture",
	"AskTikTok":           "Social Media",
	"femalefashionadvice": "Fashion",
	"internetisbeautiful": "Internet Culture",
}

// RedditAdapter fetches top posts from a set of subreddits through the
// unauthenticated JSON listing endpoints.
type RedditAdapter struct {
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	baseURL    string
	userAgent  string
	subreddits []string
	postLimit  int
	timeRange  string
	now        func() time.Time
	log        logging.Logger
}

// RedditConfig configures the Reddit adapter.
type RedditConfig struct {
	BaseURL    string
	UserAgent  string
	Subreddits []string
	PostLimit  int
	TimeRange  string
	Retry      RetryConfig
}

// NewRedditAdapter creates a Reddit adapter.
func NewRedditAdapter(cfg RedditConfig, now func() time.Time, log logging.Logger) *RedditAdapter {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "trendscope/1.0"
	}
	if cfg.PostLimit <= 0 {
		cfg.PostLimit = 5
	}
	if cfg.TimeRange == "" {
		cfg.TimeRange = "day"
	}
	if len(cfg.Subreddits) == 0 {
		cfg.Subreddits = []string{"popular"}
	}
	return &RedditAdapter{
		httpClient: &http.Client{Timeout: cfg.Retry.AttemptTimeout},
		executor:   newHTTPExecutor(cfg.Retry),
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		subreddits: cfg.Subreddits,
		postLimit:  cfg.PostLimit,
		timeRange:  cfg.TimeRange,
		now:        now,
		log:        log,
	}
}

// Source implements Adapter.
func (a *RedditAdapter) Source() trend.Source {
	return trend.SourceSocial
}

// Fetch implements Adapter. Subreddits fail independently; only a run
// with zero live posts degrades to the sample dataset.
func (a *RedditAdapter) Fetch(ctx context.Context) FetchResult {
	observed := a.now()

	var records []trend.Record
	var lastErr error

	for _, subreddit := range a.subreddits {
		posts, err := a.fetchTop(ctx, subreddit)
		if err != nil {
			lastErr = err
			a.log.WithFields(logging.Fields{
				"source":    trend.SourceSocial,
				"subreddit": subreddit,
				"error":     err.Error(),
			}).Warn("reddit subreddit fetch failed")
			continue
		}

		category := subredditCategories[subreddit]
		if category == "" {
			category = "Social"
		}

		for _, post := range posts {
			records = append(records, trend.Record{
				Name:            post.Title,
				Source:          trend.SourceSocial,
				Category:        category,
				PopularityScore: float64(post.Score),
				Details: trend.Details{
					Social: &trend.SocialDetails{
						Subreddit: post.Subreddit,
						Upvotes:   post.Score,
						Permalink: "https://www.reddit.com" + post.Permalink,
						URL:       post.URL,
					},
				},
				ObservedAt: observed,
			})
		}
	}

	if len(records) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no posts returned")
		}
		a.log.WithFields(logging.Fields{
			"source": trend.SourceSocial,
			"error":  lastErr.Error(),
		}).Warn("reddit unavailable, using sample data")
		return Degraded(trend.SourceSocial, SampleSocialTrends(observed), lastErr)
	}

	return Live(trend.SourceSocial, records)
}

// redditPost represents a post in a Reddit listing.
type redditPost struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Permalink string `json:"permalink"`
	Score     int    `json:"score"`
	Subreddit string `json:"subreddit"`
}

// redditListing represents the structure of the Reddit listing response.
type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (a *RedditAdapter) fetchTop(ctx context.Context, subreddit string) ([]redditPost, error) {
	endpoint := fmt.Sprintf("%s/r/%s/top.json?limit=%d&t=%s", a.baseURL, subreddit, a.postLimit, a.timeRange)

	resp, err := a.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		// Reddit throttles requests without an identifying User-Agent.
		req.Header.Set("User-Agent", a.userAgent)
		return a.httpClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Reddit API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Reddit API returned status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode Reddit response: %w", err)
	}

	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}
