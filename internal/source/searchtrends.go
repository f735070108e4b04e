package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"trendscope/internal/domain/trend"
	"trendscope/internal/logging"
)

// Category codes understood by the daily-trends endpoint.
var searchCategoryCodes = map[string]string{
	"Entertainment": "e",
	"Shopping":      "s",
	"Pop Culture":   "all",
}

// SearchAdapter fetches trending searches from the search-trends API,
// one request per configured category.
type SearchAdapter struct {
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	baseURL    string
	region     string
	categories []string
	now        func() time.Time
	log        logging.Logger
}

// SearchConfig configures the search-trends adapter.
type SearchConfig struct {
	BaseURL    string
	Region     string
	Categories []string
	Retry      RetryConfig
}

// NewSearchAdapter creates a search-trends adapter.
func NewSearchAdapter(cfg SearchConfig, now func() time.Time, log logging.Logger) *SearchAdapter {
	if cfg.Region == "" {
		cfg.Region = "US"
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = []string{"Entertainment", "Shopping", "Pop Culture"}
	}
	return &SearchAdapter{
		httpClient: &http.Client{Timeout: cfg.Retry.AttemptTimeout},
		executor:   newHTTPExecutor(cfg.Retry),
		baseURL:    cfg.BaseURL,
		region:     cfg.Region,
		categories: cfg.Categories,
		now:        now,
		log:        log,
	}
}

// Source implements Adapter.
func (a *SearchAdapter) Source() trend.Source {
	return trend.SourceSearch
}

// Fetch implements Adapter. Any upstream failure, including a partial
// one that yields zero records, degrades to the sample dataset.
func (a *SearchAdapter) Fetch(ctx context.Context) FetchResult {
	observed := a.now()

	var records []trend.Record
	var lastErr error

	for _, category := range a.categories {
		trends, err := a.fetchCategory(ctx, category)
		if err != nil {
			lastErr = err
			a.log.WithFields(logging.Fields{
				"source":   trend.SourceSearch,
				"category": category,
				"error":    err.Error(),
			}).Warn("search-trends category fetch failed")
			continue
		}
		for _, t := range trends {
			t.ObservedAt = observed
			records = append(records, t)
		}
	}

	if len(records) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no trending searches returned")
		}
		a.log.WithFields(logging.Fields{
			"source": trend.SourceSearch,
			"error":  lastErr.Error(),
		}).Warn("search-trends unavailable, using sample data")
		return Degraded(trend.SourceSearch, SampleSearchTrends(observed), lastErr)
	}

	return Live(trend.SourceSearch, records)
}

// dailyTrendsResponse mirrors the daily-trends wire format.
type dailyTrendsResponse struct {
	Default struct {
		TrendingSearchesDays []struct {
			Date             string `json:"date"`
			TrendingSearches []struct {
				Title struct {
					Query string `json:"query"`
				} `json:"title"`
				FormattedTraffic string `json:"formattedTraffic"`
			} `json:"trendingSearches"`
		} `json:"trendingSearchesDays"`
	} `json:"default"`
}

func (a *SearchAdapter) fetchCategory(ctx context.Context, category string) ([]trend.Record, error) {
	code, ok := searchCategoryCodes[category]
	if !ok {
		code = "all"
	}

	endpoint := fmt.Sprintf("%s/trends/api/dailytrends?%s", a.baseURL, url.Values{
		"hl":  {"en-US"},
		"tz":  {"360"},
		"geo": {a.region},
		"cat": {code},
	}.Encode())

	resp, err := a.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		return a.httpClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reach search-trends API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search-trends API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search-trends response: %w", err)
	}

	// The endpoint prefixes its JSON with an anti-hijacking marker.
	payload := strings.TrimPrefix(string(body), ")]}',")
	payload = strings.TrimLeft(payload, "\n")

	var parsed dailyTrendsResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search-trends response: %w", err)
	}

	var records []trend.Record
	for _, day := range parsed.Default.TrendingSearchesDays {
		for _, ts := range day.TrendingSearches {
			if ts.Title.Query == "" {
				continue
			}
			traffic := parseFormattedTraffic(ts.FormattedTraffic)
			records = append(records, trend.Record{
				Name:            ts.Title.Query,
				Source:          trend.SourceSearch,
				Category:        category,
				PopularityScore: float64(traffic),
				Details: trend.Details{
					Search: &trend.SearchDetails{
						Region:       a.region,
						TrafficScore: traffic,
					},
				},
			})
		}
	}

	return records, nil
}

// parseFormattedTraffic converts strings like "200K+" or "2M+" into a
// search count. Unparseable input yields zero.
func parseFormattedTraffic(s string) int {
	s = strings.TrimSuffix(strings.TrimSpace(s), "+")
	if s == "" {
		return 0
	}

	multiplier := 1
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1_000
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1_000_000
		s = strings.TrimSuffix(s, "M")
	}

	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n * multiplier
}
