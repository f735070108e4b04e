package source

import (
	"context"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"

	"trendscope/internal/domain/trend"
)

// Adapter is the contract every trend source implements. Fetch never
// returns an error: upstream failures are absorbed into a fallback
// result so a broken source can never break the dashboard.
type Adapter interface {
	Source() trend.Source
	Fetch(ctx context.Context) FetchResult
}

// FetchResult carries one source's outcome for an aggregation run.
// Fallback indicates the records are pre-defined samples substituted
// for live data; Reason holds the upstream failure that caused it.
type FetchResult struct {
	Source   trend.Source
	Records  []trend.Record
	Fallback bool
	Reason   error
}

// Live builds a result from real upstream data.
func Live(src trend.Source, records []trend.Record) FetchResult {
	return FetchResult{Source: src, Records: records}
}

// Degraded builds a fallback result with the failure that caused it.
func Degraded(src trend.Source, records []trend.Record, reason error) FetchResult {
	return FetchResult{Source: src, Records: records, Fallback: true, Reason: reason}
}

// RetryConfig tunes the outbound HTTP policy shared by the network
// adapters.
type RetryConfig struct {
	MaxRetries     int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
}

// shouldRetry retries network errors, server errors (5xx), and rate
// limits (429).
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil || resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// newHTTPExecutor builds a failsafe executor combining retry with
// backoff and a per-attempt timeout.
//
//nolint:bodyclose // [*http.Response] is a generic type parameter, not an actual response
func newHTTPExecutor(cfg RetryConfig) failsafe.Executor[*http.Response] {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 200 * time.Millisecond
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}

	maxDelay := 5 * time.Second
	if maxDelay < cfg.BaseDelay {
		maxDelay = cfg.BaseDelay
	}

	retry := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(cfg.BaseDelay, maxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(shouldRetry).
		Build()

	return failsafe.With(retry, timeout.New[*http.Response](cfg.AttemptTimeout))
}
