// internal/server/handlers/trend.go

package handlers

import (
	"context"
	"net/http"
	"time"

	"trendscope/internal/cache"
	"trendscope/internal/domain/trend"
)

// TrendProvider is the slice of the trend cache the handlers consume.
type TrendProvider interface {
	GetOrRefresh(ctx context.Context, force bool) (trend.Snapshot, error)
	Status(ctx context.Context) cache.Status
}

// TrendHandler handles dashboard trend requests.
type TrendHandler struct {
	trends TrendProvider
}

// NewTrendHandler creates a new trend handler.
func NewTrendHandler(trends TrendProvider) *TrendHandler {
	return &TrendHandler{trends: trends}
}

// snapshotResponse is the dashboard list payload; filtering happens
// here at the consumption layer, the cached snapshot is untouched.
type snapshotResponse struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Trends      []trend.Record `json:"trends"`
}

// GetTrends returns the cached snapshot, refreshing it when stale.
// Optional category/source query parameters filter the response.
func (h *TrendHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.trends.GetOrRefresh(r.Context(), false)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load trends")
		return
	}

	records := snapshot.Trends
	category := r.URL.Query().Get("category")
	src := r.URL.Query().Get("source")
	if category != "" || src != "" {
		filtered := make([]trend.Record, 0, len(records))
		for _, rec := range records {
			if category != "" && rec.Category != category {
				continue
			}
			if src != "" && string(rec.Source) != src {
				continue
			}
			filtered = append(filtered, rec)
		}
		records = filtered
	}

	respondWithJSON(w, http.StatusOK, snapshotResponse{
		GeneratedAt: snapshot.GeneratedAt,
		Trends:      records,
	})
}

// RefreshTrends forces a refresh regardless of freshness.
func (h *TrendHandler) RefreshTrends(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.trends.GetOrRefresh(r.Context(), true)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to refresh trends")
		return
	}

	respondWithJSON(w, http.StatusOK, snapshotResponse{
		GeneratedAt: snapshot.GeneratedAt,
		Trends:      snapshot.Trends,
	})
}

// GetCacheStatus reports the trend cache's age and contents.
func (h *TrendHandler) GetCacheStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.trends.Status(r.Context()))
}
