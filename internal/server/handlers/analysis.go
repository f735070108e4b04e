// internal/server/handlers/analysis.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"trendscope/internal/domain/trend"
)

// AnalysisProvider is the slice of the analysis cache the handlers
// consume.
type AnalysisProvider interface {
	GetOrCompute(ctx context.Context, record trend.Record) (trend.Analysis, error)
}

// HistoryProvider queries a trend's popularity over time.
type HistoryProvider interface {
	History(ctx context.Context, name string, src trend.Source, since time.Time) ([]trend.HistoryPoint, error)
}

// Clock provides the current time for period calculations.
type Clock func() time.Time

// AnalysisHandler handles trend detail requests: AI analysis and
// longitudinal history.
type AnalysisHandler struct {
	trends   TrendProvider
	analyses AnalysisProvider
	history  HistoryProvider
	now      Clock
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(trends TrendProvider, analyses AnalysisProvider, history HistoryProvider, now Clock) *AnalysisHandler {
	return &AnalysisHandler{
		trends:   trends,
		analyses: analyses,
		history:  history,
		now:      now,
	}
}

// recordFromRequest resolves the (source, name) path parameters against
// the current snapshot.
func (h *AnalysisHandler) recordFromRequest(w http.ResponseWriter, r *http.Request) (trend.Record, bool) {
	src := trend.Source(chi.URLParam(r, "source"))
	if !src.Valid() {
		respondWithError(w, http.StatusBadRequest, "Unknown trend source")
		return trend.Record{}, false
	}

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		respondWithError(w, http.StatusBadRequest, "Missing trend name")
		return trend.Record{}, false
	}

	snapshot, err := h.trends.GetOrRefresh(r.Context(), false)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load trends")
		return trend.Record{}, false
	}

	record := snapshot.Find(name, src)
	if record == nil {
		respondWithError(w, http.StatusNotFound, "Trend not found")
		return trend.Record{}, false
	}
	return *record, true
}

// GetAnalysis returns the cached or freshly computed AI analysis for
// one trend. Analysis failure is the one error surfaced explicitly to
// the dashboard.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	record, ok := h.recordFromRequest(w, r)
	if !ok {
		return
	}

	analysis, err := h.analyses.GetOrCompute(r.Context(), record)
	if err != nil {
		if errors.Is(err, trend.ErrAnalysisUnavailable) {
			respondWithError(w, http.StatusBadGateway, "Trend analysis is unavailable right now, please try again")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to analyze trend")
		return
	}

	respondWithJSON(w, http.StatusOK, analysis)
}

// GetHistory returns a trend's recorded popularity over the requested
// period (day, week, or month; default week).
func (h *AnalysisHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	src := trend.Source(chi.URLParam(r, "source"))
	if !src.Valid() {
		respondWithError(w, http.StatusBadRequest, "Unknown trend source")
		return
	}

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		respondWithError(w, http.StatusBadRequest, "Missing trend name")
		return
	}

	var span time.Duration
	switch r.URL.Query().Get("period") {
	case "day":
		span = 24 * time.Hour
	case "month":
		span = 30 * 24 * time.Hour
	case "", "week":
		span = 7 * 24 * time.Hour
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid period")
		return
	}

	points, err := h.history.History(r.Context(), name, src, h.now().Add(-span))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load trend history")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"trend_name": name,
		"source":     src,
		"points":     points,
	})
}
