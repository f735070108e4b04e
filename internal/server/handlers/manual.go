// internal/server/handlers/manual.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"trendscope/internal/domain/trend"
	"trendscope/internal/source"
)

// ManualProvider is the manual trend store surface the handler
// consumes.
type ManualProvider interface {
	Add(ctx context.Context, entry source.ManualEntry) (trend.Record, error)
	List(ctx context.Context) ([]trend.Record, error)
}

// ManualHandler handles user-submitted trend entries.
type ManualHandler struct {
	store ManualProvider
}

// NewManualHandler creates a new manual entry handler.
func NewManualHandler(store ManualProvider) *ManualHandler {
	return &ManualHandler{store: store}
}

// ListEntries returns all stored manual entries.
func (h *ManualHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Manual trend store is unavailable")
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

// CreateEntry validates and stores a new manual entry.
func (h *ManualHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var entry source.ManualEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.store.Add(r.Context(), entry)
	if err != nil {
		if errors.Is(err, source.ErrInvalidEntry) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to store manual entry")
		return
	}

	respondWithJSON(w, http.StatusCreated, record)
}
