package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"trendscope/internal/domain/trend"
	"trendscope/internal/logging"
)

// ErrInvalidEntry is returned when a submitted manual entry is missing
// required fields.
var ErrInvalidEntry = errors.New("invalid manual entry")

// Popularity assigned to manual entries; trends flagged as having pop
// potential rank above the rest.
const (
	manualScoreDefault      = 50
	manualScorePopPotential = 75
)

// ManualEntry is the validated write-path input for a user-submitted
// trend.
type ManualEntry struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	LifecycleStage string `json:"lifecycle_stage"`
	PopPotential   bool   `json:"pop_potential"`
	Notes          string `json:"notes,omitempty"`
}

// manualRecord is the on-disk shape of one stored entry.
type manualRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	LifecycleStage string    `json:"lifecycle_stage"`
	PopPotential   bool      `json:"pop_potential"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ManualStore holds user-submitted trends in a JSON file. Unlike the
// network adapters it has no sample fallback: corruption of
// user-authored data is surfaced, with an empty record set.
type ManualStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
	log  logging.Logger
}

// NewManualStore creates a manual trend store backed by the given file.
func NewManualStore(path string, now func() time.Time, log logging.Logger) *ManualStore {
	return &ManualStore{path: path, now: now, log: log}
}

// Source implements Adapter.
func (s *ManualStore) Source() trend.Source {
	return trend.SourceManual
}

// Fetch implements Adapter. A missing file is an empty store, not a
// failure; a corrupt or unreadable file degrades to an empty fallback
// carrying the error.
func (s *ManualStore) Fetch(ctx context.Context) FetchResult {
	s.mu.Lock()
	entries, err := s.load()
	s.mu.Unlock()

	if err != nil {
		s.log.WithFields(logging.Fields{
			"source": trend.SourceManual,
			"path":   s.path,
			"error":  err.Error(),
		}).Error("manual trend store unreadable")
		return Degraded(trend.SourceManual, nil, &trend.SourceError{Source: trend.SourceManual, Err: err})
	}

	return Live(trend.SourceManual, toRecords(entries))
}

// List returns all stored entries as trend records, surfacing
// corruption to the caller.
func (s *ManualStore) List(ctx context.Context) ([]trend.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, &trend.SourceError{Source: trend.SourceManual, Err: err}
	}
	return toRecords(entries), nil
}

// Add validates and persists a new manual entry, returning the stored
// record.
func (s *ManualStore) Add(ctx context.Context, entry ManualEntry) (trend.Record, error) {
	if err := validateEntry(entry); err != nil {
		return trend.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return trend.Record{}, &trend.SourceError{Source: trend.SourceManual, Err: err}
	}

	stored := manualRecord{
		ID:             uuid.New().String(),
		Name:           entry.Name,
		Category:       entry.Category,
		LifecycleStage: entry.LifecycleStage,
		PopPotential:   entry.PopPotential,
		Notes:          entry.Notes,
		CreatedAt:      s.now(),
	}
	entries = append(entries, stored)

	if err := s.save(entries); err != nil {
		return trend.Record{}, &trend.SourceError{Source: trend.SourceManual, Err: err}
	}

	return toRecord(stored), nil
}

func validateEntry(entry ManualEntry) error {
	switch {
	case entry.Name == "":
		return fmt.Errorf("%w: missing required field name", ErrInvalidEntry)
	case entry.Category == "":
		return fmt.Errorf("%w: missing required field category", ErrInvalidEntry)
	case entry.LifecycleStage == "":
		return fmt.Errorf("%w: missing required field lifecycle_stage", ErrInvalidEntry)
	}
	return nil
}

func (s *ManualStore) load() ([]manualRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading manual trends: %w", err)
	}

	var entries []manualRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing manual trends: %w", err)
	}
	return entries, nil
}

func (s *ManualStore) save(entries []manualRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling manual trends: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("error writing manual trends: %w", err)
	}
	return nil
}

func toRecords(entries []manualRecord) []trend.Record {
	records := make([]trend.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, toRecord(e))
	}
	return records
}

func toRecord(e manualRecord) trend.Record {
	score := float64(manualScoreDefault)
	if e.PopPotential {
		score = manualScorePopPotential
	}
	return trend.Record{
		Name:            e.Name,
		Source:          trend.SourceManual,
		Category:        e.Category,
		PopularityScore: score,
		Details: trend.Details{
			Manual: &trend.ManualDetails{
				LifecycleStage: e.LifecycleStage,
				PopPotential:   e.PopPotential,
				Notes:          e.Notes,
			},
		},
		ObservedAt: e.CreatedAt,
	}
}
