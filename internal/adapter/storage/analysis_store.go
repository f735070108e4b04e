// internal/adapter/storage/analysis_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trendscope/internal/domain/trend"
)

// AnalysisStore implements durable storage for AI-generated analyses.
//
// Schema:
//
//	CREATE TABLE trend_analyses (
//	    id           UUID PRIMARY KEY,
//	    trend_name   TEXT NOT NULL,
//	    source       TEXT NOT NULL,
//	    context      TEXT NOT NULL DEFAULT '',
//	    insights     JSONB NOT NULL,
//	    generated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX trend_analyses_key_idx ON trend_analyses (trend_name, source, generated_at DESC);
type AnalysisStore struct {
	db *pgxpool.Pool
}

// NewAnalysisStore creates a new analysis store.
func NewAnalysisStore(db *pgxpool.Pool) *AnalysisStore {
	return &AnalysisStore{db: db}
}

// Save appends a new analysis row. Prior rows for the same key are
// retained for history; the latest row is the valid one.
func (s *AnalysisStore) Save(ctx context.Context, analysis trend.Analysis) error {
	insightsJSON, err := json.Marshal(analysis.Insights)
	if err != nil {
		return fmt.Errorf("error marshaling insights: %w", err)
	}

	query := `
		INSERT INTO trend_analyses (id, trend_name, source, context, insights, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.db.Exec(
		ctx,
		query,
		uuid.New().String(),
		analysis.TrendName,
		string(analysis.Source),
		analysis.Context,
		insightsJSON,
		analysis.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// Latest retrieves the most recently generated analysis for the key,
// or (nil, nil) when no row exists.
func (s *AnalysisStore) Latest(ctx context.Context, name string, src trend.Source) (*trend.Analysis, error) {
	query := `
		SELECT trend_name, source, context, insights, generated_at
		FROM trend_analyses
		WHERE trend_name = $1 AND source = $2
		ORDER BY generated_at DESC
		LIMIT 1
	`

	var a trend.Analysis
	var insightsJSON []byte

	err := s.db.QueryRow(ctx, query, name, string(src)).Scan(
		&a.TrendName,
		&a.Source,
		&a.Context,
		&insightsJSON,
		&a.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying analysis: %w", err)
	}

	if err := json.Unmarshal(insightsJSON, &a.Insights); err != nil {
		return nil, fmt.Errorf("error unmarshaling insights: %w", err)
	}
	return &a, nil
}
