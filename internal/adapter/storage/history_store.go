// internal/adapter/storage/history_store.go

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trendscope/internal/domain/trend"
)

// HistoryStore implements the append-only trend history log.
//
// Schema:
//
//	CREATE TABLE trend_history (
//	    id               UUID PRIMARY KEY,
//	    trend_name       TEXT NOT NULL,
//	    source           TEXT NOT NULL,
//	    category         TEXT NOT NULL DEFAULT '',
//	    popularity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    details          JSONB NOT NULL,
//	    recorded_at      TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX trend_history_key_idx ON trend_history (trend_name, source, recorded_at);
type HistoryStore struct {
	db *pgxpool.Pool
}

// NewHistoryStore creates a new history store.
func NewHistoryStore(db *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record appends one history row per record in the snapshot, in a
// single batch. Rows are never updated or deleted afterwards.
func (s *HistoryStore) Record(ctx context.Context, snapshot trend.Snapshot) error {
	if len(snapshot.Trends) == 0 {
		return nil
	}

	query := `
		INSERT INTO trend_history (id, trend_name, source, category, popularity_score, details, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, rec := range snapshot.Trends {
		detailsJSON, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("error marshaling details: %w", err)
		}
		batch.Queue(
			query,
			uuid.New().String(),
			rec.Name,
			string(rec.Source),
			rec.Category,
			rec.PopularityScore,
			detailsJSON,
			snapshot.GeneratedAt,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range snapshot.Trends {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("error executing batch insert: %w", err)
		}
	}
	return nil
}

// History returns the popularity of one trend over time, oldest first.
func (s *HistoryStore) History(ctx context.Context, name string, src trend.Source, since time.Time) ([]trend.HistoryPoint, error) {
	query := `
		SELECT recorded_at, popularity_score
		FROM trend_history
		WHERE trend_name = $1 AND source = $2 AND recorded_at >= $3
		ORDER BY recorded_at
	`

	rows, err := s.db.Query(ctx, query, name, string(src), since)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var points []trend.HistoryPoint
	for rows.Next() {
		var p trend.HistoryPoint
		if err := rows.Scan(&p.RecordedAt, &p.PopularityScore); err != nil {
			return nil, fmt.Errorf("error scanning history point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return points, nil
}
