// internal/adapter/storage/snapshot_redis.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trendscope/internal/domain/trend"
)

// RedisSnapshotStore persists the trend snapshot under a single key,
// for deployments without a writable disk. The key is overwritten
// wholesale on every save.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotStore creates a redis-backed snapshot store.
func NewRedisSnapshotStore(client *redis.Client, key string) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, key: key}
}

// Load reads the persisted snapshot. A missing key returns (nil, nil).
func (s *RedisSnapshotStore) Load(ctx context.Context) (*trend.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading snapshot key: %w", err)
	}

	var snapshot trend.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("error parsing snapshot payload: %w", err)
	}
	return &snapshot, nil
}

// Save overwrites the persisted snapshot.
func (s *RedisSnapshotStore) Save(ctx context.Context, snapshot trend.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("error marshaling snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("error writing snapshot key: %w", err)
	}
	return nil
}
