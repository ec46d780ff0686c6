package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"telemetry-server/internal/infra/cache"
	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/dto"
	"telemetry-server/internal/telemetry/usecases"
)

const DefaultReadingsKey = "telemetry:readings"

var _ usecases.ReadingStore = (*RedisReadingStore)(nil)

// RedisReadingStore keeps the snapshot under a single key, written with one
// SET so a reader gets either the previous or the new snapshot.
type RedisReadingStore struct {
	cache cache.Cache
	key   string
}

func NewRedisReadingStore(c cache.Cache, key string) (*RedisReadingStore, error) {
	if c == nil {
		return nil, fmt.Errorf("cache instance is required")
	}
	if key == "" {
		key = DefaultReadingsKey
	}

	slog.Info("redis reading store initialized", slog.String("key", key))
	return &RedisReadingStore{cache: c, key: key}, nil
}

func (s *RedisReadingStore) Get(ctx context.Context) (domain.SensorSnapshot, error) {
	var readings dto.Readings
	found, err := s.cache.Get(ctx, s.key, &readings)
	if errors.Is(err, cache.ErrUndecodable) {
		slog.Warn("stored readings are corrupt, serving zero snapshot",
			slog.String("key", s.key),
			slog.String("error", err.Error()))
		return domain.SensorSnapshot{}, nil
	}
	if err != nil {
		return domain.SensorSnapshot{}, err
	}
	if !found {
		return domain.SensorSnapshot{}, nil
	}

	snapshot, err := readings.ToSnapshot()
	if err != nil {
		slog.Warn("stored readings are incomplete, serving zero snapshot",
			slog.String("key", s.key),
			slog.String("error", err.Error()))
		return domain.SensorSnapshot{}, nil
	}

	return snapshot, nil
}

func (s *RedisReadingStore) Set(ctx context.Context, snapshot domain.SensorSnapshot) error {
	return s.cache.Set(ctx, s.key, dto.FromSnapshot(snapshot), 0)
}
