package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/telemetry/domain"
)

const (
	ReadingsTopic        async.BrokerTopicName = "sensor_readings"
	ReadingsUpdatedEvent string                = "readings_updated"
)

func NewReadingService(store ReadingStore, broker async.InternalBroker) *SimpleReadingService {
	return &SimpleReadingService{
		store:  store,
		broker: broker,
	}
}

var _ ReadingService = &SimpleReadingService{}

// SimpleReadingService owns the reading store and announces every accepted
// snapshot on ReadingsTopic. Writes are serialized so the last announced
// snapshot is always the stored one.
type SimpleReadingService struct {
	mu     sync.Mutex
	store  ReadingStore
	broker async.InternalBroker
}

func (s *SimpleReadingService) CurrentReadings(ctx context.Context) (domain.SensorSnapshot, error) {
	snapshot, err := s.store.Get(ctx)
	if err != nil {
		slog.Error("getting current readings", slog.String("error", err.Error()))
		return domain.SensorSnapshot{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return snapshot, nil
}

func (s *SimpleReadingService) UpdateReadings(ctx context.Context, snapshot domain.SensorSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, snapshot); err != nil {
		slog.Error("storing readings", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	slog.Debug("readings updated",
		slog.Float64("temp", snapshot.Temperature),
		slog.Float64("joy_x", snapshot.JoystickX),
		slog.Float64("joy_y", snapshot.JoystickY),
		slog.Int("btn_a", snapshot.ButtonA),
		slog.Int("btn_b", snapshot.ButtonB),
	)

	msg := async.BrokerMessage{Event: ReadingsUpdatedEvent, Value: snapshot}
	err := s.broker.Publish(ctx, ReadingsTopic, msg)
	if errors.Is(err, async.ErrTopicNotFound) {
		slog.Debug("no subscribers for readings", slog.String("topic", string(ReadingsTopic)))
		return nil
	}
	if err != nil {
		slog.Warn("publishing readings", slog.String("error", err.Error()))
	}

	return nil
}
