package workers

import (
	"context"
	"log/slog"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/infra/mqtt"
	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/dto"
	"telemetry-server/internal/telemetry/usecases"
)

// NewMQTTRelayWorker republishes every accepted snapshot on topic using the
// client's codec.
func NewMQTTRelayWorker(broker async.InternalBroker, client mqtt.Client, topic string) *MQTTRelayWorker {
	return &MQTTRelayWorker{
		broker: broker,
		client: client,
		topic:  topic,
	}
}

var _ async.Worker = &MQTTRelayWorker{}

type MQTTRelayWorker struct {
	broker async.InternalBroker
	client mqtt.Client
	topic  string
	stopper
}

func (w *MQTTRelayWorker) Run(ctx context.Context, done func()) {
	defer done()

	ctx = w.bind(ctx)

	subscription, err := w.broker.Subscribe(usecases.ReadingsTopic)
	if err != nil {
		slog.Error("mqtt relay subscribing", slog.Any("error", err))
		return
	}
	defer w.broker.Unsubscribe(usecases.ReadingsTopic, subscription)

	slog.Info("mqtt relay started", slog.String("topic", w.topic))

	for {
		select {
		case <-ctx.Done():
			slog.Info("mqtt relay cancelled")
			return
		case msg, ok := <-subscription.Receiver:
			if !ok {
				return
			}
			snapshot, ok := msg.Value.(domain.SensorSnapshot)
			if !ok {
				continue
			}
			if err := w.client.Publish(w.topic, dto.FromSnapshot(snapshot)); err != nil {
				slog.Warn("relaying readings", slog.String("topic", w.topic), slog.Any("error", err))
			}
		}
	}
}

func (w *MQTTRelayWorker) Shutdown() {
	slog.Info("mqtt relay shutdown")
	w.stop()
}
