package workers

import (
	"context"
	"fmt"
	"log/slog"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/infra/mqtt"
	"telemetry-server/internal/telemetry/dto"
	"telemetry-server/internal/telemetry/usecases"
)

const _ingestQoS byte = 0

// NewMQTTIngestWorker feeds readings published by devices on topic through
// the reading service, the same path POST /update_readings takes.
func NewMQTTIngestWorker(client mqtt.Client, codec mqtt.Codec, service usecases.ReadingService, topic string) *MQTTIngestWorker {
	return &MQTTIngestWorker{
		client:  client,
		codec:   codec,
		service: service,
		topic:   topic,
	}
}

var _ async.Worker = &MQTTIngestWorker{}

type MQTTIngestWorker struct {
	client  mqtt.Client
	codec   mqtt.Codec
	service usecases.ReadingService
	topic   string
	stopper
}

func (w *MQTTIngestWorker) Run(ctx context.Context, done func()) {
	defer done()

	ctx = w.bind(ctx)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		defer msg.Ack()
		if err := w.ingest(ctx, msg.Payload()); err != nil {
			slog.Warn("dropping mqtt readings",
				slog.String("topic", msg.Topic()),
				slog.Any("error", err),
			)
		}
	}

	if err := w.client.Subscribe(w.topic, _ingestQoS, handler); err != nil {
		slog.Error("mqtt ingest subscribing", slog.String("topic", w.topic), slog.Any("error", err))
		return
	}

	slog.Info("mqtt ingest started", slog.String("topic", w.topic), slog.String("encoding", w.codec.Name()))

	<-ctx.Done()
	slog.Info("mqtt ingest cancelled")
}

func (w *MQTTIngestWorker) ingest(ctx context.Context, payload []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var readings dto.Readings
	if err := w.codec.Unmarshal(payload, &readings); err != nil {
		return fmt.Errorf("%w: %w", dto.ErrInvalidRequest, err)
	}

	snapshot, err := readings.ToSnapshot()
	if err != nil {
		return err
	}

	return w.service.UpdateReadings(ctx, snapshot)
}

func (w *MQTTIngestWorker) Shutdown() {
	slog.Info("mqtt ingest shutdown")
	w.stop()
}
