package workers

import (
	"context"
	"fmt"
	"log/slog"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/usecases"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	_meterName = "telemetry-server"

	temperatureGaugeName = "telemetry_server.sensor.temperature"
	joystickGaugeName    = "telemetry_server.sensor.joystick"
	buttonGaugeName      = "telemetry_server.sensor.button"
)

var (
	axisX   = metric.WithAttributes(attribute.String("axis", "x"))
	axisY   = metric.WithAttributes(attribute.String("axis", "y"))
	buttonA = metric.WithAttributes(attribute.String("button", "a"))
	buttonB = metric.WithAttributes(attribute.String("button", "b"))
)

// NewSensorGaugeWorker mirrors the latest snapshot into OpenTelemetry
// gauges. A nil meter falls back to the global meter provider.
func NewSensorGaugeWorker(broker async.InternalBroker, meter metric.Meter) (*SensorGaugeWorker, error) {
	if meter == nil {
		meter = otel.Meter(_meterName)
	}

	temperature, err := meter.Float64Gauge(temperatureGaugeName,
		metric.WithDescription("Last temperature reported by the device"),
		metric.WithUnit("Cel"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating temperature gauge: %w", err)
	}

	joystick, err := meter.Float64Gauge(joystickGaugeName,
		metric.WithDescription("Last joystick position per axis"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating joystick gauge: %w", err)
	}

	button, err := meter.Int64Gauge(buttonGaugeName,
		metric.WithDescription("Last button state, 1 when pressed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating button gauge: %w", err)
	}

	return &SensorGaugeWorker{
		broker:      broker,
		temperature: temperature,
		joystick:    joystick,
		button:      button,
	}, nil
}

var _ async.Worker = &SensorGaugeWorker{}

type SensorGaugeWorker struct {
	broker      async.InternalBroker
	temperature metric.Float64Gauge
	joystick    metric.Float64Gauge
	button      metric.Int64Gauge
	stopper
}

func (w *SensorGaugeWorker) Run(ctx context.Context, done func()) {
	defer done()

	ctx = w.bind(ctx)

	subscription, err := w.broker.Subscribe(usecases.ReadingsTopic)
	if err != nil {
		slog.Error("sensor gauge worker subscribing", slog.Any("error", err))
		return
	}
	defer w.broker.Unsubscribe(usecases.ReadingsTopic, subscription)

	slog.Info("sensor gauge worker started")

	for {
		select {
		case <-ctx.Done():
			slog.Info("sensor gauge worker cancelled")
			return
		case msg, ok := <-subscription.Receiver:
			if !ok {
				return
			}
			if snapshot, ok := msg.Value.(domain.SensorSnapshot); ok {
				w.record(ctx, snapshot)
			}
		}
	}
}

func (w *SensorGaugeWorker) record(ctx context.Context, snapshot domain.SensorSnapshot) {
	w.temperature.Record(ctx, snapshot.Temperature)
	w.joystick.Record(ctx, snapshot.JoystickX, axisX)
	w.joystick.Record(ctx, snapshot.JoystickY, axisY)
	w.button.Record(ctx, int64(snapshot.ButtonA), buttonA)
	w.button.Record(ctx, int64(snapshot.ButtonB), buttonB)
}

func (w *SensorGaugeWorker) Shutdown() {
	slog.Info("sensor gauge worker shutdown")
	w.stop()
}
