//go:build wireinject
// +build wireinject

package wire

import (
	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/infra/mqtt"
	"telemetry-server/internal/telemetry/httpapi"
	"telemetry-server/internal/telemetry/usecases"
	"telemetry-server/internal/telemetry/workers"

	"github.com/google/wire"
)

var ReadingServiceSet = wire.NewSet(
	provideAppConfig,
	provideReadingStore,
	provideReadingService,
	wire.Bind(new(usecases.ReadingService), new(*usecases.SimpleReadingService)),
)

func InitializeReadingsController(broker async.InternalBroker) (*httpapi.ReadingsController, error) {
	wire.Build(
		ReadingServiceSet,
		httpapi.NewReadingsController,
	)
	return nil, nil
}

func InitializeReadingsWebSocketController(broker async.InternalBroker) (*httpapi.ReadingsWebSocketController, error) {
	wire.Build(
		ReadingServiceSet,
		httpapi.NewReadingsWebSocketController,
	)
	return nil, nil
}

func InitializeSensorGaugeWorker(broker async.InternalBroker) (*workers.SensorGaugeWorker, error) {
	wire.Build(
		provideMeter,
		workers.NewSensorGaugeWorker,
	)
	return nil, nil
}

func InitializeMQTTRelayWorker(broker async.InternalBroker, client mqtt.Client) (*workers.MQTTRelayWorker, error) {
	wire.Build(
		provideAppConfig,
		provideMQTTRelayWorker,
	)
	return nil, nil
}

func InitializeMQTTIngestWorker(broker async.InternalBroker, client mqtt.Client) (*workers.MQTTIngestWorker, error) {
	wire.Build(
		ReadingServiceSet,
		provideCodec,
		provideMQTTIngestWorker,
	)
	return nil, nil
}
