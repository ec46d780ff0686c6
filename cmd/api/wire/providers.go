package wire

import (
	"fmt"
	"sync"

	"telemetry-server/cmd/config"
	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/infra/cache"
	"telemetry-server/internal/infra/mqtt"
	"telemetry-server/internal/telemetry/persistence"
	"telemetry-server/internal/telemetry/usecases"
	"telemetry-server/internal/telemetry/workers"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// The store and the service are process singletons: every controller and
// worker must observe the same snapshot.
var (
	readingStore     usecases.ReadingStore
	readingStoreErr  error
	readingStoreOnce sync.Once

	readingService     *usecases.SimpleReadingService
	readingServiceOnce sync.Once
)

func provideAppConfig() config.AppConfig {
	return config.LoadConfig()
}

func provideReadingStore(cfg config.AppConfig) (usecases.ReadingStore, error) {
	readingStoreOnce.Do(func() {
		readingStore, readingStoreErr = newReadingStore(cfg)
	})
	return readingStore, readingStoreErr
}

func newReadingStore(cfg config.AppConfig) (usecases.ReadingStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		redisConfig := cache.DefaultRedisConfig()
		redisConfig.Addr = cfg.Redis.Addr
		redisConfig.Password = cfg.Redis.Password
		redisConfig.DB = cfg.Redis.DB

		redisCache, err := cache.NewRedisCache(redisConfig)
		if err != nil {
			return nil, err
		}
		return persistence.NewRedisReadingStore(redisCache, cfg.Store.RedisKey)
	case config.StoreBackendMemory, "":
		return persistence.NewMemoryReadingStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.Store.Backend)
	}
}

func provideReadingService(store usecases.ReadingStore, broker async.InternalBroker) *usecases.SimpleReadingService {
	readingServiceOnce.Do(func() {
		readingService = usecases.NewReadingService(store, broker)
	})
	return readingService
}

func provideMeter() metric.Meter {
	return otel.Meter("telemetry-server")
}

func provideCodec(cfg config.AppConfig) (mqtt.Codec, error) {
	return mqtt.NewCodec(cfg.MQTTClient.Encoding)
}

func provideMQTTRelayWorker(cfg config.AppConfig, broker async.InternalBroker, client mqtt.Client) *workers.MQTTRelayWorker {
	return workers.NewMQTTRelayWorker(broker, client, cfg.MQTTClient.RelayTopic)
}

func provideMQTTIngestWorker(cfg config.AppConfig, client mqtt.Client, codec mqtt.Codec, service usecases.ReadingService) *workers.MQTTIngestWorker {
	return workers.NewMQTTIngestWorker(client, codec, service, cfg.MQTTClient.IngestTopic)
}
