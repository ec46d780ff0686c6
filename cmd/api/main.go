package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"telemetry-server/cmd/api/wire"
	"telemetry-server/cmd/config"
	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/infra/httpserver"
	"telemetry-server/internal/infra/mqtt"
	"telemetry-server/internal/infra/node"
	"telemetry-server/internal/telemetry/httpapi"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const _shutdownTimeout = 10 * time.Second

var (
	logLevelMapping = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

func main() {
	config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	config := config.LoadConfig()

	level := logLevelMapping[config.General.LogLevel]
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: level, ReplaceAttr: slogReplaceAttr})
	handler := baseHandler.WithAttrs([]slog.Attr{slog.String("version", node.Version)})
	slog.SetDefault(slog.New(handler))
	slog.Info("🚀 telemetry server is initializing")
	slog.Debug("config loaded", "data", config)

	shutdownOtel := func() error { return nil }
	if config.OTel.Enabled {
		shutdownOtel = startOTel(config.OTel.Endpoint)
	}

	internalBroker := async.NewLocalBroker()

	websocketController := handleWireInjector(wire.InitializeReadingsWebSocketController(internalBroker)).(*httpapi.ReadingsWebSocketController)
	httpServer := httpserver.NewServer(
		config.HTTP.Address,
		handleWireInjector(wire.InitializeReadingsController(internalBroker)).(httpserver.Controller),
		websocketController,
	)

	appCtx, cancelFn := context.WithCancel(context.Background())
	go httpServer.Run()
	slog.Info("listening", slog.String("address", httpServer.Addr()))

	var wg sync.WaitGroup
	var workers []async.Worker

	workers = append(workers, handleWireInjector(wire.InitializeSensorGaugeWorker(internalBroker)).(async.Worker))

	var mqttClient mqtt.Client
	if config.MQTTClient.Enabled {
		mqttClient = startMQTT(config.MQTTClient)

		if config.MQTTClient.RelayTopic != "" {
			workers = append(workers, handleWireInjector(wire.InitializeMQTTRelayWorker(internalBroker, mqttClient)).(async.Worker))
		}
		if config.MQTTClient.IngestTopic != "" {
			workers = append(workers, handleWireInjector(wire.InitializeMQTTIngestWorker(internalBroker, mqttClient)).(async.Worker))
		}
	}

	for _, worker := range workers {
		wg.Add(1)
		go worker.Run(appCtx, wg.Done)
	}

	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	<-signalChannel
	slog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), _shutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", slog.Any("error", err))
	}
	websocketController.Shutdown()

	for _, worker := range workers {
		worker.Shutdown()
	}
	cancelFn()
	wg.Wait()

	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	internalBroker.Stop()

	if err := shutdownOtel(); err != nil {
		slog.Error("otel shutdown", slog.Any("error", err))
	}

	slog.Info("good bye!!!")
	os.Exit(0)
}

func startMQTT(cfg config.MQTTClientConfig) mqtt.Client {
	codec, err := mqtt.NewCodec(cfg.Encoding)
	if err != nil {
		slog.Error("mqtt codec", slog.Any("error", err))
		panic(err)
	}

	client, err := mqtt.NewSimpleClient(mqtt.SimpleClientOpts{
		Broker:   cfg.Broker,
		ClientID: cfg.ClientID,
		Username: cfg.Username,
		Password: cfg.Password, //pragma: allowlist secret
		Codec:    codec,
	})
	if err != nil {
		slog.Error("mqtt client", slog.Any("error", err))
		panic(err)
	}

	return client
}

func slogReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
		return slog.Any(a.Key, source)
	}
	return a
}

type ShutdownFunc func() error

const (
	_collectPeriod   = 30 * time.Second
	_collectTimeout  = 35 * time.Second
	_minimumInterval = time.Minute
)

var (
	_histogramBuckets = []float64{5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000}
)

func startOTel(endpoint string) ShutdownFunc {
	slog.Info("starting OTel providers", slog.String("endpoint", endpoint))
	shutdown, err := otelStart(context.Background(), endpoint)
	if err != nil {
		panic(err)
	}

	return shutdown
}

func otelStart(ctx context.Context, endpoint string) (ShutdownFunc, error) {
	metricsShutdownFunc, err := startMetricsProvider(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	traceShutdownFunc, err := startTraceProvider(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return func() error {
		if err := metricsShutdownFunc(); err != nil {
			return err
		}
		return traceShutdownFunc()
	}, nil
}

func serviceResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String("telemetry-server"),
		semconv.ServiceVersionKey.String(node.Version),
	)
}

func startTraceProvider(ctx context.Context, endpoint string) (ShutdownFunc, error) {
	exp, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(serviceResource()),
	)
	otel.SetTracerProvider(tp)

	return func() error {
		return tp.Shutdown(ctx)
	}, nil
}

func startMetricsProvider(ctx context.Context, endpoint string) (ShutdownFunc, error) {
	exp, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	mp := newMeterProvider(exp)
	otel.SetMeterProvider(mp)

	err = runtime.Start(runtime.WithMinimumReadMemStatsInterval(_minimumInterval))
	if err != nil {
		return nil, err
	}

	return func() error {
		return mp.Shutdown(ctx)
	}, nil
}

func newMeterProvider(metricExporter metric.Exporter) *metric.MeterProvider {
	return metric.NewMeterProvider(
		metric.WithResource(serviceResource()),
		metric.WithReader(
			metric.NewPeriodicReader(
				metricExporter,
				metric.WithTimeout(_collectTimeout),
				metric.WithInterval(_collectPeriod))),
		metric.WithView(metric.NewView(
			metric.Instrument{
				Name: "*",
				Kind: metric.InstrumentKindHistogram,
			},
			metric.Stream{
				Aggregation: metric.AggregationExplicitBucketHistogram{
					Boundaries: _histogramBuckets,
				},
			},
		)),
	)
}

func handleWireInjector(value any, err error) any {
	if err != nil {
		panic(err)
	}

	return value
}
