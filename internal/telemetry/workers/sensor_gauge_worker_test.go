package workers_test

import (
	"context"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/usecases"
	"telemetry-server/internal/telemetry/workers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectGauge[N int64 | float64](reader *sdkmetric.ManualReader, name string) []metricdata.DataPoint[N] {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		return nil
	}

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			if gauge, ok := m.Data.(metricdata.Gauge[N]); ok {
				return gauge.DataPoints
			}
		}
	}
	return nil
}

func valueFor[N int64 | float64](points []metricdata.DataPoint[N], key, value string) (N, bool) {
	for _, point := range points {
		if v, ok := point.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return point.Value, true
		}
	}
	return 0, false
}

var _ = Describe("SensorGaugeWorker", func() {
	var (
		broker *async.LocalBroker
		reader *sdkmetric.ManualReader
		worker *workers.SensorGaugeWorker
		ctx    context.Context
		cancel context.CancelFunc
		done   chan struct{}
	)

	BeforeEach(func() {
		broker = async.NewLocalBroker()
		reader = sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

		var err error
		worker, err = workers.NewSensorGaugeWorker(broker, provider.Meter("test"))
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})
		go worker.Run(ctx, func() { close(done) })
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(BeClosed())
		broker.Stop()
	})

	publish := func(snapshot domain.SensorSnapshot) {
		msg := async.BrokerMessage{Event: usecases.ReadingsUpdatedEvent, Value: snapshot}
		Eventually(func() error {
			return broker.Publish(ctx, usecases.ReadingsTopic, msg)
		}).Should(Succeed())
	}

	It("should record the temperature", func() {
		publish(domain.SensorSnapshot{Temperature: 27.31})

		Eventually(func() []metricdata.DataPoint[float64] {
			return collectGauge[float64](reader, "telemetry_server.sensor.temperature")
		}).Should(ContainElement(HaveField("Value", 27.31)))
	})

	It("should record each joystick axis", func() {
		publish(domain.SensorSnapshot{JoystickX: 0.5, JoystickY: -0.25})

		Eventually(func(g Gomega) {
			points := collectGauge[float64](reader, "telemetry_server.sensor.joystick")

			x, ok := valueFor(points, "axis", "x")
			g.Expect(ok).To(BeTrue())
			g.Expect(x).To(Equal(0.5))

			y, ok := valueFor(points, "axis", "y")
			g.Expect(ok).To(BeTrue())
			g.Expect(y).To(Equal(-0.25))
		}).Should(Succeed())
	})

	It("should record each button", func() {
		publish(domain.SensorSnapshot{ButtonA: 1, ButtonB: 0})

		Eventually(func(g Gomega) {
			points := collectGauge[int64](reader, "telemetry_server.sensor.button")

			a, ok := valueFor(points, "button", "a")
			g.Expect(ok).To(BeTrue())
			g.Expect(a).To(Equal(int64(1)))

			b, ok := valueFor(points, "button", "b")
			g.Expect(ok).To(BeTrue())
			g.Expect(b).To(BeZero())
		}).Should(Succeed())
	})

	It("should stop on shutdown", func() {
		worker.Shutdown()

		Eventually(done).Should(BeClosed())
	})
})
