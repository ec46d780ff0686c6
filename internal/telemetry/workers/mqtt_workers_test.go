package workers_test

import (
	"context"
	"errors"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/infra/mqtt"
	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/dto"
	"telemetry-server/internal/telemetry/persistence"
	"telemetry-server/internal/telemetry/usecases"
	"telemetry-server/internal/telemetry/workers"
	mockmqtt "telemetry-server/test/unit/doubles/infra/mqtt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type fakeMessage struct {
	topic   string
	payload []byte
	acked   bool
}

func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              { m.acked = true }

var _ = Describe("MQTTRelayWorker", func() {
	var (
		ctrl   *gomock.Controller
		client *mockmqtt.MockClient
		broker *async.LocalBroker
		ctx    context.Context
		cancel context.CancelFunc
		done   chan struct{}
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		client = mockmqtt.NewMockClient(ctrl)
		broker = async.NewLocalBroker()
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})

		go workers.NewMQTTRelayWorker(broker, client, "telemetry/readings").Run(ctx, func() { close(done) })
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(BeClosed())
		broker.Stop()
	})

	It("should publish accepted snapshots as readings payloads", func() {
		published := make(chan dto.Readings, 1)
		client.EXPECT().
			Publish("telemetry/readings", gomock.Any()).
			DoAndReturn(func(_ string, msg any) error {
				published <- msg.(dto.Readings)
				return nil
			})

		snapshot := domain.SensorSnapshot{Temperature: 25, JoystickX: -1, ButtonB: 1}
		Eventually(func() error {
			return broker.Publish(ctx, usecases.ReadingsTopic, async.BrokerMessage{Event: usecases.ReadingsUpdatedEvent, Value: snapshot})
		}).Should(Succeed())

		var readings dto.Readings
		Eventually(published).Should(Receive(&readings))
		Expect(readings.ToSnapshot()).To(Equal(snapshot))
	})

	It("should keep running when the broker rejects a publish", func() {
		calls := make(chan struct{}, 2)
		client.EXPECT().
			Publish(gomock.Any(), gomock.Any()).
			DoAndReturn(func(string, any) error {
				calls <- struct{}{}
				return errors.New("not connected")
			}).
			Times(2)

		for range 2 {
			Eventually(func() error {
				return broker.Publish(ctx, usecases.ReadingsTopic, async.BrokerMessage{Value: domain.SensorSnapshot{}})
			}).Should(Succeed())
			Eventually(calls).Should(Receive())
		}

		Consistently(done).ShouldNot(BeClosed())
	})
})

var _ = Describe("MQTTIngestWorker", func() {
	var (
		ctrl    *gomock.Controller
		client  *mockmqtt.MockClient
		service *usecases.SimpleReadingService
		worker  *workers.MQTTIngestWorker
		handler chan mqtt.MessageHandler
		cancel  context.CancelFunc
		done    chan struct{}
	)

	start := func(codec mqtt.Codec) {
		worker = workers.NewMQTTIngestWorker(client, codec, service, "devices/readings")

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})
		go worker.Run(ctx, func() { close(done) })
	}

	deliver := func(payload []byte) *fakeMessage {
		var callback mqtt.MessageHandler
		Eventually(handler).Should(Receive(&callback))

		msg := &fakeMessage{topic: "devices/readings", payload: payload}
		callback(client, msg)
		return msg
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		client = mockmqtt.NewMockClient(ctrl)
		service = usecases.NewReadingService(persistence.NewMemoryReadingStore(), async.NewLocalBroker())
		handler = make(chan mqtt.MessageHandler, 1)

		client.EXPECT().
			Subscribe("devices/readings", byte(0), gomock.Any()).
			DoAndReturn(func(_ string, _ byte, callback mqtt.MessageHandler) error {
				handler <- callback
				return nil
			}).
			AnyTimes()
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(BeClosed())
	})

	It("should store json readings", func() {
		start(mqtt.JSONCodec{})

		msg := deliver([]byte(`{"temp":21.5,"joy_x":0,"joy_y":1,"btn_a":1,"btn_b":0}`))

		Expect(msg.acked).To(BeTrue())
		Expect(service.CurrentReadings(context.Background())).To(Equal(domain.SensorSnapshot{
			Temperature: 21.5,
			JoystickY:   1,
			ButtonA:     1,
		}))
	})

	It("should store msgpack readings", func() {
		start(mqtt.MsgpackCodec{})

		payload, err := mqtt.MsgpackCodec{}.Marshal(dto.FromSnapshot(domain.SensorSnapshot{Temperature: -2.5, ButtonB: 1}))
		Expect(err).NotTo(HaveOccurred())

		deliver(payload)

		Expect(service.CurrentReadings(context.Background())).To(Equal(domain.SensorSnapshot{Temperature: -2.5, ButtonB: 1}))
	})

	It("should drop incomplete readings", func() {
		start(mqtt.JSONCodec{})

		msg := deliver([]byte(`{"temp":99}`))

		Expect(msg.acked).To(BeTrue())
		Expect(service.CurrentReadings(context.Background())).To(Equal(domain.SensorSnapshot{}))
	})

	It("should drop payloads that do not decode", func() {
		start(mqtt.JSONCodec{})

		deliver([]byte("garbage"))

		Expect(service.CurrentReadings(context.Background())).To(Equal(domain.SensorSnapshot{}))
	})

	It("should stop on shutdown", func() {
		start(mqtt.JSONCodec{})
		worker.Shutdown()

		Eventually(done).Should(BeClosed())
	})
})

var _ = Describe("MQTTIngestWorker subscription failure", func() {
	It("should return when the subscription fails", func() {
		ctrl := gomock.NewController(GinkgoT())
		client := mockmqtt.NewMockClient(ctrl)
		client.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("not authorized"))

		service := usecases.NewReadingService(persistence.NewMemoryReadingStore(), async.NewLocalBroker())
		worker := workers.NewMQTTIngestWorker(client, mqtt.JSONCodec{}, service, "devices/readings")

		done := make(chan struct{})
		go worker.Run(context.Background(), func() { close(done) })

		Eventually(done).Should(BeClosed())
	})
})
