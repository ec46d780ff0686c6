package usecases_test

import (
	"context"
	"errors"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/usecases"
	mockusecases "telemetry-server/test/unit/doubles/telemetry/usecases"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("ReadingService", func() {
	var (
		ctrl      *gomock.Controller
		mockStore *mockusecases.MockReadingStore
		broker    *async.LocalBroker
		service   *usecases.SimpleReadingService
		ctx       context.Context
		snapshot  domain.SensorSnapshot
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		mockStore = mockusecases.NewMockReadingStore(ctrl)
		broker = async.NewLocalBroker()
		service = usecases.NewReadingService(mockStore, broker)
		ctx = context.Background()
		snapshot = domain.SensorSnapshot{
			Temperature: 23.5,
			JoystickX:   0.1,
			JoystickY:   -0.2,
			ButtonA:     1,
			ButtonB:     0,
		}
	})

	AfterEach(func() {
		broker.Stop()
		ctrl.Finish()
	})

	Context("CurrentReadings", func() {
		When("the store returns a snapshot", func() {
			It("should return it unchanged", func() {
				mockStore.EXPECT().Get(gomock.Any()).Return(snapshot, nil)

				result, err := service.CurrentReadings(ctx)

				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(Equal(snapshot))
			})
		})

		When("the store fails", func() {
			It("should return ErrStoreUnavailable", func() {
				mockStore.EXPECT().Get(gomock.Any()).Return(domain.SensorSnapshot{}, errors.New("connection refused"))

				_, err := service.CurrentReadings(ctx)

				Expect(err).To(MatchError(usecases.ErrStoreUnavailable))
			})
		})
	})

	Context("UpdateReadings", func() {
		When("nobody listens on the readings topic", func() {
			It("should store the snapshot and succeed", func() {
				mockStore.EXPECT().Set(gomock.Any(), snapshot).Return(nil)

				Expect(service.UpdateReadings(ctx, snapshot)).To(Succeed())
			})
		})

		When("a subscriber listens on the readings topic", func() {
			It("should publish the stored snapshot", func() {
				subscription, err := broker.Subscribe(usecases.ReadingsTopic)
				Expect(err).NotTo(HaveOccurred())
				mockStore.EXPECT().Set(gomock.Any(), snapshot).Return(nil)

				Expect(service.UpdateReadings(ctx, snapshot)).To(Succeed())

				Eventually(subscription.Receiver).Should(Receive(And(
					HaveField("Event", usecases.ReadingsUpdatedEvent),
					HaveField("Value", snapshot),
				)))
			})
		})

		When("the store fails", func() {
			It("should not publish and return ErrStoreUnavailable", func() {
				subscription, _ := broker.Subscribe(usecases.ReadingsTopic)
				mockStore.EXPECT().Set(gomock.Any(), snapshot).Return(errors.New("READONLY"))

				err := service.UpdateReadings(ctx, snapshot)

				Expect(err).To(MatchError(usecases.ErrStoreUnavailable))
				Consistently(subscription.Receiver).ShouldNot(Receive())
			})
		})
	})
})
