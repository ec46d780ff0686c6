package httpapi_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/httpapi"
	"telemetry-server/internal/telemetry/persistence"
	"telemetry-server/internal/telemetry/usecases"
	mockusecases "telemetry-server/test/unit/doubles/telemetry/usecases"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("ReadingsController", func() {
	var router *http.ServeMux

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	Context("with a real reading service", func() {
		BeforeEach(func() {
			service := usecases.NewReadingService(persistence.NewMemoryReadingStore(), async.NewLocalBroker())
			router = http.NewServeMux()
			httpapi.NewReadingsController(service).AddRoutes(router)
		})

		It("should render zero values before any update", func() {
			rec := serve(http.MethodGet, "/", "")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("text/html; charset=utf-8"))
			Expect(rec.Body.String()).To(ContainSubstring(`<span id="temp">0.0</span>`))
			Expect(rec.Body.String()).To(ContainSubstring(`<span id="joy_x">0.0</span>`))
			Expect(rec.Body.String()).To(ContainSubstring(`<span id="btn_a">0</span>`))
			Expect(rec.Body.String()).To(ContainSubstring(`<strong id="direction">CENTER</strong>`))
		})

		It("should accept a reading and show it on the page", func() {
			rec := serve(http.MethodPost, "/update_readings", `{"temp": 23.5, "joy_x": 0.1, "joy_y": -0.2, "btn_a": 1, "btn_b": 0}`)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"detail":"Sensor data recieved"}`))

			page := serve(http.MethodGet, "/", "").Body.String()
			Expect(page).To(ContainSubstring(`<span id="temp">23.5</span>`))
			Expect(page).To(ContainSubstring(`<span id="joy_x">0.1</span>`))
			Expect(page).To(ContainSubstring(`<span id="joy_y">-0.2</span>`))
			Expect(page).To(ContainSubstring(`<span id="btn_a" class="pressed">1</span>`))
			Expect(page).To(ContainSubstring(`<span id="btn_b">0</span>`))
		})

		It("should expose the reading as JSON", func() {
			serve(http.MethodPost, "/update_readings", `{"temp":27.31,"joy_x":0.9,"joy_y":0.8,"btn_a":0,"btn_b":1}`)

			rec := serve(http.MethodGet, "/readings", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"temp":27.31,"joy_x":0.9,"joy_y":0.8,"btn_a":0,"btn_b":1}`))
		})

		It("should keep the same state when the same reading is posted twice", func() {
			body := `{"temp":20,"joy_x":-1,"joy_y":0,"btn_a":0,"btn_b":0}`
			serve(http.MethodPost, "/update_readings", body)
			first := serve(http.MethodGet, "/readings", "").Body.String()

			serve(http.MethodPost, "/update_readings", body)
			second := serve(http.MethodGet, "/readings", "").Body.String()

			Expect(second).To(Equal(first))
			Expect(serve(http.MethodGet, "/", "").Body.String()).To(ContainSubstring(`<span id="temp">20.0</span>`))
		})

		DescribeTable("rejecting invalid bodies",
			func(body string) {
				rec := serve(http.MethodPost, "/update_readings", body)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(rec.Body.String()).To(MatchJSON(`{"detail":"Invalid Request"}`))
			},
			Entry("empty body", ""),
			Entry("not json", "temp=1"),
			Entry("null", "null"),
			Entry("array", "[]"),
			Entry("wrong type", `{"temp":"hot","joy_x":0,"joy_y":0,"btn_a":0,"btn_b":0}`),
			Entry("too large", `{"temp":1,"pad":"`+strings.Repeat("x", 70<<10)+`"}`),
		)

		It("should list missing fields and keep the previous reading", func() {
			serve(http.MethodPost, "/update_readings", `{"temp":1.5,"joy_x":0,"joy_y":0,"btn_a":0,"btn_b":0}`)

			rec := serve(http.MethodPost, "/update_readings", `{"temp":30,"joy_x":0,"joy_y":0,"btn_a":1}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(MatchJSON(`{"detail":"Invalid Request","errors":["missing field: btn_b"]}`))

			Expect(serve(http.MethodGet, "/readings", "").Body.String()).To(MatchJSON(`{"temp":1.5,"joy_x":0,"joy_y":0,"btn_a":0,"btn_b":0}`))
		})

		It("should reject an empty object listing every field", func() {
			rec := serve(http.MethodPost, "/update_readings", `{}`)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("missing field: temp"))
			Expect(rec.Body.String()).To(ContainSubstring("missing field: btn_b"))
		})

		It("should not serve unknown paths", func() {
			Expect(serve(http.MethodGet, "/favicon.ico", "").Code).To(Equal(http.StatusNotFound))
		})

		It("should not accept GET on the write path", func() {
			Expect(serve(http.MethodGet, "/update_readings", "").Code).To(Equal(http.StatusMethodNotAllowed))
		})
	})

	Context("with a failing reading service", func() {
		var (
			ctrl    *gomock.Controller
			service *mockusecases.MockReadingService
		)

		BeforeEach(func() {
			ctrl = gomock.NewController(GinkgoT())
			service = mockusecases.NewMockReadingService(ctrl)
			router = http.NewServeMux()
			httpapi.NewReadingsController(service).AddRoutes(router)
		})

		It("should answer 500 when the store cannot be written", func() {
			service.EXPECT().
				UpdateReadings(gomock.Any(), domain.SensorSnapshot{Temperature: 1, ButtonB: 1}).
				Return(usecases.ErrStoreUnavailable)

			rec := serve(http.MethodPost, "/update_readings", `{"temp":1,"joy_x":0,"joy_y":0,"btn_a":0,"btn_b":1}`)

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).To(MatchJSON(`{"detail":"failed to store sensor data"}`))
		})

		It("should answer 500 when the page cannot be read", func() {
			service.EXPECT().
				CurrentReadings(gomock.Any()).
				Return(domain.SensorSnapshot{}, errors.New("connection refused"))

			rec := serve(http.MethodGet, "/", "")

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).NotTo(ContainSubstring("connection refused"))
		})

		It("should not call the service for rejected bodies", func() {
			rec := serve(http.MethodPost, "/update_readings", `{"temp":1}`)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should serve the JSON snapshot the service returns", func() {
			service.EXPECT().
				CurrentReadings(gomock.Any()).
				Return(domain.SensorSnapshot{Temperature: -3}, nil)

			rec := serve(http.MethodGet, "/readings", "")
			Expect(rec.Body.String()).To(MatchJSON(`{"temp":-3,"joy_x":0,"joy_y":0,"btn_a":0,"btn_b":0}`))
		})
	})
})
