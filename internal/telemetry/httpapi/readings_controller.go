package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"telemetry-server/internal/infra/httpserver"
	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/dto"
	"telemetry-server/internal/telemetry/usecases"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
)

const (
	invalidRequestMessage = "Invalid Request"
	acceptedMessage       = "Sensor data recieved"
	storeFailedMessage    = "failed to store sensor data"
	readFailedMessage     = "failed to read sensor data"

	_maxBodySize = 64 << 10
)

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

//go:embed templates/index.html
var templatesFS embed.FS

var readingUpdates = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "telemetry_server_reading_updates_total",
		Help: "Reading updates received over HTTP, by outcome.",
	},
	[]string{"outcome"},
)

var indexTemplate = template.Must(
	template.New("index.html").
		Funcs(template.FuncMap{
			"float":   FormatFloat,
			"pressed": domain.Pressed,
		}).
		ParseFS(templatesFS, "templates/index.html"),
)

func NewReadingsController(service usecases.ReadingService) *ReadingsController {
	return &ReadingsController{
		service,
	}
}

var _ httpserver.Controller = &ReadingsController{}

type ReadingsController struct {
	service usecases.ReadingService
}

func (c *ReadingsController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /{$}", c.home())
	router.Handle("POST /update_readings", c.updateReadings())
	router.Handle("GET /readings", c.currentReadings())
}

type indexPage struct {
	Snapshot  domain.SensorSnapshot
	Direction domain.Direction
}

func (c *ReadingsController) home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := c.service.CurrentReadings(r.Context())
		if err != nil {
			http.Error(w, readFailedMessage, http.StatusInternalServerError)
			return
		}

		var page bytes.Buffer
		err = indexTemplate.Execute(&page, indexPage{Snapshot: snapshot, Direction: snapshot.Direction()})
		if err != nil {
			slog.Error("rendering index page", slog.Any("error", err))
			http.Error(w, readFailedMessage, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(page.Bytes())
	}
}

func (c *ReadingsController) updateReadings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span := httpserver.GetSpanFromContext(r)

		body, err := httpserver.ReadBody(w, r, _maxBodySize)
		if err != nil {
			c.reject(w, err)
			return
		}

		readings, err := dto.DecodeJSON(body)
		if err != nil {
			c.reject(w, err)
			return
		}

		snapshot, err := readings.ToSnapshot()
		if err != nil {
			c.reject(w, err)
			return
		}

		err = c.service.UpdateReadings(r.Context(), snapshot)
		if err != nil {
			readingUpdates.WithLabelValues(outcomeFailed).Inc()
			httpserver.ReplyWithDetail(w, http.StatusInternalServerError, storeFailedMessage)
			return
		}

		span.SetAttributes(attribute.String("readings.direction", string(snapshot.Direction())))
		readingUpdates.WithLabelValues(outcomeAccepted).Inc()
		httpserver.ReplyWithDetail(w, http.StatusOK, acceptedMessage)
	}
}

func (c *ReadingsController) reject(w http.ResponseWriter, err error) {
	slog.Debug("rejecting readings", slog.Any("error", err))
	readingUpdates.WithLabelValues(outcomeRejected).Inc()

	var missing *dto.MissingFieldsError
	if errors.As(err, &missing) {
		httpserver.ReplyWithDetail(w, http.StatusBadRequest, invalidRequestMessage, missing.Messages()...)
		return
	}

	httpserver.ReplyWithDetail(w, http.StatusBadRequest, invalidRequestMessage)
}

func (c *ReadingsController) currentReadings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := c.service.CurrentReadings(r.Context())
		if err != nil {
			httpserver.ReplyWithDetail(w, http.StatusInternalServerError, readFailedMessage)
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, dto.FromSnapshot(snapshot))
	}
}

// FormatFloat renders a reading the way the page has always shown it:
// shortest form, integral values keep a trailing ".0" (0.0, 23.0, -0.52).
func FormatFloat(v float64) string {
	abs := math.Abs(v)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
