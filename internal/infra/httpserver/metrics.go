package httpserver

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	_meterName    = "telemetry-server"
	_metricPrefix = "telemetry_server"

	// UnmatchedRoute labels requests no registered pattern serves.
	UnmatchedRoute = "not_found"
)

var _durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type requestMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	active   metric.Int64UpDownCounter
}

func newRequestMetrics(meter metric.Meter) (*requestMetrics, error) {
	duration, err := meter.Float64Histogram(
		_metricPrefix+".http.request.duration.seconds",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(_durationBuckets...),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter(
		_metricPrefix+".http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		_metricPrefix+".http.requests.active",
		metric.WithDescription("Number of HTTP requests currently being processed"),
	)
	if err != nil {
		return nil, err
	}

	return &requestMetrics{duration: duration, total: total, active: active}, nil
}

// MetricsMiddleware records count, duration and in-flight requests labelled
// by the route pattern router resolves for each request, so the label set
// is bounded by the registered routes.
func MetricsMiddleware(router *http.ServeMux) func(http.Handler) http.Handler {
	m, err := newRequestMetrics(otel.GetMeterProvider().Meter(_meterName))
	if err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routeLabel(router, r)),
			}

			m.active.Add(r.Context(), 1, metric.WithAttributes(route...))
			defer m.active.Add(r.Context(), -1, metric.WithAttributes(route...))

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			completed := metric.WithAttributes(append(route, attribute.Int("http.status_code", wrapped.statusCode))...)
			m.duration.Record(r.Context(), time.Since(start).Seconds(), completed)
			m.total.Add(r.Context(), 1, completed)
		})
	}
}

// routeLabel returns the path part of the matched pattern, e.g. "/readings"
// for "GET /readings".
func routeLabel(router *http.ServeMux, r *http.Request) string {
	if router == nil {
		return UnmatchedRoute
	}

	_, pattern := router.Handler(r)
	if pattern == "" {
		return UnmatchedRoute
	}

	if _, path, found := strings.Cut(pattern, " "); found {
		return path
	}
	return pattern
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
}
