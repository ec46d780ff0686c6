package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// DetailResponse is the body shape devices and the page expect from the
// telemetry endpoints.
type DetailResponse struct {
	Detail string   `json:"detail"`
	Errors []string `json:"errors,omitempty"`
}

func ReplyWithDetail(w http.ResponseWriter, statusCode int, detail string, errs ...string) {
	ReplyJSONResponse(w, statusCode, DetailResponse{Detail: detail, Errors: errs})
}

func ReplyJSONResponse(w http.ResponseWriter, statusCode int, output interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(output)
}

// ReadBody reads at most limit bytes of the request body. Larger bodies are
// rejected with an error.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	return body, nil
}

func GetSpanFromContext(r *http.Request) trace.Span {
	return trace.SpanFromContext(r.Context())
}
