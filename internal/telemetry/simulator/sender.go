package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/dto"
)

const (
	updatePath      = "/update_readings"
	_requestTimeout = 5 * time.Second
)

type Response struct {
	StatusCode int
	Detail     string   `json:"detail"`
	Errors     []string `json:"errors"`
}

// Sender posts readings to a telemetry server the same way the device does.
type Sender struct {
	url    string
	client *http.Client
}

func NewSender(target string, client *http.Client) *Sender {
	if client == nil {
		client = &http.Client{Timeout: _requestTimeout}
	}

	return &Sender{
		url:    strings.TrimSuffix(target, "/") + updatePath,
		client: client,
	}
}

func (s *Sender) Send(ctx context.Context, snapshot domain.SensorSnapshot) (Response, error) {
	body, err := json.Marshal(dto.FromSnapshot(snapshot))
	if err != nil {
		return Response{}, fmt.Errorf("encoding readings: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("posting readings: %w", err)
	}
	defer resp.Body.Close()

	result := Response{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, fmt.Errorf("decoding response: %w", err)
	}

	return result, nil
}
