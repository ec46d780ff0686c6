package driver

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

type APIDriver struct {
	baseURL string
	client  *http.Client
}

func NewAPIDriver(baseURL string) *APIDriver {
	return &APIDriver{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (d *APIDriver) UpdateReadings(body string) (*http.Response, error) {
	return d.client.Post(fmt.Sprintf("%s/update_readings", d.baseURL), "application/json", bytes.NewBufferString(body))
}

func (d *APIDriver) GetHome() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/", d.baseURL))
}

func (d *APIDriver) GetReadings() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/readings", d.baseURL))
}

func (d *APIDriver) GetHealthz() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/healthz", d.baseURL))
}

func (d *APIDriver) GetMetrics() (*http.Response, error) {
	return d.client.Get(fmt.Sprintf("%s/metrics", d.baseURL))
}

func (d *APIDriver) ConnectReadingsFeed() (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(d.baseURL, "http") + "/ws/readings"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}
	return conn, nil
}
