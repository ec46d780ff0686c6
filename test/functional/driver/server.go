package driver

import (
	"net/http/httptest"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/infra/httpserver"
	"telemetry-server/internal/telemetry/httpapi"
	"telemetry-server/internal/telemetry/persistence"
	"telemetry-server/internal/telemetry/usecases"
)

// LocalServer runs the full handler chain in-process with the memory store.
type LocalServer struct {
	URL string

	server    *httptest.Server
	broker    *async.LocalBroker
	websocket *httpapi.ReadingsWebSocketController
}

func StartLocalServer() *LocalServer {
	broker := async.NewLocalBroker()
	service := usecases.NewReadingService(persistence.NewMemoryReadingStore(), broker)
	websocket := httpapi.NewReadingsWebSocketController(service, broker)

	handler := httpserver.NewServer("",
		httpapi.NewReadingsController(service),
		websocket,
	).Handler()
	server := httptest.NewServer(handler)

	return &LocalServer{
		URL:       server.URL,
		server:    server,
		broker:    broker,
		websocket: websocket,
	}
}

func (s *LocalServer) Close() {
	s.websocket.Shutdown()
	s.server.Close()
	s.broker.Stop()
}
