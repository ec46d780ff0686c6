package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"telemetry-server/internal/infra/async"
	"telemetry-server/internal/infra/httpserver"
	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/dto"
	"telemetry-server/internal/telemetry/usecases"

	"github.com/gorilla/websocket"
)

const (
	readingsMessageType = "sensor_readings"

	_pingPeriod    = 54 * time.Second
	_pongWait      = 60 * time.Second
	_writeWait     = 10 * time.Second
	_readLimit     = 512
	_broadcastSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The page is served by devices on a local network under arbitrary hosts.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type ReadingsMessage struct {
	Type      string           `json:"type"`
	Data      dto.Readings     `json:"data"`
	Direction domain.Direction `json:"direction"`
}

func newReadingsMessage(snapshot domain.SensorSnapshot) ReadingsMessage {
	return ReadingsMessage{
		Type:      readingsMessageType,
		Data:      dto.FromSnapshot(snapshot),
		Direction: snapshot.Direction(),
	}
}

// ReadingsWebSocketController pushes every accepted snapshot to connected
// browsers. Only the hub goroutine writes data frames.
type ReadingsWebSocketController struct {
	service    usecases.ReadingService
	broker     async.InternalBroker
	clients    map[*websocket.Conn]bool
	clientsMux sync.RWMutex
	broadcast  chan ReadingsMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	ctx        context.Context
	cancel     context.CancelFunc
	stopped    chan struct{}
	once       sync.Once
}

func NewReadingsWebSocketController(service usecases.ReadingService, broker async.InternalBroker) *ReadingsWebSocketController {
	ctx, cancel := context.WithCancel(context.Background())

	wsc := &ReadingsWebSocketController{
		service:    service,
		broker:     broker,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan ReadingsMessage, _broadcastSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		ctx:        ctx,
		cancel:     cancel,
		stopped:    make(chan struct{}),
	}

	subscription, err := broker.Subscribe(usecases.ReadingsTopic)
	if err != nil {
		slog.Error("subscribing to sensor readings", slog.Any("error", err))
		close(wsc.stopped)
		return wsc
	}

	go wsc.run(subscription)

	return wsc
}

var _ httpserver.Controller = (*ReadingsWebSocketController)(nil)

func (wsc *ReadingsWebSocketController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /ws/readings", wsc.handleWebSocket())
}

func (wsc *ReadingsWebSocketController) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.Any("error", err))
			return
		}

		slog.Info("new websocket connection established", slog.String("remote_addr", r.RemoteAddr))

		select {
		case wsc.register <- conn:
		case <-wsc.stopped:
			conn.Close()
			return
		}

		go wsc.handlePingPong(conn)
		go wsc.handleClient(conn)
	}
}

func (wsc *ReadingsWebSocketController) handleClient(conn *websocket.Conn) {
	defer func() {
		select {
		case wsc.unregister <- conn:
		case <-wsc.stopped:
		}
	}()

	conn.SetReadLimit(_readLimit)
	conn.SetReadDeadline(time.Now().Add(_pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(_pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read error", slog.Any("error", err))
			} else {
				slog.Debug("websocket connection closed", slog.Any("error", err))
			}
			return
		}
	}
}

func (wsc *ReadingsWebSocketController) handlePingPong(conn *websocket.Conn) {
	ticker := time.NewTicker(_pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-wsc.ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(_writeWait)); err != nil {
				return
			}
		}
	}
}

func (wsc *ReadingsWebSocketController) run(subscription async.Subscription) {
	defer close(wsc.stopped)
	defer wsc.broker.Unsubscribe(usecases.ReadingsTopic, subscription)

	for {
		select {
		case <-wsc.ctx.Done():
			wsc.closeAll()
			return

		case client := <-wsc.register:
			wsc.addClient(client)

		case client := <-wsc.unregister:
			wsc.removeClient(client)

		case message := <-wsc.broadcast:
			wsc.send(message)

		case brokerMsg, ok := <-subscription.Receiver:
			if !ok {
				wsc.closeAll()
				return
			}
			if brokerMsg.Event != usecases.ReadingsUpdatedEvent {
				continue
			}
			snapshot, ok := brokerMsg.Value.(domain.SensorSnapshot)
			if !ok {
				continue
			}

			select {
			case wsc.broadcast <- newReadingsMessage(snapshot):
			default:
				slog.Warn("broadcast channel full, dropping readings")
			}
		}
	}
}

// addClient greets a new client with the current snapshot so the page is
// accurate before the next update arrives.
func (wsc *ReadingsWebSocketController) addClient(client *websocket.Conn) {
	snapshot, err := wsc.service.CurrentReadings(wsc.ctx)
	if err == nil {
		err = writeMessage(client, newReadingsMessage(snapshot))
	}
	if err != nil {
		slog.Warn("greeting websocket client", slog.Any("error", err))
		client.Close()
		return
	}

	wsc.clientsMux.Lock()
	wsc.clients[client] = true
	total := len(wsc.clients)
	wsc.clientsMux.Unlock()

	slog.Info("websocket client registered", slog.Int("total_clients", total))
}

func (wsc *ReadingsWebSocketController) removeClient(client *websocket.Conn) {
	wsc.clientsMux.Lock()
	if _, ok := wsc.clients[client]; ok {
		delete(wsc.clients, client)
	}
	total := len(wsc.clients)
	wsc.clientsMux.Unlock()

	client.Close()
	slog.Info("websocket client unregistered", slog.Int("total_clients", total))
}

func (wsc *ReadingsWebSocketController) send(message ReadingsMessage) {
	var failed []*websocket.Conn

	wsc.clientsMux.RLock()
	for client := range wsc.clients {
		if err := writeMessage(client, message); err != nil {
			slog.Warn("writing readings to websocket client", slog.Any("error", err))
			failed = append(failed, client)
		}
	}
	wsc.clientsMux.RUnlock()

	for _, client := range failed {
		wsc.removeClient(client)
	}
}

func (wsc *ReadingsWebSocketController) closeAll() {
	wsc.clientsMux.Lock()
	for client := range wsc.clients {
		client.Close()
		delete(wsc.clients, client)
	}
	wsc.clientsMux.Unlock()
}

func (wsc *ReadingsWebSocketController) ClientCount() int {
	wsc.clientsMux.RLock()
	defer wsc.clientsMux.RUnlock()
	return len(wsc.clients)
}

func (wsc *ReadingsWebSocketController) Shutdown() {
	wsc.once.Do(func() {
		slog.Info("shutting down readings websocket controller")
		wsc.cancel()
		<-wsc.stopped
	})
}

func writeMessage(conn *websocket.Conn, message ReadingsMessage) error {
	conn.SetWriteDeadline(time.Now().Add(_writeWait))
	return conn.WriteJSON(message)
}
