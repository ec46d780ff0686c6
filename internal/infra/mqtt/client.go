package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	_defaultQoS        = 0 // At most once
	_defaultRetained   = false
	_publishTimeout    = 5 * time.Second
	_subscribeTimeout  = 5 * time.Second
	_connectTimeout    = 5 * time.Second
	_connectRetries    = 10
	_retryDelay        = 5 * time.Second
	_disconnectQuiesce = 5000
)

//go:generate mockgen -source=client.go -destination=../../../test/unit/doubles/infra/mqtt/client_mock.go -package=mqtt -exclude_interfaces=Message

type Client interface {
	Subscribe(topic string, qos byte, callback MessageHandler) error
	Publish(topic string, msg any) error

	Disconnect()
}

type MessageHandler func(Client, Message)

type Message interface {
	Topic() string
	MessageID() uint16
	Payload() []byte
	Ack()
}

type SimpleClientOpts struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Codec    Codec
}

// subscription is remembered so it can be restored after a reconnect.
type subscription struct {
	topic    string
	qos      byte
	callback MessageHandler
}

// NewSimpleClient connects to the broker, retrying a few times before giving
// up. Payloads are encoded with opts.Codec, JSON when unset.
func NewSimpleClient(opts SimpleClientOpts) (*SimpleClient, error) {
	codec := opts.Codec
	if codec == nil {
		codec = JSONCodec{}
	}

	simpleClient := &SimpleClient{
		codec:         codec,
		subscriptions: make(map[string]subscription),
	}

	onConnectHandler := func(client paho.Client) {
		slog.Info("connected to MQTT broker", slog.String("broker", opts.Broker))
		simpleClient.resubscribeAll(client)
	}

	onConnectionLostHandler := func(_ paho.Client, err error) {
		slog.Error("connection lost to MQTT broker", slog.Any("error", err))
	}

	pahoOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetOnConnectHandler(onConnectHandler).
		SetAutoReconnect(true).
		SetConnectionLostHandler(onConnectionLostHandler).
		SetKeepAlive(10 * time.Second).
		SetConnectTimeout(_connectTimeout)

	var lastErr error
	for try := 1; try <= _connectRetries; try++ {
		client := paho.NewClient(pahoOpts)
		token := client.Connect()
		if !token.WaitTimeout(_connectTimeout) {
			lastErr = fmt.Errorf("connecting to %s: timeout", opts.Broker)
		} else {
			lastErr = token.Error()
		}

		if lastErr == nil {
			simpleClient.client = client
			return simpleClient, nil
		}

		slog.Warn("connecting to MQTT broker",
			slog.Int("try", try),
			slog.Any("error", lastErr),
		)
		time.Sleep(_retryDelay)
	}

	return nil, fmt.Errorf("connecting to MQTT broker after %d tries: %w", _connectRetries, lastErr)
}

var _ Client = (*SimpleClient)(nil)

type SimpleClient struct {
	client        paho.Client
	codec         Codec
	subscriptions map[string]subscription
	mu            sync.RWMutex
}

func (c *SimpleClient) resubscribeAll(client paho.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.subscriptions) == 0 {
		return
	}

	slog.Info("restoring MQTT subscriptions after reconnection", slog.Int("count", len(c.subscriptions)))

	for topic, sub := range c.subscriptions {
		token := client.Subscribe(sub.topic, sub.qos, c.wrap(sub.callback))
		token.WaitTimeout(_subscribeTimeout)
		if token.Error() != nil {
			slog.Error("restoring subscription", slog.String("topic", topic), slog.Any("error", token.Error()))
		}
	}
}

func (c *SimpleClient) wrap(callback MessageHandler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		callback(c, msg)
	}
}

func (c *SimpleClient) Subscribe(topic string, qos byte, callback MessageHandler) error {
	c.mu.Lock()
	c.subscriptions[topic] = subscription{
		topic:    topic,
		qos:      qos,
		callback: callback,
	}
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, c.wrap(callback))
	token.WaitTimeout(_subscribeTimeout)
	if token.Error() != nil {
		c.mu.Lock()
		delete(c.subscriptions, topic)
		c.mu.Unlock()
		return fmt.Errorf("subscribing to topic %s: %w", topic, token.Error())
	}

	slog.Info("subscribed to MQTT topic", slog.String("topic", topic), slog.Int("qos", int(qos)))
	return nil
}

func (c *SimpleClient) Disconnect() {
	c.mu.Lock()
	c.subscriptions = make(map[string]subscription)
	c.mu.Unlock()

	c.client.Disconnect(_disconnectQuiesce)
}

func (c *SimpleClient) Publish(topic string, msg any) error {
	payload, err := c.codec.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message as %s: %w", c.codec.Name(), err)
	}

	token := c.client.Publish(topic, _defaultQoS, _defaultRetained, payload)
	token.WaitTimeout(_publishTimeout)
	if token.Error() != nil {
		return fmt.Errorf("publishing to topic %s: %w", topic, token.Error())
	}

	return nil
}
