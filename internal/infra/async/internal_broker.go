package async

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	_receiverBufferSize = 16
	_maxPendingMessages = 1024
)

type BrokerTopicName string

type BrokerMessage struct {
	Event string
	Value any
	Span  trace.Span
	Error error
}

type InternalBroker interface {
	Subscribe(topic BrokerTopicName) (Subscription, error)
	Unsubscribe(topic BrokerTopicName, subscription Subscription) error
	Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error
	Stop()
}

var _ InternalBroker = (*LocalBroker)(nil)

var (
	ErrTopicNotFound       = errors.New("topic not found")
	ErrSubscriptorNotFound = errors.New("subscriptor not found")
	ErrBrokerStopped       = errors.New("broker stopped")
)

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{
		topics: make(map[BrokerTopicName][]*subscriptor),
	}
}

// LocalBroker fans messages out to in-process subscribers. Each subscriber
// receives messages in publish order through its own queue; a subscriber
// that stops reading only backs up that queue.
type LocalBroker struct {
	mu      sync.RWMutex
	topics  map[BrokerTopicName][]*subscriptor
	stopped bool
}

type Subscription struct {
	ID       string
	Receiver <-chan BrokerMessage
}

type subscriptor struct {
	id       string
	receiver chan BrokerMessage
	wake     chan struct{}
	done     chan struct{}
	finished chan struct{}
	mu       sync.Mutex
	pending  []BrokerMessage
	closed   bool
	once     sync.Once
}

func newSubscriptor() *subscriptor {
	s := &subscriptor{
		id:       uuid.NewString(),
		receiver: make(chan BrokerMessage, _receiverBufferSize),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go s.pump()
	return s
}

func (b *LocalBroker) Subscribe(topic BrokerTopicName) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return Subscription{}, ErrBrokerStopped
	}

	s := newSubscriptor()
	b.topics[topic] = append(b.topics[topic], s)

	return Subscription{ID: s.id, Receiver: s.receiver}, nil
}

func (b *LocalBroker) Unsubscribe(topic BrokerTopicName, subscription Subscription) error {
	b.mu.Lock()
	subscriptors, ok := b.topics[topic]
	if !ok {
		b.mu.Unlock()
		return ErrTopicNotFound
	}

	index := slices.IndexFunc(subscriptors, func(s *subscriptor) bool { return s.id == subscription.ID })
	if index < 0 {
		b.mu.Unlock()
		return ErrSubscriptorNotFound
	}

	s := subscriptors[index]
	remaining := slices.Delete(slices.Clone(subscriptors), index, index+1)
	if len(remaining) == 0 {
		delete(b.topics, topic)
	} else {
		b.topics[topic] = remaining
	}
	b.mu.Unlock()

	s.safeClose()
	return nil
}

// Publish returns ErrTopicNotFound when nobody listens on the topic.
func (b *LocalBroker) Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error {
	msg.Span = trace.SpanFromContext(ctx)

	b.mu.RLock()
	subscriptors, ok := b.topics[topic]
	if ok {
		subscriptors = slices.Clone(subscriptors)
	}
	b.mu.RUnlock()

	if !ok {
		return ErrTopicNotFound
	}

	for _, s := range subscriptors {
		s.enqueue(msg)
	}

	return nil
}

func (b *LocalBroker) Stop() {
	b.mu.Lock()
	topics := b.topics
	b.topics = make(map[BrokerTopicName][]*subscriptor)
	b.stopped = true
	b.mu.Unlock()

	for _, subscriptors := range topics {
		for _, s := range subscriptors {
			s.safeClose()
		}
	}
}

// enqueue appends msg to the pending queue. When the queue is full the
// oldest pending message is dropped.
func (s *subscriptor) enqueue(msg BrokerMessage) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.pending) >= _maxPendingMessages {
		slog.Warn("subscriber queue full, dropping oldest message",
			slog.String("subscription", s.id),
			slog.String("event", s.pending[0].Event))
		s.pending[0] = BrokerMessage{}
		s.pending = s.pending[1:]
	}
	s.pending = append(s.pending, msg)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest pending message.
func (s *subscriptor) next() (BrokerMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return BrokerMessage{}, false
	}
	msg := s.pending[0]
	s.pending[0] = BrokerMessage{}
	s.pending = s.pending[1:]
	return msg, true
}

// pump is the only sender on receiver, which keeps delivery in FIFO order.
func (s *subscriptor) pump() {
	defer close(s.finished)
	defer close(s.receiver)

	for {
		msg, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}

		select {
		case s.receiver <- msg:
		case <-s.done:
			return
		}
	}
}

func (s *subscriptor) safeClose() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.pending = nil
		s.mu.Unlock()

		close(s.done)
		<-s.finished
	})
}
