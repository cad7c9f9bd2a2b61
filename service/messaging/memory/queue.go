package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/exclusor/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	// MaxRetries is the number of redeliveries after Nack; 0 disables retries
	MaxRetries int
	RetryDelay time.Duration
	// DeadLetter keeps messages that exhausted retries
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  0,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Message is an in-memory queue message
type Message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	attempt   int
	mu        sync.Mutex
	processed bool
	createdAt time.Time
	lastErr   error
}

// ID returns message id
func (m *Message[T]) ID() string { return m.id }

// Attempt returns the zero based delivery attempt
func (m *Message[T]) Attempt() int { return m.attempt }

// Err returns the error passed to Nack
func (m *Message[T]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

func (m *Message[T]) settle(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	m.lastErr = err
	return nil
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	return m.settle(nil)
}

// Nack redelivers the message until MaxRetries is exhausted, then moves it to
// the dead letter list when enabled.
func (m *Message[T]) Nack(err error) error {
	if sErr := m.settle(err); sErr != nil {
		return sErr
	}
	q := m.queue
	if m.attempt < q.config.MaxRetries {
		retry := &Message[T]{id: m.id, payload: m.payload, queue: q, attempt: m.attempt + 1, createdAt: time.Now()}
		go func() {
			select {
			case <-time.After(q.config.RetryDelay):
			case <-q.done:
				return
			}
			select {
			case q.messages <- retry:
			case <-q.done:
			}
		}()
		return nil
	}
	if q.config.DeadLetter {
		q.dlqMu.Lock()
		q.dlq = append(q.dlq, m)
		q.dlqMu.Unlock()
	}
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages  chan *Message[T]
	done      chan struct{}
	closeOnce sync.Once
	dlq       []*Message[T]
	dlqMu     sync.Mutex
	config    Config
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		done:     make(chan struct{}),
		config:   config,
	}
}

func (q *Queue[T]) newMessage(t *T) *Message[T] {
	return &Message[T]{id: uuid.New().String(), payload: *t, queue: q, createdAt: time.Now()}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if q.closed() {
		return messaging.ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.messages <- q.newMessage(t):
		return nil
	case <-q.done:
		return messaging.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish adds a new item without blocking
func (q *Queue[T]) TryPublish(t *T) error {
	if q.closed() {
		return messaging.ErrQueueClosed
	}
	select {
	case q.messages <- q.newMessage(t):
		return nil
	default:
		return messaging.ErrQueueFull
	}
}

// Consume retrieves a single item from the queue; after Close it drains the
// buffer and then reports ErrQueueClosed.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		select {
		case msg := <-q.messages:
			return msg, nil
		default:
			return nil, messaging.ErrQueueClosed
		}
	}
}

// Close stops accepting messages; it is safe to call more than once
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue[T]) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
var _ messaging.Offerer[any] = (*Queue[any])(nil)
