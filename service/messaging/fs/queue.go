// Package fs provides a durable messaging.Queue keeping every message as a
// JSON file on an afs location. Acknowledged messages stay in the completed
// folder, which makes the queue usable as an audit journal.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/exclusor/internal/clock"
	"github.com/viant/exclusor/service/messaging"
)

// State represents the state of a journalled message
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateDead       State = "dlq"
)

// Message is a journalled message
type Message[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Retries   int       `json:"retries"`

	queue   *Queue[T]
	name    string
	mu      sync.Mutex
	settled bool
}

// T returns the message payload
func (m *Message[T]) T() *T { return &m.Data }

// Ack moves the message to the completed folder
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return fmt.Errorf("message %s already settled", m.ID)
	}
	m.settled = true
	m.State = StateCompleted
	return m.queue.settle(context.Background(), m)
}

// Nack moves the message to the failed folder, or to the dead letter folder
// once MaxRetries is exceeded
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return fmt.Errorf("message %s already settled", m.ID)
	}
	m.settled = true
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.State = StateFailed
	if m.Retries > m.queue.config.MaxRetries {
		m.State = StateDead
	}
	return m.queue.settle(context.Background(), m)
}

// Config represents queue configuration
type Config struct {
	// URL is the queue base location
	URL        string `json:"url" yaml:"url"`
	MaxRetries int    `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	// RetryDelay is the minimum age of a failed message before it is retried
	RetryDelay time.Duration `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty"`
	// PollInterval is how often an idle Consume looks for new messages
	PollInterval time.Duration `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
}

// DefaultConfig returns default queue configuration
func DefaultConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: time.Second, PollInterval: 500 * time.Millisecond}
}

// Queue is a file based queue
type Queue[T any] struct {
	fs     afs.Service
	config Config
	mu     sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once
}

func (q *Queue[T]) dir(state State) string {
	return url.Join(q.config.URL, string(state))
}

func (q *Queue[T]) location(state State, name string) string {
	return url.Join(q.dir(state), name)
}

// Publish writes a new pending message
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("message was nil")
	}
	select {
	case <-q.closed:
		return messaging.ErrQueueClosed
	default:
	}
	now := clock.Now().UTC()
	msg := &Message[T]{ID: uuid.New().String(), Data: *t, State: StatePending, CreatedAt: now, UpdatedAt: now}
	// names sort in publication order
	msg.name = fmt.Sprintf("%020d-%s.json", now.UnixNano(), msg.ID)
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.write(ctx, msg)
}

// Consume returns the oldest retryable failed message, otherwise the oldest
// pending one; it polls until a message is available, ctx is done or the queue
// is closed
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		select {
		case <-q.closed:
			return nil, messaging.ErrQueueClosed
		default:
		}
		msg, err := q.next(ctx)
		if err != nil || msg != nil {
			return msg, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.closed:
			return nil, messaging.ErrQueueClosed
		case <-time.After(q.config.PollInterval):
		}
	}
}

// Close stops consumers; journalled messages are kept for the next run
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// Count returns the number of messages in the given state
func (q *Queue[T]) Count(ctx context.Context, state State) (int, error) {
	names, err := q.names(ctx, state)
	return len(names), err
}

func (q *Queue[T]) next(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	failed, err := q.names(ctx, StateFailed)
	if err != nil {
		return nil, err
	}
	for _, name := range failed {
		msg, err := q.read(ctx, StateFailed, name)
		if err != nil {
			return nil, err
		}
		if clock.Now().Sub(msg.UpdatedAt) < q.config.RetryDelay {
			continue
		}
		return msg, q.transition(ctx, msg, StateFailed, StateProcessing)
	}
	pending, err := q.names(ctx, StatePending)
	if err != nil || len(pending) == 0 {
		return nil, err
	}
	msg, err := q.read(ctx, StatePending, pending[0])
	if err != nil {
		return nil, err
	}
	return msg, q.transition(ctx, msg, StatePending, StateProcessing)
}

// settle moves a processing message to its final folder
func (q *Queue[T]) settle(ctx context.Context, msg *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.transition(ctx, msg, StateProcessing, msg.State)
}

func (q *Queue[T]) transition(ctx context.Context, msg *Message[T], from, to State) error {
	msg.State = to
	msg.UpdatedAt = clock.Now().UTC()
	if err := q.write(ctx, msg); err != nil {
		return err
	}
	if err := q.fs.Delete(ctx, q.location(from, msg.name)); err != nil {
		return fmt.Errorf("failed to remove %s message %s: %w", from, msg.ID, err)
	}
	return nil
}

func (q *Queue[T]) write(ctx context.Context, msg *Message[T]) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
	}
	if err = q.fs.Upload(ctx, q.location(msg.State, msg.name), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s message %s: %w", msg.State, msg.ID, err)
	}
	return nil
}

func (q *Queue[T]) read(ctx context.Context, state State, name string) (*Message[T], error) {
	location := q.location(state, name)
	data, err := q.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	msg := &Message[T]{}
	if err = json.Unmarshal(data, msg); err != nil {
		// unreadable messages are parked in the dead letter folder
		_ = q.fs.Move(ctx, location, q.location(StateDead, "invalid-"+name))
		return nil, fmt.Errorf("failed to decode %s: %w", location, err)
	}
	msg.queue = q
	msg.name = name
	return msg, nil
}

func (q *Queue[T]) names(ctx context.Context, state State) ([]string, error) {
	objects, err := q.fs.List(ctx, q.dir(state))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s messages: %w", state, err)
	}
	var names []string
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			names = append(names, object.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// restore returns messages left in processing by a previous run to pending
func (q *Queue[T]) restore(ctx context.Context) error {
	names, err := q.names(ctx, StateProcessing)
	if err != nil {
		return err
	}
	for _, name := range names {
		msg, err := q.read(ctx, StateProcessing, name)
		if err != nil {
			continue
		}
		if err = q.transition(ctx, msg, StateProcessing, StatePending); err != nil {
			return err
		}
	}
	return nil
}

// NewQueue creates a queue at config.URL, creating folders as needed
func NewQueue[T any](ctx context.Context, fs afs.Service, config Config) (*Queue[T], error) {
	if config.URL == "" {
		return nil, fmt.Errorf("queue URL was empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	defaults := DefaultConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	config.URL = url.Normalize(config.URL, file.Scheme)
	q := &Queue[T]{fs: fs, config: config, closed: make(chan struct{})}
	for _, state := range []State{StatePending, StateProcessing, StateCompleted, StateFailed, StateDead} {
		dir := q.dir(state)
		if ok, _ := fs.Exists(ctx, dir); ok {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := q.restore(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

var _ messaging.Queue[struct{}] = (*Queue[struct{}])(nil)
