package messaging

import (
	"context"
	"errors"
)

var (
	// ErrQueueFull is returned by TryPublish when the buffer has no room.
	ErrQueueFull = errors.New("messaging: queue full")
	// ErrQueueClosed is returned once a queue has been closed.
	ErrQueueClosed = errors.New("messaging: queue closed")
)

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a message, blocking until there is room or ctx is done
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message, blocking until one is available
	Consume(ctx context.Context) (Message[T], error)
}

// Offerer is implemented by queues supporting non-blocking publication
type Offerer[T any] interface {
	// TryPublish adds a message or returns ErrQueueFull immediately
	TryPublish(t *T) error
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
