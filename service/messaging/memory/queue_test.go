package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/exclusor/service/messaging"
)

type payload struct {
	ID    string
	Count int
}

func TestQueue_PublishConsume(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[payload](DefaultConfig())

	require.NoError(t, queue.Publish(ctx, &payload{ID: "p1", Count: 1}))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, payload{ID: "p1", Count: 1}, *message.T())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
	assert.Error(t, message.Nack(nil))
}

func TestQueue_Retries(t *testing.T) {
	ctx := context.Background()
	var testCases = []struct {
		description string
		maxRetries  int
		expectDLQ   int
	}{
		{description: "no retries", maxRetries: 0, expectDLQ: 1},
		{description: "two retries", maxRetries: 2, expectDLQ: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			config := DefaultConfig()
			config.MaxRetries = tc.maxRetries
			config.RetryDelay = 5 * time.Millisecond
			queue := NewQueue[payload](config)
			defer queue.Close()
			require.NoError(t, queue.Publish(ctx, &payload{ID: "retry"}))

			for attempt := 0; attempt <= tc.maxRetries; attempt++ {
				waitCtx, cancel := context.WithTimeout(ctx, time.Second)
				message, err := queue.Consume(waitCtx)
				cancel()
				require.NoError(t, err)
				assert.Equal(t, attempt, message.(*Message[payload]).Attempt())
				require.NoError(t, message.Nack(errors.New("failed")))
			}
			time.Sleep(20 * time.Millisecond)
			assert.Equal(t, 0, queue.Size())
			assert.Equal(t, tc.expectDLQ, queue.DLQSize())
		})
	}
}

func TestQueue_TryPublish(t *testing.T) {
	config := DefaultConfig()
	config.QueueBuffer = 1
	queue := NewQueue[payload](config)
	require.NoError(t, queue.TryPublish(&payload{ID: "a"}))
	assert.True(t, errors.Is(queue.TryPublish(&payload{ID: "b"}), messaging.ErrQueueFull))
}

func TestQueue_Close(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[payload](DefaultConfig())
	require.NoError(t, queue.Publish(ctx, &payload{ID: "buffered"}))
	queue.Close()
	queue.Close()

	assert.True(t, errors.Is(queue.Publish(ctx, &payload{ID: "late"}), messaging.ErrQueueClosed))
	assert.True(t, errors.Is(queue.TryPublish(&payload{ID: "late"}), messaging.ErrQueueClosed))

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "buffered", message.T().ID)
	_, err = queue.Consume(ctx)
	assert.True(t, errors.Is(err, messaging.ErrQueueClosed))
}

func TestQueue_Concurrency(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[payload](DefaultConfig())
	const producers, perProducer = 10, 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	consumed := 0
	for i := 0; i < producers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				message, err := queue.Consume(ctx)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, message.Ack())
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
		go func(producer int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &payload{ID: fmt.Sprintf("p%d-m%d", producer, j)}))
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	assert.Equal(t, producers*perProducer, consumed)
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &payload{ID: "x"}))

	timeoutCtx, cancelTimeout := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeoutCtx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
