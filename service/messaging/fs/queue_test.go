package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/exclusor/service/messaging"
)

type payload struct {
	Cluster string `json:"cluster"`
	Count   int    `json:"count"`
}

func newQueue(t *testing.T, dir string, config Config) *Queue[payload] {
	t.Helper()
	config.URL = dir
	if config.PollInterval == 0 {
		config.PollInterval = 5 * time.Millisecond
	}
	queue, err := NewQueue[payload](context.Background(), afs.New(), config)
	require.NoError(t, err)
	return queue
}

func count(t *testing.T, queue *Queue[payload], state State) int {
	t.Helper()
	n, err := queue.Count(context.Background(), state)
	require.NoError(t, err)
	return n
}

func TestQueue_PublishConsumeAck(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	queue := newQueue(t, dir, Config{})
	for _, state := range []State{StatePending, StateProcessing, StateCompleted, StateFailed, StateDead} {
		info, err := os.Stat(filepath.Join(dir, string(state)))
		require.NoError(t, err, state)
		assert.True(t, info.IsDir())
	}

	for i, name := range []string{"a-infra", "b-infra", "c-infra"} {
		require.NoError(t, queue.Publish(ctx, &payload{Cluster: name, Count: i}))
	}
	assert.Equal(t, 3, count(t, queue, StatePending))

	var consumed []string
	for i := 0; i < 3; i++ {
		msg, err := queue.Consume(ctx)
		require.NoError(t, err)
		consumed = append(consumed, msg.T().Cluster)
		assert.Equal(t, 1, count(t, queue, StateProcessing))
		require.NoError(t, msg.Ack())
		assert.Error(t, msg.Ack(), "settled twice")
	}
	assert.Equal(t, []string{"a-infra", "b-infra", "c-infra"}, consumed)
	assert.Equal(t, 0, count(t, queue, StatePending))
	assert.Equal(t, 0, count(t, queue, StateProcessing))
	assert.Equal(t, 3, count(t, queue, StateCompleted))
}

func TestQueue_NackRetriesThenDeadLetters(t *testing.T) {
	ctx := context.Background()
	queue := newQueue(t, t.TempDir(), Config{MaxRetries: 1})
	require.NoError(t, queue.Publish(ctx, &payload{Cluster: "a-infra"}))

	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Nack(errors.New("listener failed")))
	assert.Equal(t, 1, count(t, queue, StateFailed))

	msg, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-infra", msg.T().Cluster)
	require.NoError(t, msg.Nack(errors.New("listener failed")))
	assert.Equal(t, 0, count(t, queue, StateFailed))
	assert.Equal(t, 1, count(t, queue, StateDead))

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = queue.Consume(waitCtx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestQueue_RetryDelay(t *testing.T) {
	ctx := context.Background()
	queue := newQueue(t, t.TempDir(), Config{MaxRetries: 3, RetryDelay: time.Hour})
	require.NoError(t, queue.Publish(ctx, &payload{Cluster: "a-infra"}))
	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Nack(nil))

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = queue.Consume(waitCtx)
	assert.Error(t, err, "failed message is not retried before its delay")
	assert.Equal(t, 1, count(t, queue, StateFailed))
}

func TestQueue_RestoresProcessingOnRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	queue := newQueue(t, dir, Config{})
	require.NoError(t, queue.Publish(ctx, &payload{Cluster: "a-infra"}))
	_, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, queue, StateProcessing))

	restarted := newQueue(t, dir, Config{})
	assert.Equal(t, 0, count(t, restarted, StateProcessing))
	msg, err := restarted.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-infra", msg.T().Cluster)
}

func TestQueue_InvalidMessageIsParked(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	queue := newQueue(t, dir, Config{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pending", "00000000000000000001-bad.json"), []byte("{"), 0644))
	_, err := queue.Consume(ctx)
	assert.Error(t, err)
	assert.Equal(t, 0, count(t, queue, StatePending))
	entries, err := os.ReadDir(filepath.Join(dir, "dlq"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "invalid-00000000000000000001-bad.json", entries[0].Name())
}

func TestQueue_Close(t *testing.T) {
	ctx := context.Background()
	queue := newQueue(t, t.TempDir(), Config{})
	done := make(chan error, 1)
	go func() {
		_, err := queue.Consume(ctx)
		done <- err
	}()
	queue.Close()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, messaging.ErrQueueClosed))
	case <-time.After(time.Second):
		t.Fatal("consumer was not released")
	}
	assert.True(t, errors.Is(queue.Publish(ctx, &payload{}), messaging.ErrQueueClosed))
}

func TestNewQueue_RequiresURL(t *testing.T) {
	_, err := NewQueue[payload](context.Background(), afs.New(), Config{})
	assert.Error(t, err)
}
