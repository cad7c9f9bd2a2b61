package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/exclusor/internal/clock"
)

func noop(ctx context.Context) error { return nil }

func TestService_Next(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	srv, err := New("reset", DefaultConfig(), noop)
	require.NoError(t, err)

	var testCases = []struct {
		description string
		now         time.Time
		expect      time.Time
	}{
		{
			description: "before fire time",
			now:         time.Date(2024, 3, 10, 21, 59, 0, 0, kolkata),
			expect:      time.Date(2024, 3, 10, 22, 0, 0, 0, kolkata),
		},
		{
			description: "exactly at fire time",
			now:         time.Date(2024, 3, 10, 22, 0, 0, 0, kolkata),
			expect:      time.Date(2024, 3, 11, 22, 0, 0, 0, kolkata),
		},
		{
			description: "after fire time",
			now:         time.Date(2024, 3, 10, 23, 30, 0, 0, kolkata),
			expect:      time.Date(2024, 3, 11, 22, 0, 0, 0, kolkata),
		},
		{
			description: "utc input",
			now:         time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC),
			expect:      time.Date(2024, 3, 10, 22, 0, 0, 0, kolkata),
		},
		{
			description: "month rollover",
			now:         time.Date(2024, 1, 31, 22, 30, 0, 0, kolkata),
			expect:      time.Date(2024, 2, 1, 22, 0, 0, 0, kolkata),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.True(t, tc.expect.Equal(srv.Next(tc.now)), "expected %v, got %v", tc.expect, srv.Next(tc.now))
		})
	}
}

func TestService_Start(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2024, 3, 10, 21, 30, 0, 0, kolkata)
	clock.NowFunc = func() time.Time { return now }
	defer func() { clock.NowFunc = time.Now }()

	waits := make(chan time.Duration, 4)
	fire := make(chan time.Time)
	var runs int32
	srv, err := New("reset", DefaultConfig(), func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("failures are logged")
	}, WithTimer(func(d time.Duration) <-chan time.Time {
		waits <- d
		return fire
	}))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Start(context.Background()) }()

	assert.Equal(t, 30*time.Minute, <-waits)
	fire <- now
	assert.Equal(t, 24*time.Hour+30*time.Minute, <-waits, "the same fire time is never run twice")
	assert.EqualValues(t, 1, atomic.LoadInt32(&runs))

	srv.Shutdown()
	srv.Shutdown()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestService_StartCanceled(t *testing.T) {
	srv, err := New("reset", DefaultConfig(), noop)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(srv.Start(ctx), context.Canceled))
}

func TestService_RunRecoversPanic(t *testing.T) {
	srv, err := New("reset", DefaultConfig(), func(ctx context.Context) error { panic("boom") })
	require.NoError(t, err)
	assert.Error(t, srv.Run(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	var testCases = []struct {
		description string
		config      Config
	}{
		{description: "bad time", config: Config{At: "25:00"}},
		{description: "bad location", config: Config{At: "22:00", Location: "Mars/Olympus"}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			_, err := New("reset", tc.config, noop)
			assert.Error(t, err)
		})
	}
	_, err := New("reset", DefaultConfig(), nil)
	assert.Error(t, err)
}
