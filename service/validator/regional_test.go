package validator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	clusters map[string][]string
	failing  map[string]error
	calls    int32
	delay    time.Duration
}

func (f *fakeLister) ListClusters(ctx context.Context, region string) ([]string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.failing[region]; err != nil {
		return nil, err
	}
	return f.clusters[region], nil
}

func TestRegional_Exists(t *testing.T) {
	lister := &fakeLister{
		clusters: map[string][]string{
			"us-east-1": {"team1-dev-eks-cluster"},
			"us-west-2": {"team2-dev-eks-cluster"},
		},
		failing: map[string]error{"eu-west-1": errors.New("access denied")},
	}
	var testCases = []struct {
		description string
		regions     []string
		name        string
		expect      bool
	}{
		{description: "first region", name: "team1-dev-eks-cluster", expect: true},
		{description: "second region", name: "team2-dev-eks-cluster", expect: true},
		{description: "missing", name: "team3-dev-eks-cluster", expect: false},
		{description: "failing region is absent", regions: []string{"eu-west-1"}, name: "team1-dev-eks-cluster", expect: false},
		{description: "failing region ignored", regions: []string{"eu-west-1", "us-west-2"}, name: "team2-dev-eks-cluster", expect: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			config := Config{Regions: tc.regions}
			srv, err := NewRegional(lister, config, nil)
			require.NoError(t, err)
			actual, err := srv.Exists(context.Background(), tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func TestRegional_Cache(t *testing.T) {
	lister := &fakeLister{clusters: map[string][]string{"us-east-1": {"a-dev-eks-cluster"}}}
	srv, err := NewRegional(lister, Config{Regions: []string{"us-east-1"}, CacheTTL: time.Minute}, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		ok, err := srv.Exists(context.Background(), "a-dev-eks-cluster")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&lister.calls))

	srv.Invalidate()
	_, _ = srv.Exists(context.Background(), "a-dev-eks-cluster")
	assert.EqualValues(t, 2, atomic.LoadInt32(&lister.calls))
}

func TestRegional_CoalescesConcurrentListings(t *testing.T) {
	lister := &fakeLister{clusters: map[string][]string{"us-east-1": {"a-dev-eks-cluster"}}, delay: 50 * time.Millisecond}
	srv, err := NewRegional(lister, Config{Regions: []string{"us-east-1"}}, nil)
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := srv.Exists(context.Background(), "a-dev-eks-cluster")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Less(t, atomic.LoadInt32(&lister.calls), int32(5))
}

func TestRegional_CanceledContext(t *testing.T) {
	srv, err := NewRegional(&fakeLister{}, Config{}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = srv.Exists(ctx, "a")
	assert.Error(t, err)
}

func TestNewRegional_NilLister(t *testing.T) {
	_, err := NewRegional(nil, DefaultConfig(), nil)
	assert.Error(t, err)
}
