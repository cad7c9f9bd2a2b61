package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplicator_Replicate(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "exclude_clusters.txt")
	dest := filepath.Join(dir, "replica", "exclude_clusters.txt")
	require.NoError(t, os.WriteFile(source, []byte("a-infra,b-infra"), 0644))

	replicator, err := New(nil, dest, time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, replicator.Replicate(ctx, source))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a-infra,b-infra", string(data))

	require.NoError(t, os.WriteFile(source, []byte(""), 0644))
	require.NoError(t, replicator.Replicate(ctx, source))
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "", string(data))
}

func TestReplicator_MissingSource(t *testing.T) {
	dir := t.TempDir()
	replicator, err := New(nil, filepath.Join(dir, "dest.txt"), 0)
	require.NoError(t, err)
	err = replicator.Replicate(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestNew_EmptyDest(t *testing.T) {
	_, err := New(nil, "", 0)
	assert.Error(t, err)
}
