package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "nested", "doc.json")

	doc, err := NewDocument(ctx, nil, location)
	require.NoError(t, err)

	data, exists, err := doc.Read(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, data)

	require.NoError(t, doc.Write(ctx, []byte(`{"a":1}`)))
	require.NoError(t, doc.Write(ctx, []byte(`{"b":2}`)))

	data, exists, err = doc.Read(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, `{"b":2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(location))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestNewDocument_EmptyURL(t *testing.T) {
	_, err := NewDocument(context.Background(), nil, "")
	assert.Error(t, err)
}
