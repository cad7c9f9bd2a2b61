package meta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type document struct {
	Name    string   `yaml:"name"`
	Token   string   `yaml:"token"`
	Regions []string `yaml:"regions"`
}

func TestService_Load(t *testing.T) {
	t.Setenv("META_TEST_TOKEN", "xoxb-123")
	location := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(location, []byte("name: exclusor\ntoken: ${env.META_TEST_TOKEN}\nregions:\n  - us-east-1\n  - us-west-2\n"), 0644))

	srv := New(nil)
	ctx := context.Background()
	exists, err := srv.Exists(ctx, location)
	require.NoError(t, err)
	assert.True(t, exists)

	doc := &document{}
	require.NoError(t, srv.Load(ctx, location, doc))
	assert.Equal(t, &document{Name: "exclusor", Token: "xoxb-123", Regions: []string{"us-east-1", "us-west-2"}}, doc)

	assert.Error(t, srv.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"), doc))
	assert.Error(t, srv.Decode([]byte("name: [unterminated"), doc))
}
