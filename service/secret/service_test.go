package secret

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()
	srv := New()
	location := filepath.Join(t.TempDir(), "bot_token.enc")
	require.NoError(t, srv.Secure(ctx, "xoxb-secret", location, ""))

	var testCases = []struct {
		description string
		value       string
		URL         string
		expect      string
	}{
		{description: "plain value wins", value: "xoxb-plain", URL: location, expect: "xoxb-plain"},
		{description: "encrypted resource", URL: location, expect: "xoxb-secret"},
		{description: "nothing configured"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			actual, err := srv.Resolve(ctx, tc.value, tc.URL, "")
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}

	_, err := srv.Resolve(ctx, "", filepath.Join(t.TempDir(), "missing.enc"), "")
	assert.Error(t, err)
	assert.Error(t, srv.Secure(ctx, "x", "", ""))
}
