package scp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplicator_Command(t *testing.T) {
	var testCases = []struct {
		description string
		target      string
		options     []string
		source      string
		expect      string
	}{
		{
			description: "default options",
			target:      "bpadmin@10.0.0.1:/home/bpadmin/exclude_clusters.txt",
			source:      "/var/lib/exclusor/exclude_clusters.txt",
			expect:      "scp -q -o BatchMode=yes /var/lib/exclusor/exclude_clusters.txt bpadmin@10.0.0.1:/home/bpadmin/exclude_clusters.txt",
		},
		{
			description: "file URL source",
			target:      "u@h:/tmp/x.txt",
			options:     []string{"-P", "2222"},
			source:      "file://localhost/tmp/exclude.txt",
			expect:      "scp -P 2222 /tmp/exclude.txt u@h:/tmp/x.txt",
		},
		{
			description: "quoted path",
			target:      "u@h:/tmp/x.txt",
			options:     []string{"-q"},
			source:      "/tmp/my dir/exclude.txt",
			expect:      "scp -q '/tmp/my dir/exclude.txt' u@h:/tmp/x.txt",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			replicator, err := New(tc.target, time.Second, tc.options...)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, replicator.Command(tc.source))
		})
	}
}

func TestNew_InvalidTarget(t *testing.T) {
	for _, target := range []string{"", "host-only"} {
		_, err := New(target, 0)
		assert.Error(t, err, target)
	}
}
