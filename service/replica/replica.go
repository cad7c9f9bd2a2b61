// Package replica pushes the exclusion list file of record to a secondary host.
// Replication is best-effort: callers log failures and never roll back the
// local write.
package replica

import "context"

// Kinds of replicators supported by configuration.
const (
	KindNone = "none"
	KindSCP  = "scp"
	KindAFS  = "afs"
)

// Replicator copies the document at sourceURL to its replica.
type Replicator interface {
	Replicate(ctx context.Context, sourceURL string) error
}

// Func adapts a function to Replicator
type Func func(ctx context.Context, sourceURL string) error

// Replicate calls f
func (f Func) Replicate(ctx context.Context, sourceURL string) error { return f(ctx, sourceURL) }

// Nop does nothing; used when no replica is configured.
type Nop struct{}

// Replicate returns nil
func (Nop) Replicate(context.Context, string) error { return nil }

// Config represents replica configuration
type Config struct {
	// Kind is one of none, scp, afs.
	Kind string `json:"kind" yaml:"kind"`
	// Target is user@host:/path for scp, or a destination URL for afs.
	Target string `json:"target" yaml:"target"`
	// TimeoutMs bounds a single replication.
	TimeoutMs int `json:"timeoutMs" yaml:"timeoutMs"`
	// Options are extra command line options for scp.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}
