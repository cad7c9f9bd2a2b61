package scp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
)

const defaultTimeout = time.Minute

// Replicator pushes the source file to user@host:/path by running scp through
// a local gosh session.
type Replicator struct {
	target  string
	options []string
	timeout time.Duration

	mux     sync.Mutex
	session *gosh.Service
}

// Command returns the scp command line for the supplied source URL
func (r *Replicator) Command(sourceURL string) string {
	args := []string{"scp"}
	args = append(args, r.options...)
	args = append(args, shellQuote(localPath(sourceURL)), shellQuote(r.target))
	return strings.Join(args, " ")
}

func localPath(sourceURL string) string {
	if !strings.Contains(sourceURL, "://") {
		return sourceURL
	}
	return url.Path(sourceURL)
}

// Replicate runs scp; a non-zero exit status is reported as an error
func (r *Replicator) Replicate(ctx context.Context, sourceURL string) error {
	session, err := r.getSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to start shell session: %w", err)
	}
	command := r.Command(sourceURL)
	stdout, status, err := session.Run(ctx, command, runner.WithTimeout(int(r.timeout.Milliseconds())))
	if err != nil {
		r.reset()
		return fmt.Errorf("scp to %s failed: %w", r.target, err)
	}
	if status != 0 {
		return fmt.Errorf("scp to %s exited with %d: %s", r.target, status, strings.TrimSpace(stdout))
	}
	return nil
}

func (r *Replicator) getSession(ctx context.Context) (*gosh.Service, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.session != nil {
		return r.session, nil
	}
	session, err := gosh.New(ctx, local.New())
	if err != nil {
		return nil, err
	}
	r.session = session
	return session, nil
}

// reset drops a session left in an unknown state after a failed command.
func (r *Replicator) reset() {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.session != nil {
		_ = r.session.Close()
		r.session = nil
	}
}

// Close releases the shell session
func (r *Replicator) Close() error {
	r.reset()
	return nil
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>()*?[]{}!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// New creates a scp replicator; target has the user@host:/path form
func New(target string, timeout time.Duration, options ...string) (*Replicator, error) {
	if target == "" || !strings.Contains(target, ":") {
		return nil, fmt.Errorf("invalid scp target %q, expected user@host:/path", target)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if len(options) == 0 {
		options = []string{"-q", "-o", "BatchMode=yes"}
	}
	return &Replicator{target: target, options: options, timeout: timeout}, nil
}
