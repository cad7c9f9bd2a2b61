package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Replicator copies the source document to a destination URL with viant/afs,
// so any afs supported scheme (file, mem, scp, s3, gs) can host the replica.
type Replicator struct {
	fs      afs.Service
	destURL string
	timeout time.Duration
}

// Replicate copies sourceURL over the destination
func (r *Replicator) Replicate(ctx context.Context, sourceURL string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	data, err := r.fs.DownloadWithURL(ctx, sourceURL)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", sourceURL, err)
	}
	if err = r.fs.Upload(ctx, r.destURL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to replicate %s to %s: %w", sourceURL, r.destURL, err)
	}
	return nil
}

// DestURL returns replica destination
func (r *Replicator) DestURL() string { return r.destURL }

// New creates an afs replicator
func New(fs afs.Service, destURL string, timeout time.Duration) (*Replicator, error) {
	if destURL == "" {
		return nil, fmt.Errorf("replica destination URL was empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	if url.Scheme(destURL, "") == "" {
		destURL = url.Normalize(destURL, file.Scheme)
	}
	return &Replicator{fs: fs, destURL: destURL, timeout: timeout}, nil
}
