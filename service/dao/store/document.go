package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/exclusor/internal/idgen"
)

// Document is a single file of record addressed by an afs URL. It is always
// read and written in full; writes upload a temporary sibling and move it over
// the target so readers never observe a partial document.
type Document struct {
	fs  afs.Service
	url string
}

// URL returns document URL
func (d *Document) URL() string { return d.url }

// Read returns document content; a missing document is reported with exists=false.
func (d *Document) Read(ctx context.Context) (data []byte, exists bool, err error) {
	if exists, err = d.fs.Exists(ctx, d.url); err != nil {
		return nil, false, fmt.Errorf("failed to check %s: %w", d.url, err)
	}
	if !exists {
		return nil, false, nil
	}
	if data, err = d.fs.DownloadWithURL(ctx, d.url); err != nil {
		return nil, true, fmt.Errorf("failed to read %s: %w", d.url, err)
	}
	return data, true, nil
}

// Write replaces the document content
func (d *Document) Write(ctx context.Context, data []byte) error {
	parent, name := url.Split(d.url, file.Scheme)
	tmpURL := url.Join(parent, "."+name+".tmp-"+idgen.Short())
	if err := d.fs.Upload(ctx, tmpURL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpURL, err)
	}
	if err := d.fs.Move(ctx, tmpURL, d.url); err != nil {
		_ = d.fs.Delete(ctx, tmpURL)
		return fmt.Errorf("failed to replace %s: %w", d.url, err)
	}
	return nil
}

// NewDocument creates a document; the parent location is created when missing
func NewDocument(ctx context.Context, fs afs.Service, URL string) (*Document, error) {
	if URL == "" {
		return nil, fmt.Errorf("document URL was empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	URL = url.Normalize(URL, file.Scheme)
	parent, _ := url.Split(URL, file.Scheme)
	exists, _ := fs.Exists(ctx, parent)
	if !exists {
		if err := fs.Create(ctx, parent, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", parent, err)
		}
	}
	return &Document{fs: fs, url: URL}, nil
}
