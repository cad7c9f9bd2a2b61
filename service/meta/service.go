// Package meta loads YAML (or JSON) documents from any afs location,
// expanding ${env.NAME} expressions before decoding.
package meta

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service loads configuration documents
type Service struct {
	fs afs.Service
}

// Exists returns true if URL exists
func (s *Service) Exists(ctx context.Context, URL string) (bool, error) {
	return s.fs.Exists(ctx, url.Normalize(URL, file.Scheme))
}

// Load decodes the document at URL into target
func (s *Service) Load(ctx context.Context, URL string, target interface{}) error {
	URL = url.Normalize(URL, file.Scheme)
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", URL, err)
	}
	if err = s.Decode(data, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", URL, err)
	}
	return nil
}

// Decode expands env expressions and decodes YAML data into target
func (s *Service) Decode(data []byte, target interface{}) error {
	return yaml.Unmarshal([]byte(expandEnvExpr(string(data))), target)
}

// New creates a meta service
func New(fs afs.Service) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs}
}
