package exclusion

import (
	"github.com/viant/afs"
	"github.com/viant/exclusor/service/replica"
	"go.uber.org/zap"
)

// Option customises the store
type Option func(s *Store)

// WithReplicator sets the replicator invoked after every mutation
func WithReplicator(replicator replica.Replicator) Option {
	return func(s *Store) {
		if replicator != nil {
			s.replicator = replicator
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFS sets the afs service used to access the document
func WithFS(fs afs.Service) Option {
	return func(s *Store) { s.fs = fs }
}

// WithSyncListener registers a callback invoked with every replication result
func WithSyncListener(fn func(err error)) Option {
	return func(s *Store) { s.onSync = fn }
}
