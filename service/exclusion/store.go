// Package exclusion maintains the durable set of excluded clusters.
//
// The file of record holds one line of comma separated canonical ids. Every
// mutation rewrites the whole document atomically and is followed by an
// attempt to replicate the file; replication failures never roll back the
// local write.
package exclusion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/exclusor/model/cluster"
	"github.com/viant/exclusor/service/dao/store"
	"github.com/viant/exclusor/service/replica"
	"github.com/viant/exclusor/tracing"
	"go.uber.org/zap"
)

const separator = ","

var (
	// ErrWrite is returned when the file of record cannot be read or written.
	ErrWrite = errors.New("exclusion: write failure")
	// ErrSync is returned when the local write succeeded but replication failed.
	ErrSync = errors.New("exclusion: sync failure")
)

// Store is the exclusion list store
type Store struct {
	doc        *store.Document
	fs         afs.Service
	replicator replica.Replicator
	logger     *zap.Logger
	onSync     func(err error)

	mu     sync.Mutex // guards read-modify-write of the document
	syncMu sync.Mutex // serializes replications
}

// URL returns the file of record URL
func (s *Store) URL() string { return s.doc.URL() }

// Contains returns true if id is excluded
func (s *Store) Contains(ctx context.Context, id cluster.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[id]
	return ok, nil
}

// List returns sorted excluded ids
func (s *Store) List(ctx context.Context) ([]cluster.ID, error) {
	s.mu.Lock()
	set, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return sortedIDs(set), nil
}

// Add adds id to the set, persists and replicates it. Adding an id that is
// already present is a no-op.
func (s *Store) Add(ctx context.Context, id cluster.ID) (err error) {
	ctx, span := tracing.StartSpan(ctx, "exclusion.Add", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	if strings.TrimSpace(string(id)) == "" || strings.Contains(string(id), separator) {
		return fmt.Errorf("%w: invalid cluster id %q", ErrWrite, id)
	}

	s.mu.Lock()
	set, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := set[id]; ok {
		s.mu.Unlock()
		return nil
	}
	set[id] = struct{}{}
	err = s.save(ctx, set)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.sync(ctx)
}

// Clear empties the set, persists and replicates it.
func (s *Store) Clear(ctx context.Context) (err error) {
	ctx, span := tracing.StartSpan(ctx, "exclusion.Clear", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	s.mu.Lock()
	err = s.save(ctx, map[cluster.ID]struct{}{})
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.sync(ctx)
}

func (s *Store) load(ctx context.Context) (map[cluster.ID]struct{}, error) {
	data, _, err := s.doc.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return Decode(data), nil
}

func (s *Store) save(ctx context.Context, set map[cluster.ID]struct{}) error {
	if err := s.doc.Write(ctx, Encode(set)); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func (s *Store) sync(ctx context.Context) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	err := s.replicator.Replicate(ctx, s.doc.URL())
	if s.onSync != nil {
		s.onSync(err)
	}
	if err != nil {
		s.logger.Warn("exclusion list replication failed", zap.String("url", s.doc.URL()), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSync, err)
	}
	s.logger.Info("exclusion list replicated", zap.String("url", s.doc.URL()))
	return nil
}

// Decode parses the document; blank tokens are ignored and duplicates collapse.
func Decode(data []byte) map[cluster.ID]struct{} {
	set := map[cluster.ID]struct{}{}
	for _, token := range strings.Split(strings.TrimSpace(string(data)), separator) {
		if token = strings.TrimSpace(token); token != "" {
			set[cluster.ID(token)] = struct{}{}
		}
	}
	return set
}

// Encode renders the set as a single sorted, comma joined line.
func Encode(set map[cluster.ID]struct{}) []byte {
	ids := sortedIDs(set)
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = string(id)
	}
	return []byte(strings.Join(items, separator))
}

func sortedIDs(set map[cluster.ID]struct{}) []cluster.ID {
	ids := make([]cluster.ID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// New creates an exclusion list store backed by the document at URL
func New(ctx context.Context, URL string, options ...Option) (*Store, error) {
	ret := &Store{replicator: replica.Nop{}, logger: zap.NewNop()}
	for _, opt := range options {
		opt(ret)
	}
	doc, err := store.NewDocument(ctx, ret.fs, URL)
	if err != nil {
		return nil, err
	}
	ret.doc = doc
	return ret, nil
}
