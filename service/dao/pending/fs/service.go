package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/exclusor/model/cluster"
	"github.com/viant/exclusor/service/dao"
	"github.com/viant/exclusor/service/dao/pending"
	"github.com/viant/exclusor/service/dao/store"
	"go.uber.org/zap"
)

// Service stores pending requests in a single JSON document mapping cluster
// id to request. Every mutation reads the full document, mutates it and
// writes it back atomically while holding the store mutex.
type Service struct {
	doc    *store.Document
	logger *zap.Logger
	mu     sync.Mutex
}

// Ensure Service implements pending.Store
var _ pending.Store = (*Service)(nil)

// URL returns the document URL
func (s *Service) URL() string { return s.doc.URL() }

// Load returns the pending request for id, or nil when there is none
func (s *Service) Load(ctx context.Context, id string) (*pending.Request, error) {
	if strings.TrimSpace(id) == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	requests, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return requests[id], nil
}

// Save upserts a request
func (s *Service) Save(ctx context.Context, r *pending.Request) error {
	if err := validate(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	requests, err := s.load(ctx)
	if err != nil {
		return err
	}
	requests[pending.Key(r)] = r
	return s.save(ctx, requests)
}

// Create stores r unless a request for the same cluster is already pending
func (s *Service) Create(ctx context.Context, r *pending.Request) error {
	if err := validate(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	requests, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := requests[pending.Key(r)]; ok {
		return dao.ErrAlreadyExists
	}
	requests[pending.Key(r)] = r
	return s.save(ctx, requests)
}

// Delete removes the request for id; removing a missing id is a no-op
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	requests, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := requests[id]; !ok {
		return nil
	}
	delete(requests, id)
	return s.save(ctx, requests)
}

// List returns pending requests ordered by cluster id
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*pending.Request, error) {
	s.mu.Lock()
	requests, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var result []*pending.Request
	for _, r := range requests {
		if pending.Match(r, parameters) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClusterID < result[j].ClusterID })
	return result, nil
}

// load reads the document; a missing, empty or malformed document is an empty mapping.
func (s *Service) load(ctx context.Context) (map[string]*pending.Request, error) {
	requests := map[string]*pending.Request{}
	data, exists, err := s.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	if !exists || len(strings.TrimSpace(string(data))) == 0 {
		return requests, nil
	}
	if err = json.Unmarshal(data, &requests); err != nil {
		s.logger.Warn("malformed pending document, treating as empty", zap.String("url", s.doc.URL()), zap.Error(err))
		return map[string]*pending.Request{}, nil
	}
	for id, r := range requests {
		if r == nil {
			delete(requests, id)
			continue
		}
		r.ClusterID = cluster.ID(id)
	}
	return requests, nil
}

func (s *Service) save(ctx context.Context, requests map[string]*pending.Request) error {
	data, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("failed to marshal pending requests: %w", err)
	}
	return s.doc.Write(ctx, data)
}

func validate(r *pending.Request) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if strings.TrimSpace(string(r.ClusterID)) == "" {
		return dao.ErrInvalidID
	}
	return nil
}

// New creates a file backed pending store for the document at URL
func New(ctx context.Context, URL string, fs afs.Service, logger *zap.Logger) (*Service, error) {
	doc, err := store.NewDocument(ctx, fs, URL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{doc: doc, logger: logger}, nil
}
