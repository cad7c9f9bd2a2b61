package memory

import (
	"context"
	"sort"

	"github.com/viant/exclusor/service/dao"
	"github.com/viant/exclusor/service/dao/pending"
	"github.com/viant/exclusor/service/dao/store"
)

// Service is an in-memory pending store; state does not survive restarts.
type Service struct {
	*store.MemoryStore[string, pending.Request]
}

// List returns pending requests matching parameters ordered by cluster id
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*pending.Request, error) {
	all, err := s.MemoryStore.List(ctx)
	if err != nil {
		return nil, err
	}
	var result []*pending.Request
	for _, r := range all {
		if pending.Match(r, parameters) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClusterID < result[j].ClusterID })
	return result, nil
}

var _ pending.Store = (*Service)(nil)

// New creates a memory pending store
func New() *Service {
	return &Service{MemoryStore: store.NewMemoryStore[string, pending.Request](pending.Key)}
}
