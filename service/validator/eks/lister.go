// Package eks lists clusters with the AWS EKS API.
package eks

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eks"
)

// API is the subset of the EKS client used by Lister
type API interface {
	eks.ListClustersAPIClient
}

// Lister lists EKS clusters, one client per region
type Lister struct {
	base    aws.Config
	mux     sync.Mutex
	clients map[string]API
	factory func(cfg aws.Config, region string) API
}

// ListClusters returns all cluster names in region
func (l *Lister) ListClusters(ctx context.Context, region string) ([]string, error) {
	client := l.client(region)
	paginator := eks.NewListClustersPaginator(client, &eks.ListClustersInput{})
	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list eks clusters: %w", err)
		}
		names = append(names, page.Clusters...)
	}
	return names, nil
}

func (l *Lister) client(region string) API {
	l.mux.Lock()
	defer l.mux.Unlock()
	if client, ok := l.clients[region]; ok {
		return client
	}
	client := l.factory(l.base, region)
	l.clients[region] = client
	return client
}

func newClient(cfg aws.Config, region string) API {
	return eks.NewFromConfig(cfg, func(o *eks.Options) { o.Region = region })
}

// New creates a lister using the default AWS credential chain
func New(ctx context.Context) (*Lister, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewWithConfig(cfg, nil), nil
}

// NewWithConfig creates a lister; factory defaults to the EKS client constructor
func NewWithConfig(cfg aws.Config, factory func(cfg aws.Config, region string) API) *Lister {
	if factory == nil {
		factory = newClient
	}
	return &Lister{base: cfg, clients: map[string]API{}, factory: factory}
}
