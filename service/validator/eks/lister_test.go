package eks

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	region string
	pages  [][]string
	err    error
}

func (f *fakeAPI) ListClusters(ctx context.Context, input *eks.ListClustersInput, _ ...func(*eks.Options)) (*eks.ListClustersOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	index := 0
	if input.NextToken != nil {
		for i := range f.pages {
			if *input.NextToken == tokenFor(i) {
				index = i
			}
		}
	}
	output := &eks.ListClustersOutput{Clusters: f.pages[index]}
	if index+1 < len(f.pages) {
		output.NextToken = aws.String(tokenFor(index + 1))
	}
	return output, nil
}

func tokenFor(i int) string { return string(rune('a' + i)) }

func TestLister_ListClusters(t *testing.T) {
	var created []string
	clients := map[string]*fakeAPI{
		"us-east-1": {pages: [][]string{{"a-dev-eks-cluster", "b-dev-eks-cluster"}, {"c-dev-eks-cluster"}}},
		"us-west-2": {err: errors.New("access denied")},
	}
	lister := NewWithConfig(aws.Config{}, func(cfg aws.Config, region string) API {
		created = append(created, region)
		return clients[region]
	})

	names, err := lister.ListClusters(context.Background(), "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a-dev-eks-cluster", "b-dev-eks-cluster", "c-dev-eks-cluster"}, names)

	_, err = lister.ListClusters(context.Background(), "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1"}, created, "client is reused per region")

	_, err = lister.ListClusters(context.Background(), "us-west-2")
	assert.Error(t, err)
}
