// Package validator checks that a cluster exists before a request is routed
// to an approver.
package validator

import (
	"context"
	"time"
)

// Default regions searched for a cluster
var DefaultRegions = []string{"us-east-1", "us-west-2"}

// Validator reports whether a cluster with the external name exists
type Validator interface {
	Exists(ctx context.Context, externalName string) (bool, error)
}

// Lister lists cluster names in a region
type Lister interface {
	ListClusters(ctx context.Context, region string) ([]string, error)
}

// Func adapts a function to Validator
type Func func(ctx context.Context, externalName string) (bool, error)

// Exists calls fn
func (fn Func) Exists(ctx context.Context, externalName string) (bool, error) {
	return fn(ctx, externalName)
}

// Config represents validator configuration
type Config struct {
	Regions []string `json:"regions,omitempty" yaml:"regions,omitempty"`
	// CacheTTL caches region listings; 0 disables caching
	CacheTTL time.Duration `json:"cacheTTL,omitempty" yaml:"cacheTTL,omitempty"`
	// RatePerSecond throttles listing calls; 0 disables throttling
	RatePerSecond float64 `json:"ratePerSecond,omitempty" yaml:"ratePerSecond,omitempty"`
	Burst         int     `json:"burst,omitempty" yaml:"burst,omitempty"`
	// Timeout bounds a single region listing
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Disabled accepts every cluster name, for local runs without cloud access
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// DefaultConfig returns default validator config
func DefaultConfig() Config {
	return Config{
		Regions:       append([]string{}, DefaultRegions...),
		CacheTTL:      time.Minute,
		RatePerSecond: 5,
		Burst:         2,
		Timeout:       10 * time.Second,
	}
}
