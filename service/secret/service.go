// Package secret resolves credentials either from plain configuration values
// or from scy encrypted resources.
package secret

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/scy"
	_ "github.com/viant/scy/kms/blowfish"
)

// DefaultKey is the scy key used when none is configured
const DefaultKey = "blowfish://default"

// Service provides secret operations using viant/scy
type Service struct {
	scyService *scy.Service
}

// Resolve returns value when set, otherwise the decrypted content of URL
func (s *Service) Resolve(ctx context.Context, value, URL, key string) (string, error) {
	if value != "" {
		return value, nil
	}
	if URL == "" {
		return "", nil
	}
	secret, err := s.scyService.Load(ctx, scy.NewResource(nil, URL, keyOrDefault(key)))
	if err != nil {
		return "", fmt.Errorf("failed to load secret from %s: %w", URL, err)
	}
	return strings.TrimSpace(secret.String()), nil
}

// Secure encrypts plain text and stores it at destURL
func (s *Service) Secure(ctx context.Context, plain, destURL, key string) error {
	if destURL == "" {
		return fmt.Errorf("destination URL was empty")
	}
	resource := scy.NewResource(nil, destURL, keyOrDefault(key))
	if err := s.scyService.Store(ctx, scy.NewSecret(plain, resource)); err != nil {
		return fmt.Errorf("failed to store secret at %s: %w", destURL, err)
	}
	return nil
}

func keyOrDefault(key string) string {
	if key == "" {
		return DefaultKey
	}
	return key
}

// New creates a secret service
func New() *Service {
	return &Service{scyService: scy.New()}
}
