package endpoint

import (
	"context"
	"time"

	"github.com/viant/exclusor/service/metrics"
	"go.uber.org/zap"
)

// Option represents endpoint option
type Option func(*Service)

// WithConfig sets server config
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithSigningSecret enables Slack request verification
func WithSigningSecret(secret string) Option {
	return func(s *Service) { s.signingSecret = secret }
}

// WithResponseTimeout sets how long a trigger waits for its job
func WithResponseTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.responseTimeout = timeout
		}
	}
}

// WithReset sets the action behind POST /admin/reset
func WithReset(reset func(ctx context.Context) error) Option {
	return func(s *Service) { s.reset = reset }
}

// WithLogger sets logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}
