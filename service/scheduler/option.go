package scheduler

import (
	"time"

	"github.com/viant/exclusor/service/metrics"
	"go.uber.org/zap"
)

// Option represents scheduler option
type Option func(*Service)

// WithLogger sets logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimer replaces time.After
func WithTimer(after func(d time.Duration) <-chan time.Time) Option {
	return func(s *Service) { s.after = after }
}
