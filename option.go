package exclusor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/exclusor/service/dao/pending"
	"github.com/viant/exclusor/service/notify"
	"github.com/viant/exclusor/service/replica"
	"github.com/viant/exclusor/service/validator"
	"github.com/viant/exclusor/tracing"
	"go.uber.org/zap"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises Service construction
type Option func(s *Service)

// WithLogger sets the logger; defaults to logger.L()
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFS sets the afs service used by stores and replication
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithRegisterer sets the prometheus registry collectors are registered with
func WithRegisterer(registry prometheus.Registerer) Option {
	return func(s *Service) { s.registry = registry }
}

// WithNotifier replaces the Slack notifier
func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

// WithValidator replaces the EKS backed validator
func WithValidator(v validator.Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithReplicator replaces the configured replicator
func WithReplicator(replicator replica.Replicator) Option {
	return func(s *Service) { s.replicator = replicator }
}

// WithPendingStore replaces the configured pending request store
func WithPendingStore(store pending.Store) Option {
	return func(s *Service) { s.pending = store }
}

// WithVersion sets the version reported by logs and traces
func WithVersion(version string) Option {
	return func(s *Service) { s.version = version }
}

// WithTracingExporter configures OpenTelemetry with a custom exporter (OTLP,
// Jaeger, ...). The first successful initialisation wins.
func WithTracingExporter(exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, s.version, exporter); err != nil && s.logger != nil {
			s.logger.Warn("failed to initialise tracing", zap.Error(err))
		}
	}
}
