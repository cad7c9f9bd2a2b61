package approval

import (
	"time"

	"github.com/viant/exclusor/model/cluster"
	"github.com/viant/exclusor/service/dao/pending"
	"github.com/viant/exclusor/service/messaging"
	"github.com/viant/exclusor/service/metrics"
	"github.com/viant/exclusor/service/notify"
	"github.com/viant/exclusor/service/validator"
	"go.uber.org/zap"
)

// Option represents approval service option
type Option func(*service)

// WithExclusions sets the exclusion list
func WithExclusions(exclusions ExclusionList) Option {
	return func(s *service) { s.exclusions = exclusions }
}

// WithPending sets the pending request store
func WithPending(store pending.Store) Option {
	return func(s *service) { s.pending = store }
}

// WithValidator sets the cluster validator
func WithValidator(v validator.Validator) Option {
	return func(s *service) { s.validator = v }
}

// WithNotifier sets the notification transport and the approver channel
func WithNotifier(notifier notify.Notifier, channel string) Option {
	return func(s *service) {
		s.notifier = notifier
		s.channel = channel
	}
}

// WithNaming sets cluster naming convention
func WithNaming(naming cluster.Naming) Option {
	return func(s *service) { s.naming = naming }
}

// WithRegions sets region names quoted in not found messages
func WithRegions(regions ...string) Option {
	return func(s *service) { s.regions = regions }
}

// WithCallTimeout bounds every collaborator call
func WithCallTimeout(timeout time.Duration) Option {
	return func(s *service) { s.callTimeout = timeout }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// WithMetrics sets metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithEventQueue sets the event queue
func WithEventQueue(queue messaging.Queue[Event]) Option {
	return func(s *service) { s.events = queue }
}
