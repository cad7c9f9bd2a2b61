package exclusor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/exclusor/internal/logger"
	"github.com/viant/exclusor/service/approval"
	"github.com/viant/exclusor/service/dao/pending"
	pfs "github.com/viant/exclusor/service/dao/pending/fs"
	pmemory "github.com/viant/exclusor/service/dao/pending/memory"
	"github.com/viant/exclusor/service/endpoint"
	"github.com/viant/exclusor/service/exclusion"
	"github.com/viant/exclusor/service/messaging"
	fsqueue "github.com/viant/exclusor/service/messaging/fs"
	"github.com/viant/exclusor/service/metrics"
	"github.com/viant/exclusor/service/notify"
	slacknotify "github.com/viant/exclusor/service/notify/slack"
	"github.com/viant/exclusor/service/processor"
	"github.com/viant/exclusor/service/replica"
	"github.com/viant/exclusor/service/replica/scp"
	"github.com/viant/exclusor/service/replica/storage"
	"github.com/viant/exclusor/service/scheduler"
	"github.com/viant/exclusor/service/secret"
	"github.com/viant/exclusor/service/validator"
	"github.com/viant/exclusor/service/validator/eks"
	"github.com/viant/exclusor/tracing"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "exclusor"

// Service wires the approval workflow, its HTTP triggers and the daily reset
type Service struct {
	config     *Config
	version    string
	logger     *zap.Logger
	fs         afs.Service
	registry   prometheus.Registerer
	metrics    *metrics.Metrics
	notifier   notify.Notifier
	validator  validator.Validator
	replicator replica.Replicator
	exclusions *exclusion.Store
	pending    pending.Store
	approval   approval.Service
	processor  *processor.Service
	endpoint   *endpoint.Service
	scheduler  *scheduler.Service
	journal    *fsqueue.Queue[approval.Event]

	mux     sync.Mutex
	cancel  context.CancelFunc
	running *errgroup.Group
}

// Approval returns the approval service
func (s *Service) Approval() approval.Service { return s.approval }

// Exclusions returns the exclusion list store
func (s *Service) Exclusions() *exclusion.Store { return s.exclusions }

// Scheduler returns the daily reset scheduler
func (s *Service) Scheduler() *scheduler.Service { return s.scheduler }

// Handler returns the HTTP handler serving the triggers
func (s *Service) Handler() http.Handler { return s.endpoint.Handler() }

// Reset clears the exclusion list; replication failures are logged and ignored
func (s *Service) Reset(ctx context.Context) error {
	return resetExclusions(ctx, s.exclusions, s.logger)
}

// Start runs the processor, the event listener, the scheduler and the HTTP
// server; it blocks until the server stops or one of the loops fails.
func (s *Service) Start(ctx context.Context) error {
	s.mux.Lock()
	if s.running != nil {
		s.mux.Unlock()
		return errors.New("service already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(ctx)
	s.cancel = cancel
	s.running = group
	s.mux.Unlock()

	if err := s.processor.Start(groupCtx); err != nil {
		cancel()
		return err
	}
	group.Go(func() error {
		s.listen(groupCtx)
		return nil
	})
	if !s.config.Scheduler.Disabled {
		group.Go(func() error {
			if err := s.scheduler.Start(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	group.Go(func() error {
		defer cancel()
		return s.endpoint.Start()
	})
	group.Go(func() error {
		<-groupCtx.Done()
		if err := s.endpoint.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to stop endpoint", zap.Error(err))
		}
		return nil
	})
	s.logger.Info("service started", zap.String("addr", s.config.Server.Addr), zap.String("version", s.version))
	return group.Wait()
}

// listen logs workflow events until ctx is done
func (s *Service) listen(ctx context.Context) {
	queue := s.approval.Queue()
	for {
		msg, err := queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, messaging.ErrQueueClosed) {
				return
			}
			s.logger.Warn("failed to consume event", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if msg == nil {
			continue
		}
		event := msg.T()
		switch {
		case event.Request != nil:
			s.logger.Info("exclusion requested",
				zap.String("cluster", event.ClusterID.String()),
				zap.String("requester", event.Request.RequesterID),
				zap.String("reason", event.Request.Reason))
		case event.Decision != nil:
			s.logger.Info("exclusion decided",
				zap.String("cluster", event.ClusterID.String()),
				zap.String("kind", string(event.Decision.Kind)),
				zap.String("decider", event.Decision.DeciderID),
				zap.String("outcome", string(event.Decision.Outcome)))
		default:
			s.logger.Debug("event", zap.String("topic", event.Topic))
		}
		_ = msg.Ack()
	}
}

// Shutdown stops the server and the scheduler, then drains queued jobs
func (s *Service) Shutdown(ctx context.Context) error {
	s.mux.Lock()
	cancel := s.cancel
	s.mux.Unlock()
	s.scheduler.Shutdown()
	err := s.endpoint.Shutdown(ctx)
	s.processor.Shutdown()
	if s.journal != nil {
		s.journal.Close()
	}
	if cancel != nil {
		cancel()
	}
	if closer, ok := s.replicator.(interface{ Close() error }); ok {
		if cErr := closer.Close(); cErr != nil {
			s.logger.Warn("failed to close replicator", zap.Error(cErr))
		}
	}
	s.logger.Info("service stopped")
	return err
}

func (s *Service) init(ctx context.Context) error {
	var err error
	cfg := s.config
	if s.registry == nil {
		s.registry = prometheus.DefaultRegisterer
	}
	if s.metrics, err = metrics.New(s.registry); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if cfg.Tracing.Enabled {
		if err = tracing.Init(serviceName, s.version, cfg.Tracing.OutputFile); err != nil {
			return fmt.Errorf("failed to initialise tracing: %w", err)
		}
	}
	if s.replicator == nil {
		if s.replicator, err = NewReplicator(cfg.Replica, s.fs); err != nil {
			return err
		}
	}
	s.exclusions, err = exclusion.New(ctx, cfg.Store.ExclusionURL,
		exclusion.WithFS(s.fs),
		exclusion.WithReplicator(s.replicator),
		exclusion.WithLogger(s.logger),
		exclusion.WithSyncListener(s.metrics.SyncListener()))
	if err != nil {
		return fmt.Errorf("failed to open exclusion list: %w", err)
	}
	if s.pending == nil {
		if s.pending, err = NewPendingStore(ctx, cfg.Store, s.fs, s.logger); err != nil {
			return err
		}
	}
	if s.validator == nil {
		if s.validator, err = newValidator(ctx, cfg.Validator, s.logger); err != nil {
			return err
		}
	}
	signingSecret, err := s.initNotifier(ctx)
	if err != nil {
		return err
	}
	approvalOptions := []approval.Option{
		approval.WithExclusions(s.exclusions),
		approval.WithPending(s.pending),
		approval.WithValidator(s.validator),
		approval.WithNotifier(s.notifier, cfg.Slack.ChannelID),
		approval.WithNaming(cfg.Naming),
		approval.WithRegions(cfg.Validator.Regions...),
		approval.WithLogger(s.logger),
		approval.WithMetrics(s.metrics),
	}
	if cfg.Events.URL != "" {
		if s.journal, err = fsqueue.NewQueue[approval.Event](ctx, s.fs, cfg.Events); err != nil {
			return fmt.Errorf("failed to open event journal: %w", err)
		}
		approvalOptions = append(approvalOptions, approval.WithEventQueue(s.journal))
	}
	if s.approval, err = approval.New(approvalOptions...); err != nil {
		return err
	}
	if s.processor, err = processor.New(
		processor.WithConfig(cfg.Processor),
		processor.WithLogger(s.logger),
		processor.WithMetrics(s.metrics),
	); err != nil {
		return err
	}
	if s.endpoint, err = endpoint.New(s.approval, s.processor, s.notifier,
		endpoint.WithConfig(cfg.Server),
		endpoint.WithSigningSecret(signingSecret),
		endpoint.WithReset(s.Reset),
		endpoint.WithLogger(s.logger),
		endpoint.WithMetrics(s.metrics),
	); err != nil {
		return err
	}
	s.scheduler, err = scheduler.New("reset", cfg.Scheduler, s.Reset,
		scheduler.WithLogger(s.logger),
		scheduler.WithMetrics(s.metrics))
	return err
}

// initNotifier builds the Slack notifier unless one was supplied and returns
// the resolved signing secret
func (s *Service) initNotifier(ctx context.Context) (string, error) {
	cfg := s.config.Slack
	secrets := secret.New()
	signingSecret, err := secrets.Resolve(ctx, cfg.SigningSecret, cfg.SigningSecretURL, cfg.SecretKey)
	if err != nil {
		return "", err
	}
	if signingSecret == "" {
		s.logger.Warn("slack signing secret not configured, request verification disabled")
	}
	if s.notifier != nil {
		return signingSecret, nil
	}
	if cfg.BotToken, err = secrets.Resolve(ctx, cfg.BotToken, cfg.BotTokenURL, cfg.SecretKey); err != nil {
		return "", err
	}
	if s.notifier, err = slacknotify.NewWithConfig(&cfg); err != nil {
		return "", err
	}
	return signingSecret, nil
}

func newValidator(ctx context.Context, cfg validator.Config, log *zap.Logger) (validator.Validator, error) {
	if cfg.Disabled {
		log.Warn("cluster validation disabled")
		return validator.Func(func(context.Context, string) (bool, error) { return true, nil }), nil
	}
	lister, err := eks.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create eks lister: %w", err)
	}
	return validator.NewRegional(lister, cfg, log)
}

// NewReplicator creates the replicator selected by config
func NewReplicator(cfg replica.Config, fs afs.Service) (replica.Replicator, error) {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	switch cfg.Kind {
	case "", replica.KindNone:
		return replica.Nop{}, nil
	case replica.KindSCP:
		return scp.New(cfg.Target, timeout, cfg.Options...)
	case replica.KindAFS:
		return storage.New(fs, cfg.Target, timeout)
	}
	return nil, fmt.Errorf("unsupported replica kind: %q", cfg.Kind)
}

// NewPendingStore creates the pending request store selected by config
func NewPendingStore(ctx context.Context, cfg StoreConfig, fs afs.Service, log *zap.Logger) (pending.Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return pmemory.New(), nil
	case "", DriverFS:
		store, err := pfs.New(ctx, cfg.PendingURL, fs, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open pending store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
}

func resetExclusions(ctx context.Context, store *exclusion.Store, log *zap.Logger) error {
	err := store.Clear(ctx)
	if errors.Is(err, exclusion.ErrSync) {
		log.Warn("exclusion list cleared, replication failed", zap.Error(err))
		return nil
	}
	return err
}

// New creates a service from cfg
func New(ctx context.Context, cfg *Config, options ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ret := &Service{config: cfg}
	for _, opt := range options {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = logger.L()
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if err := ret.init(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}
