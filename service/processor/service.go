package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/exclusor/internal/idgen"
	"github.com/viant/exclusor/service/messaging"
	"github.com/viant/exclusor/service/messaging/memory"
	"github.com/viant/exclusor/service/metrics"
	"github.com/viant/exclusor/tracing"
	"go.uber.org/zap"
)

var (
	// ErrQueueClosed is returned by Schedule after Shutdown
	ErrQueueClosed = messaging.ErrQueueClosed
	// ErrQueueFull is returned by Schedule when the job buffer has no room
	ErrQueueFull = messaging.ErrQueueFull
)

// Config represents processor configuration
type Config struct {
	// WorkerCount is the number of workers processing jobs
	WorkerCount int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// QueueBuffer is the capacity of the default memory queue
	QueueBuffer int `json:"queueBuffer,omitempty" yaml:"queueBuffer,omitempty"`
	// JobTimeout bounds a single job execution
	JobTimeout time.Duration `json:"jobTimeout,omitempty" yaml:"jobTimeout,omitempty"`
	// ResponseTimeout is how long a trigger waits for its job before answering
	ResponseTimeout time.Duration `json:"responseTimeout,omitempty" yaml:"responseTimeout,omitempty"`
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount:     5,
		QueueBuffer:     100,
		JobTimeout:      time.Minute,
		ResponseTimeout: 2500 * time.Millisecond,
	}
}

// Service runs jobs on a bounded worker pool
type Service struct {
	config  Config
	queue   messaging.Queue[Job]
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	started    bool
	closed     bool
	workers    []*worker
	workerWg   sync.WaitGroup
	shutdownCh chan struct{}
}

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// Config returns processor config
func (s *Service) Config() Config { return s.config }

// Start launches the workers; calling it again is a no-op
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrQueueClosed
	}
	if s.started {
		return nil
	}
	s.started = true
	for i := 0; i < s.config.WorkerCount; i++ {
		workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		w := &worker{id: i, service: s, ctx: workerCtx, cancelFn: cancel}
		s.workers = append(s.workers, w)
		s.workerWg.Add(1)
		go w.run()
	}
	s.logger.Info("processor started", zap.Int("workers", s.config.WorkerCount))
	return nil
}

// Schedule enqueues a job and returns a function waiting for its completion.
// Queues implementing messaging.Offerer never block: a full buffer yields ErrQueueFull.
func (s *Service) Schedule(ctx context.Context, job *Job) (Wait, error) {
	if job == nil || job.Run == nil {
		return nil, fmt.Errorf("job was empty")
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrQueueClosed
	}
	if job.ID == "" {
		job.ID = idgen.New()
	}
	job.ticket = newTicket()
	if err := s.publish(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to schedule %s job %s: %w", job.Kind, job.ID, err)
	}
	return job.ticket.wait, nil
}

func (s *Service) publish(ctx context.Context, job *Job) error {
	if offerer, ok := s.queue.(messaging.Offerer[Job]); ok {
		return offerer.TryPublish(job)
	}
	return s.queue.Publish(ctx, job)
}

func (w *worker) run() {
	defer w.service.workerWg.Done()
	for {
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, messaging.ErrQueueClosed) {
				return
			}
			w.service.logger.Warn("failed to consume job", zap.Int("worker", w.id), zap.Error(err))
			select {
			case <-time.After(100 * time.Millisecond):
			case <-w.ctx.Done():
				return
			}
			continue
		}
		if msg == nil {
			continue
		}
		w.service.process(w.ctx, msg)
	}
}

func (s *Service) process(ctx context.Context, msg messaging.Message[Job]) {
	job := msg.T()
	logger := s.logger.With(zap.String("job", job.ID), zap.String("kind", job.Kind))
	started := time.Now()
	s.metrics.JobStarted()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	jobCtx, span := tracing.StartSpan(jobCtx, "processor.job "+job.Kind, "CONSUMER")
	span.WithAttributes(map[string]string{"job.id": job.ID, "job.kind": job.Kind})
	err := s.execute(jobCtx, job)
	tracing.EndSpan(span, err)
	cancel()

	s.metrics.JobFinished(job.Kind, time.Since(started))
	if err != nil {
		logger.Error("job failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
	} else {
		logger.Debug("job completed", zap.Duration("elapsed", time.Since(started)))
	}

	detached := false
	if job.ticket != nil {
		detached = job.ticket.complete(err)
	}
	if detached && job.Late != nil {
		lateCtx, lateCancel := context.WithTimeout(ctx, s.config.JobTimeout)
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("late callback panicked", zap.Any("panic", r))
				}
			}()
			job.Late(lateCtx, err)
		}()
		lateCancel()
	}
	_ = msg.Ack()
}

func (s *Service) execute(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()
	return job.Run(ctx)
}

// Shutdown stops accepting jobs, lets workers drain the queue and waits for them
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.shutdownCh)
	s.mu.Unlock()

	if closer, ok := s.queue.(interface{ Close() }); ok {
		closer.Close()
	} else {
		for _, w := range s.workers {
			w.cancelFn()
		}
	}
	s.workerWg.Wait()
	for _, w := range s.workers {
		w.cancelFn()
	}
	s.logger.Info("processor stopped")
}

// New creates a processor
func New(options ...Option) (*Service, error) {
	s := &Service{
		config:     DefaultConfig(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	defaults := DefaultConfig()
	if s.config.WorkerCount <= 0 {
		return nil, fmt.Errorf("invalid worker count: %d", s.config.WorkerCount)
	}
	if s.config.JobTimeout <= 0 {
		s.config.JobTimeout = defaults.JobTimeout
	}
	if s.config.ResponseTimeout <= 0 {
		s.config.ResponseTimeout = defaults.ResponseTimeout
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.queue == nil {
		queueConfig := memory.DefaultConfig()
		if s.config.QueueBuffer > 0 {
			queueConfig.QueueBuffer = s.config.QueueBuffer
		}
		s.queue = memory.NewQueue[Job](queueConfig)
	}
	return s, nil
}
