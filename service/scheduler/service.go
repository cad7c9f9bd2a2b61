// Package scheduler runs a task once a day at a fixed wall-clock time in a
// configured location. Fire times missed while the process was not running
// or was blocked are skipped, never caught up.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/viant/exclusor/internal/clock"
	"github.com/viant/exclusor/service/metrics"
	"github.com/viant/exclusor/tracing"
	"go.uber.org/zap"
)

const (
	DefaultAt       = "22:00"
	DefaultLocation = "Asia/Kolkata"
)

// Config represents scheduler configuration
type Config struct {
	// At is the daily fire time, HH:MM
	At       string `json:"at,omitempty" yaml:"at,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// DefaultConfig returns default scheduler config
func DefaultConfig() Config {
	return Config{At: DefaultAt, Location: DefaultLocation}
}

// Task is the scheduled work
type Task func(ctx context.Context) error

// Service is the daily scheduler
type Service struct {
	name     string
	config   Config
	location *time.Location
	hour     int
	minute   int
	task     Task
	logger   *zap.Logger
	metrics  *metrics.Metrics
	after    func(d time.Duration) <-chan time.Time

	shutdownCh chan struct{}
	closeOnce  sync.Once
}

// Next returns the first fire time strictly after now
func (s *Service) Next(now time.Time) time.Time {
	local := now.In(s.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.location)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.location)
	}
	return next
}

// Start runs the loop until ctx is done or Shutdown is called
func (s *Service) Start(ctx context.Context) error {
	var last time.Time
	for {
		from := clock.Now()
		if from.Before(last) {
			from = last
		}
		next := s.Next(from)
		wait := next.Sub(clock.Now())
		if wait < 0 {
			wait = 0
		}
		s.logger.Info("next run scheduled", zap.String("task", s.name), zap.Time("at", next))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.shutdownCh:
			return nil
		case <-s.after(wait):
			last = next
			_ = s.Run(ctx)
		}
	}
}

// Run executes the task once; failures are logged and returned
func (s *Service) Run(ctx context.Context) (err error) {
	ctx, span := tracing.StartSpan(ctx, "scheduler."+s.name, "INTERNAL")
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", s.name, r)
		}
		tracing.EndSpan(span, err)
		s.metrics.Reset(err)
		if err != nil {
			s.logger.Error("scheduled run failed", zap.String("task", s.name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled run completed", zap.String("task", s.name))
	}()
	return s.task(ctx)
}

// Shutdown stops the loop
func (s *Service) Shutdown() {
	s.closeOnce.Do(func() { close(s.shutdownCh) })
}

// ParseAt parses HH:MM
func ParseAt(at string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", at, err)
	}
	return t.Hour(), t.Minute(), nil
}

// New creates a scheduler running task daily
func New(name string, config Config, task Task, options ...Option) (*Service, error) {
	if task == nil {
		return nil, fmt.Errorf("task was nil")
	}
	if config.At == "" {
		config.At = DefaultAt
	}
	if config.Location == "" {
		config.Location = DefaultLocation
	}
	hour, minute, err := ParseAt(config.At)
	if err != nil {
		return nil, err
	}
	location, err := time.LoadLocation(config.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", config.Location, err)
	}
	ret := &Service{
		name:       name,
		config:     config,
		location:   location,
		hour:       hour,
		minute:     minute,
		task:       task,
		after:      time.After,
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	return ret, nil
}
