// Package endpoint exposes the HTTP triggers: the Slack slash command that
// submits exclusion requests and the interactive callback carrying approver
// decisions.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/viant/exclusor/service/approval"
	"github.com/viant/exclusor/service/metrics"
	"github.com/viant/exclusor/service/notify"
	"github.com/viant/exclusor/service/processor"
	"go.uber.org/zap"
)

// Job kinds
const (
	KindSubmit = "submit"
	KindDecide = "decide"
)

// Service is the HTTP endpoint
type Service struct {
	config          Config
	approval        approval.Service
	processor       *processor.Service
	notifier        notify.Notifier
	signingSecret   string
	responseTimeout time.Duration
	reset           func(ctx context.Context) error
	logger          *zap.Logger
	metrics         *metrics.Metrics
	router          chi.Router

	mux    sync.Mutex
	server *http.Server
}

// Handler returns the HTTP handler
func (s *Service) Handler() http.Handler { return s.router }

func (s *Service) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.withLogging)
	r.Use(middleware.Recoverer)
	r.Use(s.withBodyLimit)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Group(func(r chi.Router) {
		r.Use(s.withSlackSignature)
		r.Post("/exclude", s.exclude)
		r.Post("/slack/interactive", s.interactive)
	})
	if s.reset != nil && s.config.AdminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(s.withAdminToken)
			r.Post("/admin/reset", s.resetNow)
		})
	}
	return r
}

func (s *Service) health(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

// Start serves HTTP on the configured address until Shutdown
func (s *Service) Start() error {
	s.mux.Lock()
	if s.server != nil {
		s.mux.Unlock()
		return fmt.Errorf("endpoint already started")
	}
	s.server = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	server := s.server
	s.mux.Unlock()
	s.logger.Info("endpoint listening", zap.String("addr", s.config.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Service) Shutdown(ctx context.Context) error {
	s.mux.Lock()
	server := s.server
	s.mux.Unlock()
	if server == nil {
		return nil
	}
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	return server.Shutdown(ctx)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

// New creates an endpoint
func New(approvalService approval.Service, proc *processor.Service, notifier notify.Notifier, options ...Option) (*Service, error) {
	if approvalService == nil || proc == nil || notifier == nil {
		return nil, fmt.Errorf("approval service, processor and notifier are required")
	}
	ret := &Service{
		config:          DefaultConfig(),
		approval:        approvalService,
		processor:       proc,
		notifier:        notifier,
		responseTimeout: proc.Config().ResponseTimeout,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	ret.router = ret.routes()
	return ret, nil
}
