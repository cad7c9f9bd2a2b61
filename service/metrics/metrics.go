// Package metrics exposes Prometheus collectors for the approval workflow.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exclusor"

// Metrics holds workflow collectors
type Metrics struct {
	gatherer     prometheus.Gatherer
	submissions  *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	syncFailures prometheus.Counter
	resets       *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobsInflight prometheus.Gauge
	httpRequests *prometheus.CounterVec
}

// Submission counts a submission outcome
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// Decision counts a decision outcome
func (m *Metrics) Decision(kind, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(kind, outcome).Inc()
}

// SyncFailure counts a failed replication
func (m *Metrics) SyncFailure() {
	if m == nil {
		return
	}
	m.syncFailures.Inc()
}

// SyncListener returns a callback counting failed replications
func (m *Metrics) SyncListener() func(err error) {
	return func(err error) {
		if err != nil {
			m.SyncFailure()
		}
	}
}

// Reset counts a daily reset run
func (m *Metrics) Reset(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.resets.WithLabelValues(result).Inc()
}

// JobStarted marks a job in flight
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.jobsInflight.Inc()
}

// JobFinished records a job duration
func (m *Metrics) JobFinished(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobsInflight.Dec()
	m.jobDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Request counts an HTTP request
func (m *Metrics) Request(route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler returns the /metrics handler
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// New creates and registers collectors; registry defaults to the global
// registry. It is expected to also implement prometheus.Gatherer.
func New(registry prometheus.Registerer) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Exclusion requests by outcome",
		}, []string{"outcome"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Approver decisions by kind and outcome",
		}, []string{"kind", "outcome"}),
		syncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failures_total",
			Help:      "Failed exclusion list replications",
		}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Daily exclusion list resets by result",
		}, []string{"result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of trigger jobs",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
		}, []string{"kind"}),
		jobsInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_inflight",
			Help:      "Trigger jobs currently running",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
	}
	var err error
	if m.submissions, err = register(registry, m.submissions); err != nil {
		return nil, err
	}
	if m.decisions, err = register(registry, m.decisions); err != nil {
		return nil, err
	}
	if m.syncFailures, err = register(registry, m.syncFailures); err != nil {
		return nil, err
	}
	if m.resets, err = register(registry, m.resets); err != nil {
		return nil, err
	}
	if m.jobDuration, err = register(registry, m.jobDuration); err != nil {
		return nil, err
	}
	if m.jobsInflight, err = register(registry, m.jobsInflight); err != nil {
		return nil, err
	}
	if m.httpRequests, err = register(registry, m.httpRequests); err != nil {
		return nil, err
	}
	if gatherer, ok := registry.(prometheus.Gatherer); ok {
		m.gatherer = gatherer
	}
	return m, nil
}

// register registers the collector; an already registered collector of the
// same type is reused.
func register[T prometheus.Collector](registry prometheus.Registerer, collector T) (T, error) {
	err := registry.Register(collector)
	if err == nil {
		return collector, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return collector, err
}
