// Package prom provides a Prometheus-backed coop.Observer. Every metric is
// labelled with the primitive's name (coop.WithName); lock metrics also carry
// the permission.
package prom

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NetPo4ki/go-coop/coop"
)

const (
	nameLabel       = "name"
	permissionLabel = "permission"
	outcomeLabel    = "outcome"
)

// Task outcomes recorded by TaskFinished.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
	OutcomePanic     = "panic"
)

type Option func(*config)

type config struct {
	namespace  string
	registerer prometheus.Registerer
	buckets    []float64
}

// WithNamespace sets the metric namespace. The default is "coop".
func WithNamespace(ns string) Option { return func(c *config) { c.namespace = ns } }

// WithRegisterer sets where the collectors are registered. The default is
// prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) Option { return func(c *config) { c.registerer = r } }

// WithBuckets sets the histogram buckets, in seconds, for wait and task durations.
func WithBuckets(b []float64) Option { return func(c *config) { c.buckets = b } }

// Metrics implements coop.Observer with Prometheus collectors.
type Metrics struct {
	lockAcquired *prometheus.CounterVec
	lockHeld     *prometheus.GaugeVec
	lockWait     *prometheus.HistogramVec

	counter  *prometheus.GaugeVec
	joins    *prometheus.CounterVec
	joinWait *prometheus.HistogramVec

	activeTasks    *prometheus.GaugeVec
	tasksStarted   *prometheus.CounterVec
	tasksFinished  *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	tasksCancelled *prometheus.CounterVec
}

var _ coop.Observer = (*Metrics)(nil)

// New creates the collectors and registers them.
func New(opts ...Option) (*Metrics, error) {
	c := config{
		namespace:  "coop",
		registerer: prometheus.DefaultRegisterer,
		buckets:    prometheus.DefBuckets,
	}
	for _, o := range opts {
		o(&c)
	}

	m := &Metrics{
		lockAcquired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace, Subsystem: "rwlock", Name: "acquired_total",
			Help: "Number of successful lock acquisitions.",
		}, []string{nameLabel, permissionLabel}),
		lockHeld: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: c.namespace, Subsystem: "rwlock", Name: "holders",
			Help: "Number of current lock holders.",
		}, []string{nameLabel, permissionLabel}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: c.namespace, Subsystem: "rwlock", Name: "wait_seconds",
			Help: "Time spent waiting to acquire the lock.", Buckets: c.buckets,
		}, []string{nameLabel, permissionLabel}),
		counter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: c.namespace, Subsystem: "waitgroup", Name: "counter",
			Help: "Current wait group counter.",
		}, []string{nameLabel}),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace, Subsystem: "waitgroup", Name: "joins_total",
			Help: "Number of returned Wait calls.",
		}, []string{nameLabel}),
		joinWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: c.namespace, Subsystem: "waitgroup", Name: "wait_seconds",
			Help: "Time spent blocked in Wait.", Buckets: c.buckets,
		}, []string{nameLabel}),
		activeTasks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: c.namespace, Subsystem: "tasks", Name: "active",
			Help: "Number of tracked tasks that have not finished.",
		}, []string{nameLabel}),
		tasksStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace, Subsystem: "tasks", Name: "scheduled_total",
			Help: "Number of tasks scheduled on a group.",
		}, []string{nameLabel}),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace, Subsystem: "tasks", Name: "finished_total",
			Help: "Number of finished tasks by outcome.",
		}, []string{nameLabel, outcomeLabel}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: c.namespace, Subsystem: "tasks", Name: "duration_seconds",
			Help: "Task run time.", Buckets: c.buckets,
		}, []string{nameLabel}),
		tasksCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace, Subsystem: "tasks", Name: "cancel_signals_total",
			Help: "Number of cancellation signals sent by CancelAll.",
		}, []string{nameLabel}),
	}

	for _, col := range m.collectors() {
		if err := c.registerer.Register(col); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.lockAcquired, m.lockHeld, m.lockWait,
		m.counter, m.joins, m.joinWait,
		m.activeTasks, m.tasksStarted, m.tasksFinished, m.taskDuration, m.tasksCancelled,
	}
}

func (m *Metrics) LockAcquired(name string, p coop.Permission, wait time.Duration) {
	m.lockAcquired.WithLabelValues(name, p.String()).Inc()
	m.lockHeld.WithLabelValues(name, p.String()).Inc()
	m.lockWait.WithLabelValues(name, p.String()).Observe(wait.Seconds())
}

func (m *Metrics) LockReleased(name string, p coop.Permission) {
	m.lockHeld.WithLabelValues(name, p.String()).Dec()
}

func (m *Metrics) CounterChanged(name string, counter int) {
	m.counter.WithLabelValues(name).Set(float64(counter))
}

func (m *Metrics) GroupJoined(name string, wait time.Duration) {
	m.joins.WithLabelValues(name).Inc()
	m.joinWait.WithLabelValues(name).Observe(wait.Seconds())
}

func (m *Metrics) TaskScheduled(_ context.Context, name string) {
	m.activeTasks.WithLabelValues(name).Inc()
	m.tasksStarted.WithLabelValues(name).Inc()
}

func (m *Metrics) TaskFinished(_ context.Context, name string, dur time.Duration, err error, panicked bool) {
	m.activeTasks.WithLabelValues(name).Dec()
	m.tasksFinished.WithLabelValues(name, outcome(err, panicked)).Inc()
	m.taskDuration.WithLabelValues(name).Observe(dur.Seconds())
}

func (m *Metrics) TasksCancelled(name string, n int) {
	m.tasksCancelled.WithLabelValues(name).Add(float64(n))
}

func outcome(err error, panicked bool) string {
	switch {
	case panicked:
		return OutcomePanic
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled):
		return OutcomeCancelled
	}
	return OutcomeError
}
