// Package metrics exposes Prometheus counters for webhook processing.
//
// A nil *Recorder is valid and records nothing, so services can be built
// without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "balancebot"

// Token refresh results.
const (
	RefreshSuccess  = "success"
	RefreshEvicted  = "evicted"
	RefreshConflict = "conflict"
	RefreshRejected = "rejected"
	RefreshFailed   = "failed"
)

// Sweep results.
const (
	SweepDeposited = "deposited"
	SweepNothing   = "nothing_due"
	SweepSkipped   = "already_swept"
	SweepFailed    = "failed"
)

type Recorder struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	eventDuration prometheus.Histogram
	refreshes     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sweeps        *prometheus.CounterVec
}

// New builds a Recorder on its own registry, including the Go runtime and
// process collectors.
func New() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook events handled, by outcome.",
		}, []string{"outcome"}),
		eventDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_event_duration_seconds",
			Help:      "Time spent processing an admitted webhook event.",
			Buckets:   prometheus.DefBuckets,
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Low balance notifications sent, by severity.",
		}, []string{"severity"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Commitment sweep runs, by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.events,
		r.eventDuration,
		r.refreshes,
		r.notifications,
		r.sweeps,
	)

	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Event(outcome string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(outcome).Inc()
}

func (r *Recorder) EventDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.eventDuration.Observe(d.Seconds())
}

func (r *Recorder) TokenRefresh(result string) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(result).Inc()
}

func (r *Recorder) Notification(severity string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(severity).Inc()
}

func (r *Recorder) Sweep(result string) {
	if r == nil {
		return
	}
	r.sweeps.WithLabelValues(result).Inc()
}
