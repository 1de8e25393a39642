package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Metrics holds the engine collectors.
type Metrics struct {
	registry *prometheus.Registry

	Submissions        *prometheus.CounterVec
	SubmissionDuration *prometheus.HistogramVec
	Rejections         *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	Fatal              prometheus.Counter
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_submissions_total",
			Help: "Business events submitted to the domain engine by event type and result",
		}, []string{"event_type", "result"}),
		SubmissionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pos_submission_duration_seconds",
			Help:    "Domain engine round-trip duration by event type",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"event_type"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_input_rejections_total",
			Help: "Raw inputs rejected by disambiguation by local context and reason",
		}, []string{"context", "reason"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_mode_transitions_total",
			Help: "Interaction mode transitions by target mode",
		}, []string{"mode"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_notifications_total",
			Help: "Push notifications received by source",
		}, []string{"source"}),
		Fatal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_fatal_errors_total",
			Help: "Times the interaction entered the FatalError mode",
		}),
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnResult: func(_ context.Context, e *domain.SubmissionEvent) {
			m.Submissions.WithLabelValues(e.EventType, "ok").Inc()
			m.SubmissionDuration.WithLabelValues(e.EventType).Observe(e.Duration.Seconds())
		},
		OnFailure: func(_ context.Context, e *domain.SubmissionEvent) {
			m.Submissions.WithLabelValues(e.EventType, "error").Inc()
			m.SubmissionDuration.WithLabelValues(e.EventType).Observe(e.Duration.Seconds())
		},
		OnReject: func(_ context.Context, e *domain.RejectEvent) {
			m.Rejections.WithLabelValues(string(e.Context), string(e.Reason)).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			if e.From.Mode == e.To.Mode && e.From.LogicalState == e.To.LogicalState {
				return
			}
			m.Transitions.WithLabelValues(modeLabel(e.To.Mode)).Inc()
			if e.To.Mode == domain.ModeFatalError {
				m.Fatal.Inc()
			}
		},
		OnDeviceStatus: func(_ context.Context, e *domain.NotificationEvent) {
			m.Notifications.WithLabelValues(e.Source).Inc()
		},
		OnDomainNotification: func(_ context.Context, e *domain.NotificationEvent) {
			m.Notifications.WithLabelValues(e.Source).Inc()
		},
	}
}

func modeLabel(mode domain.Mode) string {
	if mode == domain.ModeNone {
		return "none"
	}
	return string(mode)
}
