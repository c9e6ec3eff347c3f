package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/parley/pkg/domain"
)

// Metrics counts what the interpreters do.
type Metrics struct {
	stateEntries *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	invocations  *prometheus.CounterVec
	discarded    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		stateEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_state_entries_total",
			Help: "Total number of state entries",
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_transitions_total",
			Help: "Total number of transitions taken",
		}, []string{"source", "event"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_events_dropped_total",
			Help: "Events that matched no transition",
		}, []string{"event"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_invocations_total",
			Help: "Asynchronous invocations issued",
		}, []string{"src"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_invocation_results_discarded_total",
			Help: "Invocation results discarded as stale",
		}, []string{"reason"}),
	}
	for _, c := range []prometheus.Collector{m.stateEntries, m.transitions, m.dropped, m.invocations, m.discarded} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.stateEntries.WithLabelValues(e.NodeID).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(e.Source, eventLabel(e.Event)).Inc()
		},
		OnEventDropped: func(_ context.Context, e *domain.DropEvent) {
			m.dropped.WithLabelValues(eventLabel(e.Event)).Inc()
		},
		OnInvoke: func(_ context.Context, e *domain.InvokeEvent) {
			m.invocations.WithLabelValues(e.Invocation.Src).Inc()
		},
		OnInvocationDiscarded: func(_ context.Context, e *domain.InvokeEvent) {
			m.discarded.WithLabelValues(e.Reason).Inc()
		},
	}
}

func eventLabel(t domain.EventType) string {
	if t == "" {
		return string(domain.EventAlways)
	}
	return string(t)
}
