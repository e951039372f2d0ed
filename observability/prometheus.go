package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver counts events by type and level.
type PrometheusObserver struct {
	events *prometheus.CounterVec
}

// NewPrometheusObserver registers an events_total counter under namespace
// with reg. A nil reg uses prometheus.DefaultRegisterer. Registering the same
// namespace twice reuses the existing collector.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of observability events by type and level.",
		},
		[]string{"type", "level"},
	)

	if err := reg.Register(events); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		events = existing
	}

	return &PrometheusObserver{events: events}, nil
}

func (o *PrometheusObserver) OnEvent(ctx context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()
}

// Counter returns the counter for one type and level pair.
func (o *PrometheusObserver) Counter(eventType EventType, level Level) prometheus.Counter {
	return o.events.WithLabelValues(string(eventType), level.String())
}
