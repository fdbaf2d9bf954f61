package event

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver counts events by kind in a Prometheus counter vector.
type MetricsObserver struct {
	events *prometheus.CounterVec
}

// NewMetricsObserver creates the counter and registers it with reg when reg is non-nil
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "savekit",
		Name:      "events_total",
		Help:      "Save pipeline outcome events by kind.",
	}, []string{"kind"})

	if reg != nil {
		if err := reg.Register(events); err != nil {
			return nil, err
		}
	}
	return &MetricsObserver{events: events}, nil
}

// Publish increments the counter for e.Kind
func (o *MetricsObserver) Publish(e Event) {
	o.events.WithLabelValues(string(e.Kind)).Inc()
}

// Collector exposes the underlying counter vector
func (o *MetricsObserver) Collector() *prometheus.CounterVec {
	return o.events
}
