package outbox

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"policyregistry/internal/registry/models"
)

type Metrics struct {
	Published       *prometheus.CounterVec
	PublishFailures prometheus.Counter
	BreakerOpen     prometheus.Gauge
	Lag             prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policy_registry_outbox_published_total",
			Help: "Outbox events delivered to the sink by event type",
		}, []string{"event_type"}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "policy_registry_outbox_publish_failures_total",
			Help: "Failed outbox publish attempts",
		}),
		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "policy_registry_outbox_breaker_open",
			Help: "1 while the outbox publisher circuit is open",
		}),
		Lag: f.NewGauge(prometheus.GaugeOpts{
			Name: "policy_registry_outbox_lag_seconds",
			Help: "Age of the oldest undelivered outbox event",
		}),
	}
}

func (m *Metrics) observeLag(pending []models.OutboxEntry, now time.Time) {
	if len(pending) == 0 {
		m.Lag.Set(0)
		return
	}
	m.Lag.Set(now.Sub(pending[0].Event.OccurredAt).Seconds())
}
