// Package metrics holds the Prometheus instrumentation for the delivery
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each instance carries its own
// registry so tests can construct Metrics without collisions.
type Metrics struct {
	registry *prometheus.Registry

	CapsulesDelivered     *prometheus.CounterVec
	SideEffectFailures    *prometheus.CounterVec
	NotificationsCreated  prometheus.Counter
	PendingClaimsQueued   prometheus.Counter
	PendingClaimsConsumed prometheus.Counter
	AchievementsUnlocked  prometheus.Counter
	SweepDuration         prometheus.Histogram
}

// New creates the metrics set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		CapsulesDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capsule_api_capsules_delivered_total",
			Help: "Capsules transitioned to delivered, by recipient type",
		}, []string{"recipient_type"}),
		SideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capsule_api_delivery_side_effect_failures_total",
			Help: "Swallowed delivery side-effect failures, by step",
		}, []string{"step"}),
		NotificationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "capsule_api_notifications_created_total",
			Help: "Feed notifications created",
		}),
		PendingClaimsQueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "capsule_api_pending_claims_queued_total",
			Help: "Capsules written to the pending-claim queue",
		}),
		PendingClaimsConsumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "capsule_api_pending_claims_consumed_total",
			Help: "Pending-claim entries consumed at registration",
		}),
		AchievementsUnlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "capsule_api_achievements_unlocked_total",
			Help: "Achievements unlocked",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "capsule_api_delivery_sweep_duration_seconds",
			Help:    "Time spent per scheduled-delivery sweep",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler serves this metrics set over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
