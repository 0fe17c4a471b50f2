// Package observability Prometheus 指標與領域事件發布
package observability

import (
	"net/http"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loyalty"

// Metrics 業務指標
//
// 以呼叫端提供的 Registerer 註冊，測試可使用獨立的 prometheus.NewRegistry()。
type Metrics struct {
	MembershipsCreated prometheus.Counter
	PointsCredited     *prometheus.CounterVec
	PointsDebited      prometheus.Counter
	PointsExpired      prometheus.Counter
	TierChanges        *prometheus.CounterVec
	ExpirationWarnings prometheus.Counter
	ReferralPayouts    prometheus.Histogram
	SyncOutcomes       *prometheus.CounterVec
	QueuePending       prometheus.Gauge
}

var _ ports.Metrics = (*Metrics)(nil)

// NewMetrics 建立並註冊所有指標
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MembershipsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "membership",
			Name:      "created_total",
			Help:      "Total memberships created.",
		}),
		PointsCredited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "credited_total",
			Help:      "Total points credited, by source.",
		}, []string{"source"}),
		PointsDebited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "debited_total",
			Help:      "Total points redeemed.",
		}),
		PointsExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "expired_total",
			Help:      "Total points removed by expiration.",
		}),
		TierChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tier",
			Name:      "changes_total",
			Help:      "Total tier changes, by kind (upgraded, downgraded, reset).",
		}, []string{"kind"}),
		ExpirationWarnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "expiration",
			Name:      "warnings_sent_total",
			Help:      "Total expiration warnings dispatched.",
		}),
		ReferralPayouts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "referral",
			Name:      "payout_levels",
			Help:      "Number of referrer levels paid per distribution.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
		SyncOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "offline",
			Name:      "sync_outcomes_total",
			Help:      "Offline action sync attempts, by outcome.",
		}, []string{"outcome"}),
		QueuePending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "offline",
			Name:      "queue_depth",
			Help:      "Offline actions not yet synced.",
		}),
	}
}

func (m *Metrics) ExpirationWarningSent() { m.ExpirationWarnings.Inc() }

func (m *Metrics) ReferralDistributed(levels int) { m.ReferralPayouts.Observe(float64(levels)) }

func (m *Metrics) SyncOutcome(outcome string) { m.SyncOutcomes.WithLabelValues(outcome).Inc() }

func (m *Metrics) QueueDepth(n int) { m.QueuePending.Set(float64(n)) }

// Handler /metrics 端點
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
