package observability_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

// metricValue 依名稱與標籤取出 counter / gauge 的值
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}
			if !match {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return 0
}

func TestMetrics_PortMethods(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	// Act
	metrics.ExpirationWarningSent()
	metrics.ExpirationWarningSent()
	metrics.SyncOutcome("succeeded")
	metrics.SyncOutcome("failed")
	metrics.SyncOutcome("succeeded")
	metrics.QueueDepth(4)
	metrics.ReferralDistributed(3)

	// Assert
	assert.Equal(t, float64(2), metricValue(t, reg, "loyalty_expiration_warnings_sent_total", nil))
	assert.Equal(t, float64(2), metricValue(t, reg, "loyalty_offline_sync_outcomes_total", map[string]string{"outcome": "succeeded"}))
	assert.Equal(t, float64(1), metricValue(t, reg, "loyalty_offline_sync_outcomes_total", map[string]string{"outcome": "failed"}))
	assert.Equal(t, float64(4), metricValue(t, reg, "loyalty_offline_queue_depth", nil))
}

func TestEventPublisher_RecordsMembershipEvents(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	publisher := observability.NewEventPublisher(
		observability.NewMetrics(reg),
		slog.New(slog.NewTextHandler(&logs, nil)),
	)
	m, err := membership.NewMembership(shared.NewUserID(), shared.NewVenueID(), "Bronze", now)
	require.NoError(t, err)
	amount, _ := points.NewPointsAmount(120)
	require.NoError(t, m.CreditPoints(amount, decimal.NewFromInt(50), points.PointsSourcePurchase, "o-1", now))
	debit, _ := points.NewPointsAmount(20)
	require.NoError(t, m.DebitPoints(debit, "reward", now))
	require.NoError(t, m.UpgradeTier("Silver", now))

	// Act
	err = publisher.PublishBatch(m.PullEvents())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, float64(1), metricValue(t, reg, "loyalty_membership_created_total", nil))
	assert.Equal(t, float64(120), metricValue(t, reg, "loyalty_points_credited_total", map[string]string{"source": "purchase"}))
	assert.Equal(t, float64(20), metricValue(t, reg, "loyalty_points_debited_total", nil))
	assert.Equal(t, float64(1), metricValue(t, reg, "loyalty_tier_changes_total", map[string]string{"kind": "upgraded"}))
	assert.Contains(t, logs.String(), membership.EventTypePointsCredited)
}

func TestEventPublisher_WithoutMetrics(t *testing.T) {
	// Arrange
	publisher := observability.NewEventPublisher(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	event := membership.NewPointsExpiredEvent(membership.NewMembershipID(), points.Zero(), now)

	// Act
	err := publisher.Publish(event)

	// Assert
	assert.NoError(t, err)
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg).QueueDepth(2)
	server := httptest.NewServer(observability.Handler(reg))
	defer server.Close()

	// Act
	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "loyalty_offline_queue_depth 2")
}
