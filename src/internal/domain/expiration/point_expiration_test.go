package expiration_test

import (
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day     = 24 * time.Hour
	baseNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
)

func newMembershipWithBalance(t *testing.T, balance int) *membership.Membership {
	t.Helper()
	m, err := membership.NewMembership(shared.NewUserID(), shared.NewVenueID(), "Bronze", baseNow.Add(-200*day))
	require.NoError(t, err)
	amount, err := points.NewPointsAmount(balance)
	require.NoError(t, err)
	require.NoError(t, m.CreditPoints(amount, decimal.Zero, points.PointsSourceCheckIn, "seed", baseNow.Add(-200*day)))
	return m
}

// ===== Policy =====

func TestPolicy_Classify(t *testing.T) {
	policy := expiration.DefaultPolicy()

	tests := []struct {
		name      string
		expiresAt time.Time
		want      expiration.Status
	}{
		{"已過期", baseNow.Add(-time.Minute), expiration.StatusExpired},
		{"剛好到期（尚未超過）", baseNow, expiration.StatusActive},
		{"提醒視窗內", baseNow.Add(10 * day), expiration.StatusExpiring},
		{"提醒視窗邊界 30 天", baseNow.Add(30 * day), expiration.StatusExpiring},
		{"超過提醒視窗", baseNow.Add(31 * day), expiration.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Classify(tt.expiresAt, baseNow))
		})
	}
}

func TestPolicy_ExpirationDateFrom_Adds180Days(t *testing.T) {
	// Act
	got := expiration.DefaultPolicy().ExpirationDateFrom(baseNow)

	// Assert
	assert.Equal(t, baseNow.Add(180*day), got)
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, expiration.DefaultPolicy().Validate())
	assert.ErrorIs(t, expiration.Policy{Window: 0}.Validate(), expiration.ErrInvalidPolicy)
	assert.ErrorIs(t, expiration.Policy{Window: day, WarningWindow: 2 * day}.Validate(), expiration.ErrInvalidPolicy)
}

func TestDaysUntil_FloorsPartialDays(t *testing.T) {
	assert.Equal(t, 2, expiration.DaysUntil(baseNow.Add(2*day+5*time.Hour), baseNow))
	assert.Equal(t, 0, expiration.DaysUntil(baseNow.Add(-day), baseNow))
}

// ===== 提醒狀態 =====

func TestPointExpiration_ShouldSendWarning_OnlyOnce(t *testing.T) {
	// Arrange
	m := newMembershipWithBalance(t, 120)
	rec := expiration.NewTracking(m, baseNow.Add(10*day), baseNow)

	// Act & Assert
	assert.True(t, rec.ShouldSendWarning(baseNow))
	rec.MarkWarningSent(baseNow)
	assert.False(t, rec.ShouldSendWarning(baseNow.Add(time.Hour)), "已提醒過不應再提醒")
}

func TestPointExpiration_RemindLater_ResendsAfterDate(t *testing.T) {
	// Arrange
	m := newMembershipWithBalance(t, 120)
	rec := expiration.NewTracking(m, baseNow.Add(20*day), baseNow)
	rec.MarkWarningSent(baseNow)

	// Act
	require.NoError(t, rec.RemindLater(expiration.DefaultRemindLaterDays, baseNow))

	// Assert
	assert.False(t, rec.ShouldSendWarning(baseNow.Add(6*day)))
	assert.True(t, rec.ShouldSendWarning(baseNow.Add(7*day)))
	rec.MarkWarningSent(baseNow.Add(7 * day))
	assert.Nil(t, rec.RemindLaterDate())
	assert.False(t, rec.ShouldSendWarning(baseNow.Add(8*day)))
}

func TestPointExpiration_Dismiss_NeverWarns(t *testing.T) {
	// Arrange
	m := newMembershipWithBalance(t, 120)
	rec := expiration.NewTracking(m, baseNow.Add(5*day), baseNow)

	// Act
	rec.Dismiss(baseNow)

	// Assert
	assert.True(t, rec.UserDismissedWarning())
	assert.False(t, rec.ShouldSendWarning(baseNow.Add(3*day)))
}

func TestPointExpiration_RemindLater_InvalidDays(t *testing.T) {
	m := newMembershipWithBalance(t, 10)
	rec := expiration.NewTracking(m, baseNow.Add(5*day), baseNow)

	assert.ErrorIs(t, rec.RemindLater(0, baseNow), expiration.ErrInvalidRemindDays)
}

// ===== 過期終態 =====

func TestPointExpiration_MarkExpired_IsTerminal(t *testing.T) {
	// Arrange
	m := newMembershipWithBalance(t, 300)
	rec := expiration.NewTracking(m, baseNow.Add(-day), baseNow)

	// Act
	err := rec.MarkExpired(m.PointsBalance(), baseNow)

	// Assert
	require.NoError(t, err)
	assert.True(t, rec.IsExpired())
	require.NotNil(t, rec.ExpirationExecutedAt())
	assert.Equal(t, baseNow, *rec.ExpirationExecutedAt())
	assert.Equal(t, 300, rec.PointsAtRisk().Value())
	assert.False(t, rec.ShouldSendWarning(baseNow))
	assert.Equal(t, 0, rec.DaysUntilExpiry(baseNow))
	assert.Equal(t, expiration.UrgencyExpired, rec.UrgencyAt(baseNow))

	assert.ErrorIs(t, rec.MarkExpired(m.PointsBalance(), baseNow), expiration.ErrAlreadyExpired)
	assert.ErrorIs(t, rec.Refresh(points.Zero(), baseNow, baseNow, baseNow), expiration.ErrAlreadyExpired)
}

func TestPointExpiration_RemoteNotifyRetryBudget(t *testing.T) {
	// Arrange
	m := newMembershipWithBalance(t, 50)
	rec := expiration.NewTracking(m, baseNow.Add(-day), baseNow)
	require.NoError(t, rec.MarkExpired(m.PointsBalance(), baseNow))

	// Act: 兩次失敗
	rec.RecordNotifyAttempt(false, baseNow)
	rec.RecordNotifyAttempt(false, baseNow)

	// Assert
	assert.True(t, rec.NeedsRemoteNotify(3))
	assert.Nil(t, rec.RemoteNotifiedAt())

	rec.RecordNotifyAttempt(false, baseNow)
	assert.False(t, rec.NeedsRemoteNotify(3), "超過重試上限不再通知")
	assert.True(t, rec.NeedsRemoteNotify(5))

	rec.RecordNotifyAttempt(true, baseNow)
	assert.False(t, rec.NeedsRemoteNotify(5))
	assert.NotNil(t, rec.RemoteNotifiedAt())
}

func TestPointExpiration_UrgencyLevels(t *testing.T) {
	m := newMembershipWithBalance(t, 50)

	tests := []struct {
		in   time.Duration
		want expiration.Urgency
	}{
		{3 * day, expiration.UrgencyCritical},
		{10 * day, expiration.UrgencyHigh},
		{25 * day, expiration.UrgencyMedium},
		{60 * day, expiration.UrgencyLow},
	}
	for _, tt := range tests {
		rec := expiration.NewTracking(m, baseNow.Add(tt.in), baseNow)
		assert.Equal(t, tt.want, rec.UrgencyAt(baseNow), "剩餘 %v", tt.in)
	}
}

func TestReconstruct_RoundTripsSnapshot(t *testing.T) {
	// Arrange
	m := newMembershipWithBalance(t, 50)
	rec := expiration.NewTracking(m, baseNow.Add(3*day), baseNow)
	rec.MarkWarningSent(baseNow)

	// Act
	rebuilt := expiration.Reconstruct(rec.Snapshot())

	// Assert
	assert.Equal(t, rec.Snapshot(), rebuilt.Snapshot())
}

func TestPointExpiration_Refresh_NewExpirationDateRestartsWarningCycle(t *testing.T) {
	// Arrange
	m := newMembershipWithBalance(t, 80)
	rec := expiration.NewTracking(m, baseNow.Add(20*day), baseNow)
	rec.MarkWarningSent(baseNow)
	rec.Dismiss(baseNow)

	// Act: 同一過期日只更新積分
	require.NoError(t, rec.Refresh(m.PointsBalance(), baseNow, baseNow.Add(20*day), baseNow))
	sameCycle := rec.ShouldSendWarning(baseNow)

	// Act: 活動後過期日延後
	require.NoError(t, rec.Refresh(m.PointsBalance(), baseNow, baseNow.Add(25*day), baseNow))

	// Assert
	assert.False(t, sameCycle)
	assert.Nil(t, rec.WarningSentAt())
	assert.False(t, rec.UserDismissedWarning())
	assert.True(t, rec.ShouldSendWarning(baseNow))
}
