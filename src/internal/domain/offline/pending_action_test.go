package offline_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 10, 20, 0, 0, 0, time.UTC)

func joinPayload() offline.JoinVenuePayload {
	return offline.JoinVenuePayload{UserID: uuid.NewString(), VenueID: uuid.NewString()}
}

func newAction(t *testing.T, priority int, at time.Time, seq int64) *offline.PendingAction {
	t.Helper()
	a, err := offline.NewPendingAction(joinPayload(), priority, at)
	require.NoError(t, err)
	a.AssignSeq(seq)
	return a
}

// ===== 內容驗證 =====

func TestNewPendingAction_ValidPayload_Pending(t *testing.T) {
	// Act
	a, err := offline.NewPendingAction(joinPayload(), 0, now)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, offline.StatusPending, a.Status())
	assert.Equal(t, offline.ActionJoinVenue, a.Type())
	assert.Equal(t, 0, a.AttemptCount())
	assert.Equal(t, a.ID().String(), a.IdempotencyKey())
}

func TestNewPendingAction_InvalidPayload_RejectedImmediately(t *testing.T) {
	tests := []struct {
		name    string
		payload offline.Payload
	}{
		{"缺少 venueId", offline.JoinVenuePayload{UserID: uuid.NewString()}},
		{"userId 不是 UUID", offline.JoinVenuePayload{UserID: "abc", VenueID: uuid.NewString()}},
		{"RSVP 狀態不合法", offline.RSVPPayload{EventID: uuid.NewString(), UserID: uuid.NewString(), Status: "maybe"}},
		{"打卡缺少時間", offline.CheckInPayload{UserID: uuid.NewString(), VenueID: uuid.NewString(), Method: "qr"}},
		{"打卡方式不合法", offline.CheckInPayload{UserID: uuid.NewString(), VenueID: uuid.NewString(), Method: "bluetooth", OccurredAt: now}},
		{"兌換點數為 0", offline.RedeemRewardPayload{RewardID: uuid.NewString(), MembershipID: uuid.NewString()}},
		{"留言為空", offline.AddCommentPayload{PostID: uuid.NewString(), UserID: uuid.NewString()}},
		{"個人資料沒有任何欄位", offline.UpdateProfilePayload{UserID: uuid.NewString()}},
		{"個人資料 email 格式錯誤", offline.UpdateProfilePayload{UserID: uuid.NewString(), Email: "not-mail"}},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			a, err := offline.NewPendingAction(tt.payload, 0, now)

			// Assert
			assert.Nil(t, a)
			assert.ErrorIs(t, err, offline.ErrInvalidPayload)
		})
	}
}

func TestNewPendingAction_SubmitEarning_UsesEventKey(t *testing.T) {
	// Arrange
	p := offline.SubmitEarningPayload{
		EventKey:     "earning-123",
		MembershipID: uuid.NewString(),
		UserID:       uuid.NewString(),
		VenueID:      uuid.NewString(),
		Source:       "purchase",
		PointsEarned: 24,
		Spend:        decimal.RequireFromString("120.50"),
		Multiplier:   decimal.RequireFromString("1.2"),
		OccurredAt:   now,
	}

	// Act
	a, err := offline.NewPendingAction(p, 10, now)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "earning-123", a.IdempotencyKey())
}

func TestNewPendingAction_SubmitEarning_NegativeSpendRejected(t *testing.T) {
	// Arrange
	p := offline.SubmitEarningPayload{
		EventKey:     "earning-1",
		MembershipID: uuid.NewString(),
		UserID:       uuid.NewString(),
		VenueID:      uuid.NewString(),
		Source:       "purchase",
		Spend:        decimal.NewFromInt(-5),
		Multiplier:   decimal.NewFromInt(1),
		OccurredAt:   now,
	}

	// Act
	_, err := offline.NewPendingAction(p, 0, now)

	// Assert
	assert.ErrorIs(t, err, offline.ErrInvalidPayload)
}

func TestEncodeDecodePayload_PreservesTypedFields(t *testing.T) {
	// Arrange
	original := offline.CheckInPayload{
		UserID:     uuid.NewString(),
		VenueID:    uuid.NewString(),
		VenueName:  "Kulturpalast",
		Method:     "nfc",
		OccurredAt: now,
	}

	// Act
	data, err := offline.EncodePayload(original)
	require.NoError(t, err)
	decoded, err := offline.DecodePayload(offline.ActionCheckIn, data)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodePayload_UnknownTypeAndBadJSON(t *testing.T) {
	_, err := offline.DecodePayload("teleport", []byte(`{}`))
	assert.ErrorIs(t, err, offline.ErrUnknownActionType)

	_, err = offline.DecodePayload(offline.ActionRSVP, []byte(`{not json`))
	assert.ErrorIs(t, err, offline.ErrInvalidPayload)
}

// ===== 狀態機 =====

func TestPendingAction_FailureConsumesAttempts(t *testing.T) {
	// Arrange
	a := newAction(t, 0, now, 1)

	// Act
	for i := 0; i < offline.DefaultMaxAttempts; i++ {
		require.True(t, a.CanSync(offline.DefaultMaxAttempts))
		require.NoError(t, a.MarkSyncing(now))
		require.NoError(t, a.MarkFailed("503", false))
	}

	// Assert
	assert.Equal(t, offline.StatusFailed, a.Status())
	assert.Equal(t, 3, a.AttemptCount())
	assert.False(t, a.CanSync(offline.DefaultMaxAttempts))
	assert.True(t, a.NeedsAttention(offline.DefaultMaxAttempts))
	assert.Equal(t, "503", a.LastError())
}

func TestPendingAction_FatalFailure_NeedsAttentionImmediately(t *testing.T) {
	// Arrange
	a := newAction(t, 0, now, 1)
	require.NoError(t, a.MarkSyncing(now))

	// Act
	require.NoError(t, a.MarkFailed("422 rejected", true))

	// Assert
	assert.True(t, a.IsFatal())
	assert.False(t, a.CanSync(offline.DefaultMaxAttempts))
	assert.True(t, a.NeedsAttention(offline.DefaultMaxAttempts))
}

func TestPendingAction_ReturnToPending_DoesNotConsumeAttempt(t *testing.T) {
	// Arrange
	a := newAction(t, 0, now, 1)
	require.NoError(t, a.MarkSyncing(now))

	// Act
	require.NoError(t, a.ReturnToPending())

	// Assert
	assert.Equal(t, offline.StatusPending, a.Status())
	assert.Equal(t, 0, a.AttemptCount())
	require.NotNil(t, a.LastAttemptAt())
}

func TestPendingAction_ResetForRetry(t *testing.T) {
	// Arrange
	a := newAction(t, 0, now, 1)
	require.NoError(t, a.MarkSyncing(now))
	require.NoError(t, a.MarkFailed("bad", true))

	// Act
	require.NoError(t, a.ResetForRetry())

	// Assert
	assert.Equal(t, offline.StatusPending, a.Status())
	assert.Equal(t, 0, a.AttemptCount())
	assert.False(t, a.IsFatal())
	assert.Empty(t, a.LastError())
}

func TestPendingAction_InvalidTransitions(t *testing.T) {
	a := newAction(t, 0, now, 1)

	assert.ErrorIs(t, a.MarkCompleted(), offline.ErrInvalidTransition)
	assert.ErrorIs(t, a.MarkFailed("x", false), offline.ErrInvalidTransition)
	assert.ErrorIs(t, a.ReturnToPending(), offline.ErrInvalidTransition)
	assert.ErrorIs(t, a.ResetForRetry(), offline.ErrInvalidTransition)

	require.NoError(t, a.MarkSyncing(now))
	require.NoError(t, a.MarkCompleted())
	assert.ErrorIs(t, a.MarkSyncing(now), offline.ErrInvalidTransition)
}

// ===== 排序 =====

func TestSortForSync_PriorityThenFIFO(t *testing.T) {
	// Arrange: A(0), B(5), C(0) 依序加入
	a := newAction(t, 0, now, 1)
	b := newAction(t, 5, now.Add(time.Second), 2)
	c := newAction(t, 0, now.Add(2*time.Second), 3)
	actions := []*offline.PendingAction{a, b, c}

	// Act
	offline.SortForSync(actions)

	// Assert
	assert.Equal(t, []*offline.PendingAction{b, a, c}, actions)
}

func TestSortForSync_SameTimestamp_UsesInsertionSeq(t *testing.T) {
	// Arrange
	first := newAction(t, 1, now, 7)
	second := newAction(t, 1, now, 8)
	actions := []*offline.PendingAction{second, first}

	// Act
	offline.SortForSync(actions)

	// Assert
	assert.Same(t, first, actions[0])
	assert.Same(t, second, actions[1])
}
