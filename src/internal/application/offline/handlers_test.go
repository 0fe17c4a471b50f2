package offline_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackyeh168/venue_loyalty/src/internal/application/apptest"
	appoffline "github.com/jackyeh168/venue_loyalty/src/internal/application/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== Mock 遠端動作 API =====

type MockActionAPI struct {
	mock.Mock
}

func (m *MockActionAPI) CheckIn(ctx context.Context, key string, p offline.CheckInPayload) error {
	return m.Called(ctx, key, p).Error(0)
}

func (m *MockActionAPI) RSVP(ctx context.Context, key string, p offline.RSVPPayload) error {
	return m.Called(ctx, key, p).Error(0)
}

func (m *MockActionAPI) JoinVenue(ctx context.Context, key string, p offline.JoinVenuePayload) error {
	return m.Called(ctx, key, p).Error(0)
}

func (m *MockActionAPI) RedeemReward(ctx context.Context, key string, p offline.RedeemRewardPayload) error {
	return m.Called(ctx, key, p).Error(0)
}

func (m *MockActionAPI) CreatePost(ctx context.Context, key string, p offline.CreatePostPayload) error {
	return m.Called(ctx, key, p).Error(0)
}

func (m *MockActionAPI) LikePost(ctx context.Context, key string, p offline.LikePostPayload) error {
	return m.Called(ctx, key, p).Error(0)
}

func (m *MockActionAPI) AddComment(ctx context.Context, key string, p offline.AddCommentPayload) error {
	return m.Called(ctx, key, p).Error(0)
}

func (m *MockActionAPI) UpdateProfile(ctx context.Context, key string, p offline.UpdateProfilePayload) error {
	return m.Called(ctx, key, p).Error(0)
}

// fakeReferrals 記錄分潤呼叫
type fakeReferrals struct {
	calls []string
	pts   []decimal.Decimal
	err   error
}

func (f *fakeReferrals) ProcessReferralRewards(_ context.Context, key string, _ shared.UserID, pts decimal.Decimal) (map[shared.UserID]decimal.Decimal, error) {
	f.calls = append(f.calls, key)
	f.pts = append(f.pts, pts)
	return nil, f.err
}

func newAction(t *testing.T, p offline.Payload) *offline.PendingAction {
	t.Helper()
	a, err := offline.NewPendingAction(p, 0, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return a
}

func earningPayload(points int) offline.SubmitEarningPayload {
	return offline.SubmitEarningPayload{
		EventKey:     "purchase:order-1",
		MembershipID: uuid.NewString(),
		UserID:       uuid.NewString(),
		VenueID:      uuid.NewString(),
		Source:       "purchase",
		PointsEarned: points,
		Spend:        decimal.NewFromInt(120),
		Multiplier:   decimal.NewFromFloat(1.5),
		OccurredAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ===== Dispatcher =====

func TestDispatcher_RoutesByActionTypeWithIdempotencyKey(t *testing.T) {
	// Arrange
	api := new(MockActionAPI)
	d := appoffline.NewDispatcher(api, &apptest.RemoteLedger{}, nil)
	redeem := offline.RedeemRewardPayload{RewardID: uuid.NewString(), MembershipID: uuid.NewString(), PointsCost: 100}
	a := newAction(t, redeem)
	api.On("RedeemReward", mock.Anything, a.IdempotencyKey(), redeem).Return(nil).Once()

	// Act
	err := d.Handle(context.Background(), a)

	// Assert
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestDispatcher_PropagatesRemoteError(t *testing.T) {
	// Arrange
	api := new(MockActionAPI)
	d := appoffline.NewDispatcher(api, &apptest.RemoteLedger{}, nil)
	like := offline.LikePostPayload{PostID: uuid.NewString(), UserID: uuid.NewString()}
	api.On("LikePost", mock.Anything, mock.Anything, like).Return(ports.ErrRemoteRejected)

	// Act
	err := d.Handle(context.Background(), newAction(t, like))

	// Assert
	assert.True(t, ports.IsFatal(err))
}

func TestDispatcher_SubmitEarning_SubmitsThenDistributesReferrals(t *testing.T) {
	// Arrange
	remote := &apptest.RemoteLedger{}
	referrals := &fakeReferrals{}
	d := appoffline.NewDispatcher(new(MockActionAPI), remote, referrals)
	p := earningPayload(180)

	// Act
	err := d.Handle(context.Background(), newAction(t, p))

	// Assert
	require.NoError(t, err)
	require.Len(t, remote.EarningEvents, 1)
	assert.Equal(t, "purchase:order-1", remote.EarningEvents[0].EventKey)
	assert.Equal(t, 180, remote.EarningEvents[0].PointsEarned)
	assert.Equal(t, []string{"purchase:order-1"}, referrals.calls)
	assert.True(t, referrals.pts[0].Equal(decimal.NewFromInt(180)))
}

func TestDispatcher_SubmitEarning_RemoteFailure_SkipsReferrals(t *testing.T) {
	// Arrange
	remote := &apptest.RemoteLedger{
		SubmitEarningFunc: func(context.Context, ports.EarningEvent) error {
			return ports.ErrRemoteUnavailable
		},
	}
	referrals := &fakeReferrals{}
	d := appoffline.NewDispatcher(new(MockActionAPI), remote, referrals)

	// Act
	err := d.Handle(context.Background(), newAction(t, earningPayload(50)))

	// Assert
	assert.True(t, ports.IsRetryable(err))
	assert.Empty(t, referrals.calls)
}

func TestDispatcher_SubmitEarning_ZeroPoints_NoReferralCall(t *testing.T) {
	// Arrange
	referrals := &fakeReferrals{}
	d := appoffline.NewDispatcher(new(MockActionAPI), &apptest.RemoteLedger{}, referrals)

	// Act
	err := d.Handle(context.Background(), newAction(t, earningPayload(0)))

	// Assert
	require.NoError(t, err)
	assert.Empty(t, referrals.calls)
}

func TestDispatcher_SubmitEarning_ReferralFailureIsReturned(t *testing.T) {
	// Arrange
	referrals := &fakeReferrals{err: ports.ErrRemoteUnavailable}
	d := appoffline.NewDispatcher(new(MockActionAPI), &apptest.RemoteLedger{}, referrals)

	// Act
	err := d.Handle(context.Background(), newAction(t, earningPayload(10)))

	// Assert
	assert.ErrorIs(t, err, ports.ErrRemoteUnavailable)
}
