package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackyeh168/venue_loyalty/src/internal/application/apptest"
	"github.com/jackyeh168/venue_loyalty/src/internal/application/earning"
	appexpiration "github.com/jackyeh168/venue_loyalty/src/internal/application/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture 組裝所有 use case 共用的記憶體替身
type fixture struct {
	store     *apptest.Store
	repo      *apptest.MembershipRepo
	ledger    *apptest.LedgerRepo
	tx        *apptest.TxManager
	locker    *apptest.Locker
	enqueuer  *apptest.Enqueuer
	publisher *apptest.Publisher
	venues    *apptest.Venues
	clock     *shared.FixedClock
	venueID   shared.VenueID
}

func newFixture() *fixture {
	store := apptest.NewStore()
	clock := &shared.FixedClock{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	f := &fixture{
		store:     store,
		repo:      apptest.NewMembershipRepo(store),
		ledger:    apptest.NewLedgerRepo(store),
		tx:        apptest.NewTxManager(store),
		locker:    apptest.NewLocker(),
		enqueuer:  apptest.NewEnqueuer(store, clock),
		publisher: &apptest.Publisher{},
		venues:    apptest.NewVenues(),
		clock:     clock,
		venueID:   shared.NewVenueID(),
	}
	f.venues.AddDefault(f.venueID)
	return f
}

func (f *fixture) joinUseCase() *JoinVenueUseCase {
	return NewJoinVenueUseCase(f.repo, f.tx, f.venues, f.enqueuer, f.publisher, f.clock, nil)
}

func (f *fixture) redeemUseCase() *RedeemPointsUseCase {
	return NewRedeemPointsUseCase(f.repo, f.ledger, f.tx, f.locker, f.enqueuer, nil, f.publisher, expiration.DefaultPolicy(), f.clock, nil)
}

// seedMember 建立已有餘額的會籍
func (f *fixture) seedMember(t *testing.T, balance int, spend int64) *membership.Membership {
	t.Helper()
	m, err := membership.NewMembership(shared.NewUserID(), f.venueID, "Bronze", f.clock.Now())
	require.NoError(t, err)
	amount, _ := points.NewPointsAmount(balance)
	require.NoError(t, m.CreditPoints(amount, decimal.NewFromInt(spend), points.PointsSourcePurchase, "seed", f.clock.Now()))
	m.PullEvents()
	f.repo.Put(m)
	return m
}

// ===========================
// JoinVenue
// ===========================

func TestJoinVenueUseCase_Success(t *testing.T) {
	// Arrange
	f := newFixture()
	userID := shared.NewUserID()

	// Act
	result, err := f.joinUseCase().Execute(JoinVenueCommand{UserID: userID.String(), VenueID: f.venueID.String()})

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, result.MembershipID)
	assert.Equal(t, "Bronze", result.Tier)
	assert.Equal(t, 0, result.InitialBalance)
	assert.Equal(t, f.clock.Now(), result.JoinedAt)
	assert.Equal(t, 1, f.tx.Calls)
	assert.Equal(t, []string{membership.EventTypeMembershipCreated}, f.publisher.Types())

	pending := f.enqueuer.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, result.ActionID, pending[0].ID().String())
	payload, ok := pending[0].Payload().(offline.JoinVenuePayload)
	require.True(t, ok)
	assert.Equal(t, userID.String(), payload.UserID)
	assert.Equal(t, f.venueID.String(), payload.VenueID)
}

func TestJoinVenueUseCase_ThenEarning_JoinReplaysFirst(t *testing.T) {
	// Arrange
	f := newFixture()
	userID := shared.NewUserID()
	joined, err := f.joinUseCase().Execute(JoinVenueCommand{UserID: userID.String(), VenueID: f.venueID.String()})
	require.NoError(t, err)

	// Act: 同一時間排入的入帳事件
	_, err = f.enqueuer.EnqueueWithContext(&apptest.TxContext{}, offline.SubmitEarningPayload{
		EventKey:     "check_in:" + uuid.NewString(),
		MembershipID: joined.MembershipID,
		UserID:       userID.String(),
		VenueID:      f.venueID.String(),
		Source:       string(points.PointsSourceCheckIn),
		PointsEarned: 50,
		Multiplier:   decimal.NewFromInt(1),
		OccurredAt:   f.clock.Now(),
	}, earning.PriorityEarning)
	require.NoError(t, err)

	// Assert
	assert.GreaterOrEqual(t, PriorityJoin, earning.PriorityEarning)
	pending := f.enqueuer.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, offline.ActionJoinVenue, pending[0].Payload().ActionType())
	assert.Equal(t, offline.ActionSubmitEarning, pending[1].Payload().ActionType())
}

func TestJoinVenueUseCase_EnqueueFails_RollsBack(t *testing.T) {
	// Arrange
	f := newFixture()
	userID := shared.NewUserID()
	uc := NewJoinVenueUseCase(f.repo, f.tx, f.venues, failingEnqueuer{}, f.publisher, f.clock, nil)

	// Act
	_, err := uc.Execute(JoinVenueCommand{UserID: userID.String(), VenueID: f.venueID.String()})

	// Assert
	require.ErrorIs(t, err, assert.AnError)
	_, err = f.repo.FindByUserAndVenue(nil, userID, f.venueID)
	assert.ErrorIs(t, err, membership.ErrMembershipNotFound)
	assert.Empty(t, f.publisher.Events)
}

type failingEnqueuer struct{}

func (failingEnqueuer) EnqueueWithContext(shared.TransactionContext, offline.Payload, int) (*offline.PendingAction, error) {
	return nil, assert.AnError
}

func TestJoinVenueUseCase_AlreadyMember_ReturnsError(t *testing.T) {
	// Arrange
	f := newFixture()
	userID := shared.NewUserID()
	cmd := JoinVenueCommand{UserID: userID.String(), VenueID: f.venueID.String()}
	_, err := f.joinUseCase().Execute(cmd)
	require.NoError(t, err)

	// Act
	result, err := f.joinUseCase().Execute(cmd)

	// Assert
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, membership.ErrMembershipAlreadyExists), "error should wrap ErrMembershipAlreadyExists")
	assert.Len(t, f.publisher.Events, 1, "失敗時不應發布事件")
	assert.Len(t, f.enqueuer.Pending(), 1, "失敗時不應排入 join_venue")
}

func TestJoinVenueUseCase_UnconfiguredVenue_ReturnsError(t *testing.T) {
	// Arrange
	f := newFixture()

	// Act
	_, err := f.joinUseCase().Execute(JoinVenueCommand{
		UserID:  shared.NewUserID().String(),
		VenueID: shared.NewVenueID().String(),
	})

	// Assert
	assert.ErrorIs(t, err, tier.ErrConfigNotFound)
}

func TestJoinVenueUseCase_InvalidIDs_ReturnsError(t *testing.T) {
	tests := []struct {
		name    string
		cmd     JoinVenueCommand
		wantErr error
	}{
		{"無效 UserID", JoinVenueCommand{UserID: "bad", VenueID: uuid.NewString()}, shared.ErrInvalidUserID},
		{"無效 VenueID", JoinVenueCommand{UserID: uuid.NewString(), VenueID: ""}, shared.ErrInvalidVenueID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture()

			// Act
			_, err := f.joinUseCase().Execute(tt.cmd)

			// Assert
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// ===========================
// GetBalance
// ===========================

func TestGetBalanceUseCase_ReturnsBalanceProgressAndExpiry(t *testing.T) {
	// Arrange
	f := newFixture()
	m := f.seedMember(t, 300, 250)
	m.RecordActivity(f.clock.Now(), expiration.DefaultPolicy().Window)
	f.repo.Put(m)
	f.clock.Advance(10 * 24 * time.Hour)
	uc := NewGetBalanceUseCase(f.repo, f.venues, tier.NewEngine(), f.clock)

	// Act
	result, err := uc.Execute(GetBalanceQuery{UserID: m.UserID().String(), VenueID: f.venueID.String()})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 300, result.Balance)
	assert.Equal(t, "250.00", result.TotalSpent)
	assert.Equal(t, "Bronze", result.Tier)
	require.NotNil(t, result.Progress.NextTier)
	assert.Equal(t, "Silver", result.Progress.NextTier.Name)
	assert.True(t, result.Progress.ProgressPercentage.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, result.DaysUntilExpiry)
	assert.Equal(t, 170, *result.DaysUntilExpiry)
}

func TestGetBalanceUseCase_NotMember_ReturnsNotFound(t *testing.T) {
	// Arrange
	f := newFixture()
	uc := NewGetBalanceUseCase(f.repo, f.venues, tier.NewEngine(), f.clock)

	// Act
	_, err := uc.Execute(GetBalanceQuery{UserID: shared.NewUserID().String(), VenueID: f.venueID.String()})

	// Assert
	assert.ErrorIs(t, err, membership.ErrMembershipNotFound)
}

// ===========================
// RedeemPoints
// ===========================

func TestRedeemPointsUseCase_Success(t *testing.T) {
	// Arrange
	f := newFixture()
	m := f.seedMember(t, 500, 0)
	rewardID := uuid.NewString()

	// Act
	result, err := f.redeemUseCase().Execute(RedeemPointsCommand{
		MembershipID: m.ID().String(),
		RewardID:     rewardID,
		PointsCost:   200,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 300, result.BalanceAfter)
	assert.Equal(t, 200, result.PointsRedeemed)

	stored := f.repo.Get(m.ID())
	assert.Equal(t, 300, stored.PointsBalance().Value())
	require.NotNil(t, stored.NextExpirationDate())
	assert.Equal(t, f.clock.Now().Add(expiration.DefaultPolicy().Window), *stored.NextExpirationDate())

	entries := f.ledger.All()
	require.Len(t, entries, 1)
	assert.Equal(t, points.EntryTypeRedeem, entries[0].Type())
	assert.Equal(t, 500, entries[0].BalanceBefore().Value())
	assert.Equal(t, 300, entries[0].BalanceAfter().Value())

	pending := f.enqueuer.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, result.ActionID, pending[0].ID().String())
	assert.Equal(t, offline.ActionRedeemReward, pending[0].Payload().ActionType())

	assert.Equal(t, []string{m.ID().String()}, f.locker.Keys)
	assert.Contains(t, f.publisher.Types(), membership.EventTypePointsDebited)
}

func TestRedeemPointsUseCase_InsufficientPoints_RollsBack(t *testing.T) {
	// Arrange
	f := newFixture()
	m := f.seedMember(t, 100, 0)

	// Act
	result, err := f.redeemUseCase().Execute(RedeemPointsCommand{
		MembershipID: m.ID().String(),
		RewardID:     uuid.NewString(),
		PointsCost:   150,
	})

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, points.ErrInsufficientPoints)
	assert.Equal(t, 100, f.repo.Get(m.ID()).PointsBalance().Value())
	assert.Empty(t, f.ledger.All())
	assert.Empty(t, f.enqueuer.Pending())
	assert.Empty(t, f.publisher.Events)
}

func TestRedeemPointsUseCase_InvalidCommand_ReturnsError(t *testing.T) {
	tests := []struct {
		name    string
		cost    int
		reward  string
		wantErr error
	}{
		{"零成本", 0, uuid.NewString(), points.ErrInvalidAmount},
		{"負成本", -10, uuid.NewString(), points.ErrInvalidAmount},
		{"獎勵 ID 無效", 10, "reward-1", offline.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture()
			m := f.seedMember(t, 100, 0)

			// Act
			_, err := f.redeemUseCase().Execute(RedeemPointsCommand{
				MembershipID: m.ID().String(),
				RewardID:     tt.reward,
				PointsCost:   tt.cost,
			})

			// Assert
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.tx.Calls)
		})
	}
}

func TestRedeemPointsUseCase_AfterExpiryWarning_RefreshesTrackingAndNotifies(t *testing.T) {
	// Arrange: 160 天未活動，排程已送出 20 天提醒
	f := newFixture()
	remote := &apptest.RemoteLedger{}
	notifier := &apptest.Notifier{}
	scheduler, err := appexpiration.NewScheduler(appexpiration.Deps{
		Memberships: f.repo,
		Ledger:      f.ledger,
		Expirations: apptest.NewExpirationRepo(f.store),
		TxManager:   f.tx,
		Locker:      f.locker,
		Remote:      remote,
		Notifier:    notifier,
		Clock:       f.clock,
	}, appexpiration.DefaultConfig())
	require.NoError(t, err)

	at := f.clock.Now().Add(-160 * 24 * time.Hour)
	m, err := membership.NewMembership(shared.NewUserID(), f.venueID, "Bronze", at)
	require.NoError(t, err)
	seed, err := points.NewPointsAmount(500)
	require.NoError(t, err)
	require.NoError(t, m.CreditPoints(seed, decimal.Zero, points.PointsSourceCheckIn, "seed", at))
	m.PullEvents()
	f.repo.Put(m)

	_, err = scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, notifier.Warnings, 1)
	require.Equal(t, 20, notifier.Warnings[0].DaysLeft)

	uc := NewRedeemPointsUseCase(f.repo, f.ledger, f.tx, f.locker, f.enqueuer, scheduler, f.publisher, expiration.DefaultPolicy(), f.clock, nil)

	// Act
	_, err = uc.Execute(RedeemPointsCommand{MembershipID: m.ID().String(), RewardID: uuid.NewString(), PointsCost: 200})

	// Assert
	require.NoError(t, err)
	list, err := scheduler.FetchExpiringPoints(m.UserID().String())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 180, list[0].DaysUntilExpiry)
	assert.Equal(t, 300, list[0].PointsAtRisk)
	assert.False(t, list[0].WarningSent)
	assert.Equal(t, []string{m.ID().String()}, remote.ActivityNotified)
}
