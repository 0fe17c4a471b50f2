package membership_test

import (
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	membershippersistence "github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================
// MembershipRepository Integration Tests
// ===========================

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) *membershippersistence.MembershipRepositoryImpl {
	t.Helper()
	return membershippersistence.NewMembershipRepository(persistencetest.NewDB(t))
}

func createTestMembership(t *testing.T) *membership.Membership {
	t.Helper()
	m, err := membership.NewMembership(shared.NewUserID(), shared.NewVenueID(), "Bronze", now)
	require.NoError(t, err)
	m.PullEvents()
	return m
}

func tx() shared.TransactionContext { return nil }

func TestMembershipRepository_SaveAndFind_RoundTripsAllFields(t *testing.T) {
	// Arrange
	repo := setup(t)
	m := createTestMembership(t)
	amount, _ := points.NewPointsAmount(150)
	require.NoError(t, m.CreditPoints(amount, decimal.RequireFromString("123.45"), points.PointsSourcePurchase, "order-1", now))
	m.RecordVisit(now)
	m.ScheduleExpiration(now.AddDate(0, 0, 180), now)

	// Act
	require.NoError(t, repo.Save(tx(), m))
	found, err := repo.FindByID(nil, m.ID())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, m.UserID(), found.UserID())
	assert.Equal(t, m.VenueID(), found.VenueID())
	assert.Equal(t, 150, found.PointsBalance().Value())
	assert.True(t, found.TotalSpent().Equal(decimal.RequireFromString("123.45")))
	assert.Equal(t, 1, found.VisitCount())
	assert.Equal(t, "Bronze", found.Tier())
	assert.True(t, found.JoinedAt().Equal(now))
	require.NotNil(t, found.NextExpirationDate())
	assert.True(t, found.NextExpirationDate().Equal(now.AddDate(0, 0, 180)))
	assert.True(t, found.IsActive())
	assert.Equal(t, m.Version(), found.Version())
}

func TestMembershipRepository_Save_DuplicateUserAndVenue(t *testing.T) {
	// Arrange
	repo := setup(t)
	m := createTestMembership(t)
	require.NoError(t, repo.Save(tx(), m))
	dup, err := membership.NewMembership(m.UserID(), m.VenueID(), "Bronze", now)
	require.NoError(t, err)

	// Act
	err = repo.Save(tx(), dup)

	// Assert
	assert.ErrorIs(t, err, membership.ErrMembershipAlreadyExists)
}

func TestMembershipRepository_Update_IncrementsVersionAndPersistsZeroBalance(t *testing.T) {
	// Arrange
	repo := setup(t)
	m := createTestMembership(t)
	amount, _ := points.NewPointsAmount(100)
	require.NoError(t, m.CreditPoints(amount, decimal.Zero, points.PointsSourceCheckIn, "c1", now))
	require.NoError(t, repo.Save(tx(), m))
	version := m.Version()

	loaded, err := repo.FindByID(nil, m.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.DebitPoints(amount, "redeem", now))

	// Act
	err = repo.Update(tx(), loaded)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, version+1, loaded.Version())
	stored, err := repo.FindByID(nil, m.ID())
	require.NoError(t, err)
	assert.True(t, stored.PointsBalance().IsZero(), "零值餘額也必須寫入")
	assert.Equal(t, version+1, stored.Version())
}

func TestMembershipRepository_Update_StaleVersion_ConcurrentModification(t *testing.T) {
	// Arrange
	repo := setup(t)
	m := createTestMembership(t)
	require.NoError(t, repo.Save(tx(), m))
	first, _ := repo.FindByID(nil, m.ID())
	second, _ := repo.FindByID(nil, m.ID())
	require.NoError(t, repo.Update(tx(), first))

	// Act
	err := repo.Update(tx(), second)

	// Assert
	assert.ErrorIs(t, err, membership.ErrConcurrentModification)
}

func TestMembershipRepository_Update_NotFound(t *testing.T) {
	// Arrange
	repo := setup(t)
	m := createTestMembership(t)

	// Act
	err := repo.Update(tx(), m)

	// Assert
	assert.ErrorIs(t, err, membership.ErrMembershipNotFound)
}

func TestMembershipRepository_Queries(t *testing.T) {
	// Arrange
	repo := setup(t)
	withBalance := createTestMembership(t)
	amount, _ := points.NewPointsAmount(10)
	require.NoError(t, withBalance.CreditPoints(amount, decimal.Zero, points.PointsSourceCheckIn, "c1", now))
	empty := createTestMembership(t)
	sameUser, err := membership.NewMembership(withBalance.UserID(), shared.NewVenueID(), "Bronze", now.Add(time.Hour))
	require.NoError(t, err)
	for _, m := range []*membership.Membership{withBalance, empty, sameUser} {
		require.NoError(t, repo.Save(tx(), m))
	}

	// Act
	active, err := repo.FindActive(nil)
	require.NoError(t, err)
	balance, err := repo.FindWithBalance(nil)
	require.NoError(t, err)
	byUser, err := repo.FindByUser(nil, withBalance.UserID())
	require.NoError(t, err)
	exists, err := repo.ExistsByUserAndVenue(nil, empty.UserID(), empty.VenueID())
	require.NoError(t, err)
	missing, err := repo.ExistsByUserAndVenue(nil, shared.NewUserID(), empty.VenueID())
	require.NoError(t, err)

	// Assert
	assert.Len(t, active, 3)
	require.Len(t, balance, 1)
	assert.Equal(t, withBalance.ID(), balance[0].ID())
	require.Len(t, byUser, 2)
	assert.Equal(t, withBalance.ID(), byUser[0].ID(), "依加入時間排序")
	assert.True(t, exists)
	assert.False(t, missing)
}

func TestMembershipRepository_FindByUserAndVenue_NotFound(t *testing.T) {
	// Arrange
	repo := setup(t)

	// Act
	_, err := repo.FindByUserAndVenue(nil, shared.NewUserID(), shared.NewVenueID())

	// Assert
	assert.ErrorIs(t, err, membership.ErrMembershipNotFound)
}
