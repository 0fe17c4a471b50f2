package streak_test

import (
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/streak"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/persistencetest"
	streakpersistence "github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/streak"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day1 = time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC)

func TestCheckInRepository_FindLatest_NoHistory_ReturnsNil(t *testing.T) {
	// Arrange
	repo := streakpersistence.NewCheckInRepository(persistencetest.NewDB(t))

	// Act
	latest, err := repo.FindLatest(nil, shared.NewUserID(), shared.NewVenueID())

	// Assert
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestCheckInRepository_FindLatest_ReturnsMostRecentForVenue(t *testing.T) {
	// Arrange
	repo := streakpersistence.NewCheckInRepository(persistencetest.NewDB(t))
	userID, venueID := shared.NewUserID(), shared.NewVenueID()

	first, err := streak.NewCheckIn(userID, venueID, day1, streak.MethodNFC, "", 1, 10)
	require.NoError(t, err)
	second, err := streak.NewCheckIn(userID, venueID, day1.Add(24*time.Hour), streak.MethodQR, "", 2, 11)
	require.NoError(t, err)
	elsewhere, err := streak.NewCheckIn(userID, shared.NewVenueID(), day1.Add(48*time.Hour), streak.MethodManual, "", 1, 10)
	require.NoError(t, err)
	for _, c := range []*streak.CheckIn{first, second, elsewhere} {
		require.NoError(t, repo.Save(nil, c))
	}

	// Act
	latest, err := repo.FindLatest(nil, userID, venueID)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID(), latest.ID())
	assert.Equal(t, 2, latest.StreakDay())
	assert.Equal(t, streak.MethodQR, latest.Method())
	assert.Equal(t, 11, latest.PointsEarned())
	assert.True(t, latest.StreakMultiplier().Equal(decimal.RequireFromString("1.2")))
}

func TestCheckInRepository_FindByUser_AcrossVenuesWithLimit(t *testing.T) {
	// Arrange
	repo := streakpersistence.NewCheckInRepository(persistencetest.NewDB(t))
	userID := shared.NewUserID()
	for i := 0; i < 3; i++ {
		c, err := streak.NewCheckIn(userID, shared.NewVenueID(), day1.Add(time.Duration(i)*time.Hour), streak.MethodNFC, "", 1, 10)
		require.NoError(t, err)
		require.NoError(t, repo.Save(nil, c))
	}

	// Act
	all, err := repo.FindByUser(nil, userID, 0)
	require.NoError(t, err)
	two, err := repo.FindByUser(nil, userID, 2)
	require.NoError(t, err)

	// Assert
	require.Len(t, all, 3)
	assert.True(t, all[0].CheckInTime().After(all[2].CheckInTime()))
	assert.Len(t, two, 2)
}
