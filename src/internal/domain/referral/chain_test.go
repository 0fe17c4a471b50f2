package referral_test

import (
	"testing"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChain_RejectsSelfReferral(t *testing.T) {
	// Arrange
	user := shared.NewUserID()

	// Act
	_, err := referral.NewChain(user, []shared.UserID{shared.NewUserID(), user}, testNow)

	// Assert
	assert.ErrorIs(t, err, referral.ErrSelfReferral)
}

func TestNewChain_RejectsDuplicateReferrer(t *testing.T) {
	// Arrange
	r := shared.NewUserID()

	// Act
	_, err := referral.NewChain(shared.NewUserID(), []shared.UserID{r, shared.NewUserID(), r}, testNow)

	// Assert
	assert.ErrorIs(t, err, referral.ErrDuplicateReferrer)
}

func TestNewChain_RejectsMoreThanFiveLevels(t *testing.T) {
	// Arrange
	referrers := make([]shared.UserID, 6)
	for i := range referrers {
		referrers[i] = shared.NewUserID()
	}

	// Act
	_, err := referral.NewChain(shared.NewUserID(), referrers, testNow)

	// Assert
	assert.ErrorIs(t, err, referral.ErrInvalidLevel)
}

func TestNewChainFromReferrer_ShiftsReferrerChainUpOneLevel(t *testing.T) {
	// Arrange
	upline := []shared.UserID{
		shared.NewUserID(), shared.NewUserID(), shared.NewUserID(), shared.NewUserID(), shared.NewUserID(),
	}
	referrerID := shared.NewUserID()
	referrerChain, err := referral.NewChain(referrerID, upline, testNow)
	require.NoError(t, err)
	newUser := shared.NewUserID()

	// Act
	chain, err := referral.NewChainFromReferrer(newUser, referrerID, referrerChain, testNow)

	// Assert
	require.NoError(t, err)
	l1, _ := chain.ReferrerAt(1)
	assert.True(t, l1.Equals(referrerID))
	for level := 2; level <= 5; level++ {
		got, ok := chain.ReferrerAt(level)
		require.True(t, ok)
		assert.True(t, got.Equals(upline[level-2]), "第 %d 層應為推薦人的第 %d 層", level, level-1)
	}
	assert.Equal(t, 0, chain.LevelOf(upline[4]), "推薦人的第 5 層超出範圍")
}

func TestNewChainFromReferrer_ReferrerWithoutChain(t *testing.T) {
	// Arrange
	referrerID := shared.NewUserID()

	// Act
	chain, err := referral.NewChainFromReferrer(shared.NewUserID(), referrerID, nil, testNow)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, chain.ActiveLevels())
	assert.Equal(t, 1, chain.LevelOf(referrerID))
}

func TestNewChainFromReferrer_CycleBackToUser_Rejected(t *testing.T) {
	// Arrange: 推薦人的上線就是新用戶本人
	newUser := shared.NewUserID()
	referrerID := shared.NewUserID()
	referrerChain, err := referral.NewChain(referrerID, []shared.UserID{newUser}, testNow)
	require.NoError(t, err)

	// Act
	_, err = referral.NewChainFromReferrer(newUser, referrerID, referrerChain, testNow)

	// Assert
	assert.ErrorIs(t, err, referral.ErrSelfReferral)
}

func TestChain_AddEarnings_AccumulatesPerLevel(t *testing.T) {
	// Arrange
	chain, err := referral.NewChain(shared.NewUserID(), nil, testNow)
	require.NoError(t, err)
	later := testNow.Add(time.Hour)

	// Act
	require.NoError(t, chain.AddEarnings(1, decimal.NewFromInt(25), later))
	require.NoError(t, chain.AddEarnings(1, decimal.RequireFromString("2.5"), later))
	require.NoError(t, chain.AddEarnings(3, decimal.NewFromInt(10), later))

	// Assert
	assert.Equal(t, "27.5", chain.EarningsAt(1).String())
	assert.Equal(t, "10", chain.EarningsAt(3).String())
	assert.Equal(t, "37.5", chain.TotalEarnings().String())
	assert.Equal(t, later, chain.UpdatedAt())
}

func TestChain_AddEarnings_InvalidInput(t *testing.T) {
	// Arrange
	chain, err := referral.NewChain(shared.NewUserID(), nil, testNow)
	require.NoError(t, err)

	// Act & Assert
	assert.ErrorIs(t, chain.AddEarnings(0, decimal.NewFromInt(1), testNow), referral.ErrInvalidLevel)
	assert.ErrorIs(t, chain.AddEarnings(6, decimal.NewFromInt(1), testNow), referral.ErrInvalidLevel)
	assert.ErrorIs(t, chain.AddEarnings(1, decimal.NewFromInt(-1), testNow), referral.ErrInvalidPointsEarned)
}

func TestNewEarningsHolder_TopologyUnknown(t *testing.T) {
	// Act
	holder, err := referral.NewEarningsHolder(shared.NewUserID(), testNow)

	// Assert
	require.NoError(t, err)
	assert.False(t, holder.TopologyKnown())
	assert.Zero(t, holder.ActiveLevels())

	chain, err := referral.NewChain(shared.NewUserID(), nil, testNow)
	require.NoError(t, err)
	assert.True(t, chain.TopologyKnown(), "一般推薦鏈沒有上線也是已確定的拓撲")
}

func TestChain_ResolveTopology_KeepsEarnings(t *testing.T) {
	// Arrange
	holder, err := referral.NewEarningsHolder(shared.NewUserID(), testNow)
	require.NoError(t, err)
	require.NoError(t, holder.AddEarnings(1, decimal.NewFromInt(25), testNow))
	upline := []shared.UserID{shared.NewUserID(), shared.NewUserID()}
	later := testNow.Add(time.Hour)

	// Act
	err = holder.ResolveTopology(upline, later)

	// Assert
	require.NoError(t, err)
	assert.True(t, holder.TopologyKnown())
	assert.Equal(t, 2, holder.ActiveLevels())
	assert.Equal(t, "25", holder.EarningsAt(1).String())
	assert.Equal(t, later, holder.UpdatedAt())
}

func TestChain_ResolveTopology_InvalidOrAlreadyKnown(t *testing.T) {
	// Arrange
	user := shared.NewUserID()
	holder, err := referral.NewEarningsHolder(user, testNow)
	require.NoError(t, err)
	known, err := referral.NewChain(shared.NewUserID(), nil, testNow)
	require.NoError(t, err)

	// Act & Assert
	assert.ErrorIs(t, holder.ResolveTopology([]shared.UserID{user}, testNow), referral.ErrSelfReferral)
	assert.False(t, holder.TopologyKnown(), "驗證失敗不應改變狀態")
	assert.Zero(t, holder.ActiveLevels())
	assert.ErrorIs(t, known.ResolveTopology([]shared.UserID{shared.NewUserID()}, testNow), referral.ErrChainAlreadyExists)
}
