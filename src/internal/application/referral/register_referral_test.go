package referral

import (
	"testing"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/apptest"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegisterUseCase() (*RegisterReferralUseCase, *apptest.ChainRepo) {
	store := apptest.NewStore()
	chains := apptest.NewChainRepo(store)
	return NewRegisterReferralUseCase(chains, apptest.NewTxManager(store), &shared.FixedClock{T: now}), chains
}

func TestRegisterReferralUseCase_Execute_InheritsReferrerChain(t *testing.T) {
	// Arrange
	useCase, chains := newRegisterUseCase()
	a, b, c := shared.NewUserID(), shared.NewUserID(), shared.NewUserID()
	_, err := useCase.Execute(RegisterReferralCommand{UserID: b.String(), ReferrerID: a.String()})
	require.NoError(t, err)

	// Act
	result, err := useCase.Execute(RegisterReferralCommand{UserID: c.String(), ReferrerID: b.String()})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Levels)
	assert.Equal(t, []string{b.String(), a.String(), "", "", ""}, result.Referrers)

	stored, err := chains.FindByUser(nil, c)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.LevelOf(a))
}

func TestRegisterReferralUseCase_Execute_ReferrerWithoutChain_SingleLevel(t *testing.T) {
	// Arrange
	useCase, _ := newRegisterUseCase()

	// Act
	result, err := useCase.Execute(RegisterReferralCommand{UserID: shared.NewUserID().String(), ReferrerID: shared.NewUserID().String()})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Levels)
}

func TestRegisterReferralUseCase_Execute_SelfReferral_ReturnsError(t *testing.T) {
	// Arrange
	useCase, _ := newRegisterUseCase()
	id := shared.NewUserID().String()

	// Act
	result, err := useCase.Execute(RegisterReferralCommand{UserID: id, ReferrerID: id})

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, referral.ErrSelfReferral)
}

func TestRegisterReferralUseCase_Execute_Cycle_ReturnsError(t *testing.T) {
	// Arrange
	useCase, chains := newRegisterUseCase()
	a, b := shared.NewUserID(), shared.NewUserID()
	_, err := useCase.Execute(RegisterReferralCommand{UserID: a.String(), ReferrerID: b.String()})
	require.NoError(t, err)

	// Act: b 由 a 推薦會讓 b 出現在自己的鏈上
	_, err = useCase.Execute(RegisterReferralCommand{UserID: b.String(), ReferrerID: a.String()})

	// Assert
	assert.ErrorIs(t, err, referral.ErrSelfReferral)
	exists, _ := chains.ExistsByUser(nil, b)
	assert.False(t, exists)
}

func TestRegisterReferralUseCase_Execute_AlreadyRegistered_ReturnsError(t *testing.T) {
	// Arrange
	useCase, _ := newRegisterUseCase()
	cmd := RegisterReferralCommand{UserID: shared.NewUserID().String(), ReferrerID: shared.NewUserID().String()}
	_, err := useCase.Execute(cmd)
	require.NoError(t, err)

	// Act
	_, err = useCase.Execute(RegisterReferralCommand{UserID: cmd.UserID, ReferrerID: shared.NewUserID().String()})

	// Assert
	assert.ErrorIs(t, err, referral.ErrChainAlreadyExists)
}

func TestRegisterReferralUseCase_Execute_InvalidIDs_ReturnsError(t *testing.T) {
	// Arrange
	useCase, _ := newRegisterUseCase()

	// Act
	_, err := useCase.Execute(RegisterReferralCommand{UserID: "bad", ReferrerID: shared.NewUserID().String()})

	// Assert
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)
}

func TestRegisterReferralUseCase_Execute_UserWithOnlyEarnings_KeepsEarnings(t *testing.T) {
	// Arrange
	useCase, chains := newRegisterUseCase()
	user, referrer := shared.NewUserID(), shared.NewUserID()
	holder, err := referral.NewEarningsHolder(user, now)
	require.NoError(t, err)
	require.NoError(t, holder.AddEarnings(1, decimal.NewFromInt(25), now))
	require.NoError(t, chains.Save(&apptest.TxContext{}, holder))

	// Act
	result, err := useCase.Execute(RegisterReferralCommand{UserID: user.String(), ReferrerID: referrer.String()})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Levels)
	stored, err := chains.FindByUser(nil, user)
	require.NoError(t, err)
	assert.True(t, stored.TopologyKnown())
	assert.Equal(t, 1, stored.LevelOf(referrer))
	assert.True(t, stored.EarningsAt(1).Equal(decimal.NewFromInt(25)))
}
