package tiering

import (
	"fmt"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
)

// ReferralCounter 直接推薦人數（第 1 層）
type ReferralCounter interface {
	CountDirectReferrals(ctx shared.TransactionContext, userID shared.UserID) (int, error)
}

// BadgeProgressQuery 查詢會籍在場館所有徽章的進度
type BadgeProgressQuery struct {
	MembershipID string
}

// BadgeProgressUseCase 徽章進度查詢
type BadgeProgressUseCase struct {
	memberships membership.Repository
	configs     tier.ConfigProvider
	referrals   ReferralCounter
}

// NewBadgeProgressUseCase 建立用例；referrals 為 nil 時推薦人數視為 0
func NewBadgeProgressUseCase(memberships membership.Repository, configs tier.ConfigProvider, referrals ReferralCounter) *BadgeProgressUseCase {
	return &BadgeProgressUseCase{memberships: memberships, configs: configs, referrals: referrals}
}

// Execute 依場館設定的徽章順序返回進度
func (uc *BadgeProgressUseCase) Execute(q BadgeProgressQuery) ([]tier.BadgeProgress, error) {
	id, err := membership.MembershipIDFromString(q.MembershipID)
	if err != nil {
		return nil, err
	}
	m, err := uc.memberships.FindByID(nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	cfg, err := uc.configs.ConfigFor(m.VenueID())
	if err != nil {
		return nil, err
	}

	referred := 0
	if uc.referrals != nil {
		referred, err = uc.referrals.CountDirectReferrals(nil, m.UserID())
		if err != nil {
			return nil, fmt.Errorf("failed to count referrals: %w", err)
		}
	}

	stats := tier.Stats{
		Visits:    m.VisitCount(),
		Spending:  m.TotalSpent(),
		Referrals: referred,
	}
	out := make([]tier.BadgeProgress, 0, len(cfg.Badges))
	for _, b := range cfg.Badges {
		out = append(out, tier.CheckBadgeEarned(stats, b))
	}
	return out, nil
}
