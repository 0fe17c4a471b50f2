package membership

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// GORM Models
// ===========================

// MembershipGORM 會籍資料表模型
//
// 資料庫約束：
// - membership_id: 主鍵（UUID）
// - (user_id, venue_id): 唯一索引（同一用戶在同一場館只有一個會籍）
// - points_balance: >= 0
// - version: 樂觀鎖
type MembershipGORM struct {
	// 識別欄位
	MembershipID string `gorm:"column:membership_id;type:varchar(36);primaryKey"`
	UserID       string `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_membership_user_venue"`
	VenueID      string `gorm:"column:venue_id;type:varchar(36);not null;uniqueIndex:idx_membership_user_venue"`

	// 積分與消費
	PointsBalance   int             `gorm:"column:points_balance;not null;default:0;check:points_balance >= 0"`
	TotalSpent      decimal.Decimal `gorm:"column:total_spent;type:decimal(20,6);not null"`
	TierSpendOffset decimal.Decimal `gorm:"column:tier_spend_offset;type:decimal(20,6);not null"`
	VisitCount      int             `gorm:"column:visit_count;not null;default:0"`

	// 等級
	Tier             string     `gorm:"column:tier;type:varchar(64);not null"`
	TierSince        time.Time  `gorm:"column:tier_since;not null"`
	TierResetAt      *time.Time `gorm:"column:tier_reset_at"`
	TierDowngradedAt *time.Time `gorm:"column:tier_downgraded_at"`

	// 活躍與過期
	JoinedAt           time.Time  `gorm:"column:joined_at;not null"`
	LastActivityDate   time.Time  `gorm:"column:last_activity_date;not null"`
	NextExpirationDate *time.Time `gorm:"column:next_expiration_date;index"`
	IsActive           bool       `gorm:"column:is_active;not null;index"`

	// 審計欄位
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	Version   int       `gorm:"column:version;not null;default:1"`
}

// TableName 指定資料表名稱
func (MembershipGORM) TableName() string {
	return "memberships"
}

// ===========================
// Mapper Functions
// ===========================

// toDomain 將 GORM 模型轉換為 Domain 模型
func (g *MembershipGORM) toDomain() (*membership.Membership, error) {
	id, err := membership.MembershipIDFromString(g.MembershipID)
	if err != nil {
		return nil, err
	}
	userID, err := shared.UserIDFromString(g.UserID)
	if err != nil {
		return nil, err
	}
	venueID, err := shared.VenueIDFromString(g.VenueID)
	if err != nil {
		return nil, err
	}
	balance, err := points.NewPointsAmount(g.PointsBalance)
	if err != nil {
		return nil, err
	}

	return membership.ReconstructMembership(membership.Snapshot{
		ID:                 id,
		UserID:             userID,
		VenueID:            venueID,
		PointsBalance:      balance,
		TotalSpent:         g.TotalSpent,
		VisitCount:         g.VisitCount,
		Tier:               g.Tier,
		TierSince:          g.TierSince,
		TierResetAt:        g.TierResetAt,
		TierDowngradedAt:   g.TierDowngradedAt,
		TierSpendOffset:    g.TierSpendOffset,
		JoinedAt:           g.JoinedAt,
		LastActivityDate:   g.LastActivityDate,
		NextExpirationDate: g.NextExpirationDate,
		IsActive:           g.IsActive,
		UpdatedAt:          g.UpdatedAt,
		Version:            g.Version,
	}), nil
}

// toGORM 將 Domain 模型轉換為 GORM 模型
func toGORM(m *membership.Membership) *MembershipGORM {
	s := m.Snapshot()
	return &MembershipGORM{
		MembershipID:       s.ID.String(),
		UserID:             s.UserID.String(),
		VenueID:            s.VenueID.String(),
		PointsBalance:      s.PointsBalance.Value(),
		TotalSpent:         s.TotalSpent,
		TierSpendOffset:    s.TierSpendOffset,
		VisitCount:         s.VisitCount,
		Tier:               s.Tier,
		TierSince:          s.TierSince,
		TierResetAt:        s.TierResetAt,
		TierDowngradedAt:   s.TierDowngradedAt,
		JoinedAt:           s.JoinedAt,
		LastActivityDate:   s.LastActivityDate,
		NextExpirationDate: s.NextExpirationDate,
		IsActive:           s.IsActive,
		UpdatedAt:          s.UpdatedAt,
		Version:            s.Version,
	}
}

func toDomainList(models []MembershipGORM) ([]*membership.Membership, error) {
	out := make([]*membership.Membership, 0, len(models))
	for i := range models {
		m, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
