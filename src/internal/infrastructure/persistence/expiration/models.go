package expiration

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// PointExpirationGORM 過期追蹤資料表模型
//
// 每個會籍同時最多一筆 is_expired = false 的追蹤記錄（由應用層保證）。
type PointExpirationGORM struct {
	ExpirationID string `gorm:"column:expiration_id;type:varchar(36);primaryKey"`
	MembershipID string `gorm:"column:membership_id;type:varchar(36);not null;index"`
	UserID       string `gorm:"column:user_id;type:varchar(36);not null;index"`
	VenueID      string `gorm:"column:venue_id;type:varchar(36);not null"`

	PointsAtRisk     int       `gorm:"column:points_at_risk;not null;default:0"`
	LastActivityDate time.Time `gorm:"column:last_activity_date;not null"`
	ExpirationDate   time.Time `gorm:"column:expiration_date;not null;index"`

	WarningSentAt        *time.Time `gorm:"column:warning_sent_at"`
	UserDismissedWarning bool       `gorm:"column:user_dismissed_warning;not null;default:false"`
	RemindLaterDate      *time.Time `gorm:"column:remind_later_date"`

	IsExpired            bool       `gorm:"column:is_expired;not null;default:false;index"`
	ExpirationExecutedAt *time.Time `gorm:"column:expiration_executed_at"`
	RemoteNotifiedAt     *time.Time `gorm:"column:remote_notified_at"`
	NotifyAttempts       int        `gorm:"column:notify_attempts;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

// TableName 指定資料表名稱
func (PointExpirationGORM) TableName() string {
	return "point_expirations"
}

func (g *PointExpirationGORM) toDomain() (*expiration.PointExpiration, error) {
	id, err := expiration.ExpirationIDFromString(g.ExpirationID)
	if err != nil {
		return nil, err
	}
	membershipID, err := membership.MembershipIDFromString(g.MembershipID)
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
	atRisk, err := points.NewPointsAmount(g.PointsAtRisk)
	if err != nil {
		return nil, err
	}

	return expiration.Reconstruct(expiration.Snapshot{
		ID:                   id,
		MembershipID:         membershipID,
		UserID:               userID,
		VenueID:              venueID,
		PointsAtRisk:         atRisk,
		LastActivityDate:     g.LastActivityDate,
		ExpirationDate:       g.ExpirationDate,
		WarningSentAt:        g.WarningSentAt,
		UserDismissedWarning: g.UserDismissedWarning,
		RemindLaterDate:      g.RemindLaterDate,
		IsExpired:            g.IsExpired,
		ExpirationExecutedAt: g.ExpirationExecutedAt,
		RemoteNotifiedAt:     g.RemoteNotifiedAt,
		NotifyAttempts:       g.NotifyAttempts,
		CreatedAt:            g.CreatedAt,
		UpdatedAt:            g.UpdatedAt,
	}), nil
}

func toGORM(e *expiration.PointExpiration) *PointExpirationGORM {
	s := e.Snapshot()
	return &PointExpirationGORM{
		ExpirationID:         s.ID.String(),
		MembershipID:         s.MembershipID.String(),
		UserID:               s.UserID.String(),
		VenueID:              s.VenueID.String(),
		PointsAtRisk:         s.PointsAtRisk.Value(),
		LastActivityDate:     s.LastActivityDate,
		ExpirationDate:       s.ExpirationDate,
		WarningSentAt:        s.WarningSentAt,
		UserDismissedWarning: s.UserDismissedWarning,
		RemindLaterDate:      s.RemindLaterDate,
		IsExpired:            s.IsExpired,
		ExpirationExecutedAt: s.ExpirationExecutedAt,
		RemoteNotifiedAt:     s.RemoteNotifiedAt,
		NotifyAttempts:       s.NotifyAttempts,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func toDomainList(models []PointExpirationGORM) ([]*expiration.PointExpiration, error) {
	out := make([]*expiration.PointExpiration, 0, len(models))
	for i := range models {
		e, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
