package streak

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/streak"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
)

// CheckInGORM 打卡資料表模型
type CheckInGORM struct {
	CheckInID    string    `gorm:"column:check_in_id;type:varchar(36);primaryKey"`
	UserID       string    `gorm:"column:user_id;type:varchar(36);not null;index:idx_check_in_member,priority:1"`
	VenueID      string    `gorm:"column:venue_id;type:varchar(36);not null;index:idx_check_in_member,priority:2"`
	CheckInTime  time.Time `gorm:"column:check_in_time;not null;index:idx_check_in_member,priority:3"`
	Method       string    `gorm:"column:method;type:varchar(16);not null"`
	EventID      *string   `gorm:"column:event_id;type:varchar(36)"`
	StreakDay    int       `gorm:"column:streak_day;not null;check:streak_day >= 1"`
	PointsEarned int       `gorm:"column:points_earned;not null;default:0"`
}

// TableName 指定資料表名稱
func (CheckInGORM) TableName() string {
	return "check_ins"
}

func (g *CheckInGORM) toDomain() (*streak.CheckIn, error) {
	id, err := streak.CheckInIDFromString(g.CheckInID)
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
	return streak.ReconstructCheckIn(
		id,
		userID,
		venueID,
		g.CheckInTime,
		streak.Method(g.Method),
		gormtx.StringValue(g.EventID),
		g.StreakDay,
		g.PointsEarned,
	), nil
}

func toGORM(c *streak.CheckIn) *CheckInGORM {
	return &CheckInGORM{
		CheckInID:    c.ID().String(),
		UserID:       c.UserID().String(),
		VenueID:      c.VenueID().String(),
		CheckInTime:  c.CheckInTime(),
		Method:       string(c.Method()),
		EventID:      gormtx.NullableString(c.EventID()),
		StreakDay:    c.StreakDay(),
		PointsEarned: c.PointsEarned(),
	}
}
