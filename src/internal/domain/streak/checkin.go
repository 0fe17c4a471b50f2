package streak

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CheckInMarker 是 CheckInID 的標記類型
type CheckInMarker struct{}

// CheckInID 打卡記錄 ID
type CheckInID = shared.EntityID[CheckInMarker]

// NewCheckInID 生成新的打卡 ID
func NewCheckInID() CheckInID {
	return shared.NewEntityID[CheckInMarker]()
}

// CheckInIDFromString 從字串解析打卡 ID
func CheckInIDFromString(s string) (CheckInID, error) {
	return shared.EntityIDFromString[CheckInMarker](s, ErrInvalidCheckInID)
}

// Method 打卡方式
type Method string

const (
	MethodNFC    Method = "nfc"
	MethodQR     Method = "qr"
	MethodManual Method = "manual"
)

// IsValid 是否為已知打卡方式
func (m Method) IsValid() bool {
	return m == MethodNFC || m == MethodQR || m == MethodManual
}

// ===========================
// CheckIn 打卡記錄
// ===========================

// CheckIn 一次場館打卡（連續打卡計算讀取的歷史）
type CheckIn struct {
	id               CheckInID
	userID           shared.UserID
	venueID          shared.VenueID
	checkInTime      time.Time
	method           Method
	eventID          string
	streakDay        int
	streakMultiplier decimal.Decimal
	pointsEarned     int
}

// NewCheckIn 建立打卡記錄
func NewCheckIn(
	userID shared.UserID,
	venueID shared.VenueID,
	at time.Time,
	method Method,
	eventID string,
	streakDay int,
	pointsEarned int,
) (*CheckIn, error) {
	if userID.IsEmpty() || venueID.IsEmpty() {
		return nil, ErrInvalidCheckIn.WithContext("reason", "missing user or venue")
	}
	if !method.IsValid() {
		return nil, ErrInvalidCheckIn.WithContext("method", string(method))
	}
	if streakDay < 1 {
		return nil, ErrInvalidCheckIn.WithContext("streak_day", streakDay)
	}
	if pointsEarned < 0 {
		return nil, ErrInvalidCheckIn.WithContext("points_earned", pointsEarned)
	}

	return &CheckIn{
		id:               NewCheckInID(),
		userID:           userID,
		venueID:          venueID,
		checkInTime:      at,
		method:           method,
		eventID:          eventID,
		streakDay:        streakDay,
		streakMultiplier: Multiplier(streakDay),
		pointsEarned:     pointsEarned,
	}, nil
}

// ReconstructCheckIn 從持久化層重建
func ReconstructCheckIn(
	id CheckInID,
	userID shared.UserID,
	venueID shared.VenueID,
	at time.Time,
	method Method,
	eventID string,
	streakDay int,
	pointsEarned int,
) *CheckIn {
	return &CheckIn{
		id:               id,
		userID:           userID,
		venueID:          venueID,
		checkInTime:      at,
		method:           method,
		eventID:          eventID,
		streakDay:        streakDay,
		streakMultiplier: Multiplier(streakDay),
		pointsEarned:     pointsEarned,
	}
}

func (c *CheckIn) ID() CheckInID                     { return c.id }
func (c *CheckIn) UserID() shared.UserID             { return c.userID }
func (c *CheckIn) VenueID() shared.VenueID           { return c.venueID }
func (c *CheckIn) CheckInTime() time.Time            { return c.checkInTime }
func (c *CheckIn) Method() Method                    { return c.method }
func (c *CheckIn) EventID() string                   { return c.eventID }
func (c *CheckIn) StreakDay() int                    { return c.streakDay }
func (c *CheckIn) StreakMultiplier() decimal.Decimal { return c.streakMultiplier }
func (c *CheckIn) PointsEarned() int                 { return c.pointsEarned }

// IsStreakBonus 第二天起才有連續打卡加成
func (c *CheckIn) IsStreakBonus() bool {
	return c.streakDay > 1
}

// Repository 打卡記錄倉儲介面
type Repository interface {
	Save(ctx shared.TransactionContext, checkIn *CheckIn) error

	// FindLatest 返回 (user, venue) 最近一次打卡，沒有時返回 nil, nil
	FindLatest(ctx shared.TransactionContext, userID shared.UserID, venueID shared.VenueID) (*CheckIn, error)

	// FindByUser 依時間倒序列出用戶的打卡記錄，limit <= 0 表示不限
	FindByUser(ctx shared.TransactionContext, userID shared.UserID, limit int) ([]*CheckIn, error)
}
