package streak

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Window 連續打卡視窗：距上次打卡超過 24 小時即中斷（剛好 24 小時仍算連續）
const Window = 24 * time.Hour

// CheckInBasePoints 無消費打卡的基礎積分
const CheckInBasePoints = 50

var (
	one     = decimal.NewFromInt(1)
	weekend = decimal.NewFromFloat(1.2)

	streakTable = []decimal.Decimal{
		decimal.NewFromFloat(1.0),
		decimal.NewFromFloat(1.2),
		decimal.NewFromFloat(1.5),
		decimal.NewFromFloat(2.0),
		decimal.NewFromFloat(2.5),
	}
)

// latest 在歷史中找出 (user, venue) 的最近一次打卡
func latest(history []*CheckIn, userID shared.UserID, venueID shared.VenueID) *CheckIn {
	var last *CheckIn
	for _, c := range history {
		if c == nil || !c.userID.Equals(userID) || !c.venueID.Equals(venueID) {
			continue
		}
		if last == nil || c.checkInTime.After(last.checkInTime) {
			last = c
		}
	}
	return last
}

// CurrentStreak 計算在 now 打卡時的連續天數（>= 1）
//
// 沒有歷史 → 1；距上次超過 Window → 1；否則上次天數 + 1。
func CurrentStreak(history []*CheckIn, userID shared.UserID, venueID shared.VenueID, now time.Time) int {
	last := latest(history, userID, venueID)
	if last == nil {
		return 1
	}
	if now.Sub(last.checkInTime) > Window {
		return 1
	}
	return last.streakDay + 1
}

// ActiveStreakDay 不打卡時仍然有效的連續天數（消費加成用）
//
// 上次打卡仍在視窗內 → 上次天數，否則 1。
func ActiveStreakDay(history []*CheckIn, userID shared.UserID, venueID shared.VenueID, now time.Time) int {
	last := latest(history, userID, venueID)
	if last == nil || now.Sub(last.checkInTime) > Window {
		return 1
	}
	return last.streakDay
}

// HasCheckedInToday 同一場館、同一日曆日（場館時區）是否已打卡
func HasCheckedInToday(history []*CheckIn, userID shared.UserID, venueID shared.VenueID, now time.Time, loc *time.Location) bool {
	last := latest(history, userID, venueID)
	if last == nil {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	ly, lm, ld := last.checkInTime.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()
	return ly == ny && lm == nm && ld == nd
}

// Multiplier 連續天數加成 {1:1.0, 2:1.2, 3:1.5, 4:2.0, 5+:2.5}
func Multiplier(day int) decimal.Decimal {
	if day < 1 {
		return one
	}
	if day > len(streakTable) {
		return streakTable[len(streakTable)-1]
	}
	return streakTable[day-1]
}

// WeekendMultiplier 場館時區的週六、週日為 1.2，其餘 1.0
func WeekendMultiplier(t time.Time, loc *time.Location) decimal.Decimal {
	if loc == nil {
		loc = time.UTC
	}
	switch t.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return weekend
	}
	return one
}

// Breakdown 各項加成
type Breakdown struct {
	Event    decimal.Decimal
	Streak   decimal.Decimal
	Weekend  decimal.Decimal
	Combined decimal.Decimal
}

// CombinedMultiplier event × streak × weekend
//
// event 為零值時視為 1.0。
func CombinedMultiplier(event decimal.Decimal, streakDay int, at time.Time, loc *time.Location) Breakdown {
	if event.IsZero() {
		event = one
	}
	s := Multiplier(streakDay)
	w := WeekendMultiplier(at, loc)
	return Breakdown{
		Event:    event,
		Streak:   s,
		Weekend:  w,
		Combined: event.Mul(s).Mul(w),
	}
}
