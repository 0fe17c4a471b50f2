package tier

import (
	"fmt"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/shopspring/decimal"
)

// CalculateTier 返回 MinSpend <= spending 的最高等級
//
// spending 低於最低等級門檻時返回最低等級。
func CalculateTier(spending decimal.Decimal, cfg *Config) Level {
	result := cfg.Levels[0]
	for _, l := range cfg.Levels[1:] {
		if spending.GreaterThanOrEqual(l.MinSpend) {
			result = l
		}
	}
	return result
}

// TierMultiplier 等級的積分倍數
func TierMultiplier(name string, cfg *Config) (decimal.Decimal, error) {
	l, ok := cfg.LevelByName(name)
	if !ok {
		return decimal.Zero, ErrUnknownTier.WithContext("tier", name)
	}
	return l.Multiplier, nil
}

// ===========================
// Engine 等級狀態機
// ===========================

// Direction 等級變更方向
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionSame Direction = "reset" // 重置但等級不變
)

// Change 一次等級檢查的結果
type Change struct {
	Changed   bool
	From      string
	To        string
	Direction Direction
}

func noChange(current string) Change {
	return Change{From: current, To: current, Direction: DirectionNone}
}

// Engine 等級領域服務（無狀態）
type Engine struct{}

// NewEngine 建構函數
func NewEngine() *Engine {
	return &Engine{}
}

// CheckAndUpdateTier 依計級消費重新計算等級，不同時套用到會籍並記錄事件
//
// 冪等：等級未變時不做任何修改。計級消費在兩次明確降級或重置之間只增不減，
// 因此在設定不變的情況下這裡只會升級；降級只會因為場館調高門檻而出現。
func (e *Engine) CheckAndUpdateTier(m *membership.Membership, cfg *Config, now time.Time) (Change, error) {
	currentIdx := cfg.IndexOf(m.Tier())
	if currentIdx < 0 {
		return Change{}, ErrUnknownTier.WithContext("tier", m.Tier(), "membership_id", m.ID().String())
	}

	qualifying := m.QualifyingSpend()
	target := CalculateTier(qualifying, cfg)
	targetIdx := cfg.IndexOf(target.Name)

	switch {
	case targetIdx > currentIdx:
		if err := m.UpgradeTier(target.Name, now); err != nil {
			return Change{}, fmt.Errorf("upgrade tier: %w", err)
		}
		return Change{Changed: true, From: cfg.Levels[currentIdx].Name, To: target.Name, Direction: DirectionUp}, nil
	case targetIdx < currentIdx:
		// floor = 目前計級消費，不改變偏移
		if err := m.DowngradeTier(target.Name, qualifying, now); err != nil {
			return Change{}, fmt.Errorf("downgrade tier: %w", err)
		}
		return Change{Changed: true, From: cfg.Levels[currentIdx].Name, To: target.Name, Direction: DirectionDown}, nil
	default:
		return noChange(m.Tier()), nil
	}
}

// Demote 明確的降級觸發：下降一個等級
//
// 已在最低等級時不變。
func (e *Engine) Demote(m *membership.Membership, cfg *Config, now time.Time) (Change, error) {
	idx := cfg.IndexOf(m.Tier())
	if idx < 0 {
		return Change{}, ErrUnknownTier.WithContext("tier", m.Tier(), "membership_id", m.ID().String())
	}
	if idx == 0 {
		return noChange(m.Tier()), nil
	}

	target := cfg.Levels[idx-1]
	if err := m.DowngradeTier(target.Name, target.MinSpend, now); err != nil {
		return Change{}, fmt.Errorf("demote: %w", err)
	}
	return Change{Changed: true, From: cfg.Levels[idx].Name, To: target.Name, Direction: DirectionDown}, nil
}

// ===========================
// 進度
// ===========================

// Progress 等級進度
type Progress struct {
	CurrentTier        Level
	NextTier           *Level
	CurrentSpending    decimal.Decimal
	NextTierThreshold  *decimal.Decimal
	ProgressPercentage decimal.Decimal // [0, 100]，兩位小數
	AmountToNextTier   *decimal.Decimal
	DaysAtCurrentTier  int
	Perks              []Perk
	Multiplier         decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// CalculateProgress 計算會籍到下一等級的進度
//
// 最高等級時進度固定為 100 且 NextTier 為 nil。
func (e *Engine) CalculateProgress(m *membership.Membership, cfg *Config, now time.Time) (Progress, error) {
	current, ok := cfg.LevelByName(m.Tier())
	if !ok {
		return Progress{}, ErrUnknownTier.WithContext("tier", m.Tier(), "membership_id", m.ID().String())
	}

	spending := m.QualifyingSpend()
	p := Progress{
		CurrentTier:       current,
		CurrentSpending:   spending,
		DaysAtCurrentTier: daysBetween(m.TierSince(), now),
		Perks:             current.Perks,
		Multiplier:        current.Multiplier,
	}

	next := cfg.Next(current.Name)
	if next == nil {
		p.ProgressPercentage = hundred
		return p, nil
	}

	threshold := next.MinSpend
	remaining := threshold.Sub(spending)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	tierRange := threshold.Sub(current.MinSpend)
	pct := decimal.Zero
	if tierRange.IsPositive() {
		pct = spending.Sub(current.MinSpend).Div(tierRange).Mul(hundred)
	}

	p.NextTier = next
	p.NextTierThreshold = &threshold
	p.AmountToNextTier = &remaining
	p.ProgressPercentage = clampPercentage(pct).Round(2)
	return p, nil
}

func clampPercentage(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// ===========================
// 維護與重置
// ===========================

// Maintenance 不活躍降級檢查結果
type Maintenance struct {
	ShouldDowngrade bool
	DaysInactive    int
	ThresholdDays   int
	Reason          string
}

// CheckTierMaintenance 不活躍天數超過 inactivity + grace 時標記降級
//
// 起算點為 max(lastActivityDate, tierDowngradedAt)，連續降級因此需要再經過一整段門檻期。
// 是否立即降級由呼叫端決定。
func (e *Engine) CheckTierMaintenance(m *membership.Membership, cfg *Config, now time.Time) Maintenance {
	if cfg.InactivityDowngradeAfterDays == nil {
		return Maintenance{}
	}

	threshold := *cfg.InactivityDowngradeAfterDays
	if cfg.GracePeriodDays != nil {
		threshold += *cfg.GracePeriodDays
	}

	since := m.LastActivityDate()
	if d := m.TierDowngradedAt(); d != nil && d.After(since) {
		since = *d
	}
	days := daysBetween(since, now)

	result := Maintenance{DaysInactive: days, ThresholdDays: threshold}
	if days > threshold && cfg.IndexOf(m.Tier()) > 0 {
		result.ShouldDowngrade = true
		result.Reason = fmt.Sprintf("inactive for %d days", days)
	}
	return result
}

// ShouldResetTier 自上次重置（或加入）起是否已跨過重置週期
func (e *Engine) ShouldResetTier(m *membership.Membership, cfg *Config, now time.Time) bool {
	anchor := m.JoinedAt()
	if r := m.TierResetAt(); r != nil {
		anchor = *r
	}

	var boundary time.Time
	switch cfg.ResetPolicy {
	case ResetMonthly:
		boundary = anchor.AddDate(0, 1, 0)
	case ResetQuarterly:
		boundary = anchor.AddDate(0, 3, 0)
	case ResetAnnually:
		boundary = anchor.AddDate(1, 0, 0)
	default:
		return false
	}
	return !now.Before(boundary)
}

// ApplyReset 依 ResetMode 執行重置（未到週期時不變）
func (e *Engine) ApplyReset(m *membership.Membership, cfg *Config, now time.Time) (Change, error) {
	if !e.ShouldResetTier(m, cfg, now) {
		return noChange(m.Tier()), nil
	}

	from := m.Tier()
	var target Level
	zeroSpend := false
	switch cfg.ResetMode {
	case ResetModeZeroSpend:
		target = cfg.BaseLevel()
		zeroSpend = true
	case ResetModeRecomputeTier:
		target = CalculateTier(m.TotalSpent(), cfg)
	default:
		return Change{}, ErrInvalidConfig.WithContext("reason", "reset mode not configured", "venue_id", cfg.VenueID.String())
	}

	if err := m.ResetTier(target.Name, zeroSpend, now); err != nil {
		return Change{}, fmt.Errorf("reset tier: %w", err)
	}

	dir := DirectionSame
	fromIdx, toIdx := cfg.IndexOf(from), cfg.IndexOf(target.Name)
	switch {
	case toIdx > fromIdx:
		dir = DirectionUp
	case toIdx < fromIdx:
		dir = DirectionDown
	}
	return Change{Changed: true, From: from, To: target.Name, Direction: dir}, nil
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}
