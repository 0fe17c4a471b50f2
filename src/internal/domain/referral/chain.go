package referral

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxLevels 推薦鏈最多追溯的上線層數
const MaxLevels = 5

// ===========================
// Chain 聚合根
// ===========================

// Chain 用戶的推薦鏈（最多 5 層上線）
//
// 不變式：
//   - 每一層推薦人都不是用戶本人
//   - 推薦人彼此不重複
//   - 拓撲建立後不可變，只有 earningsByLevel 會累加
//   - earningsOnly 的鏈只保存分潤，上線拓撲尚未取得，不能當作「沒有上線」
type Chain struct {
	userID       shared.UserID
	referrers    [MaxLevels]shared.UserID // 空 ID 表示該層無推薦人
	earnings     [MaxLevels]decimal.Decimal
	earningsOnly bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewChain 創建推薦鏈
//
// referrers[0] 為第 1 層（直接推薦人），依序往上；長度超過 5 返回 ErrInvalidLevel。
func NewChain(userID shared.UserID, referrers []shared.UserID, now time.Time) (*Chain, error) {
	if userID.IsEmpty() {
		return nil, shared.ErrInvalidUserID
	}
	if len(referrers) > MaxLevels {
		return nil, ErrInvalidLevel.WithContext("levels", len(referrers))
	}

	c := &Chain{
		userID:    userID,
		createdAt: now,
		updatedAt: now,
	}
	for i := range c.earnings {
		c.earnings[i] = decimal.Zero
	}
	copy(c.referrers[:], referrers)

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewEarningsHolder 為本地還沒有推薦鏈的推薦人建立只保存累計分潤的鏈
//
// 上線拓撲未知，之後由 ResolveTopology 補上。
func NewEarningsHolder(userID shared.UserID, now time.Time) (*Chain, error) {
	c, err := NewChain(userID, nil, now)
	if err != nil {
		return nil, err
	}
	c.earningsOnly = true
	return c, nil
}

// NewChainFromReferrer 以推薦人的鏈推導新用戶的鏈
//
// 第 1 層為推薦人本人，第 N 層為推薦人鏈的第 N-1 層。
// referrerChain 為 nil 表示推薦人本身沒有上線。
func NewChainFromReferrer(userID, referrerID shared.UserID, referrerChain *Chain, now time.Time) (*Chain, error) {
	if referrerID.IsEmpty() {
		return nil, shared.ErrInvalidUserID
	}

	referrers := make([]shared.UserID, 0, MaxLevels)
	referrers = append(referrers, referrerID)
	if referrerChain != nil {
		for level := 1; level < MaxLevels; level++ {
			referrers = append(referrers, referrerChain.referrers[level-1])
		}
	}
	return NewChain(userID, referrers, now)
}

// ReconstructChain 從持久化狀態重建推薦鏈（不做業務驗證）
func ReconstructChain(
	userID shared.UserID,
	referrers [MaxLevels]shared.UserID,
	earnings [MaxLevels]decimal.Decimal,
	earningsOnly bool,
	createdAt, updatedAt time.Time,
) *Chain {
	return &Chain{
		userID:       userID,
		referrers:    referrers,
		earnings:     earnings,
		earningsOnly: earningsOnly,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (c *Chain) validate() error {
	seen := make(map[string]int, MaxLevels)
	for i, r := range c.referrers {
		if r.IsEmpty() {
			continue
		}
		level := i + 1
		if r.Equals(c.userID) {
			return ErrSelfReferral.WithContext("user_id", c.userID.String(), "level", level)
		}
		if prev, ok := seen[r.String()]; ok {
			return ErrDuplicateReferrer.WithContext(
				"referrer_id", r.String(),
				"level", level,
				"first_level", prev,
			)
		}
		seen[r.String()] = level
	}
	return nil
}

// ===========================
// 查詢方法
// ===========================

func (c *Chain) UserID() shared.UserID { return c.userID }

// TopologyKnown 上線拓撲是否已確定（false 表示只保存分潤）
func (c *Chain) TopologyKnown() bool { return !c.earningsOnly }

func (c *Chain) CreatedAt() time.Time { return c.createdAt }

func (c *Chain) UpdatedAt() time.Time { return c.updatedAt }

// ReferrerAt 指定層級的推薦人；層級無效或該層為空時 ok 為 false
func (c *Chain) ReferrerAt(level int) (shared.UserID, bool) {
	if level < 1 || level > MaxLevels {
		return shared.UserID{}, false
	}
	r := c.referrers[level-1]
	return r, !r.IsEmpty()
}

// Referrers 各層推薦人（包含空層）
func (c *Chain) Referrers() [MaxLevels]shared.UserID {
	return c.referrers
}

// LevelOf 推薦人在鏈中的層級，不在鏈中返回 0
func (c *Chain) LevelOf(referrerID shared.UserID) int {
	for i, r := range c.referrers {
		if !r.IsEmpty() && r.Equals(referrerID) {
			return i + 1
		}
	}
	return 0
}

// ActiveLevels 已填入推薦人的層數
func (c *Chain) ActiveLevels() int {
	n := 0
	for _, r := range c.referrers {
		if !r.IsEmpty() {
			n++
		}
	}
	return n
}

// EarningsAt 指定層級累計分潤
func (c *Chain) EarningsAt(level int) decimal.Decimal {
	if level < 1 || level > MaxLevels {
		return decimal.Zero
	}
	return c.earnings[level-1]
}

// EarningsByLevel 各層累計分潤
func (c *Chain) EarningsByLevel() [MaxLevels]decimal.Decimal {
	return c.earnings
}

// TotalEarnings 所有層級累計分潤
func (c *Chain) TotalEarnings() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.earnings {
		total = total.Add(e)
	}
	return total
}

// ===========================
// 業務方法
// ===========================

// AddEarnings 累加第 level 層的分潤
//
// 這條鏈屬於推薦人本人：level 表示「從第幾層下線獲得」。
func (c *Chain) AddEarnings(level int, amount decimal.Decimal, now time.Time) error {
	if level < 1 || level > MaxLevels {
		return ErrInvalidLevel.WithContext("level", level)
	}
	if amount.IsNegative() {
		return ErrInvalidPointsEarned.WithContext("amount", amount.String())
	}
	c.earnings[level-1] = c.earnings[level-1].Add(amount)
	c.updatedAt = now
	return nil
}

// ResolveTopology 為只保存分潤的鏈補上上線拓撲，已累計的分潤保留
//
// 拓撲已確定的鏈返回 ErrChainAlreadyExists。
func (c *Chain) ResolveTopology(referrers []shared.UserID, now time.Time) error {
	if !c.earningsOnly {
		return ErrChainAlreadyExists.WithContext("user_id", c.userID.String())
	}
	if len(referrers) > MaxLevels {
		return ErrInvalidLevel.WithContext("levels", len(referrers))
	}

	prev := c.referrers
	c.referrers = [MaxLevels]shared.UserID{}
	copy(c.referrers[:], referrers)
	if err := c.validate(); err != nil {
		c.referrers = prev
		return err
	}
	c.earningsOnly = false
	c.updatedAt = now
	return nil
}
