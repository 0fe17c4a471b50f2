package referral

import (
	"sort"
	"strings"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Payout 遠端確認的單筆分潤
type Payout struct {
	ReferrerID shared.UserID
	Level      int
	Amount     decimal.Decimal
}

// DistributionRecord 一個積分事件的分潤處理記錄
//
// eventKey 唯一：同一事件只會有一筆記錄，重複處理時直接返回已存結果。
type DistributionRecord struct {
	eventKey     string
	userID       shared.UserID
	pointsEarned decimal.Decimal
	payouts      []Payout
	processedAt  time.Time
}

// NewDistributionRecord 創建分潤記錄，payouts 依層級排序
func NewDistributionRecord(
	eventKey string,
	userID shared.UserID,
	pointsEarned decimal.Decimal,
	payouts []Payout,
	processedAt time.Time,
) (*DistributionRecord, error) {
	if strings.TrimSpace(eventKey) == "" {
		return nil, ErrInvalidEventKey
	}
	if userID.IsEmpty() {
		return nil, shared.ErrInvalidUserID
	}
	if pointsEarned.IsNegative() {
		return nil, ErrInvalidPointsEarned.WithContext("points_earned", pointsEarned.String())
	}
	for _, p := range payouts {
		if p.Level < 1 || p.Level > MaxLevels {
			return nil, ErrInvalidLevel.WithContext("level", p.Level)
		}
	}

	return ReconstructDistributionRecord(eventKey, userID, pointsEarned, payouts, processedAt), nil
}

// ReconstructDistributionRecord 從持久化狀態重建
func ReconstructDistributionRecord(
	eventKey string,
	userID shared.UserID,
	pointsEarned decimal.Decimal,
	payouts []Payout,
	processedAt time.Time,
) *DistributionRecord {
	sorted := make([]Payout, len(payouts))
	copy(sorted, payouts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	return &DistributionRecord{
		eventKey:     eventKey,
		userID:       userID,
		pointsEarned: pointsEarned,
		payouts:      sorted,
		processedAt:  processedAt,
	}
}

func (r *DistributionRecord) EventKey() string              { return r.eventKey }
func (r *DistributionRecord) UserID() shared.UserID         { return r.userID }
func (r *DistributionRecord) PointsEarned() decimal.Decimal { return r.pointsEarned }
func (r *DistributionRecord) ProcessedAt() time.Time        { return r.processedAt }

// Payouts 分潤明細（副本）
func (r *DistributionRecord) Payouts() []Payout {
	out := make([]Payout, len(r.payouts))
	copy(out, r.payouts)
	return out
}

// AmountsByReferrer 以推薦人為鍵的分潤金額
func (r *DistributionRecord) AmountsByReferrer() map[shared.UserID]decimal.Decimal {
	out := make(map[shared.UserID]decimal.Decimal, len(r.payouts))
	for _, p := range r.payouts {
		out[p.ReferrerID] = out[p.ReferrerID].Add(p.Amount)
	}
	return out
}

// Total 分潤總額
func (r *DistributionRecord) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.payouts {
		total = total.Add(p.Amount)
	}
	return total
}
