package referral

import (
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/gormtx"
	"github.com/shopspring/decimal"
)

// ===========================
// 推薦鏈
// ===========================

// ChainGORM 推薦鏈資料表模型，五個層級攤平成欄位（NULL 表示該層無推薦人）
type ChainGORM struct {
	UserID string `gorm:"column:user_id;type:varchar(36);primaryKey"`

	Referrer1 *string `gorm:"column:referrer_1;type:varchar(36);index"`
	Referrer2 *string `gorm:"column:referrer_2;type:varchar(36)"`
	Referrer3 *string `gorm:"column:referrer_3;type:varchar(36)"`
	Referrer4 *string `gorm:"column:referrer_4;type:varchar(36)"`
	Referrer5 *string `gorm:"column:referrer_5;type:varchar(36)"`

	Earnings1 decimal.Decimal `gorm:"column:earnings_1;type:decimal(20,6);not null"`
	Earnings2 decimal.Decimal `gorm:"column:earnings_2;type:decimal(20,6);not null"`
	Earnings3 decimal.Decimal `gorm:"column:earnings_3;type:decimal(20,6);not null"`
	Earnings4 decimal.Decimal `gorm:"column:earnings_4;type:decimal(20,6);not null"`
	Earnings5 decimal.Decimal `gorm:"column:earnings_5;type:decimal(20,6);not null"`

	// EarningsOnly 只保存推薦人分潤，上線拓撲尚未取得
	EarningsOnly bool `gorm:"column:earnings_only;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

// TableName 指定資料表名稱
func (ChainGORM) TableName() string {
	return "referral_chains"
}

func (g *ChainGORM) referrerColumns() [referral.MaxLevels]*string {
	return [referral.MaxLevels]*string{g.Referrer1, g.Referrer2, g.Referrer3, g.Referrer4, g.Referrer5}
}

func (g *ChainGORM) toDomain() (*referral.Chain, error) {
	userID, err := shared.UserIDFromString(g.UserID)
	if err != nil {
		return nil, err
	}

	var referrers [referral.MaxLevels]shared.UserID
	for i, col := range g.referrerColumns() {
		if col == nil {
			continue
		}
		id, err := shared.UserIDFromString(*col)
		if err != nil {
			return nil, err
		}
		referrers[i] = id
	}
	earnings := [referral.MaxLevels]decimal.Decimal{g.Earnings1, g.Earnings2, g.Earnings3, g.Earnings4, g.Earnings5}

	return referral.ReconstructChain(userID, referrers, earnings, g.EarningsOnly, g.CreatedAt, g.UpdatedAt), nil
}

func chainToGORM(c *referral.Chain) *ChainGORM {
	var cols [referral.MaxLevels]*string
	for i, r := range c.Referrers() {
		if !r.IsEmpty() {
			cols[i] = gormtx.NullableString(r.String())
		}
	}
	e := c.EarningsByLevel()
	return &ChainGORM{
		UserID:    c.UserID().String(),
		Referrer1: cols[0],
		Referrer2: cols[1],
		Referrer3: cols[2],
		Referrer4: cols[3],
		Referrer5: cols[4],
		Earnings1: e[0],
		Earnings2: e[1],
		Earnings3: e[2],
		Earnings4: e[3],
		Earnings5: e[4],

		EarningsOnly: !c.TopologyKnown(),
		CreatedAt:    c.CreatedAt(),
		UpdatedAt:    c.UpdatedAt(),
	}
}

// ===========================
// 分潤記錄
// ===========================

// DistributionRecordGORM 分潤記錄（event_key 唯一，重複寫入即代表已處理）
type DistributionRecordGORM struct {
	EventKey     string                   `gorm:"column:event_key;type:varchar(128);primaryKey"`
	UserID       string                   `gorm:"column:user_id;type:varchar(36);not null;index"`
	PointsEarned decimal.Decimal          `gorm:"column:points_earned;type:decimal(20,6);not null"`
	ProcessedAt  time.Time                `gorm:"column:processed_at;not null"`
	Payouts      []DistributionPayoutGORM `gorm:"foreignKey:EventKey;references:EventKey;constraint:OnDelete:CASCADE"`
}

// TableName 指定資料表名稱
func (DistributionRecordGORM) TableName() string {
	return "referral_distributions"
}

// DistributionPayoutGORM 分潤明細
type DistributionPayoutGORM struct {
	EventKey   string          `gorm:"column:event_key;type:varchar(128);primaryKey"`
	Level      int             `gorm:"column:level;primaryKey;autoIncrement:false"`
	ReferrerID string          `gorm:"column:referrer_id;type:varchar(36);not null;index"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(20,6);not null"`
}

// TableName 指定資料表名稱
func (DistributionPayoutGORM) TableName() string {
	return "referral_distribution_payouts"
}

func (g *DistributionRecordGORM) toDomain() (*referral.DistributionRecord, error) {
	userID, err := shared.UserIDFromString(g.UserID)
	if err != nil {
		return nil, err
	}
	payouts := make([]referral.Payout, 0, len(g.Payouts))
	for _, p := range g.Payouts {
		referrerID, err := shared.UserIDFromString(p.ReferrerID)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, referral.Payout{ReferrerID: referrerID, Level: p.Level, Amount: p.Amount})
	}
	return referral.ReconstructDistributionRecord(g.EventKey, userID, g.PointsEarned, payouts, g.ProcessedAt), nil
}

func recordToGORM(r *referral.DistributionRecord) *DistributionRecordGORM {
	payouts := make([]DistributionPayoutGORM, 0, len(r.Payouts()))
	for _, p := range r.Payouts() {
		payouts = append(payouts, DistributionPayoutGORM{
			EventKey:   r.EventKey(),
			Level:      p.Level,
			ReferrerID: p.ReferrerID.String(),
			Amount:     p.Amount,
		})
	}
	return &DistributionRecordGORM{
		EventKey:     r.EventKey(),
		UserID:       r.UserID().String(),
		PointsEarned: r.PointsEarned(),
		ProcessedAt:  r.ProcessedAt(),
		Payouts:      payouts,
	}
}
