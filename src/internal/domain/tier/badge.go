package tier

import "github.com/shopspring/decimal"

// Badge 成就徽章，可設定多個獨立條件（到訪次數、消費總額、推薦人數）
type Badge struct {
	ID                string
	Name              string
	RequiredVisits    *int
	RequiredSpending  *decimal.Decimal
	RequiredReferrals *int
	PointsReward      int
}

// Validate 條件必須為正數
func (b Badge) Validate() error {
	if b.ID == "" {
		return ErrInvalidConfig.WithContext("reason", "badge id is empty")
	}
	if b.RequiredVisits != nil && *b.RequiredVisits <= 0 {
		return ErrInvalidConfig.WithContext("reason", "required visits must be > 0", "badge", b.ID)
	}
	if b.RequiredSpending != nil && !b.RequiredSpending.IsPositive() {
		return ErrInvalidConfig.WithContext("reason", "required spending must be > 0", "badge", b.ID)
	}
	if b.RequiredReferrals != nil && *b.RequiredReferrals <= 0 {
		return ErrInvalidConfig.WithContext("reason", "required referrals must be > 0", "badge", b.ID)
	}
	return nil
}

// Stats 計算徽章進度所需的會員統計
type Stats struct {
	Visits    int
	Spending  decimal.Decimal
	Referrals int
}

// Criterion 徽章條件類型
type Criterion string

const (
	CriterionVisits    Criterion = "visits"
	CriterionSpending  Criterion = "spending"
	CriterionReferrals Criterion = "referrals"
)

// CriterionProgress 單一條件的進度（上限 1.0）
type CriterionProgress struct {
	Criterion Criterion
	Progress  float64
	Met       bool
}

// BadgeProgress 徽章整體進度
type BadgeProgress struct {
	BadgeID  string
	Earned   bool
	Overall  float64 // 各條件進度的算術平均
	Criteria []CriterionProgress
}

// CheckBadgeEarned 計算徽章進度
//
// 只有所有已設定的條件都達成才算獲得；沒有任何條件的徽章永遠不會獲得。
func CheckBadgeEarned(stats Stats, badge Badge) BadgeProgress {
	result := BadgeProgress{BadgeID: badge.ID}

	if badge.RequiredVisits != nil {
		result.Criteria = append(result.Criteria, ratio(CriterionVisits,
			decimal.NewFromInt(int64(stats.Visits)), decimal.NewFromInt(int64(*badge.RequiredVisits))))
	}
	if badge.RequiredSpending != nil {
		result.Criteria = append(result.Criteria, ratio(CriterionSpending, stats.Spending, *badge.RequiredSpending))
	}
	if badge.RequiredReferrals != nil {
		result.Criteria = append(result.Criteria, ratio(CriterionReferrals,
			decimal.NewFromInt(int64(stats.Referrals)), decimal.NewFromInt(int64(*badge.RequiredReferrals))))
	}

	if len(result.Criteria) == 0 {
		return result
	}

	sum := 0.0
	met := 0
	for _, c := range result.Criteria {
		sum += c.Progress
		if c.Met {
			met++
		}
	}
	result.Overall = sum / float64(len(result.Criteria))
	result.Earned = met == len(result.Criteria)
	return result
}

func ratio(c Criterion, have, need decimal.Decimal) CriterionProgress {
	if !need.IsPositive() {
		return CriterionProgress{Criterion: c, Progress: 1, Met: true}
	}
	p := have.Div(need)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		p = decimal.NewFromInt(1)
	}
	if p.IsNegative() {
		p = decimal.Zero
	}
	f, _ := p.Float64()
	return CriterionProgress{
		Criterion: c,
		Progress:  f,
		Met:       have.GreaterThanOrEqual(need),
	}
}
