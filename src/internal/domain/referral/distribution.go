package referral

import (
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultRewardRate 每一層上線獲得下線積分的比例（不隨層級遞減）
var DefaultRewardRate = decimal.NewFromFloat(0.25)

// RewardDistribution 單一層級的分潤
type RewardDistribution struct {
	ReferrerID       shared.UserID
	Level            int
	RewardAmount     decimal.Decimal
	BasePointsEarned decimal.Decimal
}

// DistributionService 推薦分潤計算（純計算，無 I/O）
type DistributionService struct {
	rate decimal.Decimal
}

// NewDistributionService 創建分潤計算服務，rate 必須介於 (0, 1]
func NewDistributionService(rate decimal.Decimal) (*DistributionService, error) {
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidRewardRate.WithContext("rate", rate.String())
	}
	return &DistributionService{rate: rate}, nil
}

// Rate 分潤比例
func (s *DistributionService) Rate() decimal.Decimal {
	return s.rate
}

// CalculateRewardDistribution 計算各層分潤
//
// 每個有推薦人的層級都得到 pointsEarned × rate，不做四捨五入；
// 空層不出現在結果中。
func (s *DistributionService) CalculateRewardDistribution(pointsEarned decimal.Decimal, chain *Chain) (map[int]RewardDistribution, error) {
	if pointsEarned.IsNegative() {
		return nil, ErrInvalidPointsEarned.WithContext("points_earned", pointsEarned.String())
	}

	result := make(map[int]RewardDistribution, MaxLevels)
	if chain == nil {
		return result, nil
	}

	reward := pointsEarned.Mul(s.rate)
	for level := 1; level <= MaxLevels; level++ {
		referrerID, ok := chain.ReferrerAt(level)
		if !ok {
			continue
		}
		result[level] = RewardDistribution{
			ReferrerID:       referrerID,
			Level:            level,
			RewardAmount:     reward,
			BasePointsEarned: pointsEarned,
		}
	}
	return result, nil
}

// TotalDistributed 分潤總額
func TotalDistributed(distributions map[int]RewardDistribution) decimal.Decimal {
	total := decimal.Zero
	for _, d := range distributions {
		total = total.Add(d.RewardAmount)
	}
	return total
}
