package points

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultBaseRate 預設基礎回饋率（消費金額的 10%）
var DefaultBaseRate = decimal.NewFromFloat(0.10)

// ===========================
// CalculationService 領域服務
// ===========================

// CalculationService 積分計算領域服務
//
// 公式：points = amount × baseRate × (categoryMargin / venueMaxMargin) × bonusMultiplier
//
// 無狀態（baseRate 於建構時注入），可在多個 goroutine 間共享。
type CalculationService struct {
	baseRate decimal.Decimal
}

// NewCalculationService 建構函數
//
// baseRate 必須介於 (0, 1]，由設定檔提供（預設 DefaultBaseRate）。
func NewCalculationService(baseRate decimal.Decimal) (*CalculationService, error) {
	if !baseRate.IsPositive() || baseRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidBaseRate.WithContext("base_rate", baseRate.String())
	}
	return &CalculationService{baseRate: baseRate}, nil
}

// BaseRate 返回基礎回饋率
func (s *CalculationService) BaseRate() decimal.Decimal {
	return s.baseRate
}

// CalculatePoints 計算單筆消費的積分
//
// 業務規則：
// - venueMaxMargin <= 0 時毛利比率視為 0（結果為 0，不是錯誤）
// - 結果只在最後四捨五入一次到小數兩位（遠離零）
// - 負數金額或負數倍數為驗證錯誤
func (s *CalculationService) CalculatePoints(
	amount, categoryMargin, venueMaxMargin, bonusMultiplier decimal.Decimal,
) (decimal.Decimal, error) {
	raw, err := s.rawPoints(amount, categoryMargin, venueMaxMargin, bonusMultiplier)
	if err != nil {
		return decimal.Zero, err
	}
	return raw.Round(2), nil
}

func (s *CalculationService) rawPoints(
	amount, categoryMargin, venueMaxMargin, bonusMultiplier decimal.Decimal,
) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount %s", ErrInvalidAmount, amount.String())
	}
	if bonusMultiplier.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: multiplier %s", ErrInvalidMultiplier, bonusMultiplier.String())
	}

	return amount.
		Mul(s.baseRate).
		Mul(MarginRatio(categoryMargin, venueMaxMargin)).
		Mul(bonusMultiplier), nil
}

// MarginRatio 毛利比率 categoryMargin / venueMaxMargin（venueMaxMargin <= 0 時為 0）
func MarginRatio(categoryMargin, venueMaxMargin decimal.Decimal) decimal.Decimal {
	if !venueMaxMargin.IsPositive() {
		return decimal.Zero
	}
	return categoryMargin.Div(venueMaxMargin)
}

// CalculateSimplePoints 以商品類別查找場館毛利後計算積分
func (s *CalculationService) CalculateSimplePoints(
	amount decimal.Decimal,
	category ProductCategory,
	venue VenueMargins,
	bonusMultiplier decimal.Decimal,
) (decimal.Decimal, error) {
	return s.CalculatePoints(amount, venue.MarginFor(category), venue.MaxMargin, bonusMultiplier)
}

// ===========================
// 訂單計算
// ===========================

// OrderItem 訂單明細
type OrderItem struct {
	Name            string
	Price           decimal.Decimal
	Quantity        int
	Category        ProductCategory
	BonusMultiplier decimal.Decimal // 零值視為 1.0
}

// BreakdownItem 單一明細的積分拆解
type BreakdownItem struct {
	Name        string
	Amount      decimal.Decimal
	Margin      decimal.Decimal
	MarginRatio decimal.Decimal
	Multiplier  decimal.Decimal
	Points      decimal.Decimal
}

// CalculationResult 訂單積分計算結果
//
// BonusPoints = TotalPoints - BasePoints，BasePoints 以倍數 1.0 計算。
// RawTotalPoints 為未四捨五入的加總，入帳時只由它四捨五入到整數點一次。
type CalculationResult struct {
	TotalPoints    decimal.Decimal
	RawTotalPoints decimal.Decimal
	BasePoints     decimal.Decimal
	BonusPoints    decimal.Decimal
	Breakdown      []BreakdownItem
}

// CalculatePointsForOrder 計算整筆訂單的積分
//
// 各明細的未四捨五入結果先加總，報表中的每個數值各自只四捨五入一次。
func (s *CalculationService) CalculatePointsForOrder(
	items []OrderItem,
	venue VenueMargins,
) (*CalculationResult, error) {
	total := decimal.Zero
	base := decimal.Zero
	breakdown := make([]BreakdownItem, 0, len(items))

	for i, item := range items {
		if item.Quantity < 0 {
			return nil, fmt.Errorf("%w: item %d quantity %d", ErrInvalidAmount, i, item.Quantity)
		}

		multiplier := item.BonusMultiplier
		if multiplier.IsZero() {
			multiplier = decimal.NewFromInt(1)
		}

		amount := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		margin := venue.MarginFor(item.Category)

		itemPoints, err := s.rawPoints(amount, margin, venue.MaxMargin, multiplier)
		if err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", i, item.Name, err)
		}
		itemBase, err := s.rawPoints(amount, margin, venue.MaxMargin, decimal.NewFromInt(1))
		if err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", i, item.Name, err)
		}

		total = total.Add(itemPoints)
		base = base.Add(itemBase)

		breakdown = append(breakdown, BreakdownItem{
			Name:        item.Name,
			Amount:      amount,
			Margin:      margin,
			MarginRatio: MarginRatio(margin, venue.MaxMargin).Round(4),
			Multiplier:  multiplier,
			Points:      itemPoints.Round(2),
		})
	}

	totalRounded := total.Round(2)
	baseRounded := base.Round(2)

	return &CalculationResult{
		TotalPoints:    totalRounded,
		RawTotalPoints: total,
		BasePoints:     baseRounded,
		BonusPoints:    totalRounded.Sub(baseRounded),
		Breakdown:      breakdown,
	}, nil
}
