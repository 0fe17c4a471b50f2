package points

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PointsAmount 積分數量值對象（整數點數）
// 設計原則：值對象不可變、自我驗證
//
// 計算結果是兩位小數的 decimal，會籍餘額則以整數點數記帳，
// 轉換統一經過 FromDecimal。
type PointsAmount struct {
	value int
}

// NewPointsAmount 建構函數（checked 版本）
//
// 建構約束：積分數量必須 >= 0（不存在負數積分的概念）
func NewPointsAmount(value int) (PointsAmount, error) {
	if value < 0 {
		return PointsAmount{}, fmt.Errorf(
			"%w: attempted to create PointsAmount with value %d",
			ErrNegativePointsAmount,
			value,
		)
	}
	return PointsAmount{value: value}, nil
}

// FromDecimal 將計算得到的積分轉為整數點數（四捨五入，遠離零）
func FromDecimal(d decimal.Decimal) (PointsAmount, error) {
	return NewPointsAmount(int(d.Round(0).IntPart()))
}

// Zero 零積分
func Zero() PointsAmount {
	return PointsAmount{}
}

// newPointsAmountUnchecked 內部建構函數（unchecked 版本）
//
// 前提條件：調用者必須保證 value >= 0
func newPointsAmountUnchecked(value int) PointsAmount {
	return PointsAmount{value: value}
}

// Value 獲取積分數量
func (p PointsAmount) Value() int {
	return p.value
}

// Decimal 轉為 decimal（用於推薦分潤等需要小數的計算）
func (p PointsAmount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(p.value))
}

// IsZero 是否為零
func (p PointsAmount) IsZero() bool {
	return p.value == 0
}

// Add 相加（返回新的 PointsAmount，保持不變性）
func (p PointsAmount) Add(other PointsAmount) PointsAmount {
	return newPointsAmountUnchecked(p.value + other.value)
}

// Subtract 相減（返回新的 PointsAmount）
// 業務規則：不能扣除超過當前數量的積分
func (p PointsAmount) Subtract(other PointsAmount) (PointsAmount, error) {
	if p.value < other.value {
		return PointsAmount{}, fmt.Errorf(
			"%w: cannot subtract %d from %d (insufficient balance)",
			ErrInsufficientPoints,
			other.value,
			p.value,
		)
	}
	return newPointsAmountUnchecked(p.value - other.value), nil
}

// Equals 比較兩個 PointsAmount 是否相等
func (p PointsAmount) Equals(other PointsAmount) bool {
	return p.value == other.value
}

// GreaterThan 判斷是否大於另一個 PointsAmount
func (p PointsAmount) GreaterThan(other PointsAmount) bool {
	return p.value > other.value
}

// LessThan 判斷是否小於另一個 PointsAmount
func (p PointsAmount) LessThan(other PointsAmount) bool {
	return p.value < other.value
}

// ===========================
// PointsSource 積分來源
// ===========================

// PointsSource 積分來源枚舉
type PointsSource string

const (
	PointsSourceCheckIn    PointsSource = "check_in"
	PointsSourcePurchase   PointsSource = "purchase"
	PointsSourceReferral   PointsSource = "referral"
	PointsSourceRedemption PointsSource = "redemption"
	PointsSourceExpiration PointsSource = "expiration"
)

// IsValid 是否為已知來源
func (s PointsSource) IsValid() bool {
	switch s {
	case PointsSourceCheckIn, PointsSourcePurchase, PointsSourceReferral,
		PointsSourceRedemption, PointsSourceExpiration:
		return true
	}
	return false
}

// ===========================
// ProductCategory 商品類別
// ===========================

// ProductCategory 商品類別（決定採用哪一個毛利率）
type ProductCategory string

const (
	CategoryFood     ProductCategory = "food"
	CategoryBeverage ProductCategory = "beverage"
	CategoryOther    ProductCategory = "other"
)

// VenueMargins 場館毛利設定（由場館外部設定提供）
//
// 毛利以百分比表示（例如 80 代表 80%），MaxMargin 為場館所有類別中的最大毛利。
type VenueMargins struct {
	FoodMargin     decimal.Decimal
	BeverageMargin decimal.Decimal
	DefaultMargin  decimal.Decimal
	MaxMargin      decimal.Decimal
}

// MarginFor 取得指定類別的毛利
func (v VenueMargins) MarginFor(category ProductCategory) decimal.Decimal {
	switch category {
	case CategoryFood:
		return v.FoodMargin
	case CategoryBeverage:
		return v.BeverageMargin
	default:
		return v.DefaultMargin
	}
}
