package membership

import (
	"fmt"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
)

// GetBalanceQuery 查詢會籍餘額
type GetBalanceQuery struct {
	UserID  string
	VenueID string
}

// GetBalanceResult 餘額、等級進度與過期資訊
type GetBalanceResult struct {
	MembershipID       string
	Balance            int
	TotalSpent         string
	VisitCount         int
	Tier               string
	Progress           tier.Progress
	NextExpirationDate *time.Time
	DaysUntilExpiry    *int
}

// GetBalanceUseCase 查詢會籍餘額 Use Case
type GetBalanceUseCase struct {
	repo        membership.Repository
	tierConfigs tier.ConfigProvider
	engine      *tier.Engine
	clock       shared.Clock
}

// NewGetBalanceUseCase 創建 Use Case 實例
func NewGetBalanceUseCase(
	repo membership.Repository,
	tierConfigs tier.ConfigProvider,
	engine *tier.Engine,
	clock shared.Clock,
) *GetBalanceUseCase {
	return &GetBalanceUseCase{
		repo:        repo,
		tierConfigs: tierConfigs,
		engine:      engine,
		clock:       clock,
	}
}

// Execute 執行查詢（auto-commit 讀取）
func (uc *GetBalanceUseCase) Execute(query GetBalanceQuery) (*GetBalanceResult, error) {
	return uc.ExecuteWithContext(nil, query)
}

// ExecuteWithContext 在事務上下文中執行查詢（ctx 可為 nil）
//
// 錯誤處理：
// - membership.ErrMembershipNotFound: 不是該場館會員
// - tier.ErrConfigNotFound: 場館沒有等級設定
func (uc *GetBalanceUseCase) ExecuteWithContext(ctx shared.TransactionContext, query GetBalanceQuery) (*GetBalanceResult, error) {
	userID, err := shared.UserIDFromString(query.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user ID: %w", err)
	}
	venueID, err := shared.VenueIDFromString(query.VenueID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse venue ID: %w", err)
	}

	m, err := uc.repo.FindByUserAndVenue(ctx, userID, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}

	cfg, err := uc.tierConfigs.ConfigFor(venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tier config: %w", err)
	}

	now := uc.clock.Now()
	progress, err := uc.engine.CalculateProgress(m, cfg, now)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate tier progress: %w", err)
	}

	result := &GetBalanceResult{
		MembershipID:       m.ID().String(),
		Balance:            m.PointsBalance().Value(),
		TotalSpent:         m.TotalSpent().StringFixed(2),
		VisitCount:         m.VisitCount(),
		Tier:               m.Tier(),
		Progress:           progress,
		NextExpirationDate: m.NextExpirationDate(),
	}
	if next := m.NextExpirationDate(); next != nil && !m.PointsBalance().IsZero() {
		days := expiration.DaysUntil(*next, now)
		result.DaysUntilExpiry = &days
	}
	return result, nil
}
