package membership

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
)

// ===========================
// JoinVenue Use Case
// ===========================

// PriorityJoin 加入場館在離線佇列中的優先度，重送時排在同一會籍的入帳事件之前
const PriorityJoin = 20

// JoinVenueCommand 加入場館會員的命令
//
// 輸入：
// - UserID / VenueID: UUID 字串
type JoinVenueCommand struct {
	UserID  string
	VenueID string
}

// JoinVenueResult 加入結果
type JoinVenueResult struct {
	MembershipID   string
	UserID         string
	VenueID        string
	Tier           string
	InitialBalance int
	JoinedAt       time.Time
	ActionID       string // 排入佇列的 join_venue 動作
}

// JoinVenueUseCase 加入場館會員 Use Case
//
// 職責：
// 1. 驗證輸入
// 2. 取得場館等級設定（沒有設定時返回 tier.ErrConfigNotFound）
// 3. 以最低等級創建會籍並保存
// 4. 在同一事務中排入 join_venue 動作，供遠端補登
//
// 並發安全：依賴 (user_id, venue_id) 唯一約束，而非 check-then-insert
type JoinVenueUseCase struct {
	repo        membership.Repository
	txManager   shared.TransactionManager
	tierConfigs tier.ConfigProvider
	enqueuer    ports.ActionEnqueuer
	publisher   shared.EventPublisher
	clock       shared.Clock
	logger      *slog.Logger
}

// NewJoinVenueUseCase 創建 Use Case 實例
func NewJoinVenueUseCase(
	repo membership.Repository,
	txManager shared.TransactionManager,
	tierConfigs tier.ConfigProvider,
	enqueuer ports.ActionEnqueuer,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *slog.Logger,
) *JoinVenueUseCase {
	return &JoinVenueUseCase{
		repo:        repo,
		txManager:   txManager,
		tierConfigs: tierConfigs,
		enqueuer:    enqueuer,
		publisher:   publisher,
		clock:       clock,
		logger:      loggerOrDefault(logger),
	}
}

// Execute 在新事務中加入場館
//
// 錯誤處理：
// - shared.ErrInvalidUserID / ErrInvalidVenueID: ID 格式無效
// - tier.ErrConfigNotFound: 場館沒有等級設定
// - membership.ErrMembershipAlreadyExists: 已是該場館會員
// - 排入佇列失敗時整筆回滾
func (uc *JoinVenueUseCase) Execute(cmd JoinVenueCommand) (*JoinVenueResult, error) {
	var (
		result *JoinVenueResult
		m      *membership.Membership
	)
	err := uc.txManager.InTransaction(func(ctx shared.TransactionContext) error {
		var err error
		m, result, err = uc.join(ctx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	publishEvents(uc.publisher, uc.logger, m.PullEvents())
	uc.logger.Info("membership created", "membership_id", result.MembershipID, "venue_id", result.VenueID, "tier", result.Tier)
	return result, nil
}

func (uc *JoinVenueUseCase) join(ctx shared.TransactionContext, cmd JoinVenueCommand) (*membership.Membership, *JoinVenueResult, error) {
	// 1. 驗證並轉換 ID
	userID, err := shared.UserIDFromString(cmd.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse user ID: %w", err)
	}
	venueID, err := shared.VenueIDFromString(cmd.VenueID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse venue ID: %w", err)
	}

	// 2. 場館等級設定
	cfg, err := uc.tierConfigs.ConfigFor(venueID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load tier config: %w", err)
	}

	// 3. 創建會籍（Domain Layer）
	m, err := membership.NewMembership(userID, venueID, cfg.BaseLevel().Name, uc.clock.Now())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create membership: %w", err)
	}

	// 4. 保存
	if err := uc.repo.Save(ctx, m); err != nil {
		if errors.Is(err, membership.ErrMembershipAlreadyExists) {
			return nil, nil, fmt.Errorf("user already joined venue: %w", err)
		}
		return nil, nil, fmt.Errorf("failed to save membership: %w", err)
	}

	// 5. 排入 join_venue
	action, err := uc.enqueuer.EnqueueWithContext(ctx, offline.JoinVenuePayload{
		UserID:  userID.String(),
		VenueID: venueID.String(),
	}, PriorityJoin)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enqueue join: %w", err)
	}

	return m, &JoinVenueResult{
		MembershipID:   m.ID().String(),
		UserID:         m.UserID().String(),
		VenueID:        m.VenueID().String(),
		Tier:           m.Tier(),
		InitialBalance: 0,
		JoinedAt:       m.JoinedAt(),
		ActionID:       action.ID().String(),
	}, nil
}
