package membership

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// PriorityRedemption 兌換動作在離線佇列中的優先度
const PriorityRedemption = 5

// RedeemPointsCommand 兌換獎勵
type RedeemPointsCommand struct {
	MembershipID string
	RewardID     string
	PointsCost   int
}

// RedeemPointsResult 兌換結果
type RedeemPointsResult struct {
	MembershipID   string
	PointsRedeemed int
	BalanceAfter   int
	ActionID       string // 待同步的 redeemReward 動作
}

// RedeemPointsUseCase 兌換獎勵 Use Case
//
// 職責：
// 1. 在會籍鎖內扣點（餘額不足返回 points.ErrInsufficientPoints）
// 2. 重置活躍時間與過期視窗，並刷新追蹤中的過期記錄
// 3. 寫入帳本並在同一事務中排入 redeemReward 離線動作
type RedeemPointsUseCase struct {
	repo      membership.Repository
	ledger    points.LedgerRepository
	txManager shared.TransactionManager
	locker    ports.MembershipLocker
	enqueuer  ports.ActionEnqueuer
	activity  ports.ActivityRecorder
	publisher shared.EventPublisher
	policy    expiration.Policy
	clock     shared.Clock
	logger    *slog.Logger
}

// NewRedeemPointsUseCase 創建 Use Case 實例
func NewRedeemPointsUseCase(
	repo membership.Repository,
	ledger points.LedgerRepository,
	txManager shared.TransactionManager,
	locker ports.MembershipLocker,
	enqueuer ports.ActionEnqueuer,
	activity ports.ActivityRecorder,
	publisher shared.EventPublisher,
	policy expiration.Policy,
	clock shared.Clock,
	logger *slog.Logger,
) *RedeemPointsUseCase {
	return &RedeemPointsUseCase{
		repo:      repo,
		ledger:    ledger,
		txManager: txManager,
		locker:    locker,
		enqueuer:  enqueuer,
		activity:  activity,
		publisher: publisher,
		policy:    policy,
		clock:     clock,
		logger:    loggerOrDefault(logger),
	}
}

// Execute 執行兌換
func (uc *RedeemPointsUseCase) Execute(cmd RedeemPointsCommand) (*RedeemPointsResult, error) {
	id, err := membership.MembershipIDFromString(cmd.MembershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse membership ID: %w", err)
	}
	amount, err := points.NewPointsAmount(cmd.PointsCost)
	if err != nil || amount.IsZero() {
		return nil, points.ErrInvalidAmount.WithContext("points_cost", cmd.PointsCost)
	}
	payload := offline.RedeemRewardPayload{
		RewardID:     cmd.RewardID,
		MembershipID: cmd.MembershipID,
		PointsCost:   cmd.PointsCost,
	}
	if err := offline.ValidatePayload(payload); err != nil {
		return nil, err
	}

	unlock := uc.locker.Lock(id.String())
	defer unlock()

	var (
		m      *membership.Membership
		result *RedeemPointsResult
	)
	err = uc.txManager.InTransaction(func(ctx shared.TransactionContext) error {
		found, err := uc.repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to find membership: %w", err)
		}
		m = found

		now := uc.clock.Now()
		before := m.PointsBalance()
		if err := m.DebitPoints(amount, "reward:"+cmd.RewardID, now); err != nil {
			return err
		}
		if uc.activity != nil {
			if err := uc.activity.RecordActivity(ctx, m, now); err != nil {
				return fmt.Errorf("failed to record activity: %w", err)
			}
		} else {
			m.RecordActivity(now, uc.policy.Window)
		}

		entry, err := points.NewLedgerEntry(
			m.UserID(), m.VenueID(),
			points.EntryTypeRedeem, amount, before,
			points.PointsSourceRedemption, cmd.RewardID, now,
		)
		if err != nil {
			return fmt.Errorf("failed to build ledger entry: %w", err)
		}
		if err := uc.ledger.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}

		if err := uc.repo.Update(ctx, m); err != nil {
			return fmt.Errorf("failed to update membership: %w", err)
		}

		action, err := uc.enqueuer.EnqueueWithContext(ctx, payload, PriorityRedemption)
		if err != nil {
			return fmt.Errorf("failed to enqueue redemption: %w", err)
		}

		result = &RedeemPointsResult{
			MembershipID:   m.ID().String(),
			PointsRedeemed: amount.Value(),
			BalanceAfter:   m.PointsBalance().Value(),
			ActionID:       action.ID().String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.activity != nil {
		uc.activity.NotifyActivity(context.Background(), m.ID(), m.LastActivityDate())
	}
	publishEvents(uc.publisher, uc.logger, m.PullEvents())
	uc.logger.Info("points redeemed",
		"membership_id", result.MembershipID,
		"points", result.PointsRedeemed,
		"balance", result.BalanceAfter,
	)
	return result, nil
}
