// Package earning 處理打卡與消費入帳：連續打卡、加成、等級檢查與帳本，
// 並在同一事務中排入待同步的入帳事件。
package earning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/streak"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
	"github.com/shopspring/decimal"
)

// PriorityEarning 入帳事件在離線佇列中的優先度（高於一般 UI 動作）
const PriorityEarning = 10

// Deps Service 的依賴
type Deps struct {
	Memberships membership.Repository
	Ledger      points.LedgerRepository
	CheckIns    streak.Repository
	TxManager   shared.TransactionManager
	Locker      ports.MembershipLocker
	TierConfigs tier.ConfigProvider
	Venues      ports.VenueDirectory
	Calculator  *points.CalculationService
	Engine      *tier.Engine
	Enqueuer    ports.ActionEnqueuer
	Activity    ports.ActivityRecorder // nil 時只重置會籍本身的過期日
	Publisher   shared.EventPublisher
	Policy      expiration.Policy
	Clock       shared.Clock
	Logger      *slog.Logger
}

// Service 入帳服務
type Service struct {
	Deps
}

// NewService 建立入帳服務
func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Engine == nil {
		deps.Engine = tier.NewEngine()
	}
	return &Service{Deps: deps}
}

// ===========================
// Command / Result
// ===========================

// CheckInCommand 場館打卡
type CheckInCommand struct {
	MembershipID    string
	Method          streak.Method
	EventID         string          // 可選：活動打卡
	EventMultiplier decimal.Decimal // 零值視為 1.0
}

// PurchaseCommand 消費入帳
type PurchaseCommand struct {
	MembershipID    string
	OrderID         string
	Items           []points.OrderItem
	EventMultiplier decimal.Decimal // 零值視為 1.0
}

// Result 入帳結果
type Result struct {
	MembershipID   string
	PointsEarned   int
	BalanceAfter   int
	StreakDay      int
	Multipliers    streak.Breakdown
	TierMultiplier decimal.Decimal
	Multiplier     decimal.Decimal // event × streak × weekend × tier
	Order          *points.CalculationResult
	TierChange     tier.Change
	ActionID       string // 排入佇列的 submit_earning 動作
}

// ===========================
// 打卡
// ===========================

// ProcessCheckIn 處理場館打卡
//
// 積分 = 50 × event × streak × weekend × tier，四捨五入到整數點。
// 同一場館、同一日曆日（場館時區）只能打卡一次，否則返回 streak.ErrAlreadyCheckedInToday。
func (s *Service) ProcessCheckIn(cmd CheckInCommand) (*Result, error) {
	id, err := membership.MembershipIDFromString(cmd.MembershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse membership ID: %w", err)
	}

	unlock := s.Locker.Lock(id.String())
	defer unlock()

	var (
		m      *membership.Membership
		result *Result
	)
	err = s.TxManager.InTransaction(func(ctx shared.TransactionContext) error {
		found, err := s.Memberships.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to find membership: %w", err)
		}
		m = found

		settings, cfg, err := s.venueConfig(m.VenueID())
		if err != nil {
			return err
		}

		last, err := s.CheckIns.FindLatest(ctx, m.UserID(), m.VenueID())
		if err != nil {
			return fmt.Errorf("failed to load check-in history: %w", err)
		}
		history := historyOf(last)

		now := s.Clock.Now()
		if streak.HasCheckedInToday(history, m.UserID(), m.VenueID(), now, settings.Location) {
			return streak.ErrAlreadyCheckedInToday.WithContext(
				"membership_id", m.ID().String(),
				"last_check_in", last.CheckInTime(),
			)
		}

		day := streak.CurrentStreak(history, m.UserID(), m.VenueID(), now)
		breakdown := streak.CombinedMultiplier(cmd.EventMultiplier, day, now, settings.Location)
		tierMult, err := tier.TierMultiplier(m.Tier(), cfg)
		if err != nil {
			return fmt.Errorf("failed to resolve tier multiplier: %w", err)
		}
		total := breakdown.Combined.Mul(tierMult)

		amount, err := points.FromDecimal(decimal.NewFromInt(streak.CheckInBasePoints).Mul(total))
		if err != nil {
			return fmt.Errorf("failed to convert points: %w", err)
		}

		checkIn, err := streak.NewCheckIn(m.UserID(), m.VenueID(), now, cmd.Method, cmd.EventID, day, amount.Value())
		if err != nil {
			return err
		}
		if err := s.CheckIns.Save(ctx, checkIn); err != nil {
			return fmt.Errorf("failed to save check-in: %w", err)
		}

		m.RecordVisit(now)
		change, actionID, err := s.credit(ctx, m, cfg, credit{
			amount:     amount,
			spend:      decimal.Zero,
			source:     points.PointsSourceCheckIn,
			sourceID:   checkIn.ID().String(),
			multiplier: total,
			now:        now,
		})
		if err != nil {
			return err
		}

		result = &Result{
			MembershipID:   m.ID().String(),
			PointsEarned:   amount.Value(),
			BalanceAfter:   m.PointsBalance().Value(),
			StreakDay:      day,
			Multipliers:    breakdown,
			TierMultiplier: tierMult,
			Multiplier:     total,
			TierChange:     change,
			ActionID:       actionID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyActivity(m)
	s.publish(m)
	s.Logger.Info("check-in processed",
		"membership_id", result.MembershipID,
		"streak_day", result.StreakDay,
		"points", result.PointsEarned,
		"multiplier", result.Multiplier.String(),
	)
	return result, nil
}

// ===========================
// 消費
// ===========================

// ProcessPurchase 處理消費入帳
//
// 每筆明細的加成 = 明細加成 × event × streak × weekend × tier；
// 消費不算打卡，連續天數取目前仍有效的天數。同一 OrderID 只能入帳一次。
func (s *Service) ProcessPurchase(cmd PurchaseCommand) (*Result, error) {
	id, err := membership.MembershipIDFromString(cmd.MembershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse membership ID: %w", err)
	}
	if cmd.OrderID == "" {
		return nil, points.ErrInvalidAmount.WithContext("reason", "order id is required")
	}
	if len(cmd.Items) == 0 {
		return nil, points.ErrInvalidAmount.WithContext("reason", "order has no items", "order_id", cmd.OrderID)
	}

	unlock := s.Locker.Lock(id.String())
	defer unlock()

	var (
		m      *membership.Membership
		result *Result
	)
	err = s.TxManager.InTransaction(func(ctx shared.TransactionContext) error {
		exists, err := s.Ledger.ExistsBySource(ctx, points.PointsSourcePurchase, cmd.OrderID)
		if err != nil {
			return fmt.Errorf("failed to check order: %w", err)
		}
		if exists {
			return points.ErrDuplicateSource.WithContext("order_id", cmd.OrderID)
		}

		found, err := s.Memberships.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to find membership: %w", err)
		}
		m = found

		settings, cfg, err := s.venueConfig(m.VenueID())
		if err != nil {
			return err
		}

		last, err := s.CheckIns.FindLatest(ctx, m.UserID(), m.VenueID())
		if err != nil {
			return fmt.Errorf("failed to load check-in history: %w", err)
		}

		now := s.Clock.Now()
		day := streak.ActiveStreakDay(historyOf(last), m.UserID(), m.VenueID(), now)
		breakdown := streak.CombinedMultiplier(cmd.EventMultiplier, day, now, settings.Location)
		tierMult, err := tier.TierMultiplier(m.Tier(), cfg)
		if err != nil {
			return fmt.Errorf("failed to resolve tier multiplier: %w", err)
		}
		total := breakdown.Combined.Mul(tierMult)

		items := make([]points.OrderItem, len(cmd.Items))
		spend := decimal.Zero
		for i, item := range cmd.Items {
			itemMult := item.BonusMultiplier
			if itemMult.IsZero() {
				itemMult = decimal.NewFromInt(1)
			}
			item.BonusMultiplier = itemMult.Mul(total)
			items[i] = item
			spend = spend.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		order, err := s.Calculator.CalculatePointsForOrder(items, settings.Margins)
		if err != nil {
			return fmt.Errorf("failed to calculate order points: %w", err)
		}
		amount, err := points.FromDecimal(order.RawTotalPoints)
		if err != nil {
			return fmt.Errorf("failed to convert points: %w", err)
		}

		change, actionID, err := s.credit(ctx, m, cfg, credit{
			amount:     amount,
			spend:      spend,
			source:     points.PointsSourcePurchase,
			sourceID:   cmd.OrderID,
			multiplier: total,
			now:        now,
		})
		if err != nil {
			return err
		}

		result = &Result{
			MembershipID:   m.ID().String(),
			PointsEarned:   amount.Value(),
			BalanceAfter:   m.PointsBalance().Value(),
			StreakDay:      day,
			Multipliers:    breakdown,
			TierMultiplier: tierMult,
			Multiplier:     total,
			Order:          order,
			TierChange:     change,
			ActionID:       actionID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyActivity(m)
	s.publish(m)
	s.Logger.Info("purchase processed",
		"membership_id", result.MembershipID,
		"order_id", cmd.OrderID,
		"points", result.PointsEarned,
		"tier_changed", result.TierChange.Changed,
	)
	return result, nil
}

// ===========================
// 共用流程
// ===========================

type credit struct {
	amount     points.PointsAmount
	spend      decimal.Decimal
	source     points.PointsSource
	sourceID   string
	multiplier decimal.Decimal
	now        time.Time
}

// credit 入帳、重置活躍、檢查等級、寫帳本、更新會籍並排入 submit_earning
func (s *Service) credit(ctx shared.TransactionContext, m *membership.Membership, cfg *tier.Config, c credit) (tier.Change, string, error) {
	before := m.PointsBalance()
	if err := m.CreditPoints(c.amount, c.spend, c.source, c.sourceID, c.now); err != nil {
		return tier.Change{}, "", err
	}
	if err := s.recordActivity(ctx, m, c.now); err != nil {
		return tier.Change{}, "", fmt.Errorf("failed to record activity: %w", err)
	}

	change, err := s.Engine.CheckAndUpdateTier(m, cfg, c.now)
	if err != nil {
		return tier.Change{}, "", fmt.Errorf("failed to check tier: %w", err)
	}

	entry, err := points.NewLedgerEntry(
		m.UserID(), m.VenueID(),
		points.EntryTypeEarn, c.amount, before,
		c.source, c.sourceID, c.now,
	)
	if err != nil {
		return tier.Change{}, "", fmt.Errorf("failed to build ledger entry: %w", err)
	}
	if err := s.Ledger.Append(ctx, entry); err != nil {
		return tier.Change{}, "", fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := s.Memberships.Update(ctx, m); err != nil {
		return tier.Change{}, "", fmt.Errorf("failed to update membership: %w", err)
	}

	action, err := s.Enqueuer.EnqueueWithContext(ctx, offline.SubmitEarningPayload{
		EventKey:     eventKey(c.source, c.sourceID),
		MembershipID: m.ID().String(),
		UserID:       m.UserID().String(),
		VenueID:      m.VenueID().String(),
		Source:       string(c.source),
		PointsEarned: c.amount.Value(),
		Spend:        c.spend,
		Multiplier:   c.multiplier,
		OccurredAt:   c.now,
	}, PriorityEarning)
	if err != nil {
		return tier.Change{}, "", fmt.Errorf("failed to enqueue earning event: %w", err)
	}
	return change, action.ID().String(), nil
}

func (s *Service) recordActivity(ctx shared.TransactionContext, m *membership.Membership, now time.Time) error {
	if s.Activity == nil {
		m.RecordActivity(now, s.Policy.Window)
		return nil
	}
	return s.Activity.RecordActivity(ctx, m, now)
}

func (s *Service) notifyActivity(m *membership.Membership) {
	if s.Activity == nil {
		return
	}
	s.Activity.NotifyActivity(context.Background(), m.ID(), m.LastActivityDate())
}

// venueConfig 場館時區、毛利與等級設定；任一缺少都是設定錯誤
func (s *Service) venueConfig(venueID shared.VenueID) (*ports.VenueSettings, *tier.Config, error) {
	settings, err := s.Venues.SettingsFor(venueID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load venue settings: %w", err)
	}
	cfg, err := s.TierConfigs.ConfigFor(venueID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load tier config: %w", err)
	}
	return settings, cfg, nil
}

func (s *Service) publish(m *membership.Membership) {
	events := m.PullEvents()
	if s.Publisher == nil || len(events) == 0 {
		return
	}
	if err := s.Publisher.PublishBatch(events); err != nil {
		s.Logger.Warn("publish domain events failed", "membership_id", m.ID().String(), "error", err)
	}
}

// eventKey 入帳事件的冪等鍵，例如 "check_in:<id>"、"purchase:<order>"
func eventKey(source points.PointsSource, sourceID string) string {
	return string(source) + ":" + sourceID
}

func historyOf(last *streak.CheckIn) []*streak.CheckIn {
	if last == nil {
		return nil
	}
	return []*streak.CheckIn{last}
}
