// Package tiering 等級維護：週期重置與不活躍降級
package tiering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
)

// MaintenanceService 定期檢查所有啟用中的會籍
type MaintenanceService struct {
	memberships membership.Repository
	txManager   shared.TransactionManager
	locker      ports.MembershipLocker
	configs     tier.ConfigProvider
	engine      *tier.Engine
	publisher   shared.EventPublisher
	clock       shared.Clock
	logger      *slog.Logger
}

// NewMaintenanceService 建立等級維護服務
func NewMaintenanceService(
	memberships membership.Repository,
	txManager shared.TransactionManager,
	locker ports.MembershipLocker,
	configs tier.ConfigProvider,
	engine *tier.Engine,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *slog.Logger,
) *MaintenanceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceService{
		memberships: memberships,
		txManager:   txManager,
		locker:      locker,
		configs:     configs,
		engine:      engine,
		publisher:   publisher,
		clock:       clock,
		logger:      logger,
	}
}

// MaintenanceResult 一次維護的統計
type MaintenanceResult struct {
	Scanned    int
	Reset      int
	Downgraded int
	Skipped    int // 場館沒有等級設定
	Failed     int
}

// RunOnce 對每個會籍先套用週期重置，再檢查不活躍降級
//
// 單一會籍失敗只記錄並計數；ctx 取消時停止並返回 ctx.Err()。
func (s *MaintenanceService) RunOnce(ctx context.Context) (*MaintenanceResult, error) {
	active, err := s.memberships.FindActive(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list active memberships: %w", err)
	}

	result := &MaintenanceResult{}
	for _, m := range active {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		reset, downgraded, err := s.maintain(m.ID())
		switch {
		case errors.Is(err, tier.ErrConfigNotFound):
			result.Skipped++
		case err != nil:
			result.Failed++
			s.logger.Error("tier maintenance failed", "membership_id", m.ID().String(), "error", err)
		default:
			if reset {
				result.Reset++
			}
			if downgraded {
				result.Downgraded++
			}
		}
	}

	s.logger.Info("tier maintenance finished",
		"scanned", result.Scanned,
		"reset", result.Reset,
		"downgraded", result.Downgraded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *MaintenanceService) maintain(id membership.MembershipID) (reset, downgraded bool, err error) {
	unlock := s.locker.Lock(id.String())
	defer unlock()

	var events []shared.DomainEvent
	err = s.txManager.InTransaction(func(tx shared.TransactionContext) error {
		m, err := s.memberships.FindByID(tx, id)
		if err != nil {
			return err
		}
		cfg, err := s.configs.ConfigFor(m.VenueID())
		if err != nil {
			return err
		}
		now := s.clock.Now()

		resetChange, err := s.engine.ApplyReset(m, cfg, now)
		if err != nil {
			return err
		}
		reset = resetChange.Changed

		if check := s.engine.CheckTierMaintenance(m, cfg, now); check.ShouldDowngrade {
			change, err := s.engine.Demote(m, cfg, now)
			if err != nil {
				return err
			}
			downgraded = change.Changed
			if downgraded {
				s.logger.Info("tier downgraded for inactivity",
					"membership_id", id.String(),
					"from", change.From,
					"to", change.To,
					"days_inactive", check.DaysInactive,
				)
			}
		}

		if !reset && !downgraded {
			return nil
		}
		if err := s.memberships.Update(tx, m); err != nil {
			return fmt.Errorf("failed to update membership: %w", err)
		}
		events = m.PullEvents()
		return nil
	})
	if err != nil {
		return false, false, err
	}

	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.PublishBatch(events); err != nil {
			s.logger.Warn("publish domain events failed", "count", len(events), "error", err)
		}
	}
	return reset, downgraded, nil
}
