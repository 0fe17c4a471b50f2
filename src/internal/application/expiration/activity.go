package expiration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// ===========================
// 活躍與提醒操作
// ===========================

// UpdateLastActivity 會籍有活動時重置過期視窗
//
// 本地更新後盡力通知遠端，通知失敗只記錄。
func (s *Scheduler) UpdateLastActivity(ctx context.Context, membershipID string) error {
	id, err := membership.MembershipIDFromString(membershipID)
	if err != nil {
		return fmt.Errorf("failed to parse membership ID: %w", err)
	}

	unlock := s.Locker.Lock(id.String())
	defer unlock()

	now := s.Clock.Now()
	err = s.TxManager.InTransaction(func(tx shared.TransactionContext) error {
		m, err := s.Memberships.FindByID(tx, id)
		if err != nil {
			return fmt.Errorf("failed to find membership: %w", err)
		}
		if err := s.RecordActivity(tx, m, now); err != nil {
			return err
		}
		if err := s.Memberships.Update(tx, m); err != nil {
			return fmt.Errorf("failed to update membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.NotifyActivity(ctx, id, now)
	return nil
}

// RecordActivity 在呼叫端事務中重置會籍的過期視窗，並刷新追蹤中的過期記錄
//
// 會籍本身由呼叫端保存。
func (s *Scheduler) RecordActivity(tx shared.TransactionContext, m *membership.Membership, now time.Time) error {
	m.RecordActivity(now, s.cfg.Policy.Window)

	record, err := s.Expirations.FindTrackingByMembership(tx, m.ID())
	if errors.Is(err, expiration.ErrExpirationNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load expiration tracking: %w", err)
	}
	if err := record.Refresh(m.PointsBalance(), now, *m.NextExpirationDate(), now); err != nil {
		return err
	}
	if err := s.Expirations.Update(tx, record); err != nil {
		return fmt.Errorf("failed to update expiration tracking: %w", err)
	}
	return nil
}

// NotifyActivity 盡力通知遠端會籍有活動，失敗只記錄
func (s *Scheduler) NotifyActivity(ctx context.Context, id membership.MembershipID, at time.Time) {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RemoteTimeout)
	defer cancel()
	if err := s.Remote.NotifyActivity(callCtx, id, at); err != nil {
		s.Logger.Warn("remote activity notify failed", "membership_id", id.String(), "error", err)
	}
}

// DismissWarning 使用者關閉過期提醒（之後不再提醒，直到過期日改變）
func (s *Scheduler) DismissWarning(expirationID string) error {
	return s.updateTracking(expirationID, func(e *expiration.PointExpiration, now time.Time) error {
		e.Dismiss(now)
		return nil
	})
}

// RemindLater 使用者選擇 days 天後再提醒（days <= 0 使用預設 7 天）
func (s *Scheduler) RemindLater(expirationID string, days int) error {
	if days <= 0 {
		days = expiration.DefaultRemindLaterDays
	}
	return s.updateTracking(expirationID, func(e *expiration.PointExpiration, now time.Time) error {
		return e.RemindLater(days, now)
	})
}

func (s *Scheduler) updateTracking(expirationID string, apply func(*expiration.PointExpiration, time.Time) error) error {
	id, err := expiration.ExpirationIDFromString(expirationID)
	if err != nil {
		return err
	}
	return s.TxManager.InTransaction(func(tx shared.TransactionContext) error {
		record, err := s.Expirations.FindByID(tx, id)
		if err != nil {
			return fmt.Errorf("failed to find expiration tracking: %w", err)
		}
		if record.IsExpired() {
			return expiration.ErrAlreadyExpired.WithContext("expiration_id", expirationID)
		}
		if err := apply(record, s.Clock.Now()); err != nil {
			return err
		}
		return s.Expirations.Update(tx, record)
	})
}

// ===========================
// 查詢
// ===========================

// ExpiringPoints 用戶即將過期的積分（依過期日排序）
type ExpiringPoints struct {
	ExpirationID    string
	MembershipID    string
	VenueID         string
	PointsAtRisk    int
	ExpirationDate  time.Time
	DaysUntilExpiry int
	Urgency         expiration.Urgency
	WarningSent     bool
	Dismissed       bool
	RemindLaterDate *time.Time
}

// FetchExpiringPoints 列出用戶追蹤中的過期記錄
func (s *Scheduler) FetchExpiringPoints(userID string) ([]ExpiringPoints, error) {
	uid, err := shared.UserIDFromString(userID)
	if err != nil {
		return nil, err
	}
	records, err := s.Expirations.FindExpiringByUser(nil, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring points: %w", err)
	}

	now := s.Clock.Now()
	out := make([]ExpiringPoints, 0, len(records))
	for _, r := range records {
		if r.IsExpired() {
			continue
		}
		out = append(out, ExpiringPoints{
			ExpirationID:    r.ID().String(),
			MembershipID:    r.MembershipID().String(),
			VenueID:         r.VenueID().String(),
			PointsAtRisk:    r.PointsAtRisk().Value(),
			ExpirationDate:  r.ExpirationDate(),
			DaysUntilExpiry: r.DaysUntilExpiry(now),
			Urgency:         r.UrgencyAt(now),
			WarningSent:     r.WarningSentAt() != nil,
			Dismissed:       r.UserDismissedWarning(),
			RemindLaterDate: r.RemindLaterDate(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpirationDate.Before(out[j].ExpirationDate) })
	return out, nil
}
