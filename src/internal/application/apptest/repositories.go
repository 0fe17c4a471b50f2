package apptest

import (
	"sort"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/streak"
)

// ===========================
// Membership
// ===========================

// MembershipRepo 記憶體會籍倉儲
type MembershipRepo struct{ s *Store }

func NewMembershipRepo(s *Store) *MembershipRepo { return &MembershipRepo{s: s} }

var _ membership.Repository = (*MembershipRepo)(nil)

func (r *MembershipRepo) Save(_ shared.TransactionContext, m *membership.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, snap := range r.s.memberships {
		if snap.UserID.Equals(m.UserID()) && snap.VenueID.Equals(m.VenueID()) {
			return membership.ErrMembershipAlreadyExists.WithContext("user_id", m.UserID().String())
		}
	}
	r.s.memberships[m.ID().String()] = m.Snapshot()
	return nil
}

func (r *MembershipRepo) Update(_ shared.TransactionContext, m *membership.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.memberships[m.ID().String()]
	if !ok {
		return membership.ErrMembershipNotFound.WithContext("membership_id", m.ID().String())
	}
	if stored.Version != m.Version() {
		return membership.ErrConcurrentModification.WithContext("expected", m.Version(), "actual", stored.Version)
	}
	m.IncrementVersion()
	r.s.memberships[m.ID().String()] = m.Snapshot()
	return nil
}

func (r *MembershipRepo) FindByID(_ shared.TransactionContext, id membership.MembershipID) (*membership.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap, ok := r.s.memberships[id.String()]
	if !ok {
		return nil, membership.ErrMembershipNotFound.WithContext("membership_id", id.String())
	}
	return membership.ReconstructMembership(snap), nil
}

func (r *MembershipRepo) FindByUserAndVenue(_ shared.TransactionContext, userID shared.UserID, venueID shared.VenueID) (*membership.Membership, error) {
	found := r.filter(func(s membership.Snapshot) bool {
		return s.UserID.Equals(userID) && s.VenueID.Equals(venueID)
	})
	if len(found) == 0 {
		return nil, membership.ErrMembershipNotFound.WithContext("user_id", userID.String(), "venue_id", venueID.String())
	}
	return found[0], nil
}

func (r *MembershipRepo) FindByUser(_ shared.TransactionContext, userID shared.UserID) ([]*membership.Membership, error) {
	return r.filter(func(s membership.Snapshot) bool { return s.UserID.Equals(userID) }), nil
}

func (r *MembershipRepo) FindActive(_ shared.TransactionContext) ([]*membership.Membership, error) {
	return r.filter(func(s membership.Snapshot) bool { return s.IsActive }), nil
}

func (r *MembershipRepo) FindWithBalance(_ shared.TransactionContext) ([]*membership.Membership, error) {
	return r.filter(func(s membership.Snapshot) bool { return s.IsActive && !s.PointsBalance.IsZero() }), nil
}

func (r *MembershipRepo) ExistsByUserAndVenue(ctx shared.TransactionContext, userID shared.UserID, venueID shared.VenueID) (bool, error) {
	_, err := r.FindByUserAndVenue(ctx, userID, venueID)
	return err == nil, nil
}

func (r *MembershipRepo) filter(keep func(membership.Snapshot) bool) []*membership.Membership {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*membership.Membership{}
	for _, snap := range r.s.memberships {
		if keep(snap) {
			out = append(out, membership.ReconstructMembership(snap))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt().Before(out[j].JoinedAt()) })
	return out
}

// Put 直接寫入會籍（測試準備資料用）
func (r *MembershipRepo) Put(m *membership.Membership) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.memberships[m.ID().String()] = m.Snapshot()
}

// Get 讀取目前狀態（找不到時返回 nil）
func (r *MembershipRepo) Get(id membership.MembershipID) *membership.Membership {
	m, err := r.FindByID(nil, id)
	if err != nil {
		return nil
	}
	return m
}

// ===========================
// Ledger
// ===========================

// LedgerRepo 記憶體帳本
type LedgerRepo struct{ s *Store }

func NewLedgerRepo(s *Store) *LedgerRepo { return &LedgerRepo{s: s} }

var _ points.LedgerRepository = (*LedgerRepo)(nil)

func (r *LedgerRepo) Append(_ shared.TransactionContext, e *points.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ledger = append(r.s.ledger, e)
	return nil
}

func (r *LedgerRepo) FindByMember(_ shared.TransactionContext, userID shared.UserID, venueID shared.VenueID, limit int) ([]*points.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*points.LedgerEntry{}
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		e := r.s.ledger[i]
		if e.UserID().Equals(userID) && e.VenueID().Equals(venueID) {
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *LedgerRepo) ExistsBySource(_ shared.TransactionContext, source points.PointsSource, sourceID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.ledger {
		if e.Source() == source && e.SourceID() == sourceID {
			return true, nil
		}
	}
	return false, nil
}

// All 所有帳本記錄（寫入順序）
func (r *LedgerRepo) All() []*points.LedgerEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*points.LedgerEntry(nil), r.s.ledger...)
}

// ===========================
// CheckIn
// ===========================

// CheckInRepo 記憶體打卡記錄
type CheckInRepo struct{ s *Store }

func NewCheckInRepo(s *Store) *CheckInRepo { return &CheckInRepo{s: s} }

var _ streak.Repository = (*CheckInRepo)(nil)

func (r *CheckInRepo) Save(_ shared.TransactionContext, c *streak.CheckIn) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.checkIns = append(r.s.checkIns, c)
	return nil
}

func (r *CheckInRepo) FindLatest(_ shared.TransactionContext, userID shared.UserID, venueID shared.VenueID) (*streak.CheckIn, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var last *streak.CheckIn
	for _, c := range r.s.checkIns {
		if c.UserID().Equals(userID) && c.VenueID().Equals(venueID) {
			if last == nil || c.CheckInTime().After(last.CheckInTime()) {
				last = c
			}
		}
	}
	return last, nil
}

func (r *CheckInRepo) FindByUser(_ shared.TransactionContext, userID shared.UserID, limit int) ([]*streak.CheckIn, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*streak.CheckIn{}
	for _, c := range r.s.checkIns {
		if c.UserID().Equals(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime().After(out[j].CheckInTime()) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ===========================
// Referral
// ===========================

// ChainRepo 記憶體推薦鏈
type ChainRepo struct{ s *Store }

func NewChainRepo(s *Store) *ChainRepo { return &ChainRepo{s: s} }

var _ referral.ChainRepository = (*ChainRepo)(nil)

func copyChain(c *referral.Chain) *referral.Chain {
	return referral.ReconstructChain(c.UserID(), c.Referrers(), c.EarningsByLevel(), !c.TopologyKnown(), c.CreatedAt(), c.UpdatedAt())
}

func (r *ChainRepo) Save(_ shared.TransactionContext, c *referral.Chain) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.chains[c.UserID().String()]; ok {
		return referral.ErrChainAlreadyExists.WithContext("user_id", c.UserID().String())
	}
	r.s.chains[c.UserID().String()] = copyChain(c)
	return nil
}

func (r *ChainRepo) Update(_ shared.TransactionContext, c *referral.Chain) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.chains[c.UserID().String()]; !ok {
		return referral.ErrChainNotFound.WithContext("user_id", c.UserID().String())
	}
	r.s.chains[c.UserID().String()] = copyChain(c)
	return nil
}

func (r *ChainRepo) FindByUser(_ shared.TransactionContext, userID shared.UserID) (*referral.Chain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chains[userID.String()]
	if !ok {
		return nil, referral.ErrChainNotFound.WithContext("user_id", userID.String())
	}
	return copyChain(c), nil
}

func (r *ChainRepo) ExistsByUser(_ shared.TransactionContext, userID shared.UserID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.chains[userID.String()]
	return ok, nil
}

// DistributionRepo 記憶體分潤記錄
type DistributionRepo struct{ s *Store }

func NewDistributionRepo(s *Store) *DistributionRepo { return &DistributionRepo{s: s} }

var _ referral.DistributionRecordRepository = (*DistributionRepo)(nil)

func (r *DistributionRepo) Save(_ shared.TransactionContext, rec *referral.DistributionRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.records[rec.EventKey()]; ok {
		return referral.ErrDistributionAlreadyApplied.WithContext("event_key", rec.EventKey())
	}
	r.s.records[rec.EventKey()] = rec
	return nil
}

func (r *DistributionRepo) FindByEventKey(_ shared.TransactionContext, key string) (*referral.DistributionRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[key]
	if !ok {
		return nil, referral.ErrDistributionNotFound.WithContext("event_key", key)
	}
	return rec, nil
}

// Count 分潤記錄數量
func (r *DistributionRepo) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.records)
}

// ===========================
// Expiration
// ===========================

// ExpirationRepo 記憶體過期追蹤
type ExpirationRepo struct{ s *Store }

func NewExpirationRepo(s *Store) *ExpirationRepo { return &ExpirationRepo{s: s} }

var _ expiration.Repository = (*ExpirationRepo)(nil)

func (r *ExpirationRepo) Save(_ shared.TransactionContext, e *expiration.PointExpiration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.expirations[e.ID().String()] = e.Snapshot()
	return nil
}

func (r *ExpirationRepo) Update(_ shared.TransactionContext, e *expiration.PointExpiration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expirations[e.ID().String()]; !ok {
		return expiration.ErrExpirationNotFound.WithContext("expiration_id", e.ID().String())
	}
	r.s.expirations[e.ID().String()] = e.Snapshot()
	return nil
}

func (r *ExpirationRepo) FindByID(_ shared.TransactionContext, id expiration.ExpirationID) (*expiration.PointExpiration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap, ok := r.s.expirations[id.String()]
	if !ok {
		return nil, expiration.ErrExpirationNotFound.WithContext("expiration_id", id.String())
	}
	return expiration.Reconstruct(snap), nil
}

func (r *ExpirationRepo) FindTrackingByMembership(_ shared.TransactionContext, id membership.MembershipID) (*expiration.PointExpiration, error) {
	found := r.filter(func(s expiration.Snapshot) bool { return s.MembershipID.Equals(id) && !s.IsExpired })
	if len(found) == 0 {
		return nil, expiration.ErrExpirationNotFound.WithContext("membership_id", id.String())
	}
	return found[0], nil
}

func (r *ExpirationRepo) FindPendingRemoteNotify(_ shared.TransactionContext, maxAttempts int) ([]*expiration.PointExpiration, error) {
	return r.filter(func(s expiration.Snapshot) bool {
		return s.IsExpired && s.RemoteNotifiedAt == nil && s.NotifyAttempts < maxAttempts
	}), nil
}

func (r *ExpirationRepo) FindExpiringByUser(_ shared.TransactionContext, userID shared.UserID) ([]*expiration.PointExpiration, error) {
	return r.filter(func(s expiration.Snapshot) bool { return s.UserID.Equals(userID) && !s.IsExpired }), nil
}

func (r *ExpirationRepo) filter(keep func(expiration.Snapshot) bool) []*expiration.PointExpiration {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*expiration.PointExpiration{}
	for _, snap := range r.s.expirations {
		if keep(snap) {
			out = append(out, expiration.Reconstruct(snap))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpirationDate().Before(out[j].ExpirationDate()) })
	return out
}

// All 所有追蹤記錄
func (r *ExpirationRepo) All() []*expiration.PointExpiration {
	return r.filter(func(expiration.Snapshot) bool { return true })
}

// ===========================
// Offline actions
// ===========================

// ActionRepo 記憶體離線動作
type ActionRepo struct{ s *Store }

func NewActionRepo(s *Store) *ActionRepo { return &ActionRepo{s: s} }

var _ offline.Repository = (*ActionRepo)(nil)

func (r *ActionRepo) Save(_ shared.TransactionContext, a *offline.PendingAction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.actionSeq++
	a.AssignSeq(r.s.actionSeq)
	r.s.actions[a.ID().String()] = a.Snapshot()
	return nil
}

func (r *ActionRepo) Update(_ shared.TransactionContext, a *offline.PendingAction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.actions[a.ID().String()]; !ok {
		return offline.ErrActionNotFound.WithContext("action_id", a.ID().String())
	}
	r.s.actions[a.ID().String()] = a.Snapshot()
	return nil
}

func (r *ActionRepo) Delete(_ shared.TransactionContext, id offline.ActionID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.actions[id.String()]; !ok {
		return offline.ErrActionNotFound.WithContext("action_id", id.String())
	}
	delete(r.s.actions, id.String())
	return nil
}

func (r *ActionRepo) FindByID(_ shared.TransactionContext, id offline.ActionID) (*offline.PendingAction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap, ok := r.s.actions[id.String()]
	if !ok {
		return nil, offline.ErrActionNotFound.WithContext("action_id", id.String())
	}
	return offline.Reconstruct(snap), nil
}

func (r *ActionRepo) FindByStatus(_ shared.TransactionContext, statuses ...offline.Status) ([]*offline.PendingAction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*offline.PendingAction{}
	for _, snap := range r.s.actions {
		if hasStatus(snap.Status, statuses) {
			out = append(out, offline.Reconstruct(snap))
		}
	}
	offline.SortForSync(out)
	return out, nil
}

func (r *ActionRepo) CountByStatus(ctx shared.TransactionContext, statuses ...offline.Status) (int64, error) {
	found, err := r.FindByStatus(ctx, statuses...)
	return int64(len(found)), err
}

func hasStatus(s offline.Status, in []offline.Status) bool {
	if len(in) == 0 {
		return true
	}
	for _, x := range in {
		if x == s {
			return true
		}
	}
	return false
}
