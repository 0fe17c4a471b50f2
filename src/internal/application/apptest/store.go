// Package apptest 提供 application 層測試用的記憶體倉儲與遠端替身。
//
// 所有倉儲共用一個 Store；TxManager 在 fn 返回錯誤時還原 Store，
// 模擬資料庫事務的回滾語義。
package apptest

import (
	"sync"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/streak"
)

// Store 記憶體資料（值皆為不可變快照）
type Store struct {
	mu sync.Mutex

	memberships map[string]membership.Snapshot
	ledger      []*points.LedgerEntry
	checkIns    []*streak.CheckIn
	chains      map[string]*referral.Chain
	records     map[string]*referral.DistributionRecord
	expirations map[string]expiration.Snapshot
	actions     map[string]offline.Snapshot
	actionSeq   int64
}

// NewStore 建立空的 Store
func NewStore() *Store {
	return &Store{
		memberships: map[string]membership.Snapshot{},
		chains:      map[string]*referral.Chain{},
		records:     map[string]*referral.DistributionRecord{},
		expirations: map[string]expiration.Snapshot{},
		actions:     map[string]offline.Snapshot{},
	}
}

type storeState struct {
	memberships map[string]membership.Snapshot
	ledger      []*points.LedgerEntry
	checkIns    []*streak.CheckIn
	chains      map[string]*referral.Chain
	records     map[string]*referral.DistributionRecord
	expirations map[string]expiration.Snapshot
	actions     map[string]offline.Snapshot
	actionSeq   int64
}

func (s *Store) capture() storeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storeState{
		memberships: cloneMap(s.memberships),
		ledger:      append([]*points.LedgerEntry(nil), s.ledger...),
		checkIns:    append([]*streak.CheckIn(nil), s.checkIns...),
		chains:      cloneMap(s.chains),
		records:     cloneMap(s.records),
		expirations: cloneMap(s.expirations),
		actions:     cloneMap(s.actions),
		actionSeq:   s.actionSeq,
	}
}

func (s *Store) restore(st storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = st.memberships
	s.ledger = st.ledger
	s.checkIns = st.checkIns
	s.chains = st.chains
	s.records = st.records
	s.expirations = st.expirations
	s.actions = st.actions
	s.actionSeq = st.actionSeq
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ===========================
// TxManager
// ===========================

// TxContext 測試用事務上下文（non-nil，滿足寫操作的約束）
type TxContext struct{}

// TxManager 以快照還原模擬回滾
type TxManager struct {
	store *Store

	mu    sync.Mutex
	Calls int
}

// NewTxManager 建立 TxManager
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// InTransaction 執行 fn；返回錯誤時還原 Store
func (m *TxManager) InTransaction(fn func(ctx shared.TransactionContext) error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	before := m.store.capture()
	if err := fn(&TxContext{}); err != nil {
		m.store.restore(before)
		return err
	}
	return nil
}

var _ shared.TransactionManager = (*TxManager)(nil)

// ===========================
// Locker
// ===========================

// Locker 記錄被鎖定的鍵
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	Keys  []string
}

// NewLocker 建立 Locker
func NewLocker() *Locker {
	return &Locker{locks: map[string]*sync.Mutex{}}
}

// Lock 取得 key 的鎖
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	mu, ok := l.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[key] = mu
	}
	l.Keys = append(l.Keys, key)
	l.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}
