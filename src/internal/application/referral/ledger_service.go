// Package referral 處理多層推薦鏈的查詢、分潤與本地累計
package referral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/ports"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultRemoteTimeout 單次遠端呼叫的逾時
const DefaultRemoteTimeout = 10 * time.Second

// LedgerService 推薦分潤帳本
//
// 職責：
// 1. 取得推薦鏈（本地優先，缺少時向遠端查詢並快取）
// 2. 以 eventKey 冪等地送出分潤並記錄遠端確認的結果
// 3. 把每筆分潤累加到推薦人自己的 earningsByLevel
type LedgerService struct {
	chains       referral.ChainRepository
	records      referral.DistributionRecordRepository
	txManager    shared.TransactionManager
	remote       ports.RemoteLedgerAPI
	distribution *referral.DistributionService
	metrics      ports.Metrics
	clock        shared.Clock
	logger       *slog.Logger
	timeout      time.Duration
}

// LedgerOption 可選設定
type LedgerOption func(*LedgerService)

// WithRemoteTimeout 設定遠端呼叫逾時
func WithRemoteTimeout(d time.Duration) LedgerOption {
	return func(s *LedgerService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics 設定指標
func WithMetrics(m ports.Metrics) LedgerOption {
	return func(s *LedgerService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger 設定 logger
func WithLogger(l *slog.Logger) LedgerOption {
	return func(s *LedgerService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewLedgerService 建立推薦分潤帳本
func NewLedgerService(
	chains referral.ChainRepository,
	records referral.DistributionRecordRepository,
	txManager shared.TransactionManager,
	remote ports.RemoteLedgerAPI,
	distribution *referral.DistributionService,
	clock shared.Clock,
	opts ...LedgerOption,
) *LedgerService {
	s := &LedgerService{
		chains:       chains,
		records:      records,
		txManager:    txManager,
		remote:       remote,
		distribution: distribution,
		metrics:      ports.NopMetrics{},
		clock:        clock,
		logger:       slog.Default(),
		timeout:      DefaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===========================
// 推薦鏈
// ===========================

// FetchChain 取得用戶的推薦鏈
//
// 本地沒有、或本地只保存了分潤（拓撲未知）時向遠端查詢並保存；
// 遠端也沒有時返回 referral.ErrChainNotFound。
func (s *LedgerService) FetchChain(ctx context.Context, userID shared.UserID) (*referral.Chain, error) {
	chain, err := s.chains.FindByUser(nil, userID)
	switch {
	case err == nil && chain.TopologyKnown():
		return chain, nil
	case err != nil && !errors.Is(err, referral.ErrChainNotFound):
		return nil, fmt.Errorf("failed to load referral chain: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	remote, err := s.remote.FetchReferralChain(callCtx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrRemoteNotFound) {
			return nil, referral.ErrChainNotFound.WithContext("user_id", userID.String())
		}
		return nil, fmt.Errorf("failed to fetch remote referral chain: %w", err)
	}

	now := s.clock.Now()
	err = s.txManager.InTransaction(func(tx shared.TransactionContext) error {
		current, err := s.chains.FindByUser(tx, userID)
		switch {
		case errors.Is(err, referral.ErrChainNotFound):
			chain, err = referral.NewChain(userID, remote.Referrers[:], now)
			if err != nil {
				return fmt.Errorf("remote referral chain is invalid: %w", err)
			}
			return s.chains.Save(tx, chain)
		case err != nil:
			return err
		case current.TopologyKnown():
			// 並行查詢已先寫入
			chain = current
			return nil
		}

		// 保留推薦人身分累計的分潤，補上上線
		if err := current.ResolveTopology(remote.Referrers[:], now); err != nil {
			return fmt.Errorf("remote referral chain is invalid: %w", err)
		}
		chain = current
		return s.chains.Update(tx, current)
	})
	switch {
	case err == nil:
		s.logger.Debug("referral chain cached", "user_id", userID.String(), "levels", chain.ActiveLevels())
		return chain, nil
	case errors.Is(err, referral.ErrChainAlreadyExists):
		// 並行查詢已先寫入
		return s.chains.FindByUser(nil, userID)
	default:
		return nil, fmt.Errorf("failed to cache referral chain: %w", err)
	}
}

// PreviewDistribution 以本地推薦鏈試算分潤（不呼叫遠端、不寫入）
func (s *LedgerService) PreviewDistribution(ctx context.Context, userID shared.UserID, pointsEarned decimal.Decimal) (map[int]referral.RewardDistribution, error) {
	chain, err := s.FetchChain(ctx, userID)
	if err != nil {
		if errors.Is(err, referral.ErrChainNotFound) {
			return map[int]referral.RewardDistribution{}, nil
		}
		return nil, err
	}
	return s.distribution.CalculateRewardDistribution(pointsEarned, chain)
}

// ===========================
// 分潤
// ===========================

// ProcessReferralRewards 處理一個積分事件的推薦分潤
//
// 冪等：eventKey 已處理過時直接返回保存的結果，不再呼叫遠端。
// 遠端返回不在推薦鏈上的推薦人時返回 ErrDistributionMismatch，且不套用任何分潤。
func (s *LedgerService) ProcessReferralRewards(
	ctx context.Context,
	eventKey string,
	userID shared.UserID,
	pointsEarned decimal.Decimal,
) (map[shared.UserID]decimal.Decimal, error) {
	if eventKey == "" {
		return nil, referral.ErrInvalidEventKey
	}
	if pointsEarned.IsNegative() {
		return nil, referral.ErrInvalidPointsEarned.WithContext("points_earned", pointsEarned.String())
	}

	if existing, err := s.records.FindByEventKey(nil, eventKey); err == nil {
		return existing.AmountsByReferrer(), nil
	} else if !errors.Is(err, referral.ErrDistributionNotFound) {
		return nil, fmt.Errorf("failed to load distribution record: %w", err)
	}

	chain, err := s.FetchChain(ctx, userID)
	if err != nil && !errors.Is(err, referral.ErrChainNotFound) {
		return nil, err
	}

	var payouts []referral.Payout
	if chain != nil && chain.ActiveLevels() > 0 {
		confirmed, err := s.submit(ctx, eventKey, userID, pointsEarned)
		if err != nil {
			return nil, err
		}
		payouts, err = s.matchPayouts(eventKey, chain, confirmed)
		if err != nil {
			return nil, err
		}
		s.compareWithExpected(eventKey, pointsEarned, chain, payouts)
	}

	record, err := referral.NewDistributionRecord(eventKey, userID, pointsEarned, payouts, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.txManager.InTransaction(func(tx shared.TransactionContext) error {
		if err := s.records.Save(tx, record); err != nil {
			return err
		}
		for _, p := range record.Payouts() {
			if err := s.UpdateLocalEarnings(tx, p.ReferrerID, p.Level, p.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, referral.ErrDistributionAlreadyApplied) {
			// 另一個同步流程先完成，返回它的結果
			existing, findErr := s.records.FindByEventKey(nil, eventKey)
			if findErr != nil {
				return nil, fmt.Errorf("failed to load distribution record: %w", findErr)
			}
			return existing.AmountsByReferrer(), nil
		}
		return nil, fmt.Errorf("failed to apply referral distribution: %w", err)
	}

	s.metrics.ReferralDistributed(len(payouts))
	s.logger.Info("referral rewards distributed",
		"event_key", eventKey,
		"user_id", userID.String(),
		"levels", len(payouts),
		"total", record.Total().String(),
	)
	return record.AmountsByReferrer(), nil
}

// UpdateLocalEarnings 把分潤累加到推薦人自己的 earningsByLevel[level]
//
// 推薦人本地沒有推薦鏈時建立只保存分潤的鏈（拓撲未知），
// 之後 FetchChain 仍會向遠端取得推薦人自己的上線。
func (s *LedgerService) UpdateLocalEarnings(ctx shared.TransactionContext, referrerID shared.UserID, level int, amount decimal.Decimal) error {
	now := s.clock.Now()
	chain, err := s.chains.FindByUser(ctx, referrerID)
	switch {
	case err == nil:
		if err := chain.AddEarnings(level, amount, now); err != nil {
			return err
		}
		if err := s.chains.Update(ctx, chain); err != nil {
			return fmt.Errorf("failed to update referrer earnings: %w", err)
		}
		return nil
	case errors.Is(err, referral.ErrChainNotFound):
		holder, err := referral.NewEarningsHolder(referrerID, now)
		if err != nil {
			return err
		}
		if err := holder.AddEarnings(level, amount, now); err != nil {
			return err
		}
		if err := s.chains.Save(ctx, holder); err != nil {
			return fmt.Errorf("failed to save referrer chain: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("failed to load referrer chain: %w", err)
	}
}

func (s *LedgerService) submit(ctx context.Context, eventKey string, userID shared.UserID, pointsEarned decimal.Decimal) (map[shared.UserID]decimal.Decimal, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	confirmed, err := s.remote.SubmitReferralDistribution(callCtx, eventKey, userID, pointsEarned)
	if err != nil {
		return nil, fmt.Errorf("failed to submit referral distribution: %w", err)
	}
	return confirmed, nil
}

// matchPayouts 把遠端確認的推薦人對應到推薦鏈的層級
func (s *LedgerService) matchPayouts(eventKey string, chain *referral.Chain, confirmed map[shared.UserID]decimal.Decimal) ([]referral.Payout, error) {
	payouts := make([]referral.Payout, 0, len(confirmed))
	for referrerID, amount := range confirmed {
		level := chain.LevelOf(referrerID)
		if level == 0 {
			return nil, referral.ErrDistributionMismatch.WithContext(
				"event_key", eventKey,
				"referrer_id", referrerID.String(),
			)
		}
		if amount.IsNegative() {
			return nil, referral.ErrDistributionMismatch.WithContext(
				"event_key", eventKey,
				"referrer_id", referrerID.String(),
				"amount", amount.String(),
			)
		}
		payouts = append(payouts, referral.Payout{ReferrerID: referrerID, Level: level, Amount: amount})
	}
	return payouts, nil
}

// compareWithExpected 遠端金額與本地試算不同時只記錄，以遠端為準
func (s *LedgerService) compareWithExpected(eventKey string, pointsEarned decimal.Decimal, chain *referral.Chain, payouts []referral.Payout) {
	expected, err := s.distribution.CalculateRewardDistribution(pointsEarned, chain)
	if err != nil {
		return
	}
	for _, p := range payouts {
		want, ok := expected[p.Level]
		if !ok || !want.RewardAmount.Equal(p.Amount) {
			s.logger.Warn("remote referral amount differs from local calculation",
				"event_key", eventKey,
				"level", p.Level,
				"remote", p.Amount.String(),
				"expected", want.RewardAmount.String(),
			)
		}
	}
}
