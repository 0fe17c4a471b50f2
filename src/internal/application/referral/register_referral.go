package referral

import (
	"errors"
	"fmt"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
)

// ===========================
// RegisterReferral Use Case
// ===========================

// RegisterReferralCommand 以推薦人建立新用戶的推薦鏈
type RegisterReferralCommand struct {
	UserID     string // 被推薦的新用戶
	ReferrerID string // 第 1 層推薦人
}

// RegisterReferralResult 建立結果
type RegisterReferralResult struct {
	UserID    string
	Referrers []string // 依層級排列，空字串表示該層沒有推薦人
	Levels    int
}

// RegisterReferralUseCase 註冊推薦關係
//
// 業務規則：
// 1. 每個用戶只能有一條推薦鏈（重複返回 ErrChainAlreadyExists）
// 2. 不能推薦自己，鏈上不能出現重複的推薦人（形成循環時同樣拒絕）
// 3. 第 N 層 = 推薦人的第 N-1 層，最多 5 層
type RegisterReferralUseCase struct {
	chains    referral.ChainRepository
	txManager shared.TransactionManager
	clock     shared.Clock
}

// NewRegisterReferralUseCase 創建 Use Case 實例
func NewRegisterReferralUseCase(
	chains referral.ChainRepository,
	txManager shared.TransactionManager,
	clock shared.Clock,
) *RegisterReferralUseCase {
	return &RegisterReferralUseCase{
		chains:    chains,
		txManager: txManager,
		clock:     clock,
	}
}

// Execute 執行註冊
func (uc *RegisterReferralUseCase) Execute(cmd RegisterReferralCommand) (*RegisterReferralResult, error) {
	// Step 1: 驗證輸入
	userID, err := shared.UserIDFromString(cmd.UserID)
	if err != nil {
		return nil, err
	}
	referrerID, err := shared.UserIDFromString(cmd.ReferrerID)
	if err != nil {
		return nil, err
	}
	if userID.Equals(referrerID) {
		return nil, referral.ErrSelfReferral.WithContext("user_id", cmd.UserID)
	}

	var chain *referral.Chain

	// Step 2: 在事務中建立推薦鏈
	err = uc.txManager.InTransaction(func(ctx shared.TransactionContext) error {
		existing, err := uc.chains.FindByUser(ctx, userID)
		switch {
		case err == nil && existing.TopologyKnown():
			return referral.ErrChainAlreadyExists.WithContext("user_id", cmd.UserID)
		case err != nil && !errors.Is(err, referral.ErrChainNotFound):
			return fmt.Errorf("failed to check referral chain: %w", err)
		}

		referrerChain, err := uc.chains.FindByUser(ctx, referrerID)
		if err != nil {
			if !errors.Is(err, referral.ErrChainNotFound) {
				return fmt.Errorf("failed to load referrer chain: %w", err)
			}
			referrerChain = nil
		}
		if referrerChain != nil && !referrerChain.TopologyKnown() {
			// 推薦人的上線尚未取得，只記錄第 1 層
			referrerChain = nil
		}

		derived, err := referral.NewChainFromReferrer(userID, referrerID, referrerChain, uc.clock.Now())
		if err != nil {
			return err
		}
		if existing == nil {
			chain = derived
			return uc.chains.Save(ctx, chain)
		}

		// 用戶先以推薦人身分收到分潤，保留累計並補上拓撲
		referrers := derived.Referrers()
		if err := existing.ResolveTopology(referrers[:], uc.clock.Now()); err != nil {
			return err
		}
		chain = existing
		return uc.chains.Update(ctx, chain)
	})
	if err != nil {
		return nil, err
	}

	// Step 3: 返回結果
	referrers := chain.Referrers()
	result := &RegisterReferralResult{
		UserID:    chain.UserID().String(),
		Referrers: make([]string, 0, referral.MaxLevels),
		Levels:    chain.ActiveLevels(),
	}
	for _, r := range referrers {
		if r.IsEmpty() {
			result.Referrers = append(result.Referrers, "")
			continue
		}
		result.Referrers = append(result.Referrers, r.String())
	}
	return result, nil
}
