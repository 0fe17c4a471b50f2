package shared

// TransactionContext 事務上下文介面
//
// 設計決策：可選事務參與模式（Optional Transaction Participation）
//
// 行為約定：
// - ctx != nil: 在調用者的事務中執行（事務傳播）
// - ctx == nil: 使用 auto-commit 模式（適用於單一讀操作）
//
// Repository 方法約束：
// - Save / Update / Delete：ctx 必須為 non-nil（寫操作需要事務保證）
// - FindXXX：ctx 可為 nil（讀操作可選事務參與）
//
// 範例（積分入帳與等級變更一起提交）：
//
//	txManager.InTransaction(func(ctx TransactionContext) error {
//	    m, _ := repo.FindByID(ctx, membershipID)
//	    m.CreditPoints(amount, spend, now)
//	    engine.CheckAndUpdateTier(m, cfg, now)
//	    return repo.Update(ctx, m)
//	})
//
// 這是一個標記介面（Marker Interface），Infrastructure Layer 負責實作
// 具體的事務封裝（GORM），Domain 與 Application 只依賴此介面。
type TransactionContext interface {
	// 標記介面：僅用於傳遞上下文，不暴露方法
}

// TransactionManager 事務管理器介面
//
// fn 返回錯誤或 panic 時整個事務回滾，返回 nil 時提交。
type TransactionManager interface {
	InTransaction(fn func(ctx TransactionContext) error) error
}
