package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/earning"
	appexpiration "github.com/jackyeh168/venue_loyalty/src/internal/application/expiration"
	appmembership "github.com/jackyeh168/venue_loyalty/src/internal/application/membership"
	appoffline "github.com/jackyeh168/venue_loyalty/src/internal/application/offline"
	appreferral "github.com/jackyeh168/venue_loyalty/src/internal/application/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/application/tiering"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/expiration"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/tier"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/config"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/connectivity"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/lock"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/notification"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/observability"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence"
	expirationpersistence "github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/expiration"
	membershippersistence "github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/membership"
	offlinepersistence "github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/offline"
	pointspersistence "github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/points"
	referralpersistence "github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/referral"
	streakpersistence "github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence/streak"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/remote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ===========================
// Composition Root
// ===========================

// App 組裝完成的應用程式
//
// 所有命令共用同一份組裝流程，命令只挑自己需要的服務使用。
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *gorm.DB
	Venues  *config.VenueRegistry
	Monitor *connectivity.Monitor

	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	Join       *appmembership.JoinVenueUseCase
	Balance    *appmembership.GetBalanceUseCase
	Redeem     *appmembership.RedeemPointsUseCase
	Earning    *earning.Service
	Referrals  *appreferral.LedgerService
	Register   *appreferral.RegisterReferralUseCase
	Expiration *appexpiration.Scheduler
	Tiers      *tiering.MaintenanceService
	Badges     *tiering.BadgeProgressUseCase
	Queue      *appoffline.Queue
}

// NewLogger 依設定建立 slog logger（json 或 text）
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// gormLogLevel debug 時輸出 SQL，其餘只記錄錯誤
func gormLogLevel(cfg *config.Config) logger.LogLevel {
	if cfg.LogLevel == "debug" {
		return logger.Info
	}
	return logger.Error
}

// NewApp 依設定組裝所有元件
func NewApp(cfg *config.Config) (*App, error) {
	log := NewLogger(cfg)
	slog.SetDefault(log)

	venues, err := config.LoadVenues(cfg.VenueConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load venues: %w", err)
	}

	db, err := persistence.Open(cfg.DatabasePath, gormLogLevel(cfg))
	if err != nil {
		return nil, err
	}

	client, err := remote.NewClient(remote.Config{
		BaseURL:  cfg.RemoteBaseURL,
		Timeout:  cfg.RemoteTimeout,
		APIToken: cfg.RemoteAPIToken,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote client: %w", err)
	}

	calculator, err := points.NewCalculationService(cfg.PointsBaseRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create points calculator: %w", err)
	}
	distribution, err := referral.NewDistributionService(cfg.ReferralRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create referral distribution: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	publisher := observability.NewEventPublisher(metrics, log)

	var (
		clock       shared.Clock = shared.SystemClock{}
		txManager                = persistence.NewGORMTransactionManager(db)
		locker                   = lock.NewKeyedMutex()
		engine                   = tier.NewEngine()
		memberships              = membershippersistence.NewMembershipRepository(db)
		ledger                   = pointspersistence.NewLedgerRepository(db)
		checkIns                 = streakpersistence.NewCheckInRepository(db)
		chains                   = referralpersistence.NewChainRepository(db)
		records                  = referralpersistence.NewDistributionRecordRepository(db)
		expirations              = expirationpersistence.NewExpirationRepository(db)
		actions                  = offlinepersistence.NewActionRepository(db)
		policy                   = expiration.Policy{Window: cfg.ExpirationWindow(), WarningWindow: cfg.WarningWindow()}
	)

	referrals := appreferral.NewLedgerService(chains, records, txManager, client, distribution, clock,
		appreferral.WithRemoteTimeout(cfg.RemoteTimeout),
		appreferral.WithMetrics(metrics),
		appreferral.WithLogger(log),
	)

	queue := appoffline.NewQueue(
		actions,
		txManager,
		appoffline.NewDispatcher(client, client, referrals),
		metrics,
		clock,
		log,
		appoffline.Config{
			MaxAttempts:    cfg.SyncMaxAttempts,
			HandlerTimeout: cfg.RemoteTimeout,
			SyncInterval:   cfg.SyncInterval,
		},
	)

	expirer, err := appexpiration.NewScheduler(appexpiration.Deps{
		Memberships: memberships,
		Ledger:      ledger,
		Expirations: expirations,
		TxManager:   txManager,
		Locker:      locker,
		Remote:      client,
		Notifier:    notification.NewLogDispatcher(log),
		Publisher:   publisher,
		Metrics:     metrics,
		Clock:       clock,
		Logger:      log,
	}, appexpiration.Config{
		Policy:            policy,
		MaxNotifyAttempts: expiration.DefaultMaxNotifyAttempts,
		RemoteTimeout:     cfg.RemoteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create expiration scheduler: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Venues:   venues,
		Registry: reg,
		Metrics:  metrics,
		Monitor: connectivity.NewMonitor(connectivity.Config{
			URL:      cfg.HealthURL,
			Interval: cfg.ProbeInterval,
		}, log),

		Join:    appmembership.NewJoinVenueUseCase(memberships, txManager, venues, queue, publisher, clock, log),
		Balance: appmembership.NewGetBalanceUseCase(memberships, venues, engine, clock),
		Redeem: appmembership.NewRedeemPointsUseCase(
			memberships, ledger, txManager, locker, queue, expirer, publisher, policy, clock, log,
		),
		Earning: earning.NewService(earning.Deps{
			Memberships: memberships,
			Ledger:      ledger,
			CheckIns:    checkIns,
			TxManager:   txManager,
			Locker:      locker,
			TierConfigs: venues,
			Venues:      venues,
			Calculator:  calculator,
			Engine:      engine,
			Enqueuer:    queue,
			Activity:    expirer,
			Publisher:   publisher,
			Policy:      policy,
			Clock:       clock,
			Logger:      log,
		}),
		Referrals:  referrals,
		Register:   appreferral.NewRegisterReferralUseCase(chains, txManager, clock),
		Expiration: expirer,
		Tiers:      tiering.NewMaintenanceService(memberships, txManager, locker, venues, engine, publisher, clock, log),
		Badges:     tiering.NewBadgeProgressUseCase(memberships, venues, chains),
		Queue:      queue,
	}, nil
}

// Close 釋放資料庫連線
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
