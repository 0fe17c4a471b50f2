package cli

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/observability"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence"
	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/scheduler"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

// ─── serve ──────────────────────────────────────────────────────────────────

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background engine",
	Long: `Run expiration and tier maintenance on their cron schedules, watch
backend reachability, replay the offline queue when the backend comes
back, and expose Prometheus metrics.`,
	Args: cobra.NoArgs,
	RunE: withApp(runServe),
}

func runServe(cmd *cobra.Command, _ []string, app *App) error {
	ctx := cmd.Context()
	log := app.Logger

	if err := persistence.Migrate(app.DB); err != nil {
		return err
	}

	sched := scheduler.New(log, time.Local)
	if err := sched.Add("expiration", app.Config.ExpirationCron, func(ctx context.Context) error {
		r, err := app.Expiration.RunOnce(ctx)
		if err != nil {
			return err
		}
		log.Info("expiration run finished",
			"scanned", r.Scanned, "expired", r.Expired, "points_expired", r.PointsExpired,
			"warned", r.Warned, "failed", r.Failed)
		return nil
	}); err != nil {
		return err
	}
	if err := sched.Add("tier-maintenance", app.Config.TierMaintenanceCron, func(ctx context.Context) error {
		r, err := app.Tiers.RunOnce(ctx)
		if err != nil {
			return err
		}
		log.Info("tier maintenance finished",
			"scanned", r.Scanned, "reset", r.Reset, "downgraded", r.Downgraded, "failed", r.Failed)
		return nil
	}); err != nil {
		return err
	}

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { app.Monitor.Run(ctx) })
	run(func() {
		if err := app.Queue.Run(ctx, app.Monitor); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("offline queue stopped", "error", err)
		}
	})
	run(func() { sched.Start(ctx) })

	if addr := app.Config.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler(app.Registry))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		run(func() {
			log.Info("metrics server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		})
		run(func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
	}

	log.Info("engine started", "jobs", sched.Len())
	<-ctx.Done()
	wg.Wait()
	log.Info("engine stopped")
	return nil
}
