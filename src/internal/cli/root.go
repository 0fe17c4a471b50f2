package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "loyaltyd",
	Short: "Venue loyalty ledger and engagement engine",
	Long: `loyaltyd keeps per-venue memberships, points, streaks, tiers and
referral payouts in a local SQLite ledger, expires idle balances on a
schedule, and replays queued actions to the remote backend when it is
reachable again.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
}

// Execute 執行根命令，SIGINT / SIGTERM 會取消命令的 context
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// loadApp 讀取設定並組裝應用程式
func loadApp() (*App, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewApp(cfg)
}

// withApp 包裝需要 App 的命令，結束時關閉資料庫
func withApp(run func(cmd *cobra.Command, args []string, app *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				app.Logger.Warn("failed to close database", "error", err)
			}
		}()
		return run(cmd, args, app)
	}
}
