package cli

import (
	"fmt"

	"github.com/jackyeh168/venue_loyalty/src/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(expireCmd)
	rootCmd.AddCommand(maintainTiersCmd)
	rootCmd.AddCommand(syncCmd)
}

// ─── migrate ────────────────────────────────────────────────────────────────

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the ledger schema",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *App) error {
		if err := persistence.Migrate(app.DB); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	}),
}

// ─── expire ─────────────────────────────────────────────────────────────────

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Run one expiration pass now",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *App) error {
		r, err := app.Expiration.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Scanned:         %d\n", r.Scanned)
		fmt.Fprintf(out, "Expired:         %d (%d points)\n", r.Expired, r.PointsExpired)
		fmt.Fprintf(out, "Warned:          %d\n", r.Warned)
		fmt.Fprintf(out, "Tracked:         %d\n", r.Tracked)
		fmt.Fprintf(out, "Notify retried:  %d\n", r.NotifyRetried)
		fmt.Fprintf(out, "Failed:          %d\n", r.Failed)
		return nil
	}),
}

// ─── maintain-tiers ─────────────────────────────────────────────────────────

var maintainTiersCmd = &cobra.Command{
	Use:   "maintain-tiers",
	Short: "Apply periodic tier resets and inactivity downgrades now",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *App) error {
		r, err := app.Tiers.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scanned: %d  Reset: %d  Downgraded: %d  Skipped: %d  Failed: %d\n",
			r.Scanned, r.Reset, r.Downgraded, r.Skipped, r.Failed)
		return nil
	}),
}

// ─── sync ───────────────────────────────────────────────────────────────────

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay pending offline actions to the backend once",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *App) error {
		r, err := app.Queue.SyncPendingActions(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Attempted: %d  Succeeded: %d  Failed: %d  Fatal: %d  Resumed: %d\n",
			r.Attempted, r.Succeeded, r.Failed, r.Fatal, r.Resumed)
		if r.Interrupted {
			fmt.Fprintln(cmd.OutOrStdout(), "sync was interrupted; remaining actions stay pending")
		}
		return nil
	}),
}
