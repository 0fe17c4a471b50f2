package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(expiryCmd)
	expiryCmd.AddCommand(expiryListCmd)
	expiryCmd.AddCommand(expiryTouchCmd)
	expiryCmd.AddCommand(expiryDismissCmd)
	expiryCmd.AddCommand(expiryRemindCmd)

	expiryRemindCmd.Flags().Int("days", 7, "Days to snooze the warning")
}

var expiryCmd = &cobra.Command{
	Use:   "expiry",
	Short: "Inspect and manage points that are about to expire",
}

// ─── expiry list ────────────────────────────────────────────────────────────

var expiryListCmd = &cobra.Command{
	Use:   "list USER_ID",
	Short: "List a user's balances that are inside the warning window",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		items, err := app.Expiration.FetchExpiringPoints(args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing is about to expire")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVENUE\tPOINTS\tEXPIRES\tDAYS\tURGENCY\tDISMISSED")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\t%t\n",
				it.ExpirationID, it.VenueID, it.PointsAtRisk,
				it.ExpirationDate.Local().Format(time.DateOnly), it.DaysUntilExpiry, it.Urgency, it.Dismissed)
		}
		return w.Flush()
	}),
}

// ─── expiry touch ───────────────────────────────────────────────────────────

var expiryTouchCmd = &cobra.Command{
	Use:   "touch MEMBERSHIP_ID",
	Short: "Record member activity and push the expiration date back",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		if err := app.Expiration.UpdateLastActivity(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "activity recorded for %s\n", args[0])
		return nil
	}),
}

// ─── expiry dismiss ─────────────────────────────────────────────────────────

var expiryDismissCmd = &cobra.Command{
	Use:   "dismiss EXPIRATION_ID",
	Short: "Hide an expiration warning",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		if err := app.Expiration.DismissWarning(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "warning %s dismissed\n", args[0])
		return nil
	}),
}

// ─── expiry remind ──────────────────────────────────────────────────────────

var expiryRemindCmd = &cobra.Command{
	Use:   "remind EXPIRATION_ID",
	Short: "Snooze an expiration warning",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		days, _ := cmd.Flags().GetInt("days")
		if err := app.Expiration.RemindLater(args[0], days); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "warning %s snoozed for %d days\n", args[0], days)
		return nil
	}),
}
