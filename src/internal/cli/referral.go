package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	appreferral "github.com/jackyeh168/venue_loyalty/src/internal/application/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/referral"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(referralCmd)
	referralCmd.AddCommand(referralRegisterCmd)
	referralCmd.AddCommand(referralChainCmd)
	referralCmd.AddCommand(referralPreviewCmd)

	referralRegisterCmd.Flags().String("referrer", "", "Direct referrer user ID")
	_ = referralRegisterCmd.MarkFlagRequired("referrer")

	referralPreviewCmd.Flags().String("points", "", "Points earned by the referred user")
	_ = referralPreviewCmd.MarkFlagRequired("points")
}

var referralCmd = &cobra.Command{
	Use:   "referral",
	Short: "Manage referral chains and payouts",
}

// ─── referral register ──────────────────────────────────────────────────────

var referralRegisterCmd = &cobra.Command{
	Use:   "register USER_ID",
	Short: "Attach a new user under a referrer",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		referrer, _ := cmd.Flags().GetString("referrer")

		r, err := app.Register.Execute(appreferral.RegisterReferralCommand{UserID: args[0], ReferrerID: referrer})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s registered with %d referral levels\n", r.UserID, r.Levels)
		return nil
	}),
}

// ─── referral chain ─────────────────────────────────────────────────────────

var referralChainCmd = &cobra.Command{
	Use:   "chain USER_ID",
	Short: "Show a user's referrers and the earnings they collected",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		userID, err := shared.UserIDFromString(args[0])
		if err != nil {
			return err
		}
		chain, err := app.Referrals.FetchChain(cmd.Context(), userID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LEVEL\tREFERRER\tEARNINGS")
		for level := 1; level <= referral.MaxLevels; level++ {
			id, ok := chain.ReferrerAt(level)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", level, id, chain.EarningsAt(level).StringFixed(2))
		}
		return w.Flush()
	}),
}

// ─── referral preview ───────────────────────────────────────────────────────

var referralPreviewCmd = &cobra.Command{
	Use:   "preview USER_ID",
	Short: "Estimate referral payouts for points the user would earn",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		raw, _ := cmd.Flags().GetString("points")
		earned, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid points %q: %w", raw, err)
		}
		userID, err := shared.UserIDFromString(args[0])
		if err != nil {
			return err
		}

		dist, err := app.Referrals.PreviewDistribution(cmd.Context(), userID, earned)
		if err != nil {
			return err
		}
		levels := make([]int, 0, len(dist))
		for level := range dist {
			levels = append(levels, level)
		}
		sort.Ints(levels)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LEVEL\tREFERRER\tREWARD")
		for _, level := range levels {
			d := dist[level]
			fmt.Fprintf(w, "%d\t%s\t%s\n", d.Level, d.ReferrerID, d.RewardAmount.StringFixed(2))
		}
		return w.Flush()
	}),
}
