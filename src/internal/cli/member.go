package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/application/earning"
	appmembership "github.com/jackyeh168/venue_loyalty/src/internal/application/membership"
	"github.com/jackyeh168/venue_loyalty/src/internal/application/tiering"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/points"
	"github.com/jackyeh168/venue_loyalty/src/internal/domain/streak"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(memberCmd)
	memberCmd.AddCommand(memberJoinCmd)
	memberCmd.AddCommand(memberBalanceCmd)
	memberCmd.AddCommand(memberCheckInCmd)
	memberCmd.AddCommand(memberPurchaseCmd)
	memberCmd.AddCommand(memberRedeemCmd)
	memberCmd.AddCommand(memberBadgesCmd)

	for _, c := range []*cobra.Command{memberJoinCmd, memberBalanceCmd} {
		c.Flags().String("user", "", "User ID")
		c.Flags().String("venue", "", "Venue ID")
		_ = c.MarkFlagRequired("user")
		_ = c.MarkFlagRequired("venue")
	}

	memberCheckInCmd.Flags().String("method", string(streak.MethodQR), "Check-in method (nfc, qr, manual)")
	memberCheckInCmd.Flags().String("event", "", "Event ID when checking in to an event")
	memberCheckInCmd.Flags().String("multiplier", "", "Event multiplier (defaults to 1.0)")

	memberPurchaseCmd.Flags().String("order", "", "Order ID")
	memberPurchaseCmd.Flags().StringArray("item", nil, "Order line as name:price:quantity[:category[:bonus]]")
	memberPurchaseCmd.Flags().String("multiplier", "", "Event multiplier (defaults to 1.0)")
	_ = memberPurchaseCmd.MarkFlagRequired("order")
	_ = memberPurchaseCmd.MarkFlagRequired("item")

	memberRedeemCmd.Flags().String("reward", "", "Reward ID")
	memberRedeemCmd.Flags().Int("cost", 0, "Points cost of the reward")
	_ = memberRedeemCmd.MarkFlagRequired("reward")
	_ = memberRedeemCmd.MarkFlagRequired("cost")
}

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage venue memberships",
}

// ─── member join ────────────────────────────────────────────────────────────

var memberJoinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a venue at its entry tier",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *App) error {
		user, _ := cmd.Flags().GetString("user")
		venue, _ := cmd.Flags().GetString("venue")

		r, err := app.Join.Execute(appmembership.JoinVenueCommand{UserID: user, VenueID: venue})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Membership %s joined %s at tier %s\n", r.MembershipID, r.VenueID, r.Tier)
		return nil
	}),
}

// ─── member balance ─────────────────────────────────────────────────────────

var memberBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show balance, tier progress and expiry for a membership",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *App) error {
		user, _ := cmd.Flags().GetString("user")
		venue, _ := cmd.Flags().GetString("venue")

		r, err := app.Balance.Execute(appmembership.GetBalanceQuery{UserID: user, VenueID: venue})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Membership:  %s\n", r.MembershipID)
		fmt.Fprintf(out, "Balance:     %d\n", r.Balance)
		fmt.Fprintf(out, "Total spent: %s\n", r.TotalSpent)
		fmt.Fprintf(out, "Visits:      %d\n", r.VisitCount)
		fmt.Fprintf(out, "Tier:        %s (x%s)\n", r.Tier, r.Progress.Multiplier.String())
		if r.Progress.NextTier != nil && r.Progress.AmountToNextTier != nil {
			fmt.Fprintf(out, "Next tier:   %s, %s to go (%s%%)\n",
				r.Progress.NextTier.Name, r.Progress.AmountToNextTier.String(), r.Progress.ProgressPercentage.StringFixed(2))
		}
		if r.NextExpirationDate != nil && r.DaysUntilExpiry != nil {
			fmt.Fprintf(out, "Expires:     %s (%d days)\n", r.NextExpirationDate.Local().Format(time.DateOnly), *r.DaysUntilExpiry)
		}
		return nil
	}),
}

// ─── member checkin ─────────────────────────────────────────────────────────

var memberCheckInCmd = &cobra.Command{
	Use:   "checkin MEMBERSHIP_ID",
	Short: "Record a venue check-in and credit streak points",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		method, _ := cmd.Flags().GetString("method")
		event, _ := cmd.Flags().GetString("event")
		multiplier, err := multiplierFlag(cmd)
		if err != nil {
			return err
		}

		r, err := app.Earning.ProcessCheckIn(earning.CheckInCommand{
			MembershipID:    args[0],
			Method:          streak.Method(method),
			EventID:         event,
			EventMultiplier: multiplier,
		})
		if err != nil {
			return err
		}
		printEarning(cmd, r)
		return nil
	}),
}

// ─── member purchase ────────────────────────────────────────────────────────

var memberPurchaseCmd = &cobra.Command{
	Use:   "purchase MEMBERSHIP_ID",
	Short: "Credit points for a completed order",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		order, _ := cmd.Flags().GetString("order")
		rawItems, _ := cmd.Flags().GetStringArray("item")
		multiplier, err := multiplierFlag(cmd)
		if err != nil {
			return err
		}

		items := make([]points.OrderItem, 0, len(rawItems))
		for _, raw := range rawItems {
			item, err := parseOrderItem(raw)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		r, err := app.Earning.ProcessPurchase(earning.PurchaseCommand{
			MembershipID:    args[0],
			OrderID:         order,
			Items:           items,
			EventMultiplier: multiplier,
		})
		if err != nil {
			return err
		}
		printEarning(cmd, r)
		return nil
	}),
}

// ─── member redeem ──────────────────────────────────────────────────────────

var memberRedeemCmd = &cobra.Command{
	Use:   "redeem MEMBERSHIP_ID",
	Short: "Spend points on a reward",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		reward, _ := cmd.Flags().GetString("reward")
		cost, _ := cmd.Flags().GetInt("cost")

		r, err := app.Redeem.Execute(appmembership.RedeemPointsCommand{
			MembershipID: args[0],
			RewardID:     reward,
			PointsCost:   cost,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Redeemed %d points, balance %d (queued action %s)\n",
			r.PointsRedeemed, r.BalanceAfter, r.ActionID)
		return nil
	}),
}

// ─── member badges ──────────────────────────────────────────────────────────

var memberBadgesCmd = &cobra.Command{
	Use:   "badges MEMBERSHIP_ID",
	Short: "Show badge progress for a membership",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		badges, err := app.Badges.Execute(tiering.BadgeProgressQuery{MembershipID: args[0]})
		if err != nil {
			return err
		}
		if len(badges) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "venue has no badges configured")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BADGE\tEARNED\tPROGRESS")
		for _, b := range badges {
			fmt.Fprintf(w, "%s\t%t\t%.0f%%\n", b.BadgeID, b.Earned, b.Overall*100)
		}
		return w.Flush()
	}),
}

func printEarning(cmd *cobra.Command, r *earning.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Earned %d points, balance %d\n", r.PointsEarned, r.BalanceAfter)
	if r.StreakDay > 0 {
		fmt.Fprintf(out, "Streak day %d (x%s)\n", r.StreakDay, r.Multipliers.Streak.String())
	}
	fmt.Fprintf(out, "Multiplier x%s (tier x%s)\n", r.Multiplier.String(), r.TierMultiplier.String())
	if r.TierChange.Changed {
		fmt.Fprintf(out, "Tier changed: %s -> %s\n", r.TierChange.From, r.TierChange.To)
	}
}

func multiplierFlag(cmd *cobra.Command) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString("multiplier")
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid multiplier %q: %w", raw, err)
	}
	return d, nil
}

// parseOrderItem 解析 name:price:quantity[:category[:bonus]]
func parseOrderItem(raw string) (points.OrderItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 || len(parts) > 5 {
		return points.OrderItem{}, fmt.Errorf("invalid item %q: want name:price:quantity[:category[:bonus]]", raw)
	}

	price, err := decimal.NewFromString(parts[1])
	if err != nil {
		return points.OrderItem{}, fmt.Errorf("invalid price in item %q: %w", raw, err)
	}
	qty, err := strconv.Atoi(parts[2])
	if err != nil {
		return points.OrderItem{}, fmt.Errorf("invalid quantity in item %q: %w", raw, err)
	}

	item := points.OrderItem{
		Name:     parts[0],
		Price:    price,
		Quantity: qty,
		Category: points.CategoryOther,
	}
	if len(parts) >= 4 && parts[3] != "" {
		item.Category = points.ProductCategory(parts[3])
	}
	if len(parts) == 5 {
		bonus, err := decimal.NewFromString(parts[4])
		if err != nil {
			return points.OrderItem{}, fmt.Errorf("invalid bonus in item %q: %w", raw, err)
		}
		item.BonusMultiplier = bonus
	}
	return item, nil
}
