package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jackyeh168/venue_loyalty/src/internal/domain/offline"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueRetryCmd)
	queueCmd.AddCommand(queueDiscardCmd)

	queueListCmd.Flags().Bool("attention", false, "Only list actions that exhausted their retries or were rejected")
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage the offline action queue",
}

// ─── queue list ─────────────────────────────────────────────────────────────

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued actions in sync order",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *App) error {
		attention, _ := cmd.Flags().GetBool("attention")

		var (
			actions []*offline.PendingAction
			err     error
		)
		if attention {
			actions, err = app.Queue.NeedsAttention()
		} else {
			actions, err = app.Queue.PendingActions()
		}
		if err != nil {
			return err
		}
		if len(actions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
			return nil
		}
		return printActions(cmd.OutOrStdout(), actions)
	}),
}

func printActions(out io.Writer, actions []*offline.PendingAction) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tPRIORITY\tSTATUS\tATTEMPTS\tCREATED\tLAST ERROR")
	for _, a := range actions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
			a.ID(), a.Type(), a.Priority(), a.Status(), a.AttemptCount(),
			a.CreatedAt().Local().Format(time.DateTime), a.LastError())
	}
	return w.Flush()
}

// ─── queue retry ────────────────────────────────────────────────────────────

var queueRetryCmd = &cobra.Command{
	Use:   "retry ACTION_ID",
	Short: "Reset a failed action so the next sync picks it up",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		if err := app.Queue.Retry(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "action %s returned to pending\n", args[0])
		return nil
	}),
}

// ─── queue discard ──────────────────────────────────────────────────────────

var queueDiscardCmd = &cobra.Command{
	Use:   "discard ACTION_ID",
	Short: "Remove an action from the queue without syncing it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
		if err := app.Queue.Discard(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "action %s discarded\n", args[0])
		return nil
	}),
}
