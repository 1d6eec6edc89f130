package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"blogsched/internal/pipeline"
	"blogsched/internal/planner"
)

func newReconcileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Mark entries published when their post file exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, _, err := pipeline.Reconcile(cmd.Context(), app.cfg, app.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Changed == 0 {
				fmt.Fprintln(out, "No status changes needed")
				return nil
			}
			done(out, "Marked %d entries published: %s", res.Changed, strings.Join(res.Promoted, ", "))
			return nil
		},
	}
}

func newRenderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Regenerate the coming-soon section of the blog page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := pipeline.Render(cmd.Context(), app.cfg, app.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !rep.Written {
				fmt.Fprintf(out, "Coming soon section already up to date (%d topics)\n", rep.Rendered)
				return nil
			}
			done(out, "Updated coming soon section with %d topics", rep.Rendered)
			return nil
		},
	}
}

func newRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Reconcile statuses, then render the coming-soon section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := pipeline.Run(cmd.Context(), app.cfg, app.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Reconcile.Changed > 0 {
				done(out, "Marked %d entries published: %s", res.Reconcile.Changed, strings.Join(res.Reconcile.Promoted, ", "))
			}
			done(out, "Coming soon section has %d topics (written: %t)", res.Render.Rendered, res.Render.Written)
			return nil
		},
	}
}

func newViewCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "view",
		Short: "List upcoming entries of every status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.loadSchedule()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			entries := planner.Upcoming(s, app.today(), days)
			if len(entries) == 0 {
				fmt.Fprintln(out, warnColor.Sprintf("📅 No scheduled topics for next %d days", days))
				return nil
			}
			fmt.Fprintln(out, titleColor.Sprintf("📅 Upcoming Blog Schedule (next %d days):", days))
			fmt.Fprintln(out)
			for _, e := range entries {
				printEntry(out, e)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 14, "Number of days to show")
	return cmd
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show schedule counts and planning settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.loadSchedule()
			if err != nil {
				return err
			}
			sum := planner.Summarize(s, app.today())
			lastUpdated := "never"
			if sum.LastUpdated != nil {
				lastUpdated = sum.LastUpdated.Format("2006-01-02T15:04:05Z07:00")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleColor.Sprint("📊 Blog Schedule Status:"))
			fmt.Fprintf(out, "   Total upcoming entries: %d\n", sum.Upcoming)
			fmt.Fprintf(out, "   Proposed: %s\n", statusColor("proposed").Sprint(sum.Proposed))
			fmt.Fprintf(out, "   Approved: %s\n", statusColor("approved").Sprint(sum.Approved))
			fmt.Fprintf(out, "   Generated: %d\n", sum.Generated)
			fmt.Fprintf(out, "   Published: %d\n", sum.Published)
			fmt.Fprintf(out, "   Planning horizon: %d days\n", sum.Settings.PlanningHorizonDays)
			fmt.Fprintf(out, "   Auto-approve: %s\n", yesNo(!sum.Settings.RequireApproval))
			fmt.Fprintf(out, "   Last updated: %s\n", lastUpdated)
			return nil
		},
	}
}
