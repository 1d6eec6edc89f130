package cli

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"blogsched/internal/ics"
	"blogsched/internal/pipeline"
	"blogsched/internal/store"
)

func newProposeCmd(app *App) *cobra.Command {
	var horizon int
	var seed uint64

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Generate topic proposals for upcoming weekdays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(app.Now().UnixNano())
			}
			r := rand.New(rand.NewPCG(seed, seed))

			fmt.Fprintln(cmd.OutOrStdout(), "🔄 Regenerating proposals...")
			res, err := pipeline.Propose(cmd.Context(), app.cfg, nil, app.Now(), horizon, r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range res.Proposals {
				fmt.Fprintf(out, "%s %s %s %s\n", statusIcon(p.Status), titleColor.Sprint(p.Date), p.DisplayIcon(), p.Topic)
			}
			done(out, "Generated %d proposals (%d new, %d replaced)", len(res.Proposals), res.Added, res.Replaced)
			return nil
		},
	}

	cmd.Flags().IntVar(&horizon, "horizon", 0, "Weekdays to fill (default: schedule planning horizon)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed for reproducible proposals")
	return cmd
}

func newExportICSCmd(app *App) *cobra.Command {
	var output string
	var all bool

	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Export the schedule as an iCalendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.loadSchedule()
			if err != nil {
				return err
			}
			data, err := ics.Export(s, ics.ExportOptions{
				Domain:          app.cfg.ICSDomain,
				Now:             app.Now(),
				IncludeTerminal: all,
			})
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := store.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			done(cmd.ErrOrStderr(), "Wrote calendar to %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&all, "all", false, "Include published and generated entries")
	return cmd
}
