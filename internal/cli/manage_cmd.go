package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"blogsched/internal/model"
	"blogsched/internal/planner"
)

func newApproveCmd(app *App) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "approve <date>",
		Short: "Approve the topic scheduled for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var topic string
			err := app.mutate(func(s *model.Schedule) error {
				e, err := planner.Approve(s, args[0], by, app.Now())
				if err != nil {
					return err
				}
				topic = e.Topic
				return nil
			})
			if err != nil {
				return err
			}
			done(cmd.OutOrStdout(), "Approved topic for %s: %s", args[0], topic)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "user", "Who approved the topic")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var f planner.EditFields

	cmd := &cobra.Command{
		Use:   "edit <date>",
		Short: "Edit the topic, focus, keywords or notes of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.mutate(func(s *model.Schedule) error {
				_, err := planner.Edit(s, args[0], f)
				return err
			})
			if err != nil {
				return err
			}
			done(cmd.OutOrStdout(), "Updated topic for %s", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Topic, "topic", "", "New topic")
	cmd.Flags().StringVar(&f.Focus, "focus", "", "New focus")
	cmd.Flags().StringVar(&f.Keywords, "keywords", "", "New keywords")
	cmd.Flags().StringVar(&f.Notes, "notes", "", "New notes")
	return cmd
}

func newSuggestCmd(app *App) *cobra.Command {
	var sug planner.Suggestion

	cmd := &cobra.Command{
		Use:   "suggest <date>",
		Short: "Add an approved topic for a weekday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.mutate(func(s *model.Schedule) error {
				_, err := planner.Suggest(s, args[0], sug, app.Now())
				return err
			})
			if err != nil {
				return err
			}
			done(cmd.OutOrStdout(), "Added topic for %s: %s", args[0], sug.Topic)
			return nil
		},
	}

	cmd.Flags().StringVar(&sug.Topic, "topic", "", "Topic title")
	cmd.Flags().StringVar(&sug.Focus, "focus", "", "Focus")
	cmd.Flags().StringVar(&sug.Keywords, "keywords", "", "Keywords")
	cmd.Flags().StringVar(&sug.Notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&sug.By, "by", "user", "Who suggested the topic")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func newAddResearchCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "add-research <date>",
		Short: "Link a research notes file to an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exists := func(p string) bool {
				if !filepath.IsAbs(p) {
					p = filepath.Join(app.baseDir(), p)
				}
				st, err := os.Stat(p)
				return err == nil && !st.IsDir()
			}
			err := app.mutate(func(s *model.Schedule) error {
				_, err := planner.AddResearch(s, args[0], file, exists)
				return err
			})
			if err != nil {
				return err
			}
			done(cmd.OutOrStdout(), "Added research notes for %s: %s", args[0], file)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Research notes path, relative to the config directory")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSwitchCmd(app *App) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "switch <date>",
		Short: "Swap the topic with one of its alternatives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var topic string
			err := app.mutate(func(s *model.Schedule) error {
				e, err := planner.SwitchAlternative(s, args[0], n)
				if err != nil {
					return err
				}
				topic = e.Topic
				return nil
			})
			if err != nil {
				return err
			}
			done(cmd.OutOrStdout(), "Switched to alternative topic for %s: %s", args[0], topic)
			return nil
		},
	}

	cmd.Flags().IntVar(&n, "alternative", 0, "Alternative number (1-based)")
	_ = cmd.MarkFlagRequired("alternative")
	return cmd
}

func newConfigCmd(app *App) *cobra.Command {
	var horizon int
	var autoApprove bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Change planning settings stored in the schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var h *int
			var a *bool
			if cmd.Flags().Changed("horizon") {
				h = &horizon
			}
			if cmd.Flags().Changed("auto-approve") {
				a = &autoApprove
			}
			if h == nil && a == nil {
				return errors.New("nothing to change: pass --horizon or --auto-approve")
			}

			var st model.Settings
			err := app.mutate(func(s *model.Schedule) error {
				var err error
				st, err = planner.Configure(s, h, a)
				return err
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if h != nil {
				done(out, "Set planning horizon to %d days", st.PlanningHorizonDays)
			}
			if a != nil {
				done(out, "Set auto-approve to %t", !st.RequireApproval)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&horizon, "horizon", 0, "Planning horizon in days")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Approve generated proposals automatically")
	return cmd
}
