// Package cli implements the blogsched command tree.
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"blogsched/internal/config"
	appLog "blogsched/internal/log"
	"blogsched/internal/model"
	"blogsched/internal/store"
)

// App holds state shared by all commands. Flags fill it before the
// persistent pre-run loads the configuration.
type App struct {
	ConfigPath   string
	SchedulePath string
	Debug        bool

	// Now is swapped in tests.
	Now func() time.Time

	cfg *config.Config
}

// NewRootCmd creates the top-level "blogsched" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	if app.Now == nil {
		app.Now = time.Now
	}

	root := &cobra.Command{
		Use:           "blogsched",
		Short:         "Blog schedule store, status reconciler and coming-soon renderer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigPath, "config", "blogsched.yaml", "Path to config file (created with defaults if missing)")
	root.PersistentFlags().StringVar(&app.SchedulePath, "schedule", "", "Schedule JSON path (overrides config)")
	root.PersistentFlags().BoolVar(&app.Debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newReconcileCmd(app),
		newRenderCmd(app),
		newRunCmd(app),
		newViewCmd(app),
		newStatusCmd(app),
		newApproveCmd(app),
		newEditCmd(app),
		newSuggestCmd(app),
		newAddResearchCmd(app),
		newSwitchCmd(app),
		newConfigCmd(app),
		newProposeCmd(app),
		newExportICSCmd(app),
		newServeCmd(app),
		newPreviewCmd(app),
	)

	return root
}

func (a *App) load() error {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.SchedulePath != "" {
		cfg.SchedulePath = a.SchedulePath
	}

	level := appLog.ParseLevel(cfg.LogLevel)
	if a.Debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	appLog.Debug("effective config",
		"schedule", cfg.SchedulePath,
		"posts_dir", cfg.PostsDir,
		"target", cfg.TargetHTML,
		"timezone", cfg.Timezone,
		"window_days", cfg.WindowDays,
		"max_items", cfg.MaxItems,
	)
	a.cfg = cfg
	return nil
}

// baseDir is where relative user-supplied paths are resolved.
func (a *App) baseDir() string {
	return filepath.Dir(a.ConfigPath)
}

// today is the current calendar date in the configured timezone.
func (a *App) today() time.Time {
	return model.CivilDate(a.Now(), a.cfg.Location())
}

func (a *App) loadSchedule() (*model.Schedule, error) {
	return store.Load(a.cfg.SchedulePath)
}

// saveSchedule stamps lastUpdated and writes the schedule.
func (a *App) saveSchedule(s *model.Schedule) error {
	store.Touch(s, a.Now())
	return store.Save(a.cfg.SchedulePath, s)
}

// mutate loads the schedule, applies fn and saves when fn succeeds.
func (a *App) mutate(fn func(s *model.Schedule) error) error {
	s, err := a.loadSchedule()
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return a.saveSchedule(s)
}
