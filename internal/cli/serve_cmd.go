package cli

import (
	"time"

	"github.com/spf13/cobra"

	"blogsched/internal/capture"
	"blogsched/internal/daemon"
	appLog "blogsched/internal/log"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the blog page current and serve the schedule API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				app.cfg.Listen = listen
			}
			appLog.Info("blogsched serve starting",
				"listen", app.cfg.Listen,
				"refresh", app.cfg.RefreshCron,
				"timezone", app.cfg.Timezone,
				"blackout_count", len(app.cfg.Blackout),
			)
			return daemon.New(app.cfg).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func newPreviewCmd(app *App) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Capture a PNG screenshot of the rendered blog page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := app.cfg.Preview.URL
			if target == "" {
				u, err := capture.FileURL(app.cfg.TargetHTML)
				if err != nil {
					return err
				}
				target = u
			}

			err := capture.CapturePNG(cmd.Context(), capture.CaptureOptions{
				URL:        target,
				OutputPath: app.cfg.Preview.OutputPath,
				Width:      app.cfg.Preview.Width,
				Height:     app.cfg.Preview.Height,
				Timeout:    timeout,
			})
			if err != nil {
				return err
			}
			done(cmd.OutOrStdout(), "Wrote preview to %s", app.cfg.Preview.OutputPath)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Capture timeout")
	return cmd
}
