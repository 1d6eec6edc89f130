// Package daemon keeps the coming-soon section current in serve mode: it
// reruns the pipeline on a cron schedule and whenever posts or the schedule
// change on disk, and serves the HTTP API alongside.
package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"blogsched/internal/config"
	appLog "blogsched/internal/log"
	"blogsched/internal/pipeline"
	"blogsched/internal/web"
)

const defaultDebounce = 500 * time.Millisecond

// Daemon serializes pipeline runs triggered by cron, file events and HTTP.
type Daemon struct {
	cfg      *config.Config
	debounce time.Duration
	now      func() time.Time

	mu sync.Mutex // held for the duration of a pipeline run
}

// New returns a Daemon for cfg.
func New(cfg *config.Config) *Daemon {
	return &Daemon{cfg: cfg, debounce: defaultDebounce, now: time.Now}
}

// RunOnce runs the pipeline, waiting for any run already in progress.
func (d *Daemon) RunOnce(ctx context.Context) (pipeline.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return pipeline.Run(ctx, d.cfg, d.now())
}

func (d *Daemon) runLogged(ctx context.Context, trigger string) {
	res, err := d.RunOnce(ctx)
	if err != nil {
		appLog.Error("pipeline run failed", err, "trigger", trigger)
		return
	}
	appLog.Info("pipeline run finished",
		"trigger", trigger,
		"promoted", len(res.Reconcile.Promoted),
		"rendered", res.Render.Rendered,
		"written", res.Render.Written,
	)
}

// Run performs an initial pipeline run, then serves until ctx is cancelled
// or one of the cron scheduler, file watcher or HTTP server fails.
func (d *Daemon) Run(ctx context.Context) error {
	d.runLogged(ctx, "startup")

	g, ctx := errgroup.WithContext(ctx)

	c := cron.New(cron.WithLocation(d.cfg.Location()))
	if _, err := c.AddFunc(d.cfg.RefreshCron, func() { d.runLogged(ctx, "cron") }); err != nil {
		return fmt.Errorf("refresh schedule %q: %w", d.cfg.RefreshCron, err)
	}
	c.Start()
	appLog.Info("refresh scheduled", "cron", d.cfg.RefreshCron, "timezone", d.cfg.Timezone)
	g.Go(func() error {
		<-ctx.Done()
		<-c.Stop().Done()
		return nil
	})

	g.Go(func() error { return d.Watch(ctx) })

	g.Go(func() error {
		return web.NewServer(d.cfg, d.RunOnce).Serve(ctx)
	})

	return g.Wait()
}

// Watch reruns the pipeline after posts appear or the schedule file
// changes. Bursts of events within the debounce window trigger one run.
func (d *Daemon) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	scheduleDir := filepath.Dir(d.cfg.SchedulePath)
	for _, dir := range []string{d.cfg.PostsDir, scheduleDir} {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	appLog.Info("watching for changes", "posts_dir", d.cfg.PostsDir, "schedule", d.cfg.SchedulePath)

	timer := time.NewTimer(d.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !d.relevant(event) {
				continue
			}
			appLog.Debug("fsnotify event", "op", event.Op.String(), "file", event.Name)
			timer.Reset(d.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			appLog.Error("fsnotify error", err)

		case <-timer.C:
			d.runLogged(ctx, "watch")
		}
	}
}

// relevant keeps post arrivals and schedule rewrites. The store and the
// renderer write through temp files, so a rename onto the schedule path
// shows up as Create.
func (d *Daemon) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if filepath.Clean(ev.Name) == filepath.Clean(d.cfg.SchedulePath) {
		return true
	}
	if filepath.Dir(ev.Name) != filepath.Clean(d.cfg.PostsDir) {
		return false
	}
	return slices.Contains(d.cfg.PostExtensions, strings.ToLower(filepath.Ext(ev.Name)))
}
