// Package pipeline wires the store, reconciler, renderer and planner into
// the one-shot runs used by the CLI and the serve daemon.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"blogsched/internal/config"
	"blogsched/internal/ics"
	appLog "blogsched/internal/log"
	"blogsched/internal/model"
	"blogsched/internal/planner"
	"blogsched/internal/posts"
	"blogsched/internal/reconcile"
	"blogsched/internal/render"
	"blogsched/internal/store"
)

// Result reports what a Run changed.
type Result struct {
	Reconcile reconcile.Result
	Saved     bool
	Render    render.Report
}

// PostsDir opens the configured posts directory.
func PostsDir(cfg *config.Config) *posts.Dir {
	return posts.OpenDir(cfg.PostsDir, cfg.PostExtensions...)
}

// RenderOptions builds renderer options from cfg.
func RenderOptions(cfg *config.Config, now time.Time) render.Options {
	return render.Options{
		Today:      now,
		Location:   cfg.Location(),
		WindowDays: cfg.WindowDays,
		MaxItems:   cfg.MaxItems,
		Posts:      PostsDir(cfg),
	}
}

// Reconcile loads the schedule, promotes entries whose post exists, and
// saves only when something changed.
func Reconcile(ctx context.Context, cfg *config.Config, now time.Time) (*model.Schedule, reconcile.Result, bool, error) {
	s, err := store.Load(cfg.SchedulePath)
	if err != nil {
		return nil, reconcile.Result{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, reconcile.Result{}, false, err
	}

	res := reconcile.Reconcile(s, PostsDir(cfg), now)
	if res.Changed == 0 {
		appLog.Info("no status changes needed", "schedule", cfg.SchedulePath)
		return s, res, false, nil
	}
	if err := store.Save(cfg.SchedulePath, s); err != nil {
		return nil, res, false, fmt.Errorf("save schedule: %w", err)
	}
	appLog.Info("schedule statuses updated", "changed", res.Changed)
	return s, res, true, nil
}

// Render loads the schedule and regenerates the coming-soon section.
func Render(ctx context.Context, cfg *config.Config, now time.Time) (render.Report, error) {
	s, err := store.Load(cfg.SchedulePath)
	if err != nil {
		return render.Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return render.Report{}, err
	}
	return render.RenderFile(cfg.TargetHTML, s, RenderOptions(cfg, now))
}

// Run reconciles then renders from the reconciled schedule. It stops at the
// first error.
func Run(ctx context.Context, cfg *config.Config, now time.Time) (Result, error) {
	s, rec, saved, err := Reconcile(ctx, cfg, now)
	if err != nil {
		return Result{}, err
	}
	res := Result{Reconcile: rec, Saved: saved}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	rep, err := render.RenderFile(cfg.TargetHTML, s, RenderOptions(cfg, now))
	if err != nil {
		return res, err
	}
	res.Render = rep
	return res, nil
}

// Blackouts fetches the configured blackout calendars and expands them over
// [from, to]. Sources that fail without a cached copy are logged and
// skipped.
func Blackouts(ctx context.Context, cfg *config.Config, client *http.Client, from, to time.Time) (ics.Blackouts, error) {
	if len(cfg.Blackout) == 0 {
		return ics.Blackouts{}, nil
	}
	sources := make([]ics.Source, 0, len(cfg.Blackout))
	for _, b := range cfg.Blackout {
		sources = append(sources, ics.Source{ID: b.SourceID(), URL: b.URL})
	}

	results, errs := ics.NewFetcher(cfg.CacheDir, client).FetchAll(ctx, sources)
	if len(errs) > 0 {
		appLog.Error("blackout fetch failed", errors.Join(errs...), "failed", len(errs))
	}

	var events []ics.ParsedEvent
	for _, res := range results {
		parsed, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("blackout parse failed", err, "source", res.Source.ID)
			continue
		}
		events = append(events, parsed...)
	}
	return ics.ExpandBlackouts(events, ics.ExpandConfig{Location: cfg.Location(), From: from, To: to})
}

// ProposeResult reports a Propose run.
type ProposeResult struct {
	Proposals []model.ScheduleEntry
	Added     int
	Replaced  int
}

// Propose generates proposals for the next horizon weekdays (zero means the
// schedule's planning horizon), merges them and saves the schedule.
func Propose(ctx context.Context, cfg *config.Config, client *http.Client, now time.Time, horizon int, r *rand.Rand) (ProposeResult, error) {
	s, err := store.Load(cfg.SchedulePath)
	if err != nil {
		return ProposeResult{}, err
	}
	today := model.CivilDate(now, cfg.Location())
	if horizon <= 0 {
		horizon = s.EffectiveSettings().PlanningHorizonDays
	}

	// Weekday slots can stretch past the horizon when dates are skipped.
	blackouts, err := Blackouts(ctx, cfg, client, today, today.AddDate(0, 0, horizon*3+14))
	if err != nil {
		return ProposeResult{}, err
	}
	titles, err := PostsDir(cfg).Titles()
	if err != nil {
		appLog.Error("reading post titles failed", err, "dir", cfg.PostsDir)
	}

	proposals, err := planner.Propose(s, planner.ProposeOptions{
		Today:        today,
		Now:          now,
		Horizon:      horizon,
		RecentTitles: titles,
		Blackouts:    blackouts,
		Rand:         r,
	})
	if err != nil {
		return ProposeResult{}, err
	}

	added, replaced := planner.Merge(s, proposals)
	store.Touch(s, now)
	if err := store.Save(cfg.SchedulePath, s); err != nil {
		return ProposeResult{}, fmt.Errorf("save schedule: %w", err)
	}
	appLog.Info("proposals merged", "added", added, "replaced", replaced, "blackout_days", len(blackouts))
	return ProposeResult{Proposals: proposals, Added: added, Replaced: replaced}, nil
}
