package ics

import (
	"errors"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "blogsched/internal/log"
	"blogsched/internal/model"
)

const defaultMaxOccurrences = 1000

// Blackouts maps blocked YYYY-MM-DD dates to the summaries that block them.
type Blackouts map[string][]string

// Blocked reports whether date is covered by any blackout event.
func (b Blackouts) Blocked(date string) bool {
	_, ok := b[date]
	return ok
}

func (b Blackouts) add(date, summary string) {
	if !slices.Contains(b[date], summary) {
		b[date] = append(b[date], summary)
	}
}

// ExpandConfig bounds blackout expansion.
type ExpandConfig struct {
	// Location decides which calendar day a timed event falls on.
	Location *time.Location
	// From and To are inclusive calendar dates (midnight UTC, as returned by
	// model.ParseDate).
	From, To time.Time
	// MaxOccurrences caps each recurring series.
	MaxOccurrences int
}

// ExpandBlackouts expands events (RRULE, EXDATE, overridden instances) into
// the set of blocked dates within [From, To].
func ExpandBlackouts(events []ParsedEvent, cfg ExpandConfig) (Blackouts, error) {
	if cfg.To.Before(cfg.From) {
		return nil, errors.New("expand: To is before From")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	// Overridden instants are removed from their series.
	overridden := make(map[string][]time.Time)
	for _, ev := range events {
		if ev.Recurrence != nil {
			overridden[ev.UID] = append(overridden[ev.UID], *ev.Recurrence)
		}
	}

	out := make(Blackouts)
	for _, ev := range events {
		if ev.RawRRule == "" || ev.Recurrence != nil {
			markSpan(out, ev, ev.Start, ev.End, cfg)
			continue
		}

		starts, err := occurrences(ev, overridden[ev.UID], cfg)
		if err != nil {
			appLog.Error("blackout rrule skipped", err, "uid", ev.UID, "rrule", ev.RawRRule)
			continue
		}
		dur := ev.End.Sub(ev.Start)
		for _, s := range starts {
			markSpan(out, ev, s, s.Add(dur), cfg)
		}
	}
	return out, nil
}

func occurrences(ev ParsedEvent, overridden []time.Time, cfg ExpandConfig) ([]time.Time, error) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, err
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range append(slices.Clone(ev.ExDates), overridden...) {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the window by the event length so spans that start before From
	// but reach into it are kept.
	loc := ev.Start.Location()
	from := time.Date(cfg.From.Year(), cfg.From.Month(), cfg.From.Day(), 0, 0, 0, 0, loc).Add(-ev.End.Sub(ev.Start))
	to := time.Date(cfg.To.Year(), cfg.To.Month(), cfg.To.Day(), 23, 59, 59, 0, loc)

	starts := set.Between(from, to, true)
	if len(starts) > cfg.MaxOccurrences {
		appLog.Error("blackout series truncated", errors.New("max occurrences reached"), "uid", ev.UID, "cap", cfg.MaxOccurrences)
		starts = starts[:cfg.MaxOccurrences]
	}
	return starts, nil
}

// markSpan blocks every calendar day touched by [start, end). All-day
// events use their own dates; timed events are viewed in cfg.Location.
func markSpan(out Blackouts, ev ParsedEvent, start, end time.Time, cfg ExpandConfig) {
	var first, last time.Time
	if ev.AllDay {
		first = civil(start)
		last = civil(end).AddDate(0, 0, -1)
		if last.Before(first) {
			last = first
		}
	} else {
		first = model.CivilDate(start, cfg.Location)
		last = model.CivilDate(end, cfg.Location)
		// An event ending exactly at midnight does not touch the next day.
		if end.After(start) && end.In(cfg.Location).Equal(time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, cfg.Location)) {
			last = last.AddDate(0, 0, -1)
		}
		if last.Before(first) {
			last = first
		}
	}

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if d.Before(cfg.From) || d.After(cfg.To) {
			continue
		}
		out.add(model.FormatDate(d), ev.Summary)
	}
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
