package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"blogsched/internal/model"
)

// ExportOptions controls the schedule feed.
type ExportOptions struct {
	// Domain is the right-hand side of event UIDs.
	Domain string
	// Name is the calendar display name.
	Name string
	// Now stamps DTSTAMP so output is reproducible.
	Now time.Time
	// IncludeTerminal also exports published/generated entries.
	IncludeTerminal bool
}

// Export renders the schedule as an iCalendar feed with one all-day event
// per entry.
func Export(s *model.Schedule, opts ExportOptions) ([]byte, error) {
	if opts.Domain == "" {
		opts.Domain = "blogsched.local"
	}
	if opts.Name == "" {
		opts.Name = "Blog schedule"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//blogsched//schedule export//EN")
	cal.SetXWRCalName(opts.Name)

	entries := make([]model.ScheduleEntry, len(s.Schedule))
	copy(entries, s.Schedule)
	sorted := &model.Schedule{Schedule: entries}
	sorted.SortByDate()

	seen := make(map[string]int)
	for _, e := range sorted.Schedule {
		if e.Status.Terminal() && !opts.IncludeTerminal {
			continue
		}
		day, err := e.Time()
		if err != nil {
			return nil, err
		}

		uid := e.Date + "@" + opts.Domain
		if n := seen[e.Date]; n > 0 {
			uid = fmt.Sprintf("%s-%d@%s", e.Date, n, opts.Domain)
		}
		seen[e.Date]++

		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(opts.Now.UTC())
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary(e.DisplayIcon() + " " + e.Topic)
		ev.SetDescription(describe(e))
		ev.SetProperty(ical.ComponentPropertyStatus, eventStatus(e.Status))
		if e.Category != "" {
			ev.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(e.Category))
		}
	}

	return []byte(cal.Serialize()), nil
}

func eventStatus(s model.Status) string {
	switch s {
	case model.StatusProposed, "":
		return "TENTATIVE"
	case model.StatusSkipped:
		return "CANCELLED"
	default:
		return "CONFIRMED"
	}
}

func describe(e model.ScheduleEntry) string {
	var b strings.Builder
	b.WriteString(e.Focus)
	fmt.Fprintf(&b, "\nStatus: %s", e.Status)
	if e.Keywords != "" {
		fmt.Fprintf(&b, "\nKeywords: %s", e.Keywords)
	}
	if n := len(e.Alternatives); n > 0 {
		fmt.Fprintf(&b, "\nAlternatives: %d", n)
	}
	return strings.TrimSpace(b.String())
}
