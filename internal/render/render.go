// Package render builds the "Coming Soon" section of the blog page from the
// schedule and splices it into the static HTML document.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"slices"
	"strings"
	"time"

	appLog "blogsched/internal/log"
	"blogsched/internal/model"
	"blogsched/internal/posts"
	"blogsched/internal/store"
)

const (
	DefaultWindowDays = 14
	DefaultMaxItems   = 10
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var comingSoonTmpl = template.Must(template.ParseFS(templateFS, "templates/coming_soon.html.tmpl"))

// Options carries everything a single render needs. Nothing is kept between
// invocations.
type Options struct {
	// Today is the reference instant; only its calendar date in Location
	// matters.
	Today    time.Time
	Location *time.Location

	// WindowDays is the inclusive look-ahead from today.
	WindowDays int
	// MaxItems caps the number of rendered entries.
	MaxItems int

	// Posts, if set, excludes entries whose post file already exists even
	// when the stored status lags behind.
	Posts posts.Checker
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Today.IsZero() {
		o.Today = time.Now()
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
	return o
}

// Select returns the entries shown as coming soon, sorted by date and
// capped, plus the number eligible before the cap.
func Select(s *model.Schedule, opts Options) (shown []model.ScheduleEntry, eligible int) {
	opts = opts.withDefaults()
	today := model.CivilDate(opts.Today, opts.Location)
	last := today.AddDate(0, 0, opts.WindowDays)

	for _, e := range s.Schedule {
		if e.Status.Terminal() {
			continue
		}
		if opts.Posts != nil && opts.Posts.Exists(e.PostStem()) {
			appLog.Debug("post exists; hiding stale entry", "date", e.Date, "status", string(e.Status))
			continue
		}
		d, err := e.Time()
		if err != nil {
			appLog.Error("skipping entry with bad date", err, "date", e.Date)
			continue
		}
		if d.Before(today) || d.After(last) {
			continue
		}
		if !e.Status.Upcoming() {
			continue
		}
		shown = append(shown, e)
	}

	slices.SortStableFunc(shown, model.CompareDate)
	eligible = len(shown)
	if len(shown) > opts.MaxItems {
		shown = shown[:opts.MaxItems]
	}
	return shown, eligible
}

type entryView struct {
	Date         string
	Icon         string
	DayLabel     string
	FullDate     string
	Status       model.Status
	StatusIcon   string
	StatusLabel  string
	Topic        string
	Focus        string
	Alternatives int
}

type fragmentView struct {
	Window  string
	Entries []entryView
}

func newEntryView(e model.ScheduleEntry) entryView {
	v := entryView{
		Date:         e.Date,
		Icon:         e.DisplayIcon(),
		Status:       e.Status,
		Topic:        e.Topic,
		Focus:        e.Focus,
		Alternatives: len(e.Alternatives),
	}
	if t, err := e.Time(); err == nil {
		v.DayLabel = t.Weekday().String()
		v.FullDate = t.Format("Monday, January 2, 2006")
	}
	if e.Status == model.StatusApproved {
		v.StatusIcon, v.StatusLabel = "✅", "Confirmed"
	} else {
		v.StatusIcon, v.StatusLabel = "⏳", "Tentative"
	}
	return v
}

func windowText(days int) string {
	switch {
	case days == 7:
		return "the next week"
	case days%7 == 0:
		return fmt.Sprintf("the next %d weeks", days/7)
	default:
		return fmt.Sprintf("the next %d days", days)
	}
}

// Fragment renders the marker comment followed by the section markup. The
// output has no leading or trailing whitespace.
func Fragment(entries []model.ScheduleEntry, windowDays int) ([]byte, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	view := fragmentView{Window: windowText(windowDays)}
	for _, e := range entries {
		view.Entries = append(view.Entries, newEntryView(e))
	}

	var buf bytes.Buffer
	// html/template drops comments, so the marker is written here.
	buf.WriteString("<!-- " + MarkerComment + " -->\n")
	if err := comingSoonTmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute coming soon template: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), " \t\r\n"), nil
}

// Report describes a RenderFile run.
type Report struct {
	Rendered int  // entries in the fragment
	Eligible int  // entries that qualified before the cap
	Written  bool // false when the document was already up to date
}

// RenderFile regenerates the coming-soon section inside the document at
// target. The document is left untouched on any error.
func RenderFile(target string, s *model.Schedule, opts Options) (Report, error) {
	opts = opts.withDefaults()

	doc, err := os.ReadFile(target)
	if err != nil {
		return Report{}, fmt.Errorf("read target document: %w", err)
	}

	shown, eligible := Select(s, opts)
	frag, err := Fragment(shown, opts.WindowDays)
	if err != nil {
		return Report{}, err
	}

	out, err := Splice(doc, frag)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", target, err)
	}

	rep := Report{Rendered: len(shown), Eligible: eligible}
	if bytes.Equal(out, doc) {
		appLog.Info("coming soon section unchanged", "target", target, "rendered", rep.Rendered)
		return rep, nil
	}
	if err := store.WriteFile(target, out, 0o644); err != nil {
		return Report{}, fmt.Errorf("write target document: %w", err)
	}
	rep.Written = true

	appLog.Info("updated coming soon section",
		"target", target,
		"rendered", rep.Rendered,
		"eligible", rep.Eligible,
		"dates", strings.Join(dates(shown), ","),
	)
	return rep, nil
}

func dates(entries []model.ScheduleEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Date
	}
	return out
}
