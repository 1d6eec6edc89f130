package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the fixed-width ISO calendar date used as entry key. Because
// it is fixed width, lexical order equals chronological order.
const DateLayout = "2006-01-02"

// DefaultIcon is shown for entries without an icon.
const DefaultIcon = "📝"

// Status is the lifecycle state of a scheduled entry.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusApproved  Status = "approved"
	StatusPublished Status = "published"
	StatusGenerated Status = "generated"
	// StatusSkipped is written by hand in some schedules. It is never shown
	// as upcoming.
	StatusSkipped Status = "skipped"
)

// Terminal reports whether the status permanently excludes the entry from
// the upcoming set.
func (s Status) Terminal() bool {
	return s == StatusPublished || s == StatusGenerated
}

// Upcoming reports whether an entry in this status may be displayed as
// coming soon.
func (s Status) Upcoming() bool {
	return s == StatusApproved || s == StatusProposed
}

// Valid reports whether s is a known status. The empty status is accepted
// because planning tools create placeholder entries without one.
func (s Status) Valid() bool {
	switch s {
	case "", StatusProposed, StatusApproved, StatusPublished, StatusGenerated, StatusSkipped:
		return true
	}
	return false
}

// Alternative is an alternate topic for an entry. In JSON it is either a
// bare string (the topic) or an object with topic/focus/keywords.
type Alternative struct {
	Topic    string `json:"topic"`
	Focus    string `json:"focus,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

func (a *Alternative) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		a.Focus, a.Keywords = "", ""
		return json.Unmarshal(data, &a.Topic)
	}
	type plain Alternative
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Alternative(p)
	return nil
}

func (a Alternative) MarshalJSON() ([]byte, error) {
	if a.Focus == "" && a.Keywords == "" {
		return json.Marshal(a.Topic)
	}
	type plain Alternative
	return json.Marshal(plain(a))
}

// ScheduleEntry is one planned blog post.
type ScheduleEntry struct {
	Date          string        `json:"date"`
	Day           string        `json:"day,omitempty"`
	Status        Status        `json:"status"`
	Topic         string        `json:"topic"`
	Focus         string        `json:"focus"`
	Keywords      string        `json:"keywords,omitempty"`
	Category      string        `json:"category,omitempty"`
	Icon          string        `json:"icon,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	ReadTime      string        `json:"readTime,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	ResearchNotes string        `json:"researchNotes,omitempty"`
	SuggestedBy   string        `json:"suggestedBy,omitempty"`
	SuggestedAt   *time.Time    `json:"suggestedAt,omitempty"`
	ApprovedBy    string        `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time    `json:"approvedAt,omitempty"`
	PublishedAt   *time.Time    `json:"publishedAt,omitempty"`
	Alternatives  []Alternative `json:"alternatives,omitempty"`

	// Extra holds members this package does not model, such as fields
	// written by the post generator. They are written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// Time returns the entry date as midnight UTC.
func (e ScheduleEntry) Time() (time.Time, error) {
	return ParseDate(e.Date)
}

// Weekday returns the lower-case weekday name derived from Date, or "" if
// Date does not parse.
func (e ScheduleEntry) Weekday() string {
	t, err := e.Time()
	if err != nil {
		return ""
	}
	return strings.ToLower(t.Weekday().String())
}

// DayName is the weekday used for the post filename. A stored day wins over
// the derived one so that hand-named files keep matching.
func (e ScheduleEntry) DayName() string {
	if d := strings.TrimSpace(e.Day); d != "" {
		return strings.ToLower(d)
	}
	return e.Weekday()
}

// PostStem is the expected post filename without extension: {day}-{date}.
// It is empty when no day can be determined.
func (e ScheduleEntry) PostStem() string {
	day := e.DayName()
	if day == "" {
		return ""
	}
	return day + "-" + e.Date
}

// DisplayIcon returns the icon or the placeholder glyph.
func (e ScheduleEntry) DisplayIcon() string {
	if e.Icon == "" {
		return DefaultIcon
	}
	return e.Icon
}

// Settings are the planning knobs stored next to the schedule.
type Settings struct {
	PlanningHorizonDays int  `json:"planningHorizonDays"`
	RequireApproval     bool `json:"requireApproval"`
}

// DefaultSettings mirrors what a fresh schedule file starts with.
func DefaultSettings() Settings {
	return Settings{PlanningHorizonDays: 14, RequireApproval: true}
}

// Schedule is the persisted document.
type Schedule struct {
	Schedule    []ScheduleEntry `json:"schedule"`
	Settings    *Settings       `json:"settings,omitempty"`
	LastUpdated *time.Time      `json:"lastUpdated,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// EffectiveSettings returns the stored settings or the defaults.
func (s *Schedule) EffectiveSettings() Settings {
	if s.Settings == nil {
		return DefaultSettings()
	}
	out := *s.Settings
	if out.PlanningHorizonDays <= 0 {
		out.PlanningHorizonDays = DefaultSettings().PlanningHorizonDays
	}
	return out
}

// Find returns the index of the first entry with the given date, or -1.
// With duplicate dates the earliest stored entry wins.
func (s *Schedule) Find(date string) int {
	return slices.IndexFunc(s.Schedule, func(e ScheduleEntry) bool { return e.Date == date })
}

// SortByDate orders entries by date, keeping the stored order of duplicates.
func (s *Schedule) SortByDate() {
	slices.SortStableFunc(s.Schedule, CompareDate)
}

// CompareDate orders two entries by their date strings.
func CompareDate(a, b ScheduleEntry) int {
	return strings.Compare(a.Date, b.Date)
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// CivilDate drops the time of day of t as observed in loc and returns that
// calendar date at midnight UTC, comparable with ParseDate results.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a midnight-UTC date back to YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
