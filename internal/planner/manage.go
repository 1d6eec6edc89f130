// Package planner implements the editorial operations on a schedule:
// approving, editing, suggesting and switching topics, status summaries, and
// template-based proposals. Every function mutates the schedule in memory;
// callers persist it.
package planner

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"blogsched/internal/model"
)

var (
	ErrEntryNotFound       = errors.New("no topic found for date")
	ErrTerminal            = errors.New("entry is already published or generated")
	ErrNotWeekday          = errors.New("date is not a weekday")
	ErrNoAlternatives      = errors.New("no alternatives available")
	ErrAlternativeIndex    = errors.New("invalid alternative index")
	ErrResearchFileMissing = errors.New("research file not found")
	ErrEmptyTopic          = errors.New("topic is required")
	ErrInvalidHorizon      = errors.New("planning horizon must be positive")
)

func lookup(s *model.Schedule, date string) (*model.ScheduleEntry, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, err
	}
	i := s.Find(date)
	if i < 0 {
		return nil, fmt.Errorf("%w %s", ErrEntryNotFound, date)
	}
	return &s.Schedule[i], nil
}

// Approve moves an entry to approved. Published and generated entries stay
// where they are.
func Approve(s *model.Schedule, date, by string, now time.Time) (*model.ScheduleEntry, error) {
	e, err := lookup(s, date)
	if err != nil {
		return nil, err
	}
	if e.Status.Terminal() {
		return nil, fmt.Errorf("%s: %w", date, ErrTerminal)
	}
	if by == "" {
		by = "user"
	}
	t := now.UTC()
	e.Status = model.StatusApproved
	e.ApprovedBy = by
	e.ApprovedAt = &t
	return e, nil
}

// EditFields holds replacement values; empty fields are left alone.
type EditFields struct {
	Topic    string
	Focus    string
	Keywords string
	Notes    string
}

// Edit updates the descriptive fields of an entry.
func Edit(s *model.Schedule, date string, f EditFields) (*model.ScheduleEntry, error) {
	e, err := lookup(s, date)
	if err != nil {
		return nil, err
	}
	if f.Topic != "" {
		e.Topic = f.Topic
	}
	if f.Focus != "" {
		e.Focus = f.Focus
	}
	if f.Keywords != "" {
		e.Keywords = f.Keywords
	}
	if f.Notes != "" {
		e.Notes = f.Notes
	}
	return e, nil
}

// Suggestion is a hand-picked topic for a date.
type Suggestion struct {
	Topic    string
	Focus    string
	Keywords string
	Notes    string
	By       string
}

// Suggest adds an approved entry for a weekday, replacing a planning entry
// already on that date. The schedule is re-sorted by date.
func Suggest(s *model.Schedule, date string, sug Suggestion, now time.Time) (*model.ScheduleEntry, error) {
	if sug.Topic == "" {
		return nil, ErrEmptyTopic
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	meta, ok := categories[d.Weekday()]
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotWeekday, date, d.Weekday())
	}
	if i := s.Find(date); i >= 0 && s.Schedule[i].Status.Terminal() {
		return nil, fmt.Errorf("%s: %w", date, ErrTerminal)
	}
	if sug.By == "" {
		sug.By = "user"
	}

	t := now.UTC()
	entry := model.ScheduleEntry{
		Date:         date,
		Day:          model.ScheduleEntry{Date: date}.Weekday(),
		Status:       model.StatusApproved,
		Topic:        sug.Topic,
		Focus:        sug.Focus,
		Keywords:     sug.Keywords,
		Category:     meta.Category,
		Icon:         meta.Icon,
		Tags:         slices.Clone(meta.Tags),
		ReadTime:     defaultReadTime,
		Notes:        sug.Notes,
		SuggestedBy:  sug.By,
		SuggestedAt:  &t,
		ApprovedBy:   sug.By,
		ApprovedAt:   &t,
		Alternatives: []model.Alternative{},
	}

	if i := s.Find(date); i >= 0 {
		s.Schedule[i] = entry
	} else {
		s.Schedule = append(s.Schedule, entry)
	}
	s.SortByDate()
	return &s.Schedule[s.Find(date)], nil
}

// AddResearch links a research notes file. exists decides whether the path
// is present; it is injected so callers choose the base directory.
func AddResearch(s *model.Schedule, date, path string, exists func(string) bool) (*model.ScheduleEntry, error) {
	e, err := lookup(s, date)
	if err != nil {
		return nil, err
	}
	if exists != nil && !exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrResearchFileMissing, path)
	}
	e.ResearchNotes = path
	return e, nil
}

// SwitchAlternative promotes alternative n (1-based) to be the entry's
// topic. The current topic joins the alternatives unless one with the same
// topic is already there.
func SwitchAlternative(s *model.Schedule, date string, n int) (*model.ScheduleEntry, error) {
	e, err := lookup(s, date)
	if err != nil {
		return nil, err
	}
	if len(e.Alternatives) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoAlternatives, date)
	}
	if n < 1 || n > len(e.Alternatives) {
		return nil, fmt.Errorf("%w %d: available 1-%d", ErrAlternativeIndex, n, len(e.Alternatives))
	}

	chosen := e.Alternatives[n-1]
	current := model.Alternative{Topic: e.Topic, Focus: e.Focus, Keywords: e.Keywords}
	alts := slices.Delete(slices.Clone(e.Alternatives), n-1, n)
	if !slices.ContainsFunc(e.Alternatives, func(a model.Alternative) bool { return a.Topic == e.Topic }) {
		alts = append(alts, current)
	}

	e.Topic, e.Focus, e.Keywords = chosen.Topic, chosen.Focus, chosen.Keywords
	e.Alternatives = alts
	return e, nil
}

// Summary counts upcoming entries by status.
type Summary struct {
	Upcoming    int
	Proposed    int
	Approved    int
	Generated   int
	Published   int
	Settings    model.Settings
	LastUpdated *time.Time
}

// Summarize counts entries dated today or later.
func Summarize(s *model.Schedule, today time.Time) Summary {
	sum := Summary{Settings: s.EffectiveSettings(), LastUpdated: s.LastUpdated}
	for _, e := range s.Schedule {
		d, err := e.Time()
		if err != nil || d.Before(today) {
			continue
		}
		sum.Upcoming++
		switch e.Status {
		case model.StatusProposed:
			sum.Proposed++
		case model.StatusApproved:
			sum.Approved++
		case model.StatusGenerated:
			sum.Generated++
		case model.StatusPublished:
			sum.Published++
		}
	}
	return sum
}

// Configure updates planning settings. Nil arguments are left unchanged.
func Configure(s *model.Schedule, horizon *int, autoApprove *bool) (model.Settings, error) {
	st := s.EffectiveSettings()
	if horizon != nil {
		if *horizon <= 0 {
			return st, fmt.Errorf("%w: %d", ErrInvalidHorizon, *horizon)
		}
		st.PlanningHorizonDays = *horizon
	}
	if autoApprove != nil {
		st.RequireApproval = !*autoApprove
	}
	s.Settings = &st
	return st, nil
}

// Upcoming lists entries dated within [today, today+days], sorted by date.
// Unlike the coming-soon section it includes every status.
func Upcoming(s *model.Schedule, today time.Time, days int) []model.ScheduleEntry {
	last := today.AddDate(0, 0, days)
	var out []model.ScheduleEntry
	for _, e := range s.Schedule {
		d, err := e.Time()
		if err != nil || d.Before(today) || d.After(last) {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, model.CompareDate)
	return out
}
