package planner

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogsched/internal/model"
)

var now = time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func sample() *model.Schedule {
	return &model.Schedule{Schedule: []model.ScheduleEntry{
		{Date: "2024-03-11", Status: model.StatusProposed, Topic: "Lambda", Focus: "Cold starts", Keywords: "lambda",
			Alternatives: []model.Alternative{{Topic: "EC2", Focus: "Sizing"}, {Topic: "VPC"}}},
		{Date: "2024-03-12", Status: model.StatusPublished, Topic: "Pipelines"},
		{Date: "2024-03-13", Status: model.StatusApproved, Topic: "Vault", Alternatives: []model.Alternative{}},
	}}
}

func TestApprove(t *testing.T) {
	s := sample()
	e, err := Approve(s, "2024-03-11", "", now)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, e.Status)
	assert.Equal(t, "user", e.ApprovedBy)
	assert.Equal(t, now, *s.Schedule[0].ApprovedAt)

	_, err = Approve(s, "2024-03-12", "ed", now)
	assert.ErrorIs(t, err, ErrTerminal)
	assert.Equal(t, model.StatusPublished, s.Schedule[1].Status)

	_, err = Approve(s, "2024-04-01", "ed", now)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = Approve(s, "March 11", "ed", now)
	assert.Error(t, err)
}

func TestEditOnlyTouchesGivenFields(t *testing.T) {
	s := sample()
	e, err := Edit(s, "2024-03-11", EditFields{Topic: "Lambda Tuning", Notes: "short"})
	require.NoError(t, err)
	assert.Equal(t, "Lambda Tuning", e.Topic)
	assert.Equal(t, "Cold starts", e.Focus)
	assert.Equal(t, "lambda", e.Keywords)
	assert.Equal(t, "short", e.Notes)
}

func TestSuggest(t *testing.T) {
	s := sample()

	e, err := Suggest(s, "2024-03-14", Suggestion{Topic: "Terraform Tests", By: "ana"}, now)
	require.NoError(t, err)
	assert.Equal(t, "thursday", e.Day)
	assert.Equal(t, "infrastructure", e.Category)
	assert.Equal(t, "🏗️", e.Icon)
	assert.Equal(t, model.StatusApproved, e.Status)
	assert.Equal(t, "ana", e.ApprovedBy)
	assert.NotNil(t, e.Alternatives)
	assert.Len(t, s.Schedule, 4)
	assert.Equal(t, "2024-03-14", s.Schedule[3].Date)

	// Replaces a proposed entry and keeps the schedule sorted.
	_, err = Suggest(s, "2024-03-11", Suggestion{Topic: "S3"}, now)
	require.NoError(t, err)
	assert.Len(t, s.Schedule, 4)
	assert.Equal(t, "S3", s.Schedule[0].Topic)

	_, err = Suggest(s, "2024-03-16", Suggestion{Topic: "Weekend"}, now)
	assert.ErrorIs(t, err, ErrNotWeekday)

	_, err = Suggest(s, "2024-03-12", Suggestion{Topic: "Overwrite"}, now)
	assert.ErrorIs(t, err, ErrTerminal)
	assert.Equal(t, "Pipelines", s.Schedule[1].Topic)

	_, err = Suggest(s, "2024-03-15", Suggestion{}, now)
	assert.ErrorIs(t, err, ErrEmptyTopic)
}

func TestAddResearch(t *testing.T) {
	s := sample()
	exists := func(p string) bool { return p == "notes/lambda.md" }

	_, err := AddResearch(s, "2024-03-11", "notes/missing.md", exists)
	assert.ErrorIs(t, err, ErrResearchFileMissing)

	e, err := AddResearch(s, "2024-03-11", "notes/lambda.md", exists)
	require.NoError(t, err)
	assert.Equal(t, "notes/lambda.md", e.ResearchNotes)
}

func TestSwitchAlternative(t *testing.T) {
	s := sample()

	e, err := SwitchAlternative(s, "2024-03-11", 1)
	require.NoError(t, err)
	assert.Equal(t, "EC2", e.Topic)
	assert.Equal(t, "Sizing", e.Focus)
	assert.Equal(t, []model.Alternative{
		{Topic: "VPC"},
		{Topic: "Lambda", Focus: "Cold starts", Keywords: "lambda"},
	}, e.Alternatives)

	_, err = SwitchAlternative(s, "2024-03-11", 3)
	assert.ErrorIs(t, err, ErrAlternativeIndex)
	_, err = SwitchAlternative(s, "2024-03-11", 0)
	assert.ErrorIs(t, err, ErrAlternativeIndex)
	_, err = SwitchAlternative(s, "2024-03-13", 1)
	assert.ErrorIs(t, err, ErrNoAlternatives)
}

func TestSummarizeAndUpcoming(t *testing.T) {
	s := sample()
	s.Schedule = append(s.Schedule, model.ScheduleEntry{Date: "2024-03-01", Status: model.StatusPublished})

	sum := Summarize(s, day(t, "2024-03-11"))
	assert.Equal(t, 3, sum.Upcoming)
	assert.Equal(t, 1, sum.Proposed)
	assert.Equal(t, 1, sum.Approved)
	assert.Equal(t, 1, sum.Published)
	assert.Equal(t, model.DefaultSettings(), sum.Settings)

	up := Upcoming(s, day(t, "2024-03-11"), 1)
	require.Len(t, up, 2)
	assert.Equal(t, "2024-03-11", up[0].Date)
	assert.Equal(t, "2024-03-12", up[1].Date)
}

func TestConfigure(t *testing.T) {
	s := &model.Schedule{}
	horizon, auto := 21, true
	st, err := Configure(s, &horizon, &auto)
	require.NoError(t, err)
	assert.Equal(t, model.Settings{PlanningHorizonDays: 21, RequireApproval: false}, st)
	assert.Equal(t, st, *s.Settings)

	bad := 0
	_, err = Configure(s, &bad, nil)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
	assert.Equal(t, 21, s.Settings.PlanningHorizonDays)
}

type blocked map[string]bool

func (b blocked) Blocked(d string) bool { return b[d] }

func TestProposeSkipsCommittedWeekendsAndBlackouts(t *testing.T) {
	s := sample()
	got, err := Propose(s, ProposeOptions{
		Today:     day(t, "2024-03-09"), // Saturday
		Now:       now,
		Horizon:   4,
		Blackouts: blocked{"2024-03-14": true},
		Rand:      rand.New(rand.NewPCG(1, 2)),
	})
	require.NoError(t, err)

	var dates []string
	for _, e := range got {
		dates = append(dates, e.Date)
		assert.Equal(t, model.StatusProposed, e.Status)
		assert.Equal(t, "system", e.SuggestedBy)
		assert.LessOrEqual(t, len(e.Alternatives), maxAlternatives)
		assert.NotEmpty(t, e.Topic)
	}
	// 11th is only proposed so it is regenerated; 12th and 13th are committed.
	assert.Equal(t, []string{"2024-03-11", "2024-03-15", "2024-03-18", "2024-03-19"}, dates)
	assert.Equal(t, "monday", got[0].Day)
	assert.Equal(t, "aws", got[0].Category)
	assert.Equal(t, "containers", got[1].Category)
}

func TestProposeAutoApproves(t *testing.T) {
	s := &model.Schedule{Settings: &model.Settings{PlanningHorizonDays: 2, RequireApproval: false}}
	got, err := Propose(s, ProposeOptions{Today: day(t, "2024-03-11"), Now: now, Rand: rand.New(rand.NewPCG(3, 4))})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, model.StatusApproved, e.Status)
		assert.Equal(t, "system", e.ApprovedBy)
	}
}

func TestProposeAvoidsRecentTopics(t *testing.T) {
	var recent []string
	for _, tp := range topicsByDay[time.Monday].Primary[1:] {
		recent = append(recent, tp.Topic)
	}
	for seed := uint64(0); seed < 5; seed++ {
		got, err := Propose(&model.Schedule{}, ProposeOptions{
			Today:        day(t, "2024-03-11"),
			Horizon:      1,
			RecentTitles: recent,
			Rand:         rand.New(rand.NewPCG(seed, seed)),
		})
		require.NoError(t, err)
		assert.Equal(t, topicsByDay[time.Monday].Primary[0].Topic, got[0].Topic)
	}
}

func TestIsRecent(t *testing.T) {
	assert.True(t, isRecent("Docker Best Practices", []string{"docker best practices for 2024"}))
	assert.False(t, isRecent("Docker Best Practices", []string{"Kubernetes Networking Deep Dive"}))
	assert.False(t, isRecent("Docker Best Practices", nil))
}

func TestMerge(t *testing.T) {
	s := sample()
	added, replaced := Merge(s, []model.ScheduleEntry{
		{Date: "2024-03-11", Status: model.StatusProposed, Topic: "New Lambda"},
		{Date: "2024-03-12", Status: model.StatusProposed, Topic: "Ignored"},
		{Date: "2024-03-08", Status: model.StatusProposed, Topic: "Early"},
	})
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, replaced)
	require.Len(t, s.Schedule, 4)
	assert.Equal(t, "Early", s.Schedule[0].Topic)
	assert.Equal(t, "New Lambda", s.Schedule[1].Topic)
	assert.Equal(t, "Pipelines", s.Schedule[2].Topic)
}
