package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostStem(t *testing.T) {
	tests := []struct {
		name  string
		entry ScheduleEntry
		want  string
	}{
		{"derived day", ScheduleEntry{Date: "2024-03-10"}, "sunday-2024-03-10"},
		{"stored day wins", ScheduleEntry{Date: "2024-03-10", Day: "Monday"}, "monday-2024-03-10"},
		{"blank stored day falls back", ScheduleEntry{Date: "2024-03-11", Day: "  "}, "monday-2024-03-11"},
		{"bad date without day", ScheduleEntry{Date: "soon"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.PostStem())
		})
	}
}

func TestStatusClassification(t *testing.T) {
	assert.True(t, StatusPublished.Terminal())
	assert.True(t, StatusGenerated.Terminal())
	assert.False(t, StatusApproved.Terminal())

	assert.True(t, StatusProposed.Upcoming())
	assert.True(t, StatusApproved.Upcoming())
	assert.False(t, StatusSkipped.Upcoming())

	assert.True(t, Status("").Valid())
	assert.False(t, Status("draft").Valid())
}

func TestAlternativeJSON(t *testing.T) {
	var alts []Alternative
	require.NoError(t, json.Unmarshal([]byte(`["Plain topic", {"topic":"Rich","focus":"f","keywords":"k"}]`), &alts))
	require.Len(t, alts, 2)
	assert.Equal(t, Alternative{Topic: "Plain topic"}, alts[0])
	assert.Equal(t, Alternative{Topic: "Rich", Focus: "f", Keywords: "k"}, alts[1])

	out, err := json.Marshal(alts)
	require.NoError(t, err)
	assert.JSONEq(t, `["Plain topic", {"topic":"Rich","focus":"f","keywords":"k"}]`, string(out))
}

func TestFindAndSortKeepDuplicateOrder(t *testing.T) {
	s := &Schedule{Schedule: []ScheduleEntry{
		{Date: "2024-03-12", Topic: "c"},
		{Date: "2024-03-10", Topic: "a1"},
		{Date: "2024-03-10", Topic: "a2"},
	}}

	assert.Equal(t, 1, s.Find("2024-03-10"))
	assert.Equal(t, -1, s.Find("2024-01-01"))

	s.SortByDate()
	topics := []string{s.Schedule[0].Topic, s.Schedule[1].Topic, s.Schedule[2].Topic}
	assert.Equal(t, []string{"a1", "a2", "c"}, topics)
}

func TestCivilDate(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// 20:00 UTC on the 9th is already the 10th in Seoul.
	ts := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-10", FormatDate(CivilDate(ts, seoul)))
	assert.Equal(t, "2024-03-09", FormatDate(CivilDate(ts, time.UTC)))
}

func TestEffectiveSettings(t *testing.T) {
	s := &Schedule{}
	assert.Equal(t, DefaultSettings(), s.EffectiveSettings())

	s.Settings = &Settings{PlanningHorizonDays: 0, RequireApproval: false}
	got := s.EffectiveSettings()
	assert.Equal(t, 14, got.PlanningHorizonDays)
	assert.False(t, got.RequireApproval)
}

func TestScheduleEntryJSONKeepsExtraMembers(t *testing.T) {
	var e ScheduleEntry
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-10","status":"generated","Topic":"t","focus":"","slug":"s","meta":{"a":1}}`), &e))
	assert.Equal(t, "t", e.Topic)
	assert.Nil(t, e.Alternatives)
	assert.Equal(t, map[string]json.RawMessage{"slug": json.RawMessage(`"s"`), "meta": json.RawMessage(`{"a":1}`)}, e.Extra)

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `{"date":"2024-03-10","status":"generated","topic":"t","focus":"","meta":{"a":1},"slug":"s"}`, string(out))

	e.Extra = nil
	e.Alternatives = []Alternative{}
	out, err = json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `{"date":"2024-03-10","status":"generated","topic":"t","focus":"","alternatives":[]}`, string(out))
}
