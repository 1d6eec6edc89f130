package ics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogsched/internal/model"
)

const holidays = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:xmas@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20231225\r\n" +
	"DTEND;VALUE=DATE:20231226\r\n" +
	"RRULE:FREQ=YEARLY\r\n" +
	"SUMMARY:Christmas\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:trip@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20241230\r\n" +
	"DTEND;VALUE=DATE:20250102\r\n" +
	"SUMMARY:Trip\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:call@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART:20241216T230000Z\r\n" +
	"DTEND:20241217T000000Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=3\r\n" +
	"EXDATE:20241223T230000Z\r\n" +
	"SUMMARY:Late call\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20241220\r\n" +
	"SUMMARY:No UID\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func blockedDates(b Blackouts) []string {
	out := make([]string, 0, len(b))
	for d := range b {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func TestParseAndExpandBlackouts(t *testing.T) {
	events, err := ParseICS(Source{ID: "holidays"}, []byte(holidays))
	require.NoError(t, err)
	require.Len(t, events, 3, "event without UID is skipped")

	b, err := ExpandBlackouts(events, ExpandConfig{
		Location: time.UTC,
		From:     mustDate(t, "2024-12-15"),
		To:       mustDate(t, "2025-01-05"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-12-16", // call ends exactly at midnight
		"2024-12-25",
		"2024-12-30",
		"2024-12-31",
		"2025-01-01", // DTEND is exclusive for all-day events
	}, blockedDates(b))
	assert.Equal(t, []string{"Trip", "Late call"}, b["2024-12-30"])
	assert.True(t, b.Blocked("2024-12-25"))
	assert.False(t, b.Blocked("2024-12-23"), "EXDATE removes the instance")
}

func TestExpandBlackoutsTimedEventUsesLocation(t *testing.T) {
	events, err := ParseICS(Source{ID: "h"}, []byte(holidays))
	require.NoError(t, err)

	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	b, err := ExpandBlackouts(events, ExpandConfig{
		Location: seoul,
		From:     mustDate(t, "2024-12-15"),
		To:       mustDate(t, "2024-12-20"),
	})
	require.NoError(t, err)

	// 23:00Z on the 16th is 08:00 on the 17th in Seoul.
	assert.Equal(t, []string{"2024-12-17"}, blockedDates(b))
}

func TestExpandBlackoutsRejectsInvertedRange(t *testing.T) {
	_, err := ExpandBlackouts(nil, ExpandConfig{From: mustDate(t, "2024-12-15"), To: mustDate(t, "2024-12-14")})
	assert.Error(t, err)
}

func TestParseICSErrors(t *testing.T) {
	_, err := ParseICS(Source{ID: "x"}, nil)
	assert.Error(t, err)
}

func TestFetcherConditionalRequestsAndFallback(t *testing.T) {
	var failing atomic.Bool
	var conditional atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(holidays))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "holidays", URL: srv.URL + "/private.ics?token=secret"}
	ctx := context.Background()

	res, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, holidays, string(res.Body))

	res, err = f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, int32(1), conditional.Load())

	failing.Store(true)
	res, err = f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, holidays, string(res.Body))

	results, errs := f.FetchAll(ctx, []Source{src, {ID: "other", URL: srv.URL + "/other.ics"}})
	assert.Len(t, results, 1)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "other")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/cal.ics?token=abc"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}

func TestExport(t *testing.T) {
	published := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	s := &model.Schedule{Schedule: []model.ScheduleEntry{
		{Date: "2024-03-12", Status: model.StatusProposed, Topic: "Lambda", Focus: "Cold starts"},
		{Date: "2024-03-11", Status: model.StatusApproved, Topic: "S3", Focus: "Tiering", Category: "aws", Icon: "☁️",
			Alternatives: []model.Alternative{{Topic: "EC2"}}},
		{Date: "2024-03-11", Status: model.StatusApproved, Topic: "S3 again"},
		{Date: "2024-03-10", Status: model.StatusPublished, Topic: "Done", PublishedAt: &published},
	}}

	data, err := Export(s, ExportOptions{Domain: "example.com", Now: published})
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 3, "published entries are left out by default")

	uids := []string{}
	for _, ev := range events {
		uids = append(uids, ev.GetProperty(ical.ComponentPropertyUniqueId).Value)
	}
	assert.Equal(t, []string{"2024-03-11@example.com", "2024-03-11-1@example.com", "2024-03-12@example.com"}, uids)

	first := events[0]
	assert.Equal(t, "20240311", first.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "☁️ S3", first.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "CONFIRMED", first.GetProperty(ical.ComponentPropertyStatus).Value)
	assert.Equal(t, "AWS", first.GetProperty(ical.ComponentPropertyCategories).Value)
	assert.Equal(t, "TENTATIVE", events[2].GetProperty(ical.ComponentPropertyStatus).Value)

	all, err := Export(s, ExportOptions{Now: published, IncludeTerminal: true})
	require.NoError(t, err)
	cal, err = ical.ParseCalendar(bytes.NewReader(all))
	require.NoError(t, err)
	assert.Len(t, cal.Events(), 4)
}
