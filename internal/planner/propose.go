package planner

import (
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "blogsched/internal/log"
	"blogsched/internal/model"
)

const (
	maxAlternatives = 3
	// Upper bound on weekdays walked while looking for open slots.
	maxSlotScan = 3660
)

// DateFilter reports dates that must not receive a proposal. ics.Blackouts
// satisfies it.
type DateFilter interface {
	Blocked(date string) bool
}

// ProposeOptions drives Propose.
type ProposeOptions struct {
	// Today is the first candidate date (midnight UTC).
	Today time.Time
	// Now stamps suggestedAt/approvedAt.
	Now time.Time
	// Horizon is the number of weekday slots to fill. Zero means the
	// schedule's planning horizon.
	Horizon int
	// RecentTitles are titles of existing posts; overlapping topics are
	// avoided.
	RecentTitles []string
	Blackouts    DateFilter
	Rand         *rand.Rand
}

// Propose generates proposals for the next Horizon weekdays that have no
// committed entry. Dates holding approved, generated or published entries
// and blacked-out dates are skipped without consuming a slot. Proposed
// entries already in the schedule are regenerated.
func Propose(s *model.Schedule, opts ProposeOptions) ([]model.ScheduleEntry, error) {
	if opts.Today.IsZero() {
		return nil, errors.New("propose: today is required")
	}
	settings := s.EffectiveSettings()
	if opts.Horizon <= 0 {
		opts.Horizon = settings.PlanningHorizonDays
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(opts.Today.Unix()), 0))
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	slots, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   opts.Today,
		Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
		Count:     maxSlotScan,
	})
	if err != nil {
		return nil, err
	}

	committed := make(map[string]bool)
	for _, e := range s.Schedule {
		if e.Status != model.StatusProposed && e.Status != "" {
			committed[e.Date] = true
		}
	}

	var out []model.ScheduleEntry
	next := slots.Iterator()
	for len(out) < opts.Horizon {
		day, ok := next()
		if !ok {
			break
		}
		date := model.FormatDate(day)
		if committed[date] {
			continue
		}
		if opts.Blackouts != nil && opts.Blackouts.Blocked(date) {
			appLog.Debug("proposal skipped for blackout", "date", date)
			continue
		}
		out = append(out, proposeFor(day, settings, opts))
	}
	return out, nil
}

func proposeFor(day time.Time, settings model.Settings, opts ProposeOptions) model.ScheduleEntry {
	wd := day.Weekday()
	meta := categories[wd]
	pool := topicsByDay[wd]

	primary := pickTopic(pool.Primary, opts.RecentTitles, opts.Rand)
	var alts []model.Alternative
	for _, i := range opts.Rand.Perm(len(pool.Alternatives)) {
		t := pool.Alternatives[i]
		if isRecent(t.Topic, opts.RecentTitles) {
			continue
		}
		alts = append(alts, model.Alternative{Topic: t.Topic, Focus: t.Focus, Keywords: t.Keywords})
		if len(alts) == maxAlternatives {
			break
		}
	}
	if alts == nil {
		alts = []model.Alternative{}
	}

	now := opts.Now.UTC()
	e := model.ScheduleEntry{
		Date:         model.FormatDate(day),
		Day:          strings.ToLower(wd.String()),
		Status:       model.StatusProposed,
		Topic:        primary.Topic,
		Focus:        primary.Focus,
		Keywords:     primary.Keywords,
		Category:     meta.Category,
		Icon:         meta.Icon,
		Tags:         append([]string(nil), meta.Tags...),
		ReadTime:     defaultReadTime,
		SuggestedBy:  "system",
		SuggestedAt:  &now,
		Alternatives: alts,
	}
	if !settings.RequireApproval {
		e.Status = model.StatusApproved
		e.ApprovedBy = "system"
		e.ApprovedAt = &now
	}
	return e
}

// pickTopic returns a random topic that does not overlap a recent title,
// falling back to the first template.
func pickTopic(pool []Topic, recent []string, r *rand.Rand) Topic {
	for _, i := range r.Perm(len(pool)) {
		if !isRecent(pool[i].Topic, recent) {
			return pool[i]
		}
	}
	return pool[0]
}

// isRecent reports whether more than half of the words of the longer of
// topic and a recent title are shared.
func isRecent(topic string, recent []string) bool {
	tw := wordSet(topic)
	for _, title := range recent {
		rw := wordSet(title)
		shared := 0
		for w := range tw {
			if rw[w] {
				shared++
			}
		}
		total := max(len(tw), len(rw))
		if total > 0 && float64(shared)/float64(total) > 0.5 {
			return true
		}
	}
	return false
}

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = true
	}
	return out
}

// Merge folds proposals into the schedule. A proposal replaces an existing
// proposed entry on the same date; committed entries are never touched.
// The schedule is re-sorted by date.
func Merge(s *model.Schedule, proposals []model.ScheduleEntry) (added, replaced int) {
	for _, p := range proposals {
		i := s.Find(p.Date)
		switch {
		case i < 0:
			s.Schedule = append(s.Schedule, p)
			added++
		case s.Schedule[i].Status == model.StatusProposed || s.Schedule[i].Status == "":
			s.Schedule[i] = p
			replaced++
		}
	}
	s.SortByDate()
	return added, replaced
}
