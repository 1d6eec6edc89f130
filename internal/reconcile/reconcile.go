// Package reconcile promotes schedule entries to published once their post
// file shows up on disk.
package reconcile

import (
	"time"

	appLog "blogsched/internal/log"
	"blogsched/internal/model"
	"blogsched/internal/posts"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Changed  int
	Promoted []string // dates of promoted entries, in schedule order
}

// Reconcile marks every non-terminal entry whose post exists as published.
// It mutates s in place; callers persist only when Changed > 0. Promotion is
// one-way and publishedAt is never overwritten.
func Reconcile(s *model.Schedule, checker posts.Checker, now time.Time) Result {
	var res Result
	stamp := now.UTC()

	for i := range s.Schedule {
		e := &s.Schedule[i]
		if e.Status.Terminal() {
			continue
		}
		stem := e.PostStem()
		if stem == "" || !checker.Exists(stem) {
			continue
		}

		appLog.Info("marking entry published", "date", e.Date, "topic", e.Topic, "from", string(e.Status))
		e.Status = model.StatusPublished
		if e.PublishedAt == nil {
			t := stamp
			e.PublishedAt = &t
		}
		res.Changed++
		res.Promoted = append(res.Promoted, e.Date)
	}

	return res
}
