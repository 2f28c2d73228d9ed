package scheduler

import (
	"time"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

// IsValid checks whether a list of scheduled slots conforms to the schedule
// invariant: grouped by local calendar day, every day strictly between the
// first and last day carries exactly one slot per preferred time, while the
// first and last days may carry any non-empty subset of them. A slot at a
// time of day outside the preferred set invalidates the whole schedule, as
// does more than one slot at the same time on the same day.
//
// The empty schedule is vacuously valid.
func IsValid(slots []model.ScheduledSlot, preferred []model.PreferredTime) bool {
	if len(slots) == 0 {
		return true
	}
	if len(preferred) == 0 {
		return false
	}

	allowed := make(map[int]struct{}, len(preferred))
	for _, t := range preferred {
		allowed[t.MinutesFromMidnight()] = struct{}{}
	}

	// day -> minutes-of-day -> occurrences. Bucket membership is decided by
	// the slot's local date components, not by instant arithmetic.
	days := make(map[string]map[int]int)
	var minDay, maxDay time.Time
	for i, s := range slots {
		minute := s.FireAt.Hour()*60 + s.FireAt.Minute()
		if _, ok := allowed[minute]; !ok {
			return false
		}
		day := startOfDay(s.FireAt)
		key := dayKey(s.FireAt)
		if days[key] == nil {
			days[key] = make(map[int]int)
		}
		days[key][minute]++
		if days[key][minute] > 1 {
			return false
		}
		if i == 0 || day.Before(minDay) {
			minDay = day
		}
		if i == 0 || day.After(maxDay) {
			maxDay = day
		}
	}

	minKey, maxKey := dayKey(minDay), dayKey(maxDay)
	for key, bucket := range days {
		if key == minKey || key == maxKey {
			continue
		}
		if len(bucket) != len(allowed) {
			return false
		}
	}

	// Every interior calendar day must be present: a missing day is a deficit
	// of all preferred times at once.
	for day := minDay.AddDate(0, 0, 1); day.Before(maxDay); day = day.AddDate(0, 0, 1) {
		if _, ok := days[dayKey(day)]; !ok {
			return false
		}
	}
	return true
}

func startOfDay(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
}

// dayKey identifies the local calendar day of an instant.
func dayKey(at time.Time) string {
	return at.Format("2006-01-02")
}
