// Package scheduler contains the pure scheduling arithmetic: computing future
// delivery slots from the user's preferred times and validating an existing
// schedule against them. Nothing in this package performs I/O.
package scheduler

import (
	"time"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

// GenerateSlots computes exactly count future delivery slots, cycling through
// the preferred times in ascending time-of-day order, one slot per time per
// day. Every slot is strictly after now and, when notBefore is given, strictly
// after notBefore as well. Passing the latest already-scheduled instant as
// notBefore extends an existing schedule without colliding with it.
func GenerateSlots(preferred []model.PreferredTime, count int, notBefore *time.Time, now time.Time) []model.Slot {
	if count <= 0 || len(preferred) == 0 {
		return nil
	}

	times := model.CanonicalTimes(preferred)

	floor := now
	if notBefore != nil && notBefore.After(floor) {
		floor = *notBefore
	}
	day := time.Date(floor.Year(), floor.Month(), floor.Day(), 0, 0, 0, 0, floor.Location())

	slots := make([]model.Slot, 0, count)
	for len(slots) < count {
		for _, t := range times {
			if len(slots) == count {
				break
			}
			at := t.On(day)
			// Strict inequality on both bounds: an instant equal to
			// notBefore is already taken by the existing schedule.
			if !at.After(now) {
				continue
			}
			if notBefore != nil && !at.After(*notBefore) {
				continue
			}
			slots = append(slots, model.Slot{FireAt: at, Hour: t.Hour, Minute: t.Minute})
		}
		day = day.AddDate(0, 0, 1)
	}
	return slots
}

// SplitCap divides the pending-queue capacity evenly across the preferred
// times. The remainder is dropped, not redistributed.
func SplitCap(cap, numTimes int) int {
	if numTimes <= 0 {
		return 0
	}
	return cap / numTimes
}

// FirstDayOffset returns 0 when the preferred time is still ahead of now
// today, and 1 when it has already passed and scheduling must start tomorrow.
func FirstDayOffset(t model.PreferredTime, now time.Time) int {
	if t.On(now).After(now) {
		return 0
	}
	return 1
}

// EnsureFuture pushes an instant forward one day if it is not strictly in the
// future. Safety net behind the generator's own guarantee.
func EnsureFuture(at, now time.Time) time.Time {
	if !at.After(now) {
		return at.AddDate(0, 0, 1)
	}
	return at
}
