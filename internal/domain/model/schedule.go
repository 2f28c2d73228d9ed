package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PreferredTime is a wall-clock time of day at which the user wants to
// receive a notification. It carries no date component.
type PreferredTime struct {
	Hour   int
	Minute int
}

// ParsePreferredTime parses a "HH:MM" string into a PreferredTime.
func ParsePreferredTime(s string) (PreferredTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return PreferredTime{}, fmt.Errorf("invalid preferred time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return PreferredTime{}, fmt.Errorf("invalid preferred time %q: bad hour", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return PreferredTime{}, fmt.Errorf("invalid preferred time %q: bad minute", s)
	}
	return PreferredTime{Hour: hour, Minute: minute}, nil
}

// MinutesFromMidnight is the canonical ordering key for preferred times.
func (p PreferredTime) MinutesFromMidnight() int {
	return p.Hour*60 + p.Minute
}

// On returns the instant this time of day resolves to on the given calendar day.
func (p PreferredTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), p.Hour, p.Minute, 0, 0, day.Location())
}

// String implements fmt.Stringer, e.g. "09:05".
func (p PreferredTime) String() string {
	return fmt.Sprintf("%02d:%02d", p.Hour, p.Minute)
}

// CanonicalTimes returns a copy of the preferred times sorted ascending by
// minutes since midnight. All slot cycling is deterministic relative to this
// order, regardless of the order the user entered the times in.
func CanonicalTimes(times []PreferredTime) []PreferredTime {
	out := make([]PreferredTime, len(times))
	copy(out, times)
	sort.Slice(out, func(i, j int) bool {
		return out[i].MinutesFromMidnight() < out[j].MinutesFromMidnight()
	})
	return out
}

// Slot is a computed future delivery opportunity: a concrete instant plus the
// preferred time of day it was derived from.
type Slot struct {
	FireAt time.Time
	Hour   int
	Minute int
}

// ScheduledSlot pairs a fact with its confirmed queue registration. It exists
// only between a successful registration and either delivery or cancellation.
type ScheduledSlot struct {
	FactID         uuid.UUID
	NotificationID string
	FireAt         time.Time
}

// PendingNotification is one live entry of the pending queue as reported by
// the queue itself, not by the store.
type PendingNotification struct {
	Handle string
	FireAt time.Time
}

// DueNotification is a pending entry whose fire instant has passed, popped
// from the queue for delivery.
type DueNotification struct {
	Handle string
	FactID uuid.UUID
	FireAt time.Time
}

// ScheduleResult is the structured outcome of every public scheduling
// operation. Callers branch on these fields only.
type ScheduleResult struct {
	Success bool
	Count   int
	Skipped bool
	Error   string
}
