package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

func slotAt(year int, month time.Month, day, hour, minute int) model.ScheduledSlot {
	return model.ScheduledSlot{
		FactID:         uuid.New(),
		NotificationID: uuid.NewString(),
		FireAt:         time.Date(year, month, day, hour, minute, 0, 0, time.UTC),
	}
}

func TestIsValidEmptySchedule(t *testing.T) {
	if !IsValid(nil, []model.PreferredTime{pt(9, 0)}) {
		t.Fatal("empty schedule must be vacuously valid")
	}
}

func TestIsValidFullThreeDaySpan(t *testing.T) {
	times := []model.PreferredTime{pt(9, 0), pt(18, 0)}
	slots := []model.ScheduledSlot{
		slotAt(2026, 3, 10, 18, 0), // partial first day
		slotAt(2026, 3, 11, 9, 0),
		slotAt(2026, 3, 11, 18, 0),
		slotAt(2026, 3, 12, 9, 0), // partial last day
	}
	if !IsValid(slots, times) {
		t.Fatal("expected a schedule with partial edge days to be valid")
	}
}

func TestIsValidRejectsDuplicateSlot(t *testing.T) {
	times := []model.PreferredTime{pt(9, 0)}
	slots := []model.ScheduledSlot{
		slotAt(2026, 3, 11, 9, 0),
		slotAt(2026, 3, 11, 9, 0),
	}
	if IsValid(slots, times) {
		t.Fatal("two slots at the same preferred time on the same day must be invalid")
	}
}

func TestIsValidRejectsInteriorDeficit(t *testing.T) {
	times := []model.PreferredTime{pt(9, 0), pt(18, 0)}
	slots := []model.ScheduledSlot{
		slotAt(2026, 3, 10, 9, 0),
		slotAt(2026, 3, 10, 18, 0),
		slotAt(2026, 3, 11, 9, 0), // missing 18:00 on the middle day
		slotAt(2026, 3, 12, 9, 0),
		slotAt(2026, 3, 12, 18, 0),
	}
	if IsValid(slots, times) {
		t.Fatal("a deficit on an interior day must invalidate the schedule")
	}
}

func TestIsValidRejectsMissingInteriorDay(t *testing.T) {
	times := []model.PreferredTime{pt(9, 0)}
	slots := []model.ScheduledSlot{
		slotAt(2026, 3, 10, 9, 0),
		slotAt(2026, 3, 12, 9, 0), // March 11 absent entirely
	}
	if IsValid(slots, times) {
		t.Fatal("a missing interior day must invalidate the schedule")
	}
}

func TestIsValidRejectsUnknownTimeOfDay(t *testing.T) {
	times := []model.PreferredTime{pt(9, 0), pt(18, 0)}
	slots := []model.ScheduledSlot{
		slotAt(2026, 3, 11, 9, 0),
		slotAt(2026, 3, 11, 13, 37), // leftover from a since-changed preference
	}
	if IsValid(slots, times) {
		t.Fatal("a slot at a non-preferred time must invalidate the schedule")
	}
}

func TestIsValidSingleDay(t *testing.T) {
	times := []model.PreferredTime{pt(9, 0), pt(18, 0)}
	slots := []model.ScheduledSlot{slotAt(2026, 3, 11, 18, 0)}
	if !IsValid(slots, times) {
		t.Fatal("a single-day schedule with a subset of times must be valid")
	}
}

func TestIsValidAcrossYearBoundary(t *testing.T) {
	times := []model.PreferredTime{pt(9, 0)}
	slots := []model.ScheduledSlot{
		slotAt(2026, 12, 31, 9, 0),
		slotAt(2027, 1, 1, 9, 0),
		slotAt(2027, 1, 2, 9, 0),
	}
	if !IsValid(slots, times) {
		t.Fatal("a contiguous schedule across a year boundary must be valid")
	}
}
