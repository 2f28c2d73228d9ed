package scheduler

import (
	"testing"
	"time"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func pt(hour, minute int) model.PreferredTime {
	return model.PreferredTime{Hour: hour, Minute: minute}
}

func TestGenerateSlotsSingleTimeOnePerDay(t *testing.T) {
	slots := GenerateSlots([]model.PreferredTime{pt(9, 0)}, 5, nil, testNow)
	if len(slots) != 5 {
		t.Fatalf("expected 5 slots, got %d", len(slots))
	}
	for i, s := range slots {
		if s.Hour != 9 || s.Minute != 0 {
			t.Fatalf("slot %d: expected 09:00, got %02d:%02d", i, s.Hour, s.Minute)
		}
		if !s.FireAt.After(testNow) {
			t.Fatalf("slot %d not strictly in the future: %v", i, s.FireAt)
		}
	}
	// 09:00 has already passed at 10:00, so the first slot is tomorrow and
	// each following slot is exactly one day later.
	want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	for i, s := range slots {
		if !s.FireAt.Equal(want) {
			t.Fatalf("slot %d: expected %v, got %v", i, want, s.FireAt)
		}
		want = want.AddDate(0, 0, 1)
	}
}

func TestGenerateSlotsCyclesThroughAllTimes(t *testing.T) {
	times := []model.PreferredTime{pt(18, 0), pt(8, 0), pt(12, 0)} // deliberately unordered
	slots := GenerateSlots(times, 9, nil, testNow)
	if len(slots) != 9 {
		t.Fatalf("expected 9 slots, got %d", len(slots))
	}
	perHour := map[int]int{}
	for _, s := range slots {
		perHour[s.Hour]++
	}
	for _, hour := range []int{8, 12, 18} {
		if perHour[hour] != 3 {
			t.Fatalf("expected 3 slots at hour %d, got %d", hour, perHour[hour])
		}
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].FireAt.After(slots[i-1].FireAt) {
			t.Fatalf("slots out of order at %d: %v then %v", i, slots[i-1].FireAt, slots[i].FireAt)
		}
	}
	// At 10:00, 08:00 has passed but 12:00 and 18:00 are still ahead today.
	if slots[0].Hour != 12 || !slots[0].FireAt.Equal(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected the first slot today at 12:00, got %v", slots[0].FireAt)
	}
}

func TestGenerateSlotsRespectsNotBefore(t *testing.T) {
	cursor := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	slots := GenerateSlots([]model.PreferredTime{pt(9, 0)}, 3, &cursor, testNow)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	// The cursor falls exactly on a slot instant; that instant is excluded.
	want := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	if !slots[0].FireAt.Equal(want) {
		t.Fatalf("expected continuation at %v, got %v", want, slots[0].FireAt)
	}
	for _, s := range slots {
		if !s.FireAt.After(cursor) {
			t.Fatalf("slot %v not strictly after the cursor", s.FireAt)
		}
	}
}

func TestGenerateSlotsPastNotBeforeStillFuture(t *testing.T) {
	// A cursor in the past must not let past slots through.
	cursor := testNow.AddDate(0, 0, -3)
	slots := GenerateSlots([]model.PreferredTime{pt(9, 0)}, 2, &cursor, testNow)
	for _, s := range slots {
		if !s.FireAt.After(testNow) {
			t.Fatalf("slot %v not strictly after now", s.FireAt)
		}
	}
}

func TestGenerateSlotsDegenerateInput(t *testing.T) {
	if got := GenerateSlots(nil, 5, nil, testNow); got != nil {
		t.Fatalf("expected nil for empty preferred times, got %v", got)
	}
	if got := GenerateSlots([]model.PreferredTime{pt(9, 0)}, 0, nil, testNow); got != nil {
		t.Fatalf("expected nil for zero count, got %v", got)
	}
}

func TestSplitCap(t *testing.T) {
	if got := SplitCap(64, 1); got != 64 {
		t.Fatalf("expected 64, got %d", got)
	}
	if got := SplitCap(64, 3); got != 21 {
		t.Fatalf("expected 21 (remainder dropped), got %d", got)
	}
	if got := SplitCap(64, 0); got != 0 {
		t.Fatalf("expected 0 for zero times, got %d", got)
	}
}

func TestFirstDayOffset(t *testing.T) {
	if got := FirstDayOffset(pt(18, 0), testNow); got != 0 {
		t.Fatalf("18:00 is still ahead at 10:00, expected offset 0, got %d", got)
	}
	if got := FirstDayOffset(pt(9, 0), testNow); got != 1 {
		t.Fatalf("09:00 has passed at 10:00, expected offset 1, got %d", got)
	}
	if got := FirstDayOffset(pt(10, 0), testNow); got != 1 {
		t.Fatalf("10:00 is not strictly ahead at 10:00, expected offset 1, got %d", got)
	}
}

func TestEnsureFuture(t *testing.T) {
	past := testNow.Add(-time.Hour)
	if got := EnsureFuture(past, testNow); !got.Equal(past.AddDate(0, 0, 1)) {
		t.Fatalf("expected past instant pushed one day forward, got %v", got)
	}
	future := testNow.Add(time.Hour)
	if got := EnsureFuture(future, testNow); !got.Equal(future) {
		t.Fatalf("expected future instant unchanged, got %v", got)
	}
}
