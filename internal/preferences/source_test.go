package preferences

import (
	"testing"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
)

func newConfig(times []string) *config.Config {
	cfg := &config.Config{}
	cfg.Scheduler.PreferredTimes = times
	cfg.Scheduler.Language = "en"
	cfg.Scheduler.Enabled = true
	return cfg
}

func TestNewSourceCanonicalizesTimes(t *testing.T) {
	src, err := NewSource(newConfig([]string{"21:30", "08:00", "12:15"}))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	times := src.PreferredTimes()
	if len(times) != 3 {
		t.Fatalf("expected 3 times, got %d", len(times))
	}
	for i, want := range []string{"08:00", "12:15", "21:30"} {
		if got := times[i].String(); got != want {
			t.Errorf("times[%d] = %s, want %s", i, got, want)
		}
	}
	if src.Language() != "en" || !src.Enabled() {
		t.Errorf("unexpected language/enabled: %s %v", src.Language(), src.Enabled())
	}
}

func TestNewSourceRejectsEmpty(t *testing.T) {
	if _, err := NewSource(newConfig(nil)); err == nil {
		t.Fatal("expected error for empty preferred times")
	}
}

func TestNewSourceRejectsTooMany(t *testing.T) {
	if _, err := NewSource(newConfig([]string{"01:00", "02:00", "03:00", "04:00"})); err == nil {
		t.Fatal("expected error for more than three preferred times")
	}
}

func TestNewSourceRejectsMalformedTime(t *testing.T) {
	if _, err := NewSource(newConfig([]string{"25:99"})); err == nil {
		t.Fatal("expected error for malformed time")
	}
}
