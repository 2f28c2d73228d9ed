// Package preferences provides the configuration-backed preference source.
// It is injected into the scheduling service at construction time, so the
// service never reaches back into configuration at call time.
package preferences

import (
	"fmt"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
)

// maxPreferredTimes bounds how many daily delivery times a user may set.
const maxPreferredTimes = 3

// Ensure Source implements the interface
var _ repository.PreferenceSource = (*Source)(nil)

// Source implements the domain PreferenceSource from application configuration.
type Source struct {
	times    []model.PreferredTime
	language string
	enabled  bool
}

// NewSource parses the configured preferred times and returns the source.
func NewSource(cfg *config.Config) (*Source, error) {
	raw := cfg.Scheduler.PreferredTimes
	if len(raw) == 0 {
		return nil, fmt.Errorf("preferences: at least one preferred time is required")
	}
	if len(raw) > maxPreferredTimes {
		return nil, fmt.Errorf("preferences: at most %d preferred times are supported, got %d", maxPreferredTimes, len(raw))
	}

	times := make([]model.PreferredTime, 0, len(raw))
	for _, s := range raw {
		t, err := model.ParsePreferredTime(s)
		if err != nil {
			return nil, fmt.Errorf("preferences: %w", err)
		}
		times = append(times, t)
	}

	return &Source{
		times:    model.CanonicalTimes(times),
		language: cfg.Scheduler.Language,
		enabled:  cfg.Scheduler.Enabled,
	}, nil
}

// PreferredTimes returns the canonical, ascending preferred times.
func (s *Source) PreferredTimes() []model.PreferredTime {
	out := make([]model.PreferredTime, len(s.times))
	copy(out, s.times)
	return out
}

// Language returns the content language tag.
func (s *Source) Language() string {
	return s.language
}

// Enabled reports the configured notifications opt-in.
func (s *Source) Enabled() bool {
	return s.enabled
}
