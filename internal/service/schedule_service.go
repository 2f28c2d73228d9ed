package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
	"github.com/ilindan-dev/fact-scheduler/internal/events"
	"github.com/ilindan-dev/fact-scheduler/internal/scheduler"
)

// errNoFacts is the user-facing message when the unscheduled pool is empty.
const errNoFacts = "no facts available for the selected language"

// Branch is the reconciliation branch the orchestrator takes on a run. It is
// never persisted; it is recomputed from live state on every invocation.
type Branch int

const (
	// BranchDisabled: notifications are not permitted. Cancel everything.
	BranchDisabled Branch = iota
	// BranchStoreOnly: the store believes facts are scheduled but the queue
	// is empty. Wipe the store's scheduling state.
	BranchStoreOnly
	// BranchQueueOnly: the queue holds entries the store knows nothing
	// about. Cancel them all, then schedule from scratch.
	BranchQueueOnly
	// BranchFull: the queue is at capacity. Nothing to do.
	BranchFull
	// BranchEmpty: the queue is empty. Perform a full schedule up to the cap.
	BranchEmpty
	// BranchPartial: the queue is partially filled. Reconcile stale handles
	// and top up to the cap.
	BranchPartial
)

// classify decides the reconciliation branch from the three live observations:
// permission, the pending-queue size and the store's future-scheduled count.
func classify(enabled bool, queueCount, storeCount, cap int) Branch {
	switch {
	case !enabled:
		return BranchDisabled
	case queueCount == 0 && storeCount > 0:
		return BranchStoreOnly
	case queueCount > 0 && storeCount == 0:
		return BranchQueueOnly
	case queueCount >= cap:
		return BranchFull
	case queueCount == 0:
		return BranchEmpty
	default:
		return BranchPartial
	}
}

// ScheduleStatus is a read-only snapshot of the scheduling state.
type ScheduleStatus struct {
	Enabled      bool
	PendingCount int
	StoreCount   int
	Cap          int
}

// ScheduleService reconciles the pending-notification queue with the fact
// store and the user's preferred times. It is the sole owner of fact state
// transitions; the queue is an independently mutable peer it verifies rather
// than trusts.
type ScheduleService struct {
	facts      repository.FactRepository
	queue      repository.PendingQueue
	prefs      repository.PreferenceSource
	bus        *events.Bus
	prefetcher *ImagePrefetcher
	logger     zerolog.Logger

	cap int
	now func() time.Time

	// mu serializes the public operations so that two concurrent triggers
	// cannot observe the same queue count and schedule past the cap.
	mu sync.Mutex
}

// NewScheduleService creates the scheduling orchestrator. The prefetcher is
// optional and may be nil.
func NewScheduleService(
	cfg *config.Config,
	facts repository.FactRepository,
	queue repository.PendingQueue,
	prefs repository.PreferenceSource,
	bus *events.Bus,
	prefetcher *ImagePrefetcher,
	logger *zerolog.Logger,
) *ScheduleService {
	return &ScheduleService{
		facts:      facts,
		queue:      queue,
		prefs:      prefs,
		bus:        bus,
		prefetcher: prefetcher,
		logger:     logger.With().Str("layer", "schedule_service").Logger(),
		cap:        cfg.Scheduler.Cap,
		now:        time.Now,
	}
}

// TopUp brings the pending queue up to the cap. It is safe to call from any
// trigger (startup, permission change, content refresh) in quick succession;
// runs are serialized and each run infers its branch from live state. It
// never returns an error past this boundary: total failures are reported in
// the result.
func (s *ScheduleService) TopUp(ctx context.Context) model.ScheduleResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topUpLocked(ctx)
}

func (s *ScheduleService) topUpLocked(ctx context.Context) model.ScheduleResult {
	// Delivered content is captured before any branch may rebuild the queue
	// or wipe scheduling state, so it is never lost from the feed.
	moved, err := s.facts.MarkAllPastDueShown(ctx, s.prefs.Language())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to mark past-due facts shown")
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}
	if moved > 0 {
		s.logger.Info().Int64("count", moved).Msg("past-due facts moved to the feed")
		s.bus.Publish(events.FeedRefreshed{Language: s.prefs.Language()})
	}

	enabled, err := s.queue.PermissionStatus(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read permission status")
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}

	pending, err := s.queue.ListPending(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list pending notifications")
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}
	storeCount, err := s.facts.CountFuturePending(ctx, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count future-scheduled facts")
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}

	branch := classify(enabled, len(pending), storeCount, s.cap)
	s.logger.Info().
		Bool("enabled", enabled).
		Int("pending", len(pending)).
		Int("store", storeCount).
		Int("branch", int(branch)).
		Msg("schedule state classified")

	switch branch {
	case BranchDisabled:
		// Past-due facts were already captured above; the remaining
		// scheduling state is wiped unconditionally.
		if err := s.clearLocked(ctx, true); err != nil {
			return model.ScheduleResult{Success: false, Error: err.Error()}
		}
		return model.ScheduleResult{Success: true, Skipped: true}

	case BranchStoreOnly:
		// The queue lost its entries (e.g. it was flushed externally). Drop
		// the store's stale associations; the next run starts from empty.
		if err := s.facts.ClearAllScheduling(ctx); err != nil {
			s.logger.Error().Err(err).Msg("failed to clear orphaned scheduling state")
			return model.ScheduleResult{Success: false, Error: err.Error()}
		}
		s.logger.Warn().Int("store", storeCount).Msg("dropped scheduling state with no queue backing")
		return model.ScheduleResult{Success: true}

	case BranchQueueOnly:
		// The queue holds handles the store does not back. Cancel them and
		// schedule from scratch.
		s.logger.Warn().Int("pending", len(pending)).Msg("cancelling queue entries with no store backing")
		if err := s.queue.CancelAll(ctx); err != nil {
			s.logger.Error().Err(err).Msg("failed to cancel unbacked queue entries")
			return model.ScheduleResult{Success: false, Error: err.Error()}
		}
		return s.scheduleFull(ctx)

	case BranchFull:
		return model.ScheduleResult{Success: true, Count: 0}

	case BranchEmpty:
		return s.scheduleFull(ctx)

	default: // BranchPartial
		return s.topUpPartial(ctx, pending)
	}
}

// scheduleFull builds a complete schedule of up to cap notifications from
// "now", distributing the capacity evenly across the preferred times.
func (s *ScheduleService) scheduleFull(ctx context.Context) model.ScheduleResult {
	now := s.now()
	times := model.CanonicalTimes(s.prefs.PreferredTimes())
	if len(times) == 0 {
		return model.ScheduleResult{Success: false, Error: "no preferred times configured"}
	}

	perTime := scheduler.SplitCap(s.cap, len(times))
	total := perTime * len(times)

	facts, err := s.facts.GetRandomUnscheduled(ctx, total, s.prefs.Language())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch unscheduled facts")
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}
	if len(facts) == 0 {
		return model.ScheduleResult{Success: false, Error: errNoFacts}
	}

	// One block of successive days per preferred time, starting today when
	// the time of day is still ahead, tomorrow otherwise.
	plan := make([]model.Slot, 0, total)
	for _, t := range times {
		offset := scheduler.FirstDayOffset(t, now)
		for d := 0; d < perTime; d++ {
			at := scheduler.EnsureFuture(t.On(now.AddDate(0, 0, offset+d)), now)
			plan = append(plan, model.Slot{FireAt: at, Hour: t.Hour, Minute: t.Minute})
		}
	}

	return s.registerBatch(ctx, facts, plan)
}

// topUpPartial reconciles stale handles and extends the existing schedule up
// to the cap without disturbing live entries.
func (s *ScheduleService) topUpPartial(ctx context.Context, pending []model.PendingNotification) model.ScheduleResult {
	now := s.now()

	handles := make([]string, 0, len(pending))
	var latest time.Time
	for _, p := range pending {
		handles = append(handles, p.Handle)
		if p.FireAt.After(latest) {
			latest = p.FireAt
		}
	}

	// Store associations whose handle vanished from the live queue are dead;
	// their facts return to the unscheduled pool.
	stale, err := s.facts.ClearStaleHandles(ctx, handles)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to clear stale handles")
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}
	if stale > 0 {
		s.logger.Warn().Int64("count", stale).Msg("cleared store associations with no live queue entry")
	}

	needed := s.cap - len(pending)
	facts, err := s.facts.GetRandomUnscheduled(ctx, needed, s.prefs.Language())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch unscheduled facts")
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}
	if len(facts) == 0 {
		return model.ScheduleResult{Success: false, Error: errNoFacts}
	}

	var notBefore *time.Time
	if !latest.IsZero() {
		notBefore = &latest
	}
	count := needed
	if len(facts) < count {
		count = len(facts)
	}
	plan := scheduler.GenerateSlots(s.prefs.PreferredTimes(), count, notBefore, now)

	return s.registerBatch(ctx, facts, plan)
}

// registerBatch pairs facts with slots sequentially, registering and
// persisting one at a time. Per-item failures are logged and skipped so a
// single flaky registration never blocks the rest of the batch; registrations
// stay sequential to preserve the register-then-persist ordering.
func (s *ScheduleService) registerBatch(ctx context.Context, facts []model.Fact, plan []model.Slot) model.ScheduleResult {
	count := 0
	scheduled := make([]model.Fact, 0, len(plan))
	for i := range plan {
		if i >= len(facts) {
			break
		}
		fact := facts[i]
		if err := s.registerAndPersist(ctx, &fact, plan[i].FireAt); err != nil {
			s.logger.Error().Err(err).Stringer("fact_id", fact.ID).Time("fire_at", plan[i].FireAt).
				Msg("failed to schedule fact, continuing with the batch")
			continue
		}
		scheduled = append(scheduled, fact)
		count++
	}

	if s.prefetcher != nil && len(scheduled) > 0 {
		s.prefetcher.Prefetch(ctx, scheduled)
	}

	s.logger.Info().Int("count", count).Int("requested", len(plan)).Msg("scheduling batch finished")
	return model.ScheduleResult{Success: true, Count: count}
}

// registerAndPersist is the two-phase commit unit: the queue registration
// happens first, and the store association is written only once a non-empty
// handle confirms it. A failed registration leaves the fact unscheduled and
// eligible for a later attempt.
func (s *ScheduleService) registerAndPersist(ctx context.Context, fact *model.Fact, fireAt time.Time) error {
	handle, err := s.queue.Register(ctx, fact, fireAt)
	if err != nil {
		return fmt.Errorf("queue registration failed: %w", err)
	}
	if handle == "" {
		return fmt.Errorf("queue returned an empty handle")
	}

	if err := s.facts.MarkScheduled(ctx, fact.ID, fireAt, handle); err != nil {
		// The queue entry is live but unbacked; the next partial run's stale
		// reconciliation cannot see this case, so it is logged loudly.
		s.logger.Error().Err(err).Stringer("fact_id", fact.ID).Str("handle", handle).
			Msg("CRITICAL: failed to persist association after successful registration")
		return fmt.Errorf("persisting schedule association failed: %w", err)
	}
	return nil
}

// ClearAll cancels every pending notification. With clearPastScheduledDates
// false (the reschedule flow) delivered facts are preserved in the feed and
// only future scheduling state is dropped; with true (the permission-revoked
// flow) scheduling state is wiped unconditionally.
func (s *ScheduleService) ClearAll(ctx context.Context, clearPastScheduledDates bool) model.ScheduleResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearLocked(ctx, clearPastScheduledDates); err != nil {
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}
	return model.ScheduleResult{Success: true}
}

func (s *ScheduleService) clearLocked(ctx context.Context, clearPastScheduledDates bool) error {
	if err := s.queue.CancelAll(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to cancel pending notifications")
		return err
	}

	if clearPastScheduledDates {
		if err := s.facts.ClearAllScheduling(ctx); err != nil {
			s.logger.Error().Err(err).Msg("failed to clear scheduling state")
			return err
		}
		return nil
	}

	// Capture delivered content before the scheduling columns are touched.
	moved, err := s.facts.MarkAllPastDueShown(ctx, s.prefs.Language())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to mark past-due facts shown before clearing")
		return err
	}
	if moved > 0 {
		s.bus.Publish(events.FeedRefreshed{Language: s.prefs.Language()})
	}
	if err := s.facts.ClearFutureScheduling(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear future scheduling state")
		return err
	}
	return nil
}

// ShowImmediateFact places one fact directly into the feed with the current
// instant as its delivery time, bypassing the queue. Intended for first-run
// users so the feed is not empty until the first notification fires; it must
// run before the first top-up so that top-up cannot select the same fact.
func (s *ScheduleService) ShowImmediateFact(ctx context.Context) model.ScheduleResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	facts, err := s.facts.GetRandomUnscheduled(ctx, 1, s.prefs.Language())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch a fact for immediate display")
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}
	if len(facts) == 0 {
		return model.ScheduleResult{Success: false, Error: errNoFacts}
	}

	if err := s.facts.MarkShownAt(ctx, facts[0].ID, s.now()); err != nil {
		s.logger.Error().Err(err).Stringer("fact_id", facts[0].ID).Msg("failed to mark fact shown")
		return model.ScheduleResult{Success: false, Error: err.Error()}
	}

	s.bus.Publish(events.FeedRefreshed{Language: s.prefs.Language()})
	return model.ScheduleResult{Success: true, Count: 1}
}

// Status reports the live scheduling state for the API.
func (s *ScheduleService) Status(ctx context.Context) (ScheduleStatus, error) {
	enabled, err := s.queue.PermissionStatus(ctx)
	if err != nil {
		return ScheduleStatus{}, err
	}
	pending, err := s.queue.ListPending(ctx)
	if err != nil {
		return ScheduleStatus{}, err
	}
	storeCount, err := s.facts.CountFuturePending(ctx, "")
	if err != nil {
		return ScheduleStatus{}, err
	}
	return ScheduleStatus{
		Enabled:      enabled,
		PendingCount: len(pending),
		StoreCount:   storeCount,
		Cap:          s.cap,
	}, nil
}
