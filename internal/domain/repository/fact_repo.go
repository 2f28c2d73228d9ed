package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateRecord is returned when an insert violates a uniqueness constraint.
	ErrDuplicateRecord = errors.New("duplicate record")
)

// FactRepository defines the contract for fact persistence (e.g., a database).
// It is the single owner of every fact's scheduling columns; the pending queue
// is never consulted for them.
type FactRepository interface {
	// Save persists a new fact. Returns ErrDuplicateRecord if an identical
	// fact already exists for the language.
	Save(ctx context.Context, f *model.Fact) (*model.Fact, error)

	// GetByID retrieves a fact by its unique ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Fact, error)

	// GetRandomUnscheduled returns up to n facts in the given language that
	// are neither scheduled nor shown, in random order.
	GetRandomUnscheduled(ctx context.Context, n int, language string) ([]model.Fact, error)

	// MarkScheduled records a confirmed queue registration for the fact.
	// The fact is no longer eligible for GetRandomUnscheduled afterwards.
	MarkScheduled(ctx context.Context, id uuid.UUID, fireAt time.Time, handle string) error

	// MarkShownAt transitions a fact to the shown state with the given
	// delivery instant.
	MarkShownAt(ctx context.Context, id uuid.UUID, shownAt time.Time) error

	// MarkAllPastDueShown transitions every fact whose scheduled instant has
	// passed and which is not yet shown. Returns the number of facts moved.
	// An empty language matches all languages.
	MarkAllPastDueShown(ctx context.Context, language string) (int64, error)

	// ClearFutureScheduling removes scheduling state from facts whose fire
	// instant is still in the future, returning them to the unscheduled pool.
	// Shown facts and past-due facts are left untouched.
	ClearFutureScheduling(ctx context.Context) error

	// ClearAllScheduling removes scheduling state from every not-yet-shown
	// fact unconditionally, including past-due entries.
	ClearAllScheduling(ctx context.Context) error

	// ClearStaleHandles drops the scheduling state of any future-scheduled
	// fact whose handle is not in validHandles. Returns the number cleared.
	ClearStaleHandles(ctx context.Context, validHandles []string) (int64, error)

	// CountFuturePending counts facts scheduled strictly in the future.
	// An empty language matches all languages.
	CountFuturePending(ctx context.Context, language string) (int, error)

	// LatestScheduledAt returns the latest scheduled instant across all
	// facts, or nil when nothing is scheduled.
	LatestScheduledAt(ctx context.Context) (*time.Time, error)

	// ListShown returns up to limit shown facts in the given language,
	// newest delivery first. This backs the user's feed.
	ListShown(ctx context.Context, language string, limit int) ([]model.Fact, error)
}

// PendingQueue defines the contract for the pending-notification registry:
// the bounded queue of registrations waiting to fire. It mirrors the
// capability surface of a mobile OS notification center, including the hard
// cap on concurrently pending entries, and is treated as an independently
// mutable peer of the fact store.
type PendingQueue interface {
	// PermissionStatus reports whether notification delivery is allowed at all.
	PermissionStatus(ctx context.Context) (bool, error)

	// SetPermission records an explicit grant or revocation of the opt-in.
	SetPermission(ctx context.Context, granted bool) error

	// ListPending returns every live registration with its fire instant.
	ListPending(ctx context.Context) ([]model.PendingNotification, error)

	// Register enqueues the fact for delivery at fireAt and returns the
	// assigned handle. Fails when the queue is at capacity.
	Register(ctx context.Context, f *model.Fact, fireAt time.Time) (string, error)

	// CancelAll removes every pending registration.
	CancelAll(ctx context.Context) error

	// PopDue atomically removes and returns up to limit registrations whose
	// fire instant is not after now. Used by the dispatch poller.
	PopDue(ctx context.Context, now time.Time, limit int) ([]model.DueNotification, error)
}

// PreferenceSource supplies the user-controlled scheduling preferences. It is
// injected into the scheduling service at construction time.
type PreferenceSource interface {
	// PreferredTimes returns between one and three wall-clock delivery times.
	PreferredTimes() []model.PreferredTime

	// Language returns the content language tag.
	Language() string

	// Enabled reports whether the user has opted in to notifications.
	Enabled() bool
}

// FeedCache defines the contract for the feed caching layer.
type FeedCache interface {
	// Get retrieves the cached feed for a language. Returns ErrNotFound on miss.
	Get(ctx context.Context, language string) ([]model.Fact, error)

	// Set stores the feed for a language for the given duration.
	Set(ctx context.Context, language string, facts []model.Fact, expiration time.Duration) error

	// Invalidate drops the cached feed for a language.
	Invalidate(ctx context.Context, language string) error
}
