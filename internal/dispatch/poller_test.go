package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

type stubPending struct {
	due    []model.DueNotification
	err    error
	limits []int
}

func (s *stubPending) PermissionStatus(context.Context) (bool, error) { return true, nil }
func (s *stubPending) SetPermission(context.Context, bool) error      { return nil }
func (s *stubPending) ListPending(context.Context) ([]model.PendingNotification, error) {
	return nil, nil
}
func (s *stubPending) Register(context.Context, *model.Fact, time.Time) (string, error) {
	return "", nil
}
func (s *stubPending) CancelAll(context.Context) error { return nil }
func (s *stubPending) PopDue(_ context.Context, _ time.Time, limit int) ([]model.DueNotification, error) {
	s.limits = append(s.limits, limit)
	return s.due, s.err
}

type stubDispatch struct {
	published []model.DeliveryMessage
	failOn    map[string]bool
}

func (s *stubDispatch) Publish(_ context.Context, m *model.DeliveryMessage) error {
	if s.failOn[m.Handle] {
		return errors.New("broker unavailable")
	}
	s.published = append(s.published, *m)
	return nil
}

func (s *stubDispatch) PublishRetry(context.Context, *model.DeliveryMessage, time.Duration) error {
	return nil
}

func newTestPoller(pending *stubPending, dispatch *stubDispatch) *Poller {
	nop := zerolog.Nop()
	return &Poller{
		pending:   pending,
		dispatch:  dispatch,
		logger:    nop,
		interval:  time.Minute,
		batchSize: 16,
	}
}

func TestPollOncePublishesDueEntries(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()
	pending := &stubPending{due: []model.DueNotification{
		{Handle: "h1", FactID: id1, FireAt: time.Now().Add(-time.Minute)},
		{Handle: "h2", FactID: id2, FireAt: time.Now().Add(-time.Second)},
	}}
	dispatch := &stubDispatch{}

	newTestPoller(pending, dispatch).pollOnce(context.Background())

	if len(pending.limits) != 1 || pending.limits[0] != 16 {
		t.Fatalf("expected one pop with the configured batch size, got %v", pending.limits)
	}
	if len(dispatch.published) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(dispatch.published))
	}
	if dispatch.published[0].FactID != id1 || dispatch.published[0].Handle != "h1" {
		t.Errorf("first message carries wrong identity: %+v", dispatch.published[0])
	}
	if dispatch.published[0].Attempts != 0 {
		t.Errorf("fresh message should start at attempt 0, got %d", dispatch.published[0].Attempts)
	}
}

func TestPollOnceContinuesPastPublishFailure(t *testing.T) {
	pending := &stubPending{due: []model.DueNotification{
		{Handle: "h1", FactID: uuid.New(), FireAt: time.Now()},
		{Handle: "h2", FactID: uuid.New(), FireAt: time.Now()},
	}}
	dispatch := &stubDispatch{failOn: map[string]bool{"h1": true}}

	newTestPoller(pending, dispatch).pollOnce(context.Background())

	if len(dispatch.published) != 1 || dispatch.published[0].Handle != "h2" {
		t.Fatalf("expected only h2 to be published, got %+v", dispatch.published)
	}
}

func TestPollOncePopErrorPublishesNothing(t *testing.T) {
	pending := &stubPending{err: errors.New("redis down")}
	dispatch := &stubDispatch{}

	newTestPoller(pending, dispatch).pollOnce(context.Background())

	if len(dispatch.published) != 0 {
		t.Fatalf("expected no publishes on pop failure, got %d", len(dispatch.published))
	}
}
