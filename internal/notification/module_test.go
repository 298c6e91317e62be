package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"kazi_backend/internal/events"
	"kazi_backend/internal/notification/outbox"
	"kazi_backend/internal/sideeffect"
	"kazi_backend/platform/logger"

	"github.com/google/uuid"
)

type testOutbox struct {
	records    map[uuid.UUID]outbox.Record
	processing int
	succeeded  []uuid.UUID
	failed     map[uuid.UUID]string
	retries    map[uuid.UUID]time.Time
	retryErr   error
}

func newTestOutbox(recs ...outbox.Record) *testOutbox {
	o := &testOutbox{
		records: make(map[uuid.UUID]outbox.Record),
		failed:  make(map[uuid.UUID]string),
		retries: make(map[uuid.UUID]time.Time),
	}
	for _, r := range recs {
		o.records[r.ID] = r
	}
	return o
}

func (o *testOutbox) GetByID(_ context.Context, id uuid.UUID) (outbox.Record, error) {
	rec, ok := o.records[id]
	if !ok {
		return outbox.Record{}, outbox.ErrNotFound
	}
	return rec, nil
}

func (o *testOutbox) MarkProcessing(_ context.Context, _ uuid.UUID) error {
	o.processing++
	return nil
}

func (o *testOutbox) MarkSucceeded(_ context.Context, id uuid.UUID) error {
	o.succeeded = append(o.succeeded, id)
	return nil
}

func (o *testOutbox) MarkFailed(_ context.Context, id uuid.UUID, lastError string) error {
	o.failed[id] = lastError
	return nil
}

func (o *testOutbox) ScheduleRetry(_ context.Context, id uuid.UUID, runAt time.Time, _ string) error {
	if o.retryErr != nil {
		return o.retryErr
	}
	o.retries[id] = runAt
	return nil
}

type testReplayer struct {
	calls int
	kind  sideeffect.Kind
	err   error
}

func (r *testReplayer) Replay(_ context.Context, kind sideeffect.Kind, _ json.RawMessage) error {
	r.calls++
	r.kind = kind
	return r.err
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newReplayModule(store *testOutbox, replayer *testReplayer) *Module {
	m := &Module{log: logger.Discard(), now: func() time.Time { return fixedNow }}
	m.SetOutbox(store)
	m.SetReplayer(replayer)
	return m
}

func pendingRecord(attempts int) outbox.Record {
	return outbox.Record{
		ID:       uuid.New(),
		Kind:     string(sideeffect.KindChat),
		Payload:  json.RawMessage(`{}`),
		Status:   outbox.StatusEnqueued,
		Attempts: attempts,
	}
}

func TestSideEffectDueMarksSucceededAfterReplay(t *testing.T) {
	rec := pendingRecord(0)
	store := newTestOutbox(rec)
	replayer := &testReplayer{}
	m := newReplayModule(store, replayer)

	if err := m.Handle(context.Background(), events.SideEffectDue{OutboxID: rec.ID}); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if replayer.calls != 1 || replayer.kind != sideeffect.KindChat {
		t.Fatalf("expected one chat replay, got %d calls of %q", replayer.calls, replayer.kind)
	}
	if store.processing != 1 {
		t.Fatalf("expected record to be marked processing once, got %d", store.processing)
	}
	if len(store.succeeded) != 1 || store.succeeded[0] != rec.ID {
		t.Fatalf("expected record to be marked succeeded, got %v", store.succeeded)
	}
}

func TestSideEffectDueSchedulesRetryWithBackoff(t *testing.T) {
	rec := pendingRecord(2)
	store := newTestOutbox(rec)
	m := newReplayModule(store, &testReplayer{err: errors.New("smtp timeout")})

	err := m.Handle(context.Background(), events.SideEffectDue{OutboxID: rec.ID})
	if err == nil {
		t.Fatal("expected replay error to be returned")
	}
	runAt, ok := store.retries[rec.ID]
	if !ok {
		t.Fatal("expected retry to be scheduled")
	}
	if want := fixedNow.Add(2 * time.Minute); !runAt.Equal(want) {
		t.Fatalf("expected retry at %v, got %v", want, runAt)
	}
	if len(store.failed) != 0 {
		t.Fatalf("did not expect record to be failed, got %v", store.failed)
	}
}

func TestSideEffectDueMarksFailedWhenRetriesExhausted(t *testing.T) {
	rec := pendingRecord(maxOutboxRetryAttempts - 1)
	store := newTestOutbox(rec)
	m := newReplayModule(store, &testReplayer{err: errors.New("still down")})

	_ = m.Handle(context.Background(), events.SideEffectDue{OutboxID: rec.ID})

	if _, ok := store.failed[rec.ID]; !ok {
		t.Fatal("expected record to be marked failed")
	}
	if len(store.retries) != 0 {
		t.Fatal("did not expect another retry")
	}
}

func TestSideEffectDueFailsWhenRetryCannotBeScheduled(t *testing.T) {
	rec := pendingRecord(0)
	store := newTestOutbox(rec)
	store.retryErr = errors.New("db down")
	m := newReplayModule(store, &testReplayer{err: errors.New("push failed")})

	_ = m.Handle(context.Background(), events.SideEffectDue{OutboxID: rec.ID})

	if _, ok := store.failed[rec.ID]; !ok {
		t.Fatal("expected record to fall back to failed")
	}
}

func TestSideEffectDueDropsUnusablePayload(t *testing.T) {
	rec := pendingRecord(0)
	store := newTestOutbox(rec)
	m := newReplayModule(store, &testReplayer{err: &sideeffect.PayloadError{Err: errors.New("bad json")}})

	if err := m.Handle(context.Background(), events.SideEffectDue{OutboxID: rec.ID}); err != nil {
		t.Fatalf("expected payload errors to be absorbed, got %v", err)
	}
	if _, ok := store.failed[rec.ID]; !ok {
		t.Fatal("expected record to be marked failed")
	}
	if len(store.retries) != 0 {
		t.Fatal("did not expect a retry for an unusable payload")
	}
}

func TestSideEffectDueSkipsSettledAndMissingRecords(t *testing.T) {
	done := pendingRecord(1)
	done.Status = outbox.StatusSucceeded
	store := newTestOutbox(done)
	replayer := &testReplayer{}
	m := newReplayModule(store, replayer)

	if err := m.Handle(context.Background(), events.SideEffectDue{OutboxID: done.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Handle(context.Background(), events.SideEffectDue{OutboxID: uuid.New()}); err != nil {
		t.Fatalf("unexpected error for missing record: %v", err)
	}
	if replayer.calls != 0 || store.processing != 0 {
		t.Fatalf("expected nothing to be replayed, got %d replays", replayer.calls)
	}
}

func TestComputeOutboxRetryDelay(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{6, 16 * time.Minute},
		{7, 30 * time.Minute},
		{40, 30 * time.Minute},
	}
	for _, tc := range cases {
		if got := computeOutboxRetryDelay(tc.attempt); got != tc.want {
			t.Errorf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}
