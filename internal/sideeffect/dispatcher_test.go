package sideeffect

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kazi_backend/platform/logger"
	"kazi_backend/platform/metrics"
)

type stubNotifier struct {
	got []Notification
	err error
}

func (s *stubNotifier) Notify(_ context.Context, n Notification) error {
	s.got = append(s.got, n)
	return s.err
}

type stubChats struct {
	calls int
	err   error
}

func (s *stubChats) GetOrCreateChat(_ context.Context, a, b uuid.UUID) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "chat-" + a.String()[:4] + b.String()[:4], nil
}

type stubMailer struct {
	accepted int
	reviewed int
	err      error
}

func (s *stubMailer) SendQuoteAcceptedEmail(context.Context, string, string, string, int64, string, string) error {
	s.accepted++
	return s.err
}

func (s *stubMailer) SendReviewReceivedEmail(context.Context, string, string, string, float64, string) error {
	s.reviewed++
	return s.err
}

type queued struct {
	kind    string
	payload any
}

type stubQueue struct {
	items []queued
	err   error
}

func (q *stubQueue) Enqueue(_ context.Context, kind string, payload any) error {
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, queued{kind: kind, payload: payload})
	return nil
}

func TestNotifyFailureIsQueuedAndCounted(t *testing.T) {
	notifier := &stubNotifier{err: errors.New("db down")}
	queue := &stubQueue{}
	m := metrics.New()
	d := NewDispatcher(notifier, nil, nil, logger.Discard())
	d.SetQueue(queue)
	d.SetMetrics(m)

	n := Notification{UserID: uuid.New(), Type: TypeQuoteAccepted, Message: "accepted"}
	ok := d.Notify(context.Background(), n)

	assert.False(t, ok)
	require.Len(t, queue.items, 1)
	assert.Equal(t, string(KindNotify), queue.items[0].kind)
	assert.Equal(t, n, queue.items[0].payload)
}

func TestNotifySucceedsWithoutQueueing(t *testing.T) {
	notifier := &stubNotifier{}
	queue := &stubQueue{}
	d := NewDispatcher(notifier, nil, nil, logger.Discard())
	d.SetQueue(queue)

	assert.True(t, d.Notify(context.Background(), Notification{UserID: uuid.New(), Type: "t", Message: "m"}))
	assert.Len(t, notifier.got, 1)
	assert.Empty(t, queue.items)
}

func TestNotifySurvivesCancelledRequest(t *testing.T) {
	notifier := &stubNotifier{}
	d := NewDispatcher(notifier, nil, nil, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, d.Notify(ctx, Notification{UserID: uuid.New(), Type: "t", Message: "m"}))
}

func TestProvisionChatReturnsEmptyIDOnFailure(t *testing.T) {
	chats := &stubChats{err: errors.New("redis down")}
	queue := &stubQueue{}
	d := NewDispatcher(nil, chats, nil, logger.Discard())
	d.SetQueue(queue)

	req := ChatRequest{UserA: uuid.New(), UserB: uuid.New(), JobID: uuid.New()}
	assert.Equal(t, "", d.ProvisionChat(context.Background(), req))
	require.Len(t, queue.items, 1)
	assert.Equal(t, string(KindChat), queue.items[0].kind)
}

func TestQueueFailureIsSwallowed(t *testing.T) {
	d := NewDispatcher(&stubNotifier{err: errors.New("down")}, nil, nil, logger.Discard())
	d.SetQueue(&stubQueue{err: errors.New("outbox down")})

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), Notification{UserID: uuid.New(), Type: "t", Message: "m"})
	})
}

func TestSendEmailSkipsMissingRecipient(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(nil, nil, mailer, logger.Discard())

	assert.False(t, d.SendEmail(context.Background(), EmailMessage{Template: TemplateQuoteAccepted}))
	assert.Equal(t, 0, mailer.accepted)
}

func TestUnknownTemplateIsNotQueued(t *testing.T) {
	queue := &stubQueue{}
	d := NewDispatcher(nil, nil, &stubMailer{}, logger.Discard())
	d.SetQueue(queue)

	assert.False(t, d.SendEmail(context.Background(), EmailMessage{Template: "nope", To: "a@b.co"}))
	assert.Empty(t, queue.items)
}

func TestReplayDecodesEachKind(t *testing.T) {
	notifier := &stubNotifier{}
	chats := &stubChats{}
	mailer := &stubMailer{}
	d := NewDispatcher(notifier, chats, mailer, logger.Discard())

	userID := uuid.New()
	notifyPayload, _ := json.Marshal(Notification{UserID: userID, Type: TypeJobCompleted, Message: "done"})
	chatPayload, _ := json.Marshal(ChatRequest{UserA: uuid.New(), UserB: uuid.New()})
	emailPayload, _ := json.Marshal(EmailMessage{Template: TemplateReviewReceived, To: "p@example.com", Rating: 4.5})

	require.NoError(t, d.Replay(context.Background(), KindNotify, notifyPayload))
	require.NoError(t, d.Replay(context.Background(), KindChat, chatPayload))
	require.NoError(t, d.Replay(context.Background(), KindEmail, emailPayload))

	require.Len(t, notifier.got, 1)
	assert.Equal(t, userID, notifier.got[0].UserID)
	assert.Equal(t, 1, chats.calls)
	assert.Equal(t, 1, mailer.reviewed)
}

func TestReplayReturnsDeliveryError(t *testing.T) {
	d := NewDispatcher(nil, &stubChats{err: errors.New("timeout")}, nil, logger.Discard())

	err := d.Replay(context.Background(), KindChat, json.RawMessage(`{}`))
	require.Error(t, err)

	var payloadErr *PayloadError
	assert.False(t, errors.As(err, &payloadErr))
}

func TestReplayRejectsBadPayload(t *testing.T) {
	d := NewDispatcher(&stubNotifier{}, nil, nil, logger.Discard())

	var payloadErr *PayloadError
	err := d.Replay(context.Background(), KindNotify, json.RawMessage(`not json`))
	assert.True(t, errors.As(err, &payloadErr))

	err = d.Replay(context.Background(), Kind("sms"), json.RawMessage(`{}`))
	assert.True(t, errors.As(err, &payloadErr))
}
